package validator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"invite-sentry/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type fakeLookup struct {
	mu       sync.Mutex
	invites  map[string]*discordgo.Invite
	inFlight int
	peak     int
}

func (f *fakeLookup) InviteComplex(inviteID, _ string, _, _ bool, _ ...discordgo.RequestOption) (*discordgo.Invite, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	invite, ok := f.invites[inviteID]
	f.mu.Unlock()
	if !ok {
		return nil, errors.New("404: unknown invite")
	}
	return invite, nil
}

type upsertCall struct {
	guildID   string
	code      string
	expiresAt *time.Time
	permanent bool
	valid     bool
}

type fakeStore struct {
	mu    sync.Mutex
	calls []upsertCall
	fail  bool
}

func (f *fakeStore) UpsertInvite(_ context.Context, guildID, code string, expiresAt *time.Time, permanent, valid bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("store down")
	}
	f.calls = append(f.calls, upsertCall{guildID, code, expiresAt, permanent, valid})
	return nil
}

func TestCheckValidPermanent(t *testing.T) {
	lookup := &fakeLookup{invites: map[string]*discordgo.Invite{"abc": {Code: "abc"}}}
	store := &fakeStore{}
	svc := New(lookup, store, zap.NewNop())

	result, err := svc.Check(context.Background(), "g1", "abc")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Valid || !result.Permanent || result.ExpiresAt != nil {
		t.Fatalf("expected valid permanent result, got %+v", result)
	}
	if len(store.calls) != 1 {
		t.Fatalf("expected one upsert, got %d", len(store.calls))
	}
	if call := store.calls[0]; !call.valid || !call.permanent {
		t.Fatalf("persisted outcome mismatch: %+v", call)
	}
}

func TestCheckValidExpiring(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	lookup := &fakeLookup{invites: map[string]*discordgo.Invite{
		"tmp": {Code: "tmp", ExpiresAt: &expires, MaxAge: 3600},
	}}
	store := &fakeStore{}
	svc := New(lookup, store, zap.NewNop())

	result, err := svc.Check(context.Background(), "g1", "tmp")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Valid || result.Permanent {
		t.Fatalf("expected valid non-permanent result, got %+v", result)
	}
	if result.ExpiresAt == nil || !result.ExpiresAt.Equal(expires) {
		t.Fatalf("expected expiry %v, got %v", expires, result.ExpiresAt)
	}
}

func TestCheckMaxUsesNotPermanent(t *testing.T) {
	lookup := &fakeLookup{invites: map[string]*discordgo.Invite{
		"lim": {Code: "lim", MaxUses: 5},
	}}
	store := &fakeStore{}
	svc := New(lookup, store, zap.NewNop())

	result, err := svc.Check(context.Background(), "g1", "lim")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Valid || result.Permanent {
		t.Fatalf("use-limited invite must not be permanent: %+v", result)
	}
}

func TestCheckFailurePersisted(t *testing.T) {
	lookup := &fakeLookup{invites: map[string]*discordgo.Invite{}}
	store := &fakeStore{}
	svc := New(lookup, store, zap.NewNop())

	result, err := svc.Check(context.Background(), "g1", "missing")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.Valid || result.Permanent || result.ExpiresAt != nil {
		t.Fatalf("expected invalid result, got %+v", result)
	}
	if len(store.calls) != 1 || store.calls[0].valid {
		t.Fatalf("failure must be persisted as invalid, got %+v", store.calls)
	}
}

func TestCheckBatchBoundedConcurrency(t *testing.T) {
	lookup := &fakeLookup{invites: map[string]*discordgo.Invite{}}
	store := &fakeStore{}
	svc := New(lookup, store, zap.NewNop())

	refs := []storage.CodeRef{
		{GuildID: "g1", Code: "a"},
		{GuildID: "g1", Code: "b"},
		{GuildID: "g2", Code: "c"},
		{GuildID: "g2", Code: "d"},
	}
	svc.CheckBatch(context.Background(), refs)

	if lookup.peak > maxInFlight {
		t.Fatalf("expected at most %d lookups in flight, saw %d", maxInFlight, lookup.peak)
	}
	if len(store.calls) != len(refs) {
		t.Fatalf("expected %d upserts, got %d", len(refs), len(store.calls))
	}
}

func TestCheckBatchSurvivesStoreFailure(t *testing.T) {
	lookup := &fakeLookup{invites: map[string]*discordgo.Invite{}}
	store := &fakeStore{fail: true}
	svc := New(lookup, store, zap.NewNop())

	// Must not panic or abort the batch.
	svc.CheckBatch(context.Background(), []storage.CodeRef{{GuildID: "g1", Code: "a"}, {GuildID: "g1", Code: "b"}})
}
