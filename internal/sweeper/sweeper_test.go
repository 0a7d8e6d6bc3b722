package sweeper

import (
	"context"
	"errors"
	"testing"

	"invite-sentry/internal/storage"

	"go.uber.org/zap"
)

type fakeStore struct {
	unchecked []storage.CodeRef
	checked   []storage.CodeRef
	err       error
	limits    []int
}

func (f *fakeStore) UncheckedCodes(_ context.Context, limit int) ([]storage.CodeRef, error) {
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.unchecked) {
		return f.unchecked[:limit], nil
	}
	return f.unchecked, nil
}

func (f *fakeStore) CheckedCodes(_ context.Context, limit int) ([]storage.CodeRef, error) {
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.checked) {
		return f.checked[:limit], nil
	}
	return f.checked, nil
}

type fakeValidator struct {
	batches [][]storage.CodeRef
}

func (f *fakeValidator) CheckBatch(_ context.Context, refs []storage.CodeRef) {
	f.batches = append(f.batches, refs)
}

func TestSweepUnchecked(t *testing.T) {
	store := &fakeStore{unchecked: []storage.CodeRef{
		{GuildID: "g1", Code: "a"},
		{GuildID: "g2", Code: "b"},
		{GuildID: "g1", Code: "c"},
		{GuildID: "g3", Code: "d"},
		{GuildID: "g1", Code: "e"},
	}}
	v := &fakeValidator{}
	s := New(store, v, zap.NewNop(), 4)

	s.sweepUnchecked(context.Background())

	if len(store.limits) != 1 || store.limits[0] != 4 {
		t.Fatalf("expected one query with limit 4, got %v", store.limits)
	}
	if len(v.batches) != 1 || len(v.batches[0]) != 4 {
		t.Fatalf("expected one batch of 4, got %v", v.batches)
	}
}

func TestSweepCheckedEmptyBatch(t *testing.T) {
	store := &fakeStore{}
	v := &fakeValidator{}
	s := New(store, v, zap.NewNop(), 4)

	s.sweepChecked(context.Background())

	if len(v.batches) != 0 {
		t.Fatalf("empty batch must not hit the validator, got %v", v.batches)
	}
}

func TestSweepSurvivesStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	v := &fakeValidator{}
	s := New(store, v, zap.NewNop(), 4)

	s.sweepUnchecked(context.Background())
	s.sweepChecked(context.Background())

	if len(v.batches) != 0 {
		t.Fatalf("failed queries must not produce batches, got %v", v.batches)
	}
}
