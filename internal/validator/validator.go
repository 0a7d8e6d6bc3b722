// Package validator resolves invite codes against the Discord API and
// persists the outcome.
package validator

import (
	"context"
	"time"

	"invite-sentry/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxInFlight caps concurrent invite lookups per batch; the invite endpoint
// is aggressively rate limited.
const maxInFlight = 2

// Lookup is the single invite RPC the validator needs. *discordgo.Session
// satisfies it.
type Lookup interface {
	InviteComplex(inviteID, guildScheduledEventID string, withCounts, withExpiration bool, options ...discordgo.RequestOption) (*discordgo.Invite, error)
}

// Store is the persistence surface for validation outcomes.
type Store interface {
	UpsertInvite(ctx context.Context, guildID, code string, expiresAt *time.Time, permanent, valid bool) error
}

// Result is a normalized validation outcome.
type Result struct {
	ExpiresAt *time.Time
	Permanent bool
	Valid     bool
}

type Service struct {
	lookup Lookup
	store  Store
	logger *zap.Logger
}

func New(lookup Lookup, store Store, logger *zap.Logger) *Service {
	return &Service{lookup: lookup, store: store, logger: logger}
}

// Check resolves one code and persists the outcome. A lookup failure of any
// kind (unknown code, forbidden, transport error) counts as invalid and is
// persisted too; an outcome is never discarded. The returned error reports
// persistence failure only.
func (s *Service) Check(ctx context.Context, guildID, code string) (Result, error) {
	var result Result
	invite, err := s.lookup.InviteComplex(code, "", false, true)
	if err == nil {
		result.Valid = true
		result.ExpiresAt = invite.ExpiresAt
		result.Permanent = invite.ExpiresAt == nil && invite.MaxAge == 0 && invite.MaxUses == 0
	}

	if err := s.store.UpsertInvite(ctx, guildID, code, result.ExpiresAt, result.Permanent, result.Valid); err != nil {
		return result, err
	}
	return result, nil
}

// CheckBatch validates refs with at most maxInFlight lookups running at
// once. Individual failures are logged, not propagated; each code's outcome
// stands on its own.
func (s *Service) CheckBatch(ctx context.Context, refs []storage.CodeRef) {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(maxInFlight)

	for _, ref := range refs {
		ref := ref
		group.Go(func() error {
			if _, err := s.Check(ctx, ref.GuildID, ref.Code); err != nil {
				s.logger.Warn("invite check not persisted",
					zap.String("guild_id", ref.GuildID),
					zap.String("code", ref.Code),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = group.Wait()
}
