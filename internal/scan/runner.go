// Package scan implements the invite-check pipeline: eligibility checks,
// the ordered category/channel walk, validation, and report emission.
package scan

import (
	"context"
	"fmt"
	"sort"
	"time"

	"invite-sentry/internal/invite"
	"invite-sentry/internal/storage"
	"invite-sentry/internal/topology"
	"invite-sentry/internal/validator"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// requiredChannelPermissions is what the bot needs to read a channel's
// recent history during a scan.
const requiredChannelPermissions = discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory

// Store is the slice of the storage layer the runner needs.
type Store interface {
	GetSettings(ctx context.Context, guildID string) (*storage.GuildSettings, error)
	GuildInvites(ctx context.Context, guildID string) (map[string]storage.InviteRecord, error)
	SetInCheck(ctx context.Context, guildID string, inCheck bool) error
	SetLastCheck(ctx context.Context, guildID string, at time.Time) error
}

// Cache is a point-lookup view of the live channel cache. Any lookup may
// come back empty at any time; the pipeline treats that as a topology gap,
// not an error.
type Cache interface {
	GuildChannels(guildID string) []*discordgo.Channel
	Channel(channelID string) *discordgo.Channel
	BotPermissions(channelID string) (int64, error)
}

// MessageSource returns up to limit most recent messages for a channel.
type MessageSource interface {
	RecentMessages(channelID string, limit int) ([]*discordgo.Message, error)
}

// Validator resolves and persists a single code.
type Validator interface {
	Check(ctx context.Context, guildID, code string) (validator.Result, error)
}

// Reporter posts a report embed to a channel.
type Reporter interface {
	Emit(channelID string, embed *discordgo.MessageEmbed) error
}

// Reason tags a scan rejection.
type Reason string

const (
	ReasonNoSettings         Reason = "no_settings"
	ReasonCooldown           Reason = "cooldown"
	ReasonNoResultsChannel   Reason = "no_results_channel"
	ReasonResultsChannelGone Reason = "results_channel_gone"
	ReasonWrongChannel       Reason = "wrong_channel"
	ReasonNoCategories       Reason = "no_categories"
	ReasonInProgress         Reason = "in_progress"
	ReasonNoCodes            Reason = "no_codes"
	ReasonRefreshing         Reason = "refreshing"
)

// Rejection is a precondition failure with its user-facing message.
type Rejection struct {
	Reason  Reason
	Message string
}

// Scan is a prepared, eligible scan: the settings copy taken at Prepare
// time and the guild's known codes. Configuration changes made while the
// scan runs take effect on the next one.
type Scan struct {
	Settings storage.GuildSettings
	Known    map[string]storage.InviteRecord
}

type Runner struct {
	store      Store
	cache      Cache
	messages   MessageSource
	validator  Validator
	reporter   Reporter
	logger     *zap.Logger
	cooldown   time.Duration
	fetchLimit int
	now        func() time.Time
}

func NewRunner(store Store, cache Cache, messages MessageSource, v Validator, reporter Reporter, logger *zap.Logger, cooldown time.Duration, fetchLimit int) *Runner {
	return &Runner{
		store:      store,
		cache:      cache,
		messages:   messages,
		validator:  v,
		reporter:   reporter,
		logger:     logger,
		cooldown:   cooldown,
		fetchLimit: fetchLimit,
		now:        time.Now,
	}
}

// Prepare evaluates every scan precondition and, once all pass, marks the
// guild in-progress. A non-nil Rejection means the scan must not run and
// nothing was mutated; an error means a storage failure interrupted the
// checks.
func (r *Runner) Prepare(ctx context.Context, guildID, invokedChannelID string) (*Scan, *Rejection, error) {
	settings, err := r.store.GetSettings(ctx, guildID)
	if err != nil {
		return nil, nil, err
	}
	if settings == nil {
		return nil, &Rejection{ReasonNoSettings, "No settings found for this server. Kick and reinvite the bot."}, nil
	}

	now := r.now()
	if settings.LastCheck != nil {
		nextCheck := settings.LastCheck.Add(r.cooldown)
		if nextCheck.After(now) {
			next := nextCheck.Unix()
			return nil, &Rejection{ReasonCooldown, fmt.Sprintf("You may run another invite check at <t:%d> (<t:%d:R>).", next, next)}, nil
		}
	}
	if settings.ResultsChannelID == "" {
		return nil, &Rejection{ReasonNoResultsChannel, "No results channel has been set for this server. Set one before running an invite check."}, nil
	}
	if r.cache.Channel(settings.ResultsChannelID) == nil {
		return nil, &Rejection{ReasonResultsChannelGone, "The configured results channel no longer exists. Set a new one."}, nil
	}
	if invokedChannelID != settings.ResultsChannelID {
		return nil, &Rejection{ReasonWrongChannel, fmt.Sprintf("This command can only be run in <#%s>.", settings.ResultsChannelID)}, nil
	}
	if len(settings.CategoryIDs) == 0 {
		return nil, &Rejection{ReasonNoCategories, "There are no categories to check. Add at least one before running an invite check."}, nil
	}
	if settings.InCheck {
		return nil, &Rejection{ReasonInProgress, "An invite check is already running for this server. Try again later."}, nil
	}

	known, err := r.store.GuildInvites(ctx, guildID)
	if err != nil {
		return nil, &Rejection{ReasonNoCodes, "There are no invite codes to check."}, nil
	}
	// A checked code not refreshed since the last scan means a revalidation
	// is still in flight somewhere; statistics computed now would be stale.
	if settings.LastCheck != nil {
		for _, record := range known {
			if record.Valid != nil && record.UpdatedAt.Before(*settings.LastCheck) {
				return nil, &Rejection{ReasonRefreshing, "Known invites are still being refreshed. Try again shortly."}, nil
			}
		}
	}

	if err := r.store.SetInCheck(ctx, guildID, true); err != nil {
		return nil, nil, err
	}
	return &Scan{Settings: *settings, Known: known}, nil, nil
}

// Execute walks the topology snapshot, validates codes, and emits per-
// category reports followed by the summary. A report-sink failure aborts
// the rest of the run; the in-progress flag is cleared only after the
// summary is posted.
func (r *Runner) Execute(ctx context.Context, sc *Scan) error {
	guildID := sc.Settings.GuildID
	resultsChannel := sc.Settings.ResultsChannelID
	color := sc.Settings.EmbedColor
	now := r.now()
	report := &Report{Started: now}

	snapshot := topology.Snapshot(
		r.cache.GuildChannels(guildID),
		toSet(sc.Settings.CategoryIDs),
		toSet(sc.Settings.IgnoredIDs),
	)

	for _, category := range snapshot {
		result := r.scanCategory(ctx, sc, category, now)
		if err := r.reporter.Emit(resultsChannel, result.Embed(color, r.fetchLimit, r.now())); err != nil {
			return fmt.Errorf("emit category report: %w", err)
		}
		report.Categories = append(report.Categories, result)
	}

	if err := r.reporter.Emit(resultsChannel, report.SummaryEmbed(color, r.now())); err != nil {
		return fmt.Errorf("emit summary report: %w", err)
	}

	if err := r.store.SetLastCheck(ctx, guildID, r.now()); err != nil {
		return err
	}
	return r.store.SetInCheck(ctx, guildID, false)
}

func (r *Runner) scanCategory(ctx context.Context, sc *Scan, category topology.Category, now time.Time) *CategoryResult {
	result := &CategoryResult{Name: category.Name}
	guildID := sc.Settings.GuildID

	for _, channel := range category.Channels {
		if r.cache.Channel(channel.ID) == nil {
			result.Issues++
			continue
		}
		permissions, err := r.cache.BotPermissions(channel.ID)
		if err != nil || permissions&requiredChannelPermissions != requiredChannelPermissions {
			result.Manual = append(result.Manual, channel.ID)
			continue
		}

		channelResult := ChannelResult{ChannelID: channel.ID}
		if channel.LastMessageID == "" {
			result.Channels = append(result.Channels, channelResult)
			continue
		}

		messages, err := r.messages.RecentMessages(channel.ID, r.fetchLimit)
		if err != nil {
			result.Manual = append(result.Manual, channel.ID)
			continue
		}

		for _, code := range channelCodes(messages) {
			if record, ok := sc.Known[code]; ok && record.Checked {
				if Classify(record, now) {
					channelResult.Good++
				} else {
					channelResult.Bad++
				}
				continue
			}

			outcome, err := r.validator.Check(ctx, guildID, code)
			if err != nil {
				r.logger.Warn("invite validation not persisted",
					zap.String("guild_id", guildID),
					zap.String("code", code),
					zap.Error(err))
			}
			if outcome.Valid {
				channelResult.Good++
			} else {
				channelResult.Bad++
			}
		}
		result.Channels = append(result.Channels, channelResult)
	}
	return result
}

// channelCodes is the deduplicated union of codes across a channel's
// fetched messages, in stable order.
func channelCodes(messages []*discordgo.Message) []string {
	set := make(map[string]struct{})
	for _, message := range messages {
		for code := range invite.ExtractCodes(message.Content) {
			set[code] = struct{}{}
		}
	}
	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
