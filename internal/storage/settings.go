package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// DefaultEmbedColor is the report color a guild starts with (ghost white).
const DefaultEmbedColor = 0xF8F8FF

// GuildSettings is the per-guild invite-check configuration. ResultsChannelID
// is empty when no results channel has been set.
type GuildSettings struct {
	GuildID          string
	ResultsChannelID string
	CategoryIDs      []string
	IgnoredIDs       []string
	EmbedColor       int
	LastCheck        *time.Time
	InCheck          bool
}

// CreateSettings inserts a default settings row for the guild. Idempotent.
func (s *Store) CreateSettings(ctx context.Context, guildID string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO setting (guild_id) VALUES (?)`, guildID)
	return err
}

// GetSettings returns the guild's settings, or nil when no row exists.
func (s *Store) GetSettings(ctx context.Context, guildID string) (*GuildSettings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT results_channel_id, category_ids, ignored_ids, embed_color, last_check, in_check
		FROM setting WHERE guild_id = ?`, guildID)

	settings := GuildSettings{GuildID: guildID}
	var categories, ignored string
	var lastCheck sql.NullInt64
	var inCheck int
	err := row.Scan(&settings.ResultsChannelID, &categories, &ignored, &settings.EmbedColor, &lastCheck, &inCheck)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	settings.CategoryIDs = splitIDs(categories)
	settings.IgnoredIDs = splitIDs(ignored)
	settings.InCheck = inCheck == 1
	if lastCheck.Valid {
		t := time.Unix(0, lastCheck.Int64)
		settings.LastCheck = &t
	}
	return &settings, nil
}

func (s *Store) SetResultsChannel(ctx context.Context, guildID, channelID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE setting SET results_channel_id = ? WHERE guild_id = ?`, channelID, guildID)
	return err
}

func (s *Store) SetEmbedColor(ctx context.Context, guildID string, color int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE setting SET embed_color = ? WHERE guild_id = ?`, color, guildID)
	return err
}

func (s *Store) SetCategoryIDs(ctx context.Context, guildID string, ids []string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE setting SET category_ids = ? WHERE guild_id = ?`, joinIDs(ids), guildID)
	return err
}

func (s *Store) SetIgnoredIDs(ctx context.Context, guildID string, ids []string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE setting SET ignored_ids = ? WHERE guild_id = ?`, joinIDs(ids), guildID)
	return err
}

func (s *Store) SetLastCheck(ctx context.Context, guildID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE setting SET last_check = ? WHERE guild_id = ?`, at.UnixNano(), guildID)
	return err
}

func (s *Store) SetInCheck(ctx context.Context, guildID string, inCheck bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE setting SET in_check = ? WHERE guild_id = ?`, boolToInt(inCheck), guildID)
	return err
}

// RemoveChannel strips a deleted channel from the category and ignored sets
// and clears the results channel if it matches. The three fields are written
// in one statement so a failure cannot leave the sets half-updated.
func (s *Store) RemoveChannel(ctx context.Context, guildID, channelID string) error {
	settings, err := s.GetSettings(ctx, guildID)
	if err != nil || settings == nil {
		return err
	}

	resultsChannel := settings.ResultsChannelID
	if resultsChannel == channelID {
		resultsChannel = ""
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE setting SET category_ids = ?, ignored_ids = ?, results_channel_id = ?
		WHERE guild_id = ?`,
		joinIDs(removeID(settings.CategoryIDs, channelID)),
		joinIDs(removeID(settings.IgnoredIDs, channelID)),
		resultsChannel,
		guildID,
	)
	return err
}

func (s *Store) DeleteSettings(ctx context.Context, guildID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM setting WHERE guild_id = ?`, guildID)
	return err
}
