package storage

import (
	"context"
	"database/sql"
	"sort"
	"time"
)

// InviteRecord is one observed invite code for a guild. Validity fields are
// nil until the code has been checked against the Discord API.
type InviteRecord struct {
	GuildID   string
	Code      string
	ExpiresAt *time.Time
	Permanent *bool
	Valid     *bool
	Checked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CodeRef identifies a stored code for the sweeper.
type CodeRef struct {
	GuildID string
	Code    string
}

// CreateInvites inserts unchecked placeholder rows for codes the store does
// not already hold. Codes already present are left untouched.
func (s *Store) CreateInvites(ctx context.Context, guildID string, codes map[string]struct{}) error {
	if len(codes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixNano()
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO invite (guild_id, code, created_at, updated_at)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	ordered := make([]string, 0, len(codes))
	for code := range codes {
		ordered = append(ordered, code)
	}
	sort.Strings(ordered)

	for _, code := range ordered {
		if _, err := stmt.ExecContext(ctx, guildID, code, now, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GuildInvites returns every record for the guild keyed by code. A nil map
// with an error signals a storage failure; an empty map means the guild has
// no codes yet.
func (s *Store) GuildInvites(ctx context.Context, guildID string) (map[string]InviteRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild_id, code, expires_at, is_permanent, is_valid, is_checked, created_at, updated_at
		FROM invite WHERE guild_id = ?`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := make(map[string]InviteRecord)
	for rows.Next() {
		record, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites[record.Code] = record
	}
	return invites, rows.Err()
}

// UncheckedCodes returns up to limit never-checked codes across all guilds,
// oldest first.
func (s *Store) UncheckedCodes(ctx context.Context, limit int) ([]CodeRef, error) {
	return s.codeRefs(ctx, `
		SELECT guild_id, code FROM invite
		WHERE is_checked = 0 ORDER BY created_at LIMIT ?`, limit)
}

// CheckedCodes returns up to limit checked-and-valid codes across all
// guilds, least recently validated first. Codes already marked invalid are
// not revisited.
func (s *Store) CheckedCodes(ctx context.Context, limit int) ([]CodeRef, error) {
	return s.codeRefs(ctx, `
		SELECT guild_id, code FROM invite
		WHERE is_checked = 1 AND is_valid = 1 ORDER BY updated_at LIMIT ?`, limit)
}

func (s *Store) codeRefs(ctx context.Context, query string, limit int) ([]CodeRef, error) {
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []CodeRef
	for rows.Next() {
		var ref CodeRef
		if err := rows.Scan(&ref.GuildID, &ref.Code); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// UpsertInvite records a validation outcome. The row is inserted if the code
// was never observed, otherwise its validity fields are overwritten. Either
// way the record ends up checked with a fresh updated_at.
func (s *Store) UpsertInvite(ctx context.Context, guildID, code string, expiresAt *time.Time, permanent, valid bool) error {
	now := time.Now().UnixNano()
	var expires sql.NullInt64
	if expiresAt != nil {
		expires = sql.NullInt64{Int64: expiresAt.UnixNano(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invite (guild_id, code, expires_at, is_permanent, is_valid, is_checked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (guild_id, code) DO UPDATE SET
			expires_at = excluded.expires_at,
			is_permanent = excluded.is_permanent,
			is_valid = excluded.is_valid,
			is_checked = 1,
			updated_at = excluded.updated_at`,
		guildID, code, expires, boolToInt(permanent), boolToInt(valid), now, now)
	return err
}

// DeleteGuildInvites removes every record for a guild. Used on guild leave.
func (s *Store) DeleteGuildInvites(ctx context.Context, guildID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM invite WHERE guild_id = ?`, guildID)
	return err
}

func scanInvite(rows *sql.Rows) (InviteRecord, error) {
	var record InviteRecord
	var expires, permanent, valid sql.NullInt64
	var checked int
	var created, updated int64
	if err := rows.Scan(&record.GuildID, &record.Code, &expires, &permanent, &valid, &checked, &created, &updated); err != nil {
		return InviteRecord{}, err
	}
	record.Checked = checked == 1
	record.CreatedAt = time.Unix(0, created)
	record.UpdatedAt = time.Unix(0, updated)
	if expires.Valid {
		t := time.Unix(0, expires.Int64)
		record.ExpiresAt = &t
	}
	if permanent.Valid {
		b := permanent.Int64 == 1
		record.Permanent = &b
	}
	if valid.Valid {
		b := valid.Int64 == 1
		record.Valid = &b
	}
	return record, nil
}
