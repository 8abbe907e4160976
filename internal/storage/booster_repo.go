package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type BoosterRepo struct {
	db DBTX
}

func NewBoosterRepo(db DBTX) *BoosterRepo {
	return &BoosterRepo{db: db}
}

func (r *BoosterRepo) Insert(ctx context.Context, b Booster) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO boosters (type, multiplier, flat_bonus, source, source_id, source_name, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.Type, b.Multiplier, b.FlatBonus, b.Source, b.SourceID, b.SourceName, formatTimePtr(b.ExpiresAt))
	if err != nil {
		return 0, fmt.Errorf("booster insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("booster last insert id: %w", err)
	}
	return id, nil
}

// ListActive returns boosters without expiry or expiring after now.
func (r *BoosterRepo) ListActive(ctx context.Context, now time.Time) ([]Booster, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, b := range all {
		if b.ExpiresAt == nil || now.Before(*b.ExpiresAt) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *BoosterRepo) ListAll(ctx context.Context) ([]Booster, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, multiplier, flat_bonus, source, source_id, source_name, expires_at
		FROM boosters
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("booster list: %w", err)
	}
	defer rows.Close()

	var out []Booster
	for rows.Next() {
		var b Booster
		var expires sql.NullString
		if err := rows.Scan(&b.ID, &b.Type, &b.Multiplier, &b.FlatBonus, &b.Source, &b.SourceID, &b.SourceName, &expires); err != nil {
			return nil, fmt.Errorf("booster scan: %w", err)
		}
		if b.ExpiresAt, err = parseNullTime(expires); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booster rows: %w", err)
	}
	return out, nil
}

// DeleteExpired removes boosters that expired at or before now.
func (r *BoosterRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, b := range all {
		if b.ExpiresAt == nil || now.Before(*b.ExpiresAt) {
			continue
		}
		if _, err := r.db.ExecContext(ctx, `DELETE FROM boosters WHERE id = ?`, b.ID); err != nil {
			return removed, fmt.Errorf("booster delete: %w", err)
		}
		removed++
	}
	return removed, nil
}
