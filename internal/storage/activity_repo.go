package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ActivityRepo stores the days with at least one completion (for streaks).
type ActivityRepo struct {
	db DBTX
}

func NewActivityRepo(db DBTX) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Record(ctx context.Context, day string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO activity_days (day, recorded_at) VALUES (?, ?)`, day, formatTime(at))
	if err != nil {
		return fmt.Errorf("activity record: %w", err)
	}
	return nil
}

// ListDays returns every activity day, oldest first.
func (r *ActivityRepo) ListDays(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT day FROM activity_days ORDER BY day ASC`)
	if err != nil {
		return nil, fmt.Errorf("activity list: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("activity scan: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("activity rows: %w", err)
	}
	return out, nil
}

// AchievementRepo stores which achievements were earned and when.
type AchievementRepo struct {
	db DBTX
}

func NewAchievementRepo(db DBTX) *AchievementRepo {
	return &AchievementRepo{db: db}
}

func (r *AchievementRepo) Get(ctx context.Context, id string) (*time.Time, error) {
	row := r.db.QueryRowContext(ctx, `SELECT earned_at FROM achievements WHERE id = ?`, id)
	var at string
	if err := row.Scan(&at); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("achievement get: %w", err)
	}
	t, err := parseTime(at)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *AchievementRepo) Insert(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO achievements (id, earned_at) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, formatTime(at))
	if err != nil {
		return fmt.Errorf("achievement insert: %w", err)
	}
	return nil
}

func (r *AchievementRepo) ListIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM achievements ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("achievement list: %w", err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("achievement scan: %w", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("achievement rows: %w", err)
	}
	return out, nil
}
