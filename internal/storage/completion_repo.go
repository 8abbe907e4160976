package storage

import (
	"context"
	"fmt"
	"time"
)

type CompletionRepo struct {
	db DBTX
}

func NewCompletionRepo(db DBTX) *CompletionRepo {
	return &CompletionRepo{db: db}
}

// Insert records a completion under the anchor day. Recording the same day
// twice keeps the first row.
func (r *CompletionRepo) Insert(ctx context.Context, questID string, day string, completedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO quest_completions (quest_id, day, completed_at)
		VALUES (?, ?, ?)
	`, questID, day, formatTime(completedAt))
	if err != nil {
		return fmt.Errorf("completion insert: %w", err)
	}
	return nil
}

func (r *CompletionRepo) Delete(ctx context.Context, questID string, day string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM quest_completions WHERE quest_id = ? AND day = ?`, questID, day)
	if err != nil {
		return fmt.Errorf("completion delete: %w", err)
	}
	return nil
}

func (r *CompletionRepo) Count(ctx context.Context) (int, error) {
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quest_completions`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("completion count: %w", err)
	}
	return n, nil
}
