package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// TaskRepo manages the checklist items of quests.
type TaskRepo struct {
	db DBTX
}

func NewTaskRepo(db DBTX) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) Get(ctx context.Context, id string) (*QuestTask, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, quest_id, title, is_completed, sort_order
		FROM quest_tasks
		WHERE id = ?
	`, id)

	var t QuestTask
	var done int
	if err := row.Scan(&t.ID, &t.QuestID, &t.Title, &done, &t.Order); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("task get: %w", err)
	}
	t.IsCompleted = done != 0
	return &t, nil
}

// SetCompleted reports false when no task has that id.
func (r *TaskRepo) SetCompleted(ctx context.Context, id string, completed bool) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE quest_tasks SET is_completed = ? WHERE id = ?`, boolToInt(completed), id)
	if err != nil {
		return false, fmt.Errorf("task set completed: %w", err)
	}
	return affected(res)
}
