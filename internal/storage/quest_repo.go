package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type QuestRepo struct {
	db DBTX
}

func NewQuestRepo(db DBTX) *QuestRepo {
	return &QuestRepo{db: db}
}

// WithTx returns a repo bound to tx.
func (r *QuestRepo) WithTx(tx *sql.Tx) *QuestRepo {
	return &QuestRepo{db: tx}
}

// Insert stores the quest with its tasks and tags. Callers should run it in a tx.
func (r *QuestRepo) Insert(ctx context.Context, q Quest) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO quests (
			id, title, info, is_main, difficulty,
			created_at, due_at, repeat_type, scheduled_days,
			is_finished, finished_at, progress, tasks_reset_key
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, q.ID, q.Title, q.Info, boolToInt(q.IsMainQuest), q.Difficulty,
		formatTime(q.CreatedAt), formatTime(q.DueAt), q.RepeatType, encodeDays(q.ScheduledDays),
		boolToInt(q.IsFinished), formatTimePtr(q.FinishedAt), q.Progress, q.TasksResetKey)
	if err != nil {
		return fmt.Errorf("quest insert: %w", err)
	}

	for _, t := range q.Tasks {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO quest_tasks (id, quest_id, title, is_completed, sort_order)
			VALUES (?, ?, ?, ?, ?)
		`, t.ID, q.ID, t.Title, boolToInt(t.IsCompleted), t.Order); err != nil {
			return fmt.Errorf("quest task insert: %w", err)
		}
	}
	for _, tag := range q.Tags {
		if _, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO quest_tags (quest_id, tag) VALUES (?, ?)`, q.ID, tag); err != nil {
			return fmt.Errorf("quest tag insert: %w", err)
		}
	}
	return nil
}

const questColumns = `id, title, info, is_main, difficulty, created_at, due_at, repeat_type,
	scheduled_days, is_finished, finished_at, progress, tasks_reset_key`

// Get returns the quest with tasks, tags and completions, or nil if missing.
func (r *QuestRepo) Get(ctx context.Context, id string) (*Quest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+questColumns+` FROM quests WHERE id = ?`, id)
	q, err := scanQuest(row)
	if err != nil || q == nil {
		return q, err
	}
	list := []Quest{*q}
	if err := r.loadChildren(ctx, list, `WHERE quest_id = ?`, id); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ListAll returns every quest, newest-created first.
func (r *QuestRepo) ListAll(ctx context.Context) ([]Quest, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+questColumns+` FROM quests ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("quest list: %w", err)
	}
	defer rows.Close()

	var out []Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("quest list rows: %w", err)
	}
	if err := r.loadChildren(ctx, out, ""); err != nil {
		return nil, err
	}
	return out, nil
}

// FindIDsByPrefix returns ids starting with prefix (at most limit).
func (r *QuestRepo) FindIDsByPrefix(ctx context.Context, prefix string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM quests WHERE id LIKE ? || '%' ORDER BY id LIMIT ?`, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("quest prefix lookup: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("quest prefix scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("quest prefix rows: %w", err)
	}
	return ids, nil
}

// MarkFinished flips is_finished once. It reports false when the quest is
// missing or was already finished.
func (r *QuestRepo) MarkFinished(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE quests SET is_finished = 1, finished_at = ?
		WHERE id = ? AND is_finished = 0
	`, formatTime(at), id)
	if err != nil {
		return false, fmt.Errorf("quest mark finished: %w", err)
	}
	return affected(res)
}

func (r *QuestRepo) UpdateProgress(ctx context.Context, id string, progress int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE quests SET progress = ? WHERE id = ?`, progress, id)
	if err != nil {
		return false, fmt.Errorf("quest update progress: %w", err)
	}
	return affected(res)
}

// ResetTasks clears task completion and progress and stores the reset key. Run
// it through WithTx so both updates land together.
func (r *QuestRepo) ResetTasks(ctx context.Context, id string, resetKey string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE quest_tasks SET is_completed = 0 WHERE quest_id = ?`, id); err != nil {
		return fmt.Errorf("quest reset tasks: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE quests SET progress = 0, tasks_reset_key = ? WHERE id = ?`, resetKey, id); err != nil {
		return fmt.Errorf("quest reset key: %w", err)
	}
	return nil
}

// Delete removes the quest and everything hanging off it.
func (r *QuestRepo) Delete(ctx context.Context, id string) (bool, error) {
	for _, stmt := range []string{
		`DELETE FROM quest_completions WHERE quest_id = ?`,
		`DELETE FROM quest_tags WHERE quest_id = ?`,
		`DELETE FROM quest_tasks WHERE quest_id = ?`,
	} {
		if _, err := r.db.ExecContext(ctx, stmt, id); err != nil {
			return false, fmt.Errorf("quest delete children: %w", err)
		}
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM quests WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("quest delete: %w", err)
	}
	return affected(res)
}

func (r *QuestRepo) loadChildren(ctx context.Context, quests []Quest, where string, args ...any) error {
	if len(quests) == 0 {
		return nil
	}
	idx := make(map[string]int, len(quests))
	for i := range quests {
		idx[quests[i].ID] = i
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, quest_id, title, is_completed, sort_order FROM quest_tasks `+where+`
		ORDER BY quest_id, sort_order, id`, args...)
	if err != nil {
		return fmt.Errorf("quest tasks list: %w", err)
	}
	for rows.Next() {
		var t QuestTask
		var done int
		if err := rows.Scan(&t.ID, &t.QuestID, &t.Title, &done, &t.Order); err != nil {
			rows.Close()
			return fmt.Errorf("quest task scan: %w", err)
		}
		t.IsCompleted = done != 0
		if i, ok := idx[t.QuestID]; ok {
			quests[i].Tasks = append(quests[i].Tasks, t)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("quest tasks rows: %w", err)
	}

	pairs := func(query, label string, add func(q *Quest, v string)) error {
		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("quest %s list: %w", label, err)
		}
		defer rows.Close()
		for rows.Next() {
			var questID, v string
			if err := rows.Scan(&questID, &v); err != nil {
				return fmt.Errorf("quest %s scan: %w", label, err)
			}
			if i, ok := idx[questID]; ok {
				add(&quests[i], v)
			}
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("quest %s rows: %w", label, err)
		}
		return nil
	}

	if err := pairs(`SELECT quest_id, tag FROM quest_tags `+where+` ORDER BY quest_id, tag`, "tags",
		func(q *Quest, v string) { q.Tags = append(q.Tags, v) }); err != nil {
		return err
	}
	return pairs(`SELECT quest_id, day FROM quest_completions `+where+` ORDER BY quest_id, day`, "completions",
		func(q *Quest, v string) { q.CompletionDays = append(q.CompletionDays, v) })
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuest(row scanner) (*Quest, error) {
	var (
		q          Quest
		isMain     int
		createdAt  string
		dueAt      string
		days       string
		finished   int
		finishedAt sql.NullString
		resetKey   sql.NullString
	)
	if err := row.Scan(&q.ID, &q.Title, &q.Info, &isMain, &q.Difficulty, &createdAt, &dueAt,
		&q.RepeatType, &days, &finished, &finishedAt, &q.Progress, &resetKey); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("quest scan: %w", err)
	}

	var err error
	if q.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if q.DueAt, err = parseTime(dueAt); err != nil {
		return nil, err
	}
	if q.FinishedAt, err = parseNullTime(finishedAt); err != nil {
		return nil, err
	}
	if q.ScheduledDays, err = decodeDays(days); err != nil {
		return nil, err
	}
	q.IsMainQuest = isMain != 0
	q.IsFinished = finished != 0
	if resetKey.Valid {
		v := resetKey.String
		q.TasksResetKey = &v
	}
	return &q, nil
}

func encodeDays(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func decodeDays(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		d, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("decode scheduled days %q: %w", s, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
