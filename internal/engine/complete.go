package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"questlog/internal/storage"
)

// FetchAllQuests returns every stored quest, newest-created first.
func (s *Service) FetchAllQuests(ctx context.Context) ([]Quest, error) {
	rows, err := s.quests.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Quest, 0, len(rows))
	for _, row := range rows {
		q, err := s.toQuest(row)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// MarkQuestCompleted records a completion under the day containing `on`. The
// caller picks the anchor (see Quest.CompletionAnchor).
func (s *Service) MarkQuestCompleted(ctx context.Context, id uuid.UUID, on time.Time) error {
	if err := s.requireQuest(ctx, id); err != nil {
		return err
	}
	return s.completions.Insert(ctx, id.String(), s.cal.DayKey(on), s.now())
}

func (s *Service) UnmarkQuestCompleted(ctx context.Context, id uuid.UUID, on time.Time) error {
	if err := s.requireQuest(ctx, id); err != nil {
		return err
	}
	return s.completions.Delete(ctx, id.String(), s.cal.DayKey(on))
}

// MarkQuestAsFinished returns ErrAlreadyFinished if the quest was finished before,
// so at most one caller ever sees a successful finish.
func (s *Service) MarkQuestAsFinished(ctx context.Context, id uuid.UUID) error {
	ok, err := s.quests.MarkFinished(ctx, id.String(), s.now())
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if err := s.requireQuest(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrAlreadyFinished, id)
}

// UpdateQuestProgress stores progress clamped to 0..100.
func (s *Service) UpdateQuestProgress(ctx context.Context, id uuid.UUID, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	ok, err := s.quests.UpdateProgress(ctx, id.String(), progress)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrQuestNotFound, id)
	}
	return nil
}

func (s *Service) UpdateTask(ctx context.Context, taskID uuid.UUID, isCompleted bool) error {
	ok, err := s.tasks.SetCompleted(ctx, taskID.String(), isCompleted)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return nil
}

func (s *Service) DeleteQuest(ctx context.Context, id uuid.UUID) error {
	var found bool
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		found, err = s.quests.WithTx(tx).Delete(ctx, id.String())
		return err
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrQuestNotFound, id)
	}
	return nil
}

// RefreshAllQuests rolls repeating quests over to the period containing `on`:
// quests entering a new period get their tasks and progress cleared. Expired
// boosters are dropped as well.
func (s *Service) RefreshAllQuests(ctx context.Context, on time.Time) error {
	rows, err := s.quests.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if row.IsFinished || row.RepeatType == string(RepeatOneTime) {
			continue
		}
		q, err := s.toQuest(row)
		if err != nil {
			return err
		}
		key := s.cal.DayKey(q.CompletionAnchor(s.cal, on))
		if row.TasksResetKey != nil && *row.TasksResetKey == key {
			continue
		}
		err = storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			return s.quests.WithTx(tx).ResetTasks(ctx, row.ID, key)
		})
		if err != nil {
			return err
		}
	}
	if _, err := s.boosters.DeleteExpired(ctx, s.now()); err != nil {
		return err
	}
	return nil
}

func (s *Service) requireQuest(ctx context.Context, id uuid.UUID) error {
	row, err := s.quests.Get(ctx, id.String())
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("%w: %s", ErrQuestNotFound, id)
	}
	return nil
}
