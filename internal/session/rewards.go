package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"questlog/internal/engine"
)

// Completion is the one-shot outcome of finishing a quest, kept until consumed
// so surfaces can show reward and level-up overlays.
type Completion struct {
	Quest        engine.Quest
	Reward       engine.Reward
	LeveledUp    bool
	NewLevel     int
	Achievements []engine.Achievement
}

func (d Deps) call(ctx context.Context, fn func(ctx context.Context) error) error {
	cctx, cancel := d.callCtx(ctx)
	defer cancel()
	return fn(cctx)
}

// setCompleted records or removes the completion of q for the day containing on.
// It reports whether the user should be offered to finish the quest.
func (d Deps) setCompleted(ctx context.Context, q engine.Quest, on time.Time, done bool) (bool, error) {
	cal := d.Calendar
	day := cal.StartOfDay(on)
	if !engine.Applicable(cal, q, day) {
		return false, engine.WindowError{Title: q.Title, Day: day}
	}
	anchor := q.CompletionAnchor(cal, day)

	if !done {
		return false, d.call(ctx, func(ctx context.Context) error {
			return d.Data.UnmarkQuestCompleted(ctx, q.ID, anchor)
		})
	}
	err := d.call(ctx, func(ctx context.Context) error {
		return d.Data.MarkQuestCompleted(ctx, q.ID, anchor)
	})
	if err != nil {
		return false, err
	}
	d.recordActivity(ctx)
	return q.ShouldShowFinishConfirmation(cal, day), nil
}

// finish marks q as finished and, only once that succeeded, grants its reward.
// Collaborator failures after the finish are reported but do not undo it.
func (d Deps) finish(ctx context.Context, q engine.Quest) (Completion, error) {
	err := d.call(ctx, func(ctx context.Context) error {
		return d.Data.MarkQuestAsFinished(ctx, q.ID)
	})
	if err != nil {
		return Completion{}, err
	}

	now := d.Now()
	var boosters []engine.BoosterEffect
	if d.Boosters != nil {
		err := d.call(ctx, func(ctx context.Context) error {
			var err error
			boosters, err = d.Boosters.ActiveBoosters(ctx, now)
			return err
		})
		if err != nil {
			log.Printf("[Session] Failed to load boosters, rewarding without them: %v", err)
			boosters = nil
		}
	}

	c := Completion{Quest: q, Reward: d.Rewards.Calculate(q, boosters, now)}
	var errs []error
	if d.Leveler != nil {
		err := d.call(ctx, func(ctx context.Context) error {
			res, err := d.Leveler.AddExperience(ctx, c.Reward.Experience)
			if err != nil {
				return err
			}
			c.LeveledUp = res.LeveledUp
			c.NewLevel = res.NewLevel
			return nil
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	if d.Wallet != nil {
		err := d.call(ctx, func(ctx context.Context) error {
			return d.Wallet.Credit(ctx, c.Reward.Coins, c.Reward.Gems)
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	d.recordActivity(ctx)
	if d.Achievements != nil {
		err := d.call(ctx, func(ctx context.Context) error {
			var err error
			c.Achievements, err = d.Achievements.CheckAchievements(ctx)
			return err
		})
		if err != nil {
			log.Printf("[Session] Achievement check failed: %v", err)
		}
	}
	return c, errors.Join(errs...)
}

func (d Deps) recordActivity(ctx context.Context) {
	if d.Streaks == nil {
		return
	}
	err := d.call(ctx, func(ctx context.Context) error {
		return d.Streaks.RecordActivity(ctx, d.Now())
	})
	if err != nil {
		log.Printf("[Session] Failed to record streak activity: %v", err)
	}
}

func (d Deps) toggleTask(ctx context.Context, q engine.Quest, taskID uuid.UUID) error {
	for _, t := range q.Tasks {
		if t.ID != taskID {
			continue
		}
		return d.call(ctx, func(ctx context.Context) error {
			return d.Data.UpdateTask(ctx, taskID, !t.IsCompleted)
		})
	}
	return fmt.Errorf("%w: %s", engine.ErrTaskNotFound, taskID)
}
