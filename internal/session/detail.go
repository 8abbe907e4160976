package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"questlog/internal/engine"
	"questlog/internal/events"
)

// DetailState is what a single-quest surface renders.
type DetailState struct {
	Quest        engine.Quest
	Loaded       bool
	Deleted      bool
	IsLoading    bool
	AlertMessage string

	ShowFinishConfirmation bool

	// Completion is set once the quest was finished here, until consumed.
	Completion *Completion
}

// Detail drives one quest. Completions are bounds-checked against the quest's
// window like in Session, and finishing broadcasts QuestCompletedFromDetail so
// list sessions re-fetch.
type Detail struct {
	id       uuid.UUID
	origin   string
	deps     Deps
	observer *events.FuncObserver

	mu    sync.Mutex
	state DetailState
	pub   publisher[DetailState]
}

func NewDetail(id uuid.UUID, deps Deps) *Detail {
	deps = deps.withDefaults()
	d := &Detail{
		id:     id,
		origin: "detail:" + id.String(),
		deps:   deps,
	}
	if deps.Dispatcher != nil {
		d.observer = events.NewFuncObserver("Detail:"+id.String(), d.onEvent,
			events.QuestUpdated, events.QuestDeleted)
		deps.Dispatcher.Register(d.observer)
	}
	return d
}

func (d *Detail) Close() {
	if d.observer != nil {
		d.deps.Dispatcher.Unregister(d.observer)
	}
}

func (d *Detail) onEvent(e events.Event) error {
	if e.Origin == d.origin {
		return nil
	}
	p, ok := events.GetPayload[events.QuestChangedPayload](e)
	if ok && p.QuestID != d.id {
		return nil
	}
	if e.Type == events.QuestDeleted {
		d.update(func(st *DetailState) { st.Deleted = true })
		return nil
	}
	return d.Load(e.Context)
}

func (d *Detail) State() DetailState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Detail) Subscribe(fn func(DetailState)) func() {
	return d.pub.subscribe(fn)
}

func (d *Detail) update(fn func(st *DetailState)) {
	d.mu.Lock()
	fn(&d.state)
	snap := d.state
	d.mu.Unlock()
	d.pub.publish(snap)
}

func (d *Detail) fail(err error) error {
	d.update(func(st *DetailState) { st.AlertMessage = err.Error() })
	return err
}

// Load re-reads the quest from the data service.
func (d *Detail) Load(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	d.update(func(st *DetailState) { st.IsLoading = true })
	var q engine.Quest
	err := d.deps.call(ctx, func(ctx context.Context) error {
		var err error
		q, err = d.deps.Data.GetQuest(ctx, d.id)
		return err
	})
	d.update(func(st *DetailState) {
		st.IsLoading = false
		switch {
		case errors.Is(err, engine.ErrQuestNotFound):
			st.Deleted = true
			st.AlertMessage = err.Error()
		case err != nil:
			st.AlertMessage = err.Error()
		default:
			st.Quest = q
			st.Loaded = true
		}
	})
	return err
}

func (d *Detail) mutate(ctx context.Context, op func(q engine.Quest) error) error {
	st := d.State()
	if !st.Loaded {
		if err := d.Load(ctx); err != nil {
			return err
		}
		st = d.State()
	}
	if st.Deleted {
		return d.fail(engine.ErrQuestNotFound)
	}
	release, err := d.deps.Guard.Acquire(d.id)
	if err != nil {
		return d.fail(err)
	}
	err = op(st.Quest)
	release()

	var lerr error
	if !d.State().Deleted {
		lerr = d.Load(ctx)
	}
	if err != nil {
		log.Printf("[Detail] %s: %v", st.Quest.Title, err)
		return d.fail(err)
	}
	return lerr
}

func (d *Detail) dispatch(ctx context.Context, eventType string, payload any) {
	if d.deps.Dispatcher == nil {
		return
	}
	d.deps.Dispatcher.Dispatch(events.Event{Type: eventType, Origin: d.origin, Payload: payload, Context: ctx})
}

// ToggleCompletion flips the completion for the day containing on. Days outside
// the quest's window fail with engine.ErrOutsideWindow.
func (d *Detail) ToggleCompletion(ctx context.Context, on time.Time) error {
	return d.mutate(ctx, func(q engine.Quest) error {
		done := !q.IsCompleted(d.deps.Calendar, on)
		prompt, err := d.deps.setCompleted(ctx, q, on, done)
		if err != nil {
			return err
		}
		if prompt {
			d.update(func(st *DetailState) { st.ShowFinishConfirmation = true })
		}
		d.dispatch(ctx, events.QuestUpdated, events.QuestChangedPayload{QuestID: q.ID, Title: q.Title})
		return nil
	})
}

func (d *Detail) Finish(ctx context.Context) error {
	return d.mutate(ctx, func(q engine.Quest) error {
		c, err := d.deps.finish(ctx, q)
		if c.Quest.ID != q.ID {
			return err
		}
		d.update(func(st *DetailState) {
			st.ShowFinishConfirmation = false
			st.Completion = &c
		})
		d.dispatch(ctx, events.QuestCompletedFromDetail, events.QuestCompletedPayload{
			Quest:     q,
			LeveledUp: c.LeveledUp,
			NewLevel:  c.NewLevel,
		})
		return err
	})
}

func (d *Detail) ConfirmFinish(ctx context.Context) error {
	if !d.State().ShowFinishConfirmation {
		return nil
	}
	return d.Finish(ctx)
}

func (d *Detail) DeclineFinish() {
	d.update(func(st *DetailState) { st.ShowFinishConfirmation = false })
}

func (d *Detail) ToggleTask(ctx context.Context, taskID uuid.UUID) error {
	return d.mutate(ctx, func(q engine.Quest) error {
		if err := d.deps.toggleTask(ctx, q, taskID); err != nil {
			return err
		}
		d.dispatch(ctx, events.QuestUpdated, events.QuestChangedPayload{QuestID: q.ID, Title: q.Title})
		return nil
	})
}

func (d *Detail) UpdateProgress(ctx context.Context, progress int) error {
	return d.mutate(ctx, func(q engine.Quest) error {
		err := d.deps.call(ctx, func(ctx context.Context) error {
			return d.deps.Data.UpdateQuestProgress(ctx, q.ID, progress)
		})
		if err != nil {
			return err
		}
		d.dispatch(ctx, events.QuestUpdated, events.QuestChangedPayload{QuestID: q.ID, Title: q.Title})
		return nil
	})
}

func (d *Detail) Delete(ctx context.Context) error {
	return d.mutate(ctx, func(q engine.Quest) error {
		err := d.deps.call(ctx, func(ctx context.Context) error {
			return d.deps.Data.DeleteQuest(ctx, q.ID)
		})
		if err != nil {
			return err
		}
		d.update(func(st *DetailState) { st.Deleted = true })
		d.dispatch(ctx, events.QuestDeleted, events.QuestChangedPayload{QuestID: q.ID, Title: q.Title})
		return nil
	})
}

func (d *Detail) DismissAlert() {
	d.update(func(st *DetailState) { st.AlertMessage = "" })
}

func (d *Detail) ConsumeCompletion() (Completion, bool) {
	var c *Completion
	d.update(func(st *DetailState) {
		c = st.Completion
		st.Completion = nil
	})
	if c == nil {
		return Completion{}, false
	}
	return *c, true
}
