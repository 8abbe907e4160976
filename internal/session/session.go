package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"questlog/internal/engine"
	"questlog/internal/events"
)

// DatePolicy decides what happens to the selected date on Refresh.
type DatePolicy int

const (
	// FollowToday moves the selection to the refreshed day.
	FollowToday DatePolicy = iota
	// KeepSelection leaves a user-picked date alone.
	KeepSelection
)

// State is what a session publishes to its surface. QuestCompleted, DidLevelUp,
// NewLevel, LastCompletedQuest, LastReward and NewAchievements are one-shot and
// cleared by ConsumeCompletion.
type State struct {
	AllQuests    []engine.Quest
	SelectedDate time.Time
	Items        []engine.DayQuestItem
	IsLoading    bool
	AlertMessage string

	QuestCompleted     bool
	DidLevelUp         bool
	NewLevel           int
	LastCompletedQuest *engine.Quest
	LastReward         engine.Reward
	NewAchievements    []engine.Achievement

	ShowFinishConfirmation bool
	QuestToFinish          *engine.Quest

	SelectedTags []string
	MatchMode    engine.MatchMode
}

func (st State) clone() State {
	st.AllQuests = append([]engine.Quest(nil), st.AllQuests...)
	st.Items = append([]engine.DayQuestItem(nil), st.Items...)
	st.SelectedTags = append([]string(nil), st.SelectedTags...)
	st.NewAchievements = append([]engine.Achievement(nil), st.NewAchievements...)
	return st
}

// Session is a list of quests for one selected date, shared by every list-like
// surface. It is safe for concurrent use.
type Session struct {
	name     string
	policy   DatePolicy
	deps     Deps
	observer *events.FuncObserver

	mu    sync.Mutex
	state State
	pub   publisher[State]
}

// New creates a session and registers it on deps.Dispatcher so it re-fetches
// when another component changes quests. name doubles as the event origin.
func New(name string, policy DatePolicy, deps Deps) *Session {
	deps = deps.withDefaults()
	s := &Session{
		name:   name,
		policy: policy,
		deps:   deps,
		state: State{
			SelectedDate: deps.Calendar.StartOfDay(deps.Now()),
			MatchMode:    engine.MatchAny,
		},
	}
	if deps.Dispatcher != nil {
		s.observer = events.NewFuncObserver("Session:"+name, s.onEvent,
			events.QuestUpdated, events.QuestDeleted, events.QuestCreated, events.QuestCompletedFromDetail)
		deps.Dispatcher.Register(s.observer)
	}
	return s
}

func (s *Session) Name() string { return s.name }

// Close detaches the session from the dispatcher.
func (s *Session) Close() {
	if s.observer != nil {
		s.deps.Dispatcher.Unregister(s.observer)
	}
}

func (s *Session) onEvent(e events.Event) error {
	if e.Origin == s.name {
		return nil
	}
	return s.fetch(e.Context)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Session) Items() []engine.DayQuestItem {
	return s.State().Items
}

// Subscribe calls fn with a snapshot after every state change. The returned
// function removes the subscription.
func (s *Session) Subscribe(fn func(State)) func() {
	return s.pub.subscribe(fn)
}

func (s *Session) update(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	s.state.Items = engine.FilterByTags(
		engine.ItemsForDate(s.deps.Calendar, s.state.AllQuests, s.state.SelectedDate),
		s.state.SelectedTags, s.state.MatchMode)
	snap := s.state.clone()
	s.mu.Unlock()
	s.pub.publish(snap)
}

func (s *Session) fail(err error) error {
	s.update(func(st *State) { st.AlertMessage = err.Error() })
	return err
}

func (s *Session) fetch(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.update(func(st *State) { st.IsLoading = true })
	var quests []engine.Quest
	err := s.deps.call(ctx, func(ctx context.Context) error {
		var err error
		quests, err = s.deps.Data.FetchAllQuests(ctx)
		return err
	})
	s.update(func(st *State) {
		st.IsLoading = false
		if err != nil {
			st.AlertMessage = err.Error()
			return
		}
		st.AllQuests = quests
	})
	if err != nil {
		log.Printf("[Session] %s: fetch failed: %v", s.name, err)
	}
	return err
}

// Load fetches every quest from the data service.
func (s *Session) Load(ctx context.Context) error {
	return s.fetch(ctx)
}

// Refresh rolls repeating quests over to the period containing on, then
// re-fetches. With FollowToday the selection moves to on.
func (s *Session) Refresh(ctx context.Context, on time.Time) error {
	if s.policy == FollowToday {
		s.update(func(st *State) { st.SelectedDate = s.deps.Calendar.StartOfDay(on) })
	}
	err := s.deps.call(ctx, func(ctx context.Context) error {
		return s.deps.Data.RefreshAllQuests(ctx, on)
	})
	if err != nil {
		s.fail(err)
	}
	if ferr := s.fetch(ctx); err == nil {
		err = ferr
	}
	return err
}

func (s *Session) SelectDate(on time.Time) {
	s.update(func(st *State) { st.SelectedDate = s.deps.Calendar.StartOfDay(on) })
}

// SetTagFilter narrows Items to quests matching tags; no tags disables the filter.
func (s *Session) SetTagFilter(tags []string, mode engine.MatchMode) {
	s.update(func(st *State) {
		st.SelectedTags = engine.NormalizeTags(tags)
		st.MatchMode = mode
	})
}

func (s *Session) DismissAlert() {
	s.update(func(st *State) { st.AlertMessage = "" })
}

// ConsumeCompletion returns the pending completion, if any, and clears it.
func (s *Session) ConsumeCompletion() (Completion, bool) {
	var c Completion
	var ok bool
	s.update(func(st *State) {
		if !st.QuestCompleted || st.LastCompletedQuest == nil {
			return
		}
		ok = true
		c = Completion{
			Quest:        *st.LastCompletedQuest,
			Reward:       st.LastReward,
			LeveledUp:    st.DidLevelUp,
			NewLevel:     st.NewLevel,
			Achievements: st.NewAchievements,
		}
		st.QuestCompleted = false
		st.DidLevelUp = false
		st.NewLevel = 0
		st.LastCompletedQuest = nil
		st.LastReward = engine.Reward{}
		st.NewAchievements = nil
	})
	return c, ok
}

// FindQuest looks a loaded quest up by full id or unique id prefix.
func (s *Session) FindQuest(ref string) (engine.Quest, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return engine.Quest{}, fmt.Errorf("%w: empty id", engine.ErrQuestNotFound)
	}
	var found []engine.Quest
	for _, q := range s.State().AllQuests {
		if strings.HasPrefix(q.ID.String(), ref) {
			found = append(found, q)
		}
	}
	switch len(found) {
	case 0:
		return engine.Quest{}, fmt.Errorf("%w: %s", engine.ErrQuestNotFound, ref)
	case 1:
		return found[0], nil
	default:
		return engine.Quest{}, fmt.Errorf("%w: %s", engine.ErrAmbiguousID, ref)
	}
}

// Busy reports whether a mutation of quest id is in flight in this process.
func (s *Session) Busy(id uuid.UUID) bool {
	return s.deps.Guard.Busy(id)
}

func (s *Session) quest(id uuid.UUID) (engine.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.state.AllQuests {
		if q.ID == id {
			return q, nil
		}
	}
	return engine.Quest{}, fmt.Errorf("%w: %s", engine.ErrQuestNotFound, id)
}

func (s *Session) dispatch(ctx context.Context, eventType string, q engine.Quest) {
	if s.deps.Dispatcher == nil {
		return
	}
	s.deps.Dispatcher.Dispatch(events.NewTypedEvent(ctx, eventType, s.name,
		events.QuestChangedPayload{QuestID: q.ID, Title: q.Title}))
}

// mutate runs op on quest id while holding its in-flight slot, then re-fetches
// whatever the outcome.
func (s *Session) mutate(ctx context.Context, id uuid.UUID, op func(q engine.Quest) error) error {
	q, err := s.quest(id)
	if err != nil {
		return s.fail(err)
	}
	release, err := s.deps.Guard.Acquire(id)
	if err != nil {
		return s.fail(err)
	}
	err = op(q)
	release()

	ferr := s.fetch(ctx)
	if err != nil {
		log.Printf("[Session] %s: %s: %v", s.name, q.Title, err)
		return s.fail(err)
	}
	return ferr
}

// Toggle flips the completion of quest id on the selected date.
func (s *Session) Toggle(ctx context.Context, id uuid.UUID) error {
	st := s.State()
	q, err := s.quest(id)
	if err != nil {
		return s.fail(err)
	}
	return s.SetCompleted(ctx, id, st.SelectedDate, !q.IsCompleted(s.deps.Calendar, st.SelectedDate))
}

// SetCompleted records (done) or removes the completion of quest id for the
// day containing on, under the quest's completion anchor. A completion that
// covers the quest's last occurrence raises the finish confirmation.
func (s *Session) SetCompleted(ctx context.Context, id uuid.UUID, on time.Time, done bool) error {
	return s.mutate(ctx, id, func(q engine.Quest) error {
		prompt, err := s.deps.setCompleted(ctx, q, on, done)
		if err != nil {
			return err
		}
		if prompt {
			s.update(func(st *State) {
				st.ShowFinishConfirmation = true
				st.QuestToFinish = &q
			})
		}
		s.dispatch(ctx, events.QuestUpdated, q)
		return nil
	})
}

// Finish marks quest id as finished and grants its reward. A second call fails
// with engine.ErrAlreadyFinished and grants nothing.
func (s *Session) Finish(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, id, func(q engine.Quest) error {
		c, err := s.deps.finish(ctx, q)
		if c.Quest.ID != q.ID {
			return err
		}
		s.update(func(st *State) {
			st.QuestCompleted = true
			st.DidLevelUp = c.LeveledUp
			st.NewLevel = c.NewLevel
			st.LastCompletedQuest = &c.Quest
			st.LastReward = c.Reward
			st.NewAchievements = c.Achievements
			if st.QuestToFinish != nil && st.QuestToFinish.ID == q.ID {
				st.ShowFinishConfirmation = false
				st.QuestToFinish = nil
			}
		})
		s.dispatch(ctx, events.QuestUpdated, q)
		return err
	})
}

// ConfirmFinish finishes the quest the confirmation prompt was raised for.
func (s *Session) ConfirmFinish(ctx context.Context) error {
	var q *engine.Quest
	s.update(func(st *State) {
		if st.ShowFinishConfirmation {
			q = st.QuestToFinish
		}
		st.ShowFinishConfirmation = false
		st.QuestToFinish = nil
	})
	if q == nil {
		return nil
	}
	return s.Finish(ctx, q.ID)
}

func (s *Session) DeclineFinish() {
	s.update(func(st *State) {
		st.ShowFinishConfirmation = false
		st.QuestToFinish = nil
	})
}

// ToggleTask flips a single task of quest questID.
func (s *Session) ToggleTask(ctx context.Context, questID, taskID uuid.UUID) error {
	return s.mutate(ctx, questID, func(q engine.Quest) error {
		if err := s.deps.toggleTask(ctx, q, taskID); err != nil {
			return err
		}
		s.dispatch(ctx, events.QuestUpdated, q)
		return nil
	})
}

func (s *Session) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	return s.mutate(ctx, id, func(q engine.Quest) error {
		err := s.deps.call(ctx, func(ctx context.Context) error {
			return s.deps.Data.UpdateQuestProgress(ctx, id, progress)
		})
		if err != nil {
			return err
		}
		s.dispatch(ctx, events.QuestUpdated, q)
		return nil
	})
}

func (s *Session) Delete(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, id, func(q engine.Quest) error {
		err := s.deps.call(ctx, func(ctx context.Context) error {
			return s.deps.Data.DeleteQuest(ctx, id)
		})
		if err != nil {
			return err
		}
		s.dispatch(ctx, events.QuestDeleted, q)
		return nil
	})
}

// Create stores a new quest and re-fetches.
func (s *Session) Create(ctx context.Context, in engine.CreateQuestInput) (engine.Quest, error) {
	var q engine.Quest
	err := s.deps.call(ctx, func(ctx context.Context) error {
		var err error
		q, err = s.deps.Data.CreateQuest(ctx, in)
		return err
	})
	if err != nil {
		return engine.Quest{}, s.fail(err)
	}
	s.dispatch(ctx, events.QuestCreated, q)
	return q, s.fetch(ctx)
}
