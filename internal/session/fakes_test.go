package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"questlog/internal/engine"
	"questlog/internal/events"
)

var testCal = engine.Calendar{Location: time.UTC, FirstWeekday: time.Monday}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testNow() time.Time {
	return time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
}

// fakeData is an in-memory DataService.
type fakeData struct {
	mu     sync.Mutex
	quests map[uuid.UUID]engine.Quest
	calls  []string

	// gate, when set, holds MarkQuestCompleted until closed; entered is signalled first.
	gate    chan struct{}
	entered chan struct{}

	blockFetch bool
	markErr    error
}

func newFakeData() *fakeData {
	return &fakeData{quests: map[uuid.UUID]engine.Quest{}}
}

func cloneQuest(q engine.Quest) engine.Quest {
	c := q
	c.Tasks = append([]engine.QuestTask(nil), q.Tasks...)
	c.Tags = append([]string(nil), q.Tags...)
	c.Completions = make(map[string]bool, len(q.Completions))
	for k, v := range q.Completions {
		c.Completions[k] = v
	}
	return c
}

func (f *fakeData) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeData) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeData) Quest(id uuid.UUID) engine.Quest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneQuest(f.quests[id])
}

func (f *fakeData) put(q engine.Quest) engine.Quest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	f.quests[q.ID] = cloneQuest(q)
	return q
}

func (f *fakeData) FetchAllQuests(ctx context.Context) ([]engine.Quest, error) {
	f.mu.Lock()
	block := f.blockFetch
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("fetch")
	out := make([]engine.Quest, 0, len(f.quests))
	for _, q := range f.quests {
		out = append(out, cloneQuest(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreationDate.After(out[j].CreationDate) })
	return out, nil
}

func (f *fakeData) RefreshAllQuests(ctx context.Context, on time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("refresh " + testCal.DayKey(on))
	return nil
}

func (f *fakeData) MarkQuestCompleted(ctx context.Context, id uuid.UUID, on time.Time) error {
	f.mu.Lock()
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("mark " + testCal.DayKey(on))
	if f.markErr != nil {
		return f.markErr
	}
	q, ok := f.quests[id]
	if !ok {
		return fmt.Errorf("%w: %s", engine.ErrQuestNotFound, id)
	}
	if q.Completions == nil {
		q.Completions = map[string]bool{}
	}
	q.Completions[testCal.DayKey(on)] = true
	f.quests[id] = q
	return nil
}

func (f *fakeData) UnmarkQuestCompleted(ctx context.Context, id uuid.UUID, on time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("unmark " + testCal.DayKey(on))
	q, ok := f.quests[id]
	if !ok {
		return fmt.Errorf("%w: %s", engine.ErrQuestNotFound, id)
	}
	delete(q.Completions, testCal.DayKey(on))
	return nil
}

func (f *fakeData) MarkQuestAsFinished(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("finish")
	q, ok := f.quests[id]
	if !ok {
		return fmt.Errorf("%w: %s", engine.ErrQuestNotFound, id)
	}
	if q.IsFinished {
		return fmt.Errorf("%w: %s", engine.ErrAlreadyFinished, id)
	}
	now := testNow()
	q.IsFinished = true
	q.FinishedAt = &now
	f.quests[id] = q
	return nil
}

func (f *fakeData) UpdateQuestProgress(ctx context.Context, id uuid.UUID, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("progress %d", progress))
	q, ok := f.quests[id]
	if !ok {
		return fmt.Errorf("%w: %s", engine.ErrQuestNotFound, id)
	}
	q.Progress = progress
	f.quests[id] = q
	return nil
}

func (f *fakeData) UpdateTask(ctx context.Context, taskID uuid.UUID, isCompleted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("task %t", isCompleted))
	for id, q := range f.quests {
		for i, t := range q.Tasks {
			if t.ID == taskID {
				q.Tasks[i].IsCompleted = isCompleted
				f.quests[id] = q
				return nil
			}
		}
	}
	return fmt.Errorf("%w: %s", engine.ErrTaskNotFound, taskID)
}

func (f *fakeData) DeleteQuest(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete")
	if _, ok := f.quests[id]; !ok {
		return fmt.Errorf("%w: %s", engine.ErrQuestNotFound, id)
	}
	delete(f.quests, id)
	return nil
}

func (f *fakeData) CreateQuest(ctx context.Context, in engine.CreateQuestInput) (engine.Quest, error) {
	if in.Title == "" {
		return engine.Quest{}, fmt.Errorf("title is required")
	}
	q := engine.Quest{
		ID:           uuid.New(),
		Title:        in.Title,
		IsMainQuest:  in.IsMainQuest,
		Difficulty:   in.Difficulty,
		CreationDate: in.CreationDate,
		DueDate:      in.DueDate,
		RepeatType:   in.RepeatType,
		Tags:         engine.NormalizeTags(in.Tags),
	}
	if q.CreationDate.IsZero() {
		q.CreationDate = testNow()
	}
	if len(in.ScheduledDays) > 0 {
		q.ScheduledDays = map[engine.Weekday]bool{}
		for _, d := range in.ScheduledDays {
			q.ScheduledDays[d] = true
		}
	}
	for i, title := range in.Tasks {
		q.Tasks = append(q.Tasks, engine.QuestTask{ID: uuid.New(), Title: title, Order: i})
	}
	f.mu.Lock()
	f.record("create")
	f.mu.Unlock()
	return f.put(q), nil
}

func (f *fakeData) GetQuest(ctx context.Context, id uuid.UUID) (engine.Quest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quests[id]
	if !ok {
		return engine.Quest{}, fmt.Errorf("%w: %s", engine.ErrQuestNotFound, id)
	}
	return cloneQuest(q), nil
}

// fakeProgress implements the reward collaborators in memory.
type fakeProgress struct {
	mu           sync.Mutex
	xp           int
	coins, gems  int
	activity     []time.Time
	boosters     []engine.BoosterEffect
	achievements []engine.Achievement
	checks       int
}

func (p *fakeProgress) ActiveBoosters(ctx context.Context, now time.Time) ([]engine.BoosterEffect, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.boosters, nil
}

func (p *fakeProgress) AddExperience(ctx context.Context, xp int) (engine.LevelResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	before := engine.LevelForTotalXP(p.xp)
	p.xp += xp
	after := engine.LevelForTotalXP(p.xp)
	res := engine.LevelResult{LevelAfter: after, XPTotal: p.xp}
	if after > before {
		res.LeveledUp = true
		res.NewLevel = after
	}
	return res, nil
}

func (p *fakeProgress) Credit(ctx context.Context, coins, gems int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.coins += coins
	p.gems += gems
	return nil
}

func (p *fakeProgress) RecordActivity(ctx context.Context, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activity = append(p.activity, at)
	return nil
}

func (p *fakeProgress) CheckAchievements(ctx context.Context) ([]engine.Achievement, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checks++
	fresh := p.achievements
	p.achievements = nil
	return fresh, nil
}

type mockLeveler struct {
	mock.Mock
}

func (m *mockLeveler) AddExperience(ctx context.Context, xp int) (engine.LevelResult, error) {
	args := m.Called(ctx, xp)
	return args.Get(0).(engine.LevelResult), args.Error(1)
}

type mockWallet struct {
	mock.Mock
}

func (m *mockWallet) Credit(ctx context.Context, coins, gems int) error {
	args := m.Called(ctx, coins, gems)
	return args.Error(0)
}

func newTestDeps(data *fakeData, prog *fakeProgress) Deps {
	return Deps{
		Data:           data,
		Rewards:        engine.NewRewardCalculator(engine.DefaultBaseExperience, engine.DebugBaseExperience, false),
		Boosters:       prog,
		Leveler:        prog,
		Wallet:         prog,
		Streaks:        prog,
		Achievements:   prog,
		Dispatcher:     events.NewEventDispatcher(),
		Calendar:       testCal,
		Guard:          NewGuard(),
		Now:            testNow,
		RequestTimeout: time.Second,
	}
}

func dailyQuest(title string) engine.Quest {
	return engine.Quest{
		Title:        title,
		Difficulty:   engine.DifficultyMedium,
		CreationDate: day(2024, 1, 1),
		DueDate:      day(2024, 1, 7),
		RepeatType:   engine.RepeatDaily,
	}
}
