package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"questlog/internal/engine"
	"questlog/internal/events"
)

// DataService is the quest store the session reads from and mutates.
// engine.Service implements it.
type DataService interface {
	FetchAllQuests(ctx context.Context) ([]engine.Quest, error)
	RefreshAllQuests(ctx context.Context, on time.Time) error
	MarkQuestCompleted(ctx context.Context, id uuid.UUID, on time.Time) error
	UnmarkQuestCompleted(ctx context.Context, id uuid.UUID, on time.Time) error
	MarkQuestAsFinished(ctx context.Context, id uuid.UUID) error
	UpdateQuestProgress(ctx context.Context, id uuid.UUID, progress int) error
	UpdateTask(ctx context.Context, taskID uuid.UUID, isCompleted bool) error
	DeleteQuest(ctx context.Context, id uuid.UUID) error
	CreateQuest(ctx context.Context, in engine.CreateQuestInput) (engine.Quest, error)
	GetQuest(ctx context.Context, id uuid.UUID) (engine.Quest, error)
}

type BoosterSource interface {
	ActiveBoosters(ctx context.Context, now time.Time) ([]engine.BoosterEffect, error)
}

type Leveler interface {
	AddExperience(ctx context.Context, xp int) (engine.LevelResult, error)
}

type Wallet interface {
	Credit(ctx context.Context, coins, gems int) error
}

type StreakRecorder interface {
	RecordActivity(ctx context.Context, at time.Time) error
}

type AchievementChecker interface {
	CheckAchievements(ctx context.Context) ([]engine.Achievement, error)
}

// Deps are the collaborators of a session. Boosters, Streaks and Achievements
// may be nil; the related step is then skipped.
type Deps struct {
	Data         DataService
	Rewards      engine.RewardCalculator
	Boosters     BoosterSource
	Leveler      Leveler
	Wallet       Wallet
	Streaks      StreakRecorder
	Achievements AchievementChecker
	Dispatcher   *events.EventDispatcher
	Calendar     engine.Calendar

	// Guard serializes mutations per quest. Share one guard between every
	// session and detail of the process.
	Guard *Guard

	// Now defaults to time.Now.
	Now func() time.Time

	// RequestTimeout bounds every data service call; 0 disables it.
	RequestTimeout time.Duration
}

// ForService fills every collaborator from one engine.Service.
func ForService(svc *engine.Service, rewards engine.RewardCalculator, dispatcher *events.EventDispatcher, timeout time.Duration) Deps {
	return Deps{
		Data:           svc,
		Rewards:        rewards,
		Boosters:       svc,
		Leveler:        svc,
		Wallet:         svc,
		Streaks:        svc,
		Achievements:   svc,
		Dispatcher:     dispatcher,
		Calendar:       svc.Calendar(),
		Guard:          NewGuard(),
		RequestTimeout: timeout,
	}
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Guard == nil {
		d.Guard = NewGuard()
	}
	if d.Calendar.Location == nil {
		d.Calendar = engine.DefaultCalendar()
	}
	return d
}

func (d Deps) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.RequestTimeout)
}

// Guard is the set of quests with a mutation in flight.
type Guard struct {
	mu     sync.Mutex
	active map[uuid.UUID]bool
}

func NewGuard() *Guard {
	return &Guard{active: make(map[uuid.UUID]bool)}
}

// Acquire marks id busy. It fails with engine.ErrQuestBusy if it already is.
func (g *Guard) Acquire(id uuid.UUID) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active[id] {
		return nil, engine.ErrQuestBusy
	}
	g.active[id] = true
	return func() {
		g.mu.Lock()
		delete(g.active, id)
		g.mu.Unlock()
	}, nil
}

func (g *Guard) Busy(id uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active[id]
}
