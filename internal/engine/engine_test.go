package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questlog/internal/storage"
)

func newTestService(t *testing.T) (*Service, func()) {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	db, err := storage.Open(ctx, path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	svc := NewService(db, utcCal)
	svc.SetClock(func() time.Time { return time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC) })
	cleanup := func() {
		_ = db.Close()
	}
	return svc, cleanup
}

func setPlayerXP(t *testing.T, svc *Service, totalXP int) {
	t.Helper()
	ctx := context.Background()
	p, err := svc.players.GetOrCreateMain(ctx)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if _, err := svc.players.Add(ctx, p.Key, totalXP-p.XPTotal, 0, 0); err != nil {
		t.Fatalf("update player: %v", err)
	}
}

func dailyInput(title string) CreateQuestInput {
	return CreateQuestInput{
		Title:        title,
		Difficulty:   DifficultyMedium,
		RepeatType:   RepeatDaily,
		CreationDate: day(2024, 1, 1),
		DueDate:      day(2024, 1, 7),
	}
}

func TestXPBoundaries(t *testing.T) {
	if got := XPRequiredForLevel(StartingLevel); got != 0 {
		t.Fatalf("XPRequiredForLevel(1)=%d, want 0", got)
	}
	if got := XPRequiredForLevel(2); got != 100 {
		t.Fatalf("XPRequiredForLevel(2)=%d, want 100", got)
	}
	if got := XPRequiredForLevel(3); got != 283 {
		t.Fatalf("XPRequiredForLevel(3)=%d, want 283", got)
	}
	if got := LevelForTotalXP(99); got != 1 {
		t.Fatalf("LevelForTotalXP(99)=%d, want 1", got)
	}
	if got := LevelForTotalXP(100); got != 2 {
		t.Fatalf("LevelForTotalXP(100)=%d, want 2", got)
	}

	l7 := XPRequiredForLevel(7)
	if got := LevelForTotalXP(l7); got != 7 {
		t.Fatalf("LevelForTotalXP(l7)=%d, want 7", got)
	}
	if got := LevelForTotalXP(l7 - 1); got != 6 {
		t.Fatalf("LevelForTotalXP(l7-1)=%d, want 6", got)
	}
	if got := XPToNextLevel(90); got != 10 {
		t.Fatalf("XPToNextLevel(90)=%d, want 10", got)
	}
}

func TestComputeStreak(t *testing.T) {
	days := []string{"2024-01-01", "2024-01-02", "2024-01-04", "2024-01-05", "2024-01-06"}

	st := ComputeStreak(utcCal, days, day(2024, 1, 7))
	assert.Equal(t, 3, st.Current)
	assert.Equal(t, 3, st.Longest)
	require.NotNil(t, st.LastActive)
	assert.Equal(t, day(2024, 1, 6), *st.LastActive)

	st = ComputeStreak(utcCal, days, day(2024, 1, 8))
	assert.Equal(t, 0, st.Current)
	assert.Equal(t, 3, st.Longest)

	assert.Equal(t, Streak{}, ComputeStreak(utcCal, nil, day(2024, 1, 8)))
}

func TestCreateQuestValidation(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	in := dailyInput("  ")
	_, err := svc.CreateQuest(ctx, in)
	assert.Error(t, err)

	in = dailyInput("Read")
	in.Difficulty = 9
	_, err = svc.CreateQuest(ctx, in)
	assert.Error(t, err)

	in = dailyInput("Read")
	in.DueDate = time.Time{}
	_, err = svc.CreateQuest(ctx, in)
	assert.Error(t, err)

	in = dailyInput(" Read ")
	in.Tasks = []string{" chapter one ", "chapter two"}
	in.Tags = []string{"Study", "study", " evening"}
	q, err := svc.CreateQuest(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Read", q.Title)
	assert.Equal(t, []string{"study", "evening"}, q.Tags)

	got, err := svc.GetQuest(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, "chapter one", got.SortedTasks()[0].Title)
	assert.ElementsMatch(t, []string{"study", "evening"}, got.Tags)
}

func TestCompletionRoundTrip(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	q, err := svc.CreateQuest(ctx, dailyInput("Walk"))
	require.NoError(t, err)

	require.NoError(t, svc.MarkQuestCompleted(ctx, q.ID, day(2024, 1, 3)))
	quests, err := svc.FetchAllQuests(ctx)
	require.NoError(t, err)
	items := ItemsForDate(utcCal, quests, day(2024, 1, 3))
	require.Len(t, items, 1)
	assert.Equal(t, StateDone, items[0].State)

	require.NoError(t, svc.UnmarkQuestCompleted(ctx, q.ID, day(2024, 1, 3)))
	got, err := svc.GetQuest(ctx, q.ID)
	require.NoError(t, err)
	assert.False(t, got.IsCompleted(utcCal, day(2024, 1, 3)))

	err = svc.MarkQuestCompleted(ctx, q.ID, day(2024, 1, 3))
	require.NoError(t, err)
	err = svc.MarkQuestCompleted(ctx, q.ID, day(2024, 1, 3))
	assert.NoError(t, err, "recording the same day twice is a no-op")
}

func TestFinishOnlyOnce(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	q, err := svc.CreateQuest(ctx, dailyInput("Walk"))
	require.NoError(t, err)

	require.NoError(t, svc.MarkQuestAsFinished(ctx, q.ID))
	err = svc.MarkQuestAsFinished(ctx, q.ID)
	assert.True(t, errors.Is(err, ErrAlreadyFinished), "got %v", err)

	got, err := svc.GetQuest(ctx, q.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFinished)
	require.NotNil(t, got.FinishedAt)

	quests, err := svc.FetchAllQuests(ctx)
	require.NoError(t, err)
	assert.Empty(t, ItemsForDate(utcCal, quests, day(2024, 1, 4)))
}

func TestUnknownQuest(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	q, err := svc.CreateQuest(ctx, dailyInput("Walk"))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteQuest(ctx, q.ID))

	assert.ErrorIs(t, svc.DeleteQuest(ctx, q.ID), ErrQuestNotFound)
	assert.ErrorIs(t, svc.MarkQuestAsFinished(ctx, q.ID), ErrQuestNotFound)
	assert.ErrorIs(t, svc.MarkQuestCompleted(ctx, q.ID, day(2024, 1, 3)), ErrQuestNotFound)
	assert.ErrorIs(t, svc.UpdateQuestProgress(ctx, q.ID, 10), ErrQuestNotFound)
	_, err = svc.GetQuest(ctx, q.ID)
	assert.ErrorIs(t, err, ErrQuestNotFound)
}

func TestResolveQuestIDPrefix(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	q, err := svc.CreateQuest(ctx, dailyInput("Walk"))
	require.NoError(t, err)

	id, err := svc.ResolveQuestID(ctx, q.ID.String()[:8])
	require.NoError(t, err)
	assert.Equal(t, q.ID, id)

	_, err = svc.ResolveQuestID(ctx, "zzzz")
	assert.ErrorIs(t, err, ErrQuestNotFound)
}

func TestProgressAndTasks(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	in := dailyInput("Clean")
	in.Tasks = []string{"kitchen", "desk"}
	q, err := svc.CreateQuest(ctx, in)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateQuestProgress(ctx, q.ID, 150))
	require.NoError(t, svc.UpdateTask(ctx, q.Tasks[0].ID, true))

	got, err := svc.GetQuest(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, 1, got.CompletedTaskCount())

	require.NoError(t, svc.UpdateQuestProgress(ctx, q.ID, -5))
	got, err = svc.GetQuest(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Progress)
	assert.Equal(t, 1, got.CompletedTaskCount(), "progress does not touch tasks")
}

func TestRefreshResetsTasksOnNewPeriod(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	in := dailyInput("Clean")
	in.Tasks = []string{"kitchen"}
	q, err := svc.CreateQuest(ctx, in)
	require.NoError(t, err)
	require.NoError(t, svc.UpdateTask(ctx, q.Tasks[0].ID, true))
	require.NoError(t, svc.UpdateQuestProgress(ctx, q.ID, 40))

	// same day as creation: nothing to reset
	require.NoError(t, svc.RefreshAllQuests(ctx, day(2024, 1, 1)))
	got, err := svc.GetQuest(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CompletedTaskCount())

	require.NoError(t, svc.RefreshAllQuests(ctx, day(2024, 1, 2)))
	got, err = svc.GetQuest(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CompletedTaskCount())
	assert.Equal(t, 0, got.Progress)

	// a second refresh in the same period keeps new progress
	require.NoError(t, svc.UpdateTask(ctx, q.Tasks[0].ID, true))
	require.NoError(t, svc.RefreshAllQuests(ctx, day(2024, 1, 2)))
	got, err = svc.GetQuest(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CompletedTaskCount())
}

func TestAddExperienceLevelsUp(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	setPlayerXP(t, svc, 90)
	res, err := svc.AddExperience(ctx, 5)
	require.NoError(t, err)
	assert.False(t, res.LeveledUp)
	assert.Equal(t, 1, res.LevelAfter)

	res, err = svc.AddExperience(ctx, 200)
	require.NoError(t, err)
	assert.True(t, res.LeveledUp)
	assert.Equal(t, 3, res.NewLevel)
	assert.Equal(t, 295, res.XPTotal)

	_, err = svc.AddExperience(ctx, -1)
	assert.Error(t, err)

	require.NoError(t, svc.Credit(ctx, 30, 2))
	stats, err := svc.Player(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Level)
	assert.Equal(t, 30, stats.Coins)
	assert.Equal(t, 2, stats.Gems)
	assert.Equal(t, XPRequiredForLevel(4)-295, stats.XPToNext)
}

func TestConcurrentRewardsAreNotLost(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, 2*workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddExperience(ctx, 10); err != nil {
				errs <- err
			}
			if err := svc.Credit(ctx, 5, 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("reward failed: %v", err)
	}

	stats, err := svc.Player(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, stats.XPTotal)
	assert.Equal(t, 100, stats.Coins)
	assert.Equal(t, 20, stats.Gems)
	assert.Equal(t, LevelForTotalXP(200), stats.Level)
}

func TestLevelUpReportedOnceUnderConcurrency(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	setPlayerXP(t, svc, 90)
	var wg sync.WaitGroup
	var ups atomic.Int32
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.AddExperience(ctx, 5)
			if err == nil && res.LeveledUp {
				ups.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), ups.Load())
}

func TestBoostersExpire(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	past := day(2024, 1, 2)
	future := day(2024, 1, 10)
	_, err := svc.AddBooster(ctx, BoosterEffect{Type: BoostExperience, Multiplier: 1.2, ExpiresAt: &future})
	require.NoError(t, err)
	_, err = svc.AddBooster(ctx, BoosterEffect{Type: BoostCoins, FlatBonus: 5, ExpiresAt: &past})
	require.NoError(t, err)
	_, err = svc.AddBooster(ctx, BoosterEffect{Type: BoostBoth})
	assert.Error(t, err)
	_, err = svc.AddBooster(ctx, BoosterEffect{Type: BoostCoins, FlatBonus: -100})
	assert.Error(t, err)

	active, err := svc.ActiveBoosters(ctx, day(2024, 1, 3))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, BoostExperience, active[0].Type)
	assert.Equal(t, SourceItem, active[0].Source)
}

func TestCheckAchievementsOnlyReportsNewOnes(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	_, err := svc.AddExperience(ctx, 100)
	require.NoError(t, err)

	fresh, err := svc.CheckAchievements(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "first_steps", fresh[0].ID)

	fresh, err = svc.CheckAchievements(ctx)
	require.NoError(t, err)
	assert.Empty(t, fresh)

	checker, err := svc.Achievements(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, checker.CountEarned())
	assert.Len(t, checker.GetAchievements(), 11)

	require.NoError(t, svc.RecordActivity(ctx, day(2024, 1, 3)))
	st, err := svc.Streak(ctx, day(2024, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, 1, st.Current)
}
