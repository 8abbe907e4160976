package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questlog/internal/engine"
	"questlog/internal/events"
)

func TestDetailFinishNotifiesListSessions(t *testing.T) {
	ctx := context.Background()
	data := newFakeData()
	q := data.put(dailyQuest("Walk"))
	prog := &fakeProgress{}
	deps := newTestDeps(data, prog)

	list := New("quests", FollowToday, deps)
	defer list.Close()
	require.NoError(t, list.Load(ctx))
	require.Len(t, list.Items(), 1)

	var payload events.QuestCompletedPayload
	deps.Dispatcher.Register(events.NewFuncObserver("spy", func(e events.Event) error {
		payload, _ = events.GetPayload[events.QuestCompletedPayload](e)
		return nil
	}, events.QuestCompletedFromDetail))

	d := NewDetail(q.ID, deps)
	defer d.Close()
	require.NoError(t, d.Load(ctx))
	assert.Equal(t, "Walk", d.State().Quest.Title)

	require.NoError(t, d.Finish(ctx))
	assert.Equal(t, q.ID, payload.Quest.ID)
	assert.Empty(t, list.Items(), "list re-fetched after the detail finished the quest")
	assert.True(t, d.State().Quest.IsFinished)

	c, ok := d.ConsumeCompletion()
	require.True(t, ok)
	assert.Equal(t, 30, c.Reward.Experience)
	_, ok = d.ConsumeCompletion()
	assert.False(t, ok)

	assert.ErrorIs(t, d.Finish(ctx), engine.ErrAlreadyFinished)
	assert.Equal(t, 30, prog.xp)
}

func TestDetailToggleRespectsWindow(t *testing.T) {
	ctx := context.Background()
	data := newFakeData()
	q := data.put(dailyQuest("Walk"))
	d := NewDetail(q.ID, newTestDeps(data, &fakeProgress{}))
	defer d.Close()

	assert.ErrorIs(t, d.ToggleCompletion(ctx, day(2023, 12, 31)), engine.ErrOutsideWindow)
	assert.NotEmpty(t, d.State().AlertMessage)
	d.DismissAlert()

	require.NoError(t, d.ToggleCompletion(ctx, day(2024, 1, 7)))
	assert.True(t, d.State().Quest.IsCompleted(testCal, day(2024, 1, 7)))
	assert.True(t, d.State().ShowFinishConfirmation, "last day of a daily quest")

	d.DeclineFinish()
	assert.NoError(t, d.ConfirmFinish(ctx))
	assert.False(t, data.Quest(q.ID).IsFinished)
}

func TestDetailFollowsForeignChanges(t *testing.T) {
	ctx := context.Background()
	data := newFakeData()
	q := data.put(dailyQuest("Walk"))
	other := data.put(dailyQuest("Read"))
	deps := newTestDeps(data, &fakeProgress{})

	list := New("quests", FollowToday, deps)
	defer list.Close()
	require.NoError(t, list.Load(ctx))

	d := NewDetail(q.ID, deps)
	defer d.Close()
	require.NoError(t, d.Load(ctx))

	require.NoError(t, list.UpdateProgress(ctx, q.ID, 80))
	assert.Equal(t, 80, d.State().Quest.Progress)

	require.NoError(t, list.Delete(ctx, other.ID))
	assert.False(t, d.State().Deleted)

	require.NoError(t, list.Delete(ctx, q.ID))
	assert.True(t, d.State().Deleted)
	assert.ErrorIs(t, d.UpdateProgress(ctx, 10), engine.ErrQuestNotFound)
}

func TestDetailDelete(t *testing.T) {
	ctx := context.Background()
	data := newFakeData()
	q := data.put(dailyQuest("Walk"))
	d := NewDetail(q.ID, newTestDeps(data, &fakeProgress{}))
	defer d.Close()

	require.NoError(t, d.Delete(ctx))
	st := d.State()
	assert.True(t, st.Deleted)
	assert.Empty(t, st.AlertMessage)
}

func TestDetailAndSessionShareGuard(t *testing.T) {
	ctx := context.Background()
	data := newFakeData()
	q := data.put(dailyQuest("Walk"))
	data.gate = make(chan struct{})
	data.entered = make(chan struct{}, 1)
	deps := newTestDeps(data, &fakeProgress{})

	list := New("quests", FollowToday, deps)
	defer list.Close()
	require.NoError(t, list.Load(ctx))
	d := NewDetail(q.ID, deps)
	defer d.Close()
	require.NoError(t, d.Load(ctx))

	errc := make(chan error, 1)
	go func() { errc <- list.Toggle(ctx, q.ID) }()
	<-data.entered

	assert.ErrorIs(t, d.Finish(ctx), engine.ErrQuestBusy)
	close(data.gate)
	require.NoError(t, <-errc)
}
