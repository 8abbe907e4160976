package root

import (
	"bytes"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questlog/internal/engine"
	"questlog/internal/storage"
)

var idRe = regexp.MustCompile(`[0-9a-f]{8}`)

func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(storage.EnvDBPath, filepath.Join(dir, "questlog.db"))
	return filepath.Join(dir, "config.toml")
}

func run(t *testing.T, cfg string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func addQuest(t *testing.T, cfg string, args ...string) string {
	t.Helper()
	out, err := run(t, cfg, append([]string{"add"}, args...)...)
	require.NoError(t, err, out)
	require.Contains(t, out, "Added")
	id := idRe.FindString(out)
	require.NotEmpty(t, id, out)
	return id
}

func TestDailyQuestLifecycle(t *testing.T) {
	cfg := setupCLI(t)
	id := addQuest(t, cfg, "Stretch", "-r", "daily", "--tag", "health")

	out, err := run(t, cfg, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Stretch")
	assert.Contains(t, out, "0/1 done")

	out, err = run(t, cfg, "do", id)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Done")
	assert.NotContains(t, out, "Claim the reward")

	out, err = run(t, cfg, "list", "--tag", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "1/1 done")

	out, err = run(t, cfg, "list", "--tag", "work")
	require.NoError(t, err)
	assert.Contains(t, out, "No quests for this day.")

	out, err = run(t, cfg, "list", "--tag", "health", "--tag", "work", "--match", "all")
	require.NoError(t, err)
	assert.Contains(t, out, "No quests for this day.")

	_, err = run(t, cfg, "list", "--match", "some")
	assert.Error(t, err)

	out, err = run(t, cfg, "show", id)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Stretch")
	assert.Contains(t, out, "Completions (1)")

	out, err = run(t, cfg, "undo", id)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Undone")

	out, err = run(t, cfg, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "0/1 done")
}

func TestOneTimeQuestFinish(t *testing.T) {
	cfg := setupCLI(t)
	id := addQuest(t, cfg, "Taxes", "-d", "5")

	out, err := run(t, cfg, "do", id)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Claim the reward")

	out, err = run(t, cfg, "finish", id)
	require.NoError(t, err, out)
	assert.Contains(t, out, "+50 XP")
	assert.Contains(t, out, "Quest Done")

	_, err = run(t, cfg, "finish", id)
	assert.ErrorIs(t, err, engine.ErrAlreadyFinished)

	out, err = run(t, cfg, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total XP: 50")
	assert.Contains(t, out, "Achievements (2/11)")

	out, err = run(t, cfg, "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "finished")
}

func TestTasksProgressAndDelete(t *testing.T) {
	cfg := setupCLI(t)
	id := addQuest(t, cfg, "Garage", "-r", "weekly", "-t", "sweep", "-t", "sort boxes")

	out, err := run(t, cfg, "task", id, "2")
	require.NoError(t, err, out)
	assert.Contains(t, out, "sort boxes")

	_, err = run(t, cfg, "task", id, "3")
	assert.ErrorIs(t, err, engine.ErrTaskNotFound)

	out, err = run(t, cfg, "progress", id, "150")
	require.NoError(t, err, out)
	assert.Contains(t, out, "100%")

	out, err = run(t, cfg, "list", "--tasks")
	require.NoError(t, err)
	assert.Contains(t, out, "1/2")

	_, err = run(t, cfg, "delete", id)
	assert.Error(t, err)

	out, err = run(t, cfg, "delete", id, "--yes")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Deleted")

	_, err = run(t, cfg, "do", id)
	assert.ErrorIs(t, err, engine.ErrQuestNotFound)
}

func TestAddValidation(t *testing.T) {
	cfg := setupCLI(t)

	_, err := run(t, cfg, "add", "Gym", "-r", "scheduled")
	assert.Error(t, err)

	_, err = run(t, cfg, "add", "Gym", "-r", "fortnightly")
	assert.Error(t, err)

	_, err = run(t, cfg, "add", "Gym", "-d", "9")
	assert.Error(t, err)

	_, err = run(t, cfg, "add", "Gym", "--due", "tomorrow")
	assert.Error(t, err)

	id := addQuest(t, cfg, "Gym", "-r", "scheduled", "--days", "mon,wed,fri")
	out, err := run(t, cfg, "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, id)
}

func TestBoostAppliesToFinish(t *testing.T) {
	cfg := setupCLI(t)
	out, err := run(t, cfg, "boost", "xp", "-x", "2", "--name", "Forge")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Booster added")

	out, err = run(t, cfg, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Forge")

	id := addQuest(t, cfg, "Read", "-d", "1")
	out, err = run(t, cfg, "finish", id)
	require.NoError(t, err, out)
	assert.Contains(t, out, "+20 XP")
	assert.Contains(t, out, "boosted from 10 XP")

	_, err = run(t, cfg, "boost", "mana")
	assert.Error(t, err)

	_, err = run(t, cfg, "boost", "coins", "--flat=-100")
	assert.Error(t, err)
}

func TestDBShowsSchemaVersion(t *testing.T) {
	cfg := setupCLI(t)
	addQuest(t, cfg, "Walk", "-r", "daily")

	out, err := run(t, cfg, "db")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Schema: 2")
	assert.Contains(t, out, "Quests: 1")
	assert.Contains(t, out, "questlog.db")
}

func TestConfigInit(t *testing.T) {
	cfg := setupCLI(t)

	out, err := run(t, cfg, "config", "--init")
	require.NoError(t, err, out)
	assert.FileExists(t, cfg)

	_, err = run(t, cfg, "config", "--init")
	assert.Error(t, err)

	out, err = run(t, cfg, "config")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Week start: monday")
	assert.Contains(t, out, "Base XP: 10")
}
