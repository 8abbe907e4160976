package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"questlog/internal/storage"
)

// Service is the sqlite-backed implementation of the quest data service and of
// the progression collaborators (leveling, wallet, boosters, streaks, achievements).
type Service struct {
	db           *sql.DB
	cal          Calendar
	now          func() time.Time
	quests       *storage.QuestRepo
	tasks        *storage.TaskRepo
	completions  *storage.CompletionRepo
	players      *storage.PlayerRepo
	boosters     *storage.BoosterRepo
	activity     *storage.ActivityRepo
	achievements *storage.AchievementRepo
}

func NewService(db *sql.DB, cal Calendar) *Service {
	return &Service{
		db:           db,
		cal:          cal,
		now:          time.Now,
		quests:       storage.NewQuestRepo(db),
		tasks:        storage.NewTaskRepo(db),
		completions:  storage.NewCompletionRepo(db),
		players:      storage.NewPlayerRepo(db),
		boosters:     storage.NewBoosterRepo(db),
		activity:     storage.NewActivityRepo(db),
		achievements: storage.NewAchievementRepo(db),
	}
}

// SetClock replaces time.Now; used by tests and the scheduler.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) Calendar() Calendar { return s.cal }


func normalizeTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", errors.New("title is required")
	}
	return t, nil
}

func (s *Service) getPlayer(ctx context.Context) (*storage.Player, error) {
	p, err := s.players.GetOrCreateMain(ctx)
	if err != nil {
		return nil, err
	}
	computed := LevelForTotalXP(p.XPTotal)
	if p.Level != computed {
		p.Level = computed
		if err := s.players.SetLevel(ctx, p.Key, computed); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// GetQuest returns ErrQuestNotFound when id is unknown.
func (s *Service) GetQuest(ctx context.Context, id uuid.UUID) (Quest, error) {
	row, err := s.quests.Get(ctx, id.String())
	if err != nil {
		return Quest{}, err
	}
	if row == nil {
		return Quest{}, fmt.Errorf("%w: %s", ErrQuestNotFound, id)
	}
	return s.toQuest(*row)
}

// ResolveQuestID accepts a full id or a unique prefix of one.
func (s *Service) ResolveQuestID(ctx context.Context, ref string) (uuid.UUID, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	if ref == "" {
		return uuid.Nil, errors.New("quest id is required")
	}
	ids, err := s.quests.FindIDsByPrefix(ctx, ref, 2)
	if err != nil {
		return uuid.Nil, err
	}
	switch len(ids) {
	case 0:
		return uuid.Nil, fmt.Errorf("%w: %s", ErrQuestNotFound, ref)
	case 1:
		return uuid.Parse(ids[0])
	default:
		return uuid.Nil, fmt.Errorf("%w: %s", ErrAmbiguousID, ref)
	}
}

func (s *Service) toQuest(row storage.Quest) (Quest, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return Quest{}, fmt.Errorf("quest id %q: %w", row.ID, err)
	}
	q := Quest{
		ID:           id,
		Title:        row.Title,
		Info:         row.Info,
		IsMainQuest:  row.IsMainQuest,
		Difficulty:   Difficulty(row.Difficulty),
		CreationDate: row.CreatedAt.In(s.cal.loc()),
		DueDate:      row.DueAt.In(s.cal.loc()),
		RepeatType:   RepeatType(row.RepeatType),
		IsFinished:   row.IsFinished,
		FinishedAt:   row.FinishedAt,
		Progress:     row.Progress,
		Tags:         row.Tags,
	}
	if len(row.ScheduledDays) > 0 {
		q.ScheduledDays = make(map[Weekday]bool, len(row.ScheduledDays))
		for _, d := range row.ScheduledDays {
			q.ScheduledDays[Weekday(d)] = true
		}
	}
	if len(row.CompletionDays) > 0 {
		q.Completions = make(map[string]bool, len(row.CompletionDays))
		for _, d := range row.CompletionDays {
			q.Completions[d] = true
		}
	}
	for _, t := range row.Tasks {
		tid, err := uuid.Parse(t.ID)
		if err != nil {
			return Quest{}, fmt.Errorf("task id %q: %w", t.ID, err)
		}
		q.Tasks = append(q.Tasks, QuestTask{ID: tid, Title: t.Title, IsCompleted: t.IsCompleted, Order: t.Order})
	}
	return q, nil
}

func fromQuest(q Quest) storage.Quest {
	row := storage.Quest{
		ID:          q.ID.String(),
		Title:       q.Title,
		Info:        q.Info,
		IsMainQuest: q.IsMainQuest,
		Difficulty:  int(q.Difficulty),
		CreatedAt:   q.CreationDate,
		DueAt:       q.DueDate,
		RepeatType:  string(q.RepeatType),
		IsFinished:  q.IsFinished,
		FinishedAt:  q.FinishedAt,
		Progress:    q.Progress,
		Tags:        q.Tags,
	}
	for _, d := range q.ScheduledWeekdays() {
		row.ScheduledDays = append(row.ScheduledDays, int(d))
	}
	for _, t := range q.Tasks {
		row.Tasks = append(row.Tasks, storage.QuestTask{
			ID:          t.ID.String(),
			QuestID:     row.ID,
			Title:       t.Title,
			IsCompleted: t.IsCompleted,
			Order:       t.Order,
		})
	}
	return row
}
