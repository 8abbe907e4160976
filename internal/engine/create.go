package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"questlog/internal/storage"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type CreateQuestInput struct {
	Title         string     `validate:"required,max=200"`
	Info          string     `validate:"max=2000"`
	IsMainQuest   bool
	Difficulty    Difficulty `validate:"min=1,max=5"`
	RepeatType    RepeatType `validate:"oneof=oneTime daily weekly scheduled"`
	ScheduledDays []Weekday  `validate:"dive,min=1,max=7"`
	CreationDate  time.Time
	DueDate       time.Time
	Tasks         []string `validate:"max=50,dive,required,max=200"`
	Tags          []string `validate:"max=20,dive,max=40"`
}

// CreateQuest validates the input and stores a new quest. A zero CreationDate
// means now.
func (s *Service) CreateQuest(ctx context.Context, in CreateQuestInput) (Quest, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return Quest{}, err
	}
	in.Title = title
	for i := range in.Tasks {
		in.Tasks[i] = strings.TrimSpace(in.Tasks[i])
	}
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return Quest{}, fmt.Errorf("invalid quest: %w", verrs)
		}
		return Quest{}, err
	}
	if in.CreationDate.IsZero() {
		in.CreationDate = s.now()
	}
	if in.DueDate.IsZero() {
		return Quest{}, errors.New("due date is required")
	}

	q := Quest{
		ID:           uuid.New(),
		Title:        in.Title,
		Info:         strings.TrimSpace(in.Info),
		IsMainQuest:  in.IsMainQuest,
		Difficulty:   in.Difficulty,
		CreationDate: in.CreationDate,
		DueDate:      in.DueDate,
		RepeatType:   in.RepeatType,
		Tags:         NormalizeTags(in.Tags),
	}
	if in.RepeatType == RepeatScheduled {
		q.ScheduledDays = make(map[Weekday]bool, len(in.ScheduledDays))
		for _, d := range in.ScheduledDays {
			q.ScheduledDays[d] = true
		}
	}
	for i, title := range in.Tasks {
		q.Tasks = append(q.Tasks, QuestTask{ID: uuid.New(), Title: title, Order: i})
	}

	row := fromQuest(q)
	resetKey := s.cal.DayKey(q.CompletionAnchor(s.cal, q.CreationDate))
	row.TasksResetKey = &resetKey
	err = storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.quests.WithTx(tx).Insert(ctx, row)
	})
	if err != nil {
		return Quest{}, err
	}
	return q, nil
}
