package engine

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrQuestNotFound   = errors.New("quest not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrQuestBusy       = errors.New("quest has a change in progress")
	ErrOutsideWindow   = errors.New("quest is not active on that day")
	ErrAlreadyFinished = errors.New("quest is already finished")
	ErrAmbiguousID     = errors.New("id prefix matches more than one quest")
)

// WindowError is returned when a completion is toggled on a day the quest does
// not apply to. It matches ErrOutsideWindow with errors.Is.
type WindowError struct {
	Title string
	Day   time.Time
}

func (e WindowError) Error() string {
	return fmt.Sprintf("quest '%s' is not active on %s", e.Title, e.Day.Format(dayKeyLayout))
}

func (e WindowError) Is(target error) bool {
	return target == ErrOutsideWindow
}
