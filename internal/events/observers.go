package events

import (
	"log"
)

// FuncObserver adapts a plain function into an Observer.
type FuncObserver struct {
	name   string
	types  map[string]bool
	handle func(Event) error
}

// NewFuncObserver calls handle for the given event types, or for every event when
// no type is given.
func NewFuncObserver(name string, handle func(Event) error, eventTypes ...string) *FuncObserver {
	o := &FuncObserver{name: name, handle: handle}
	if len(eventTypes) > 0 {
		o.types = make(map[string]bool, len(eventTypes))
		for _, t := range eventTypes {
			o.types[t] = true
		}
	}
	return o
}

func (o *FuncObserver) OnEvent(event Event) error {
	return o.handle(event)
}

func (o *FuncObserver) GetName() string {
	return o.name
}

func (o *FuncObserver) ShouldHandle(eventType string) bool {
	return o.types == nil || o.types[eventType]
}

// LoggingObserver logs quest events, used by `ql watch` and in verbose mode.
type LoggingObserver struct {
	name    string
	verbose bool
}

func NewLoggingObserver(verbose bool) *LoggingObserver {
	return &LoggingObserver{
		name:    "LoggingObserver",
		verbose: verbose,
	}
}

func (o *LoggingObserver) OnEvent(event Event) error {
	if !o.verbose {
		log.Printf("[%s] %s", o.name, event.Type)
		return nil
	}
	switch p := event.Payload.(type) {
	case QuestCompletedPayload:
		log.Printf("[%s] %s from %s: %s (%s) leveled_up=%t level=%d",
			o.name, event.Type, event.Origin, p.Quest.Title, p.Quest.ID, p.LeveledUp, p.NewLevel)
	case QuestChangedPayload:
		log.Printf("[%s] %s from %s: %s (%s)", o.name, event.Type, event.Origin, p.Title, p.QuestID)
	default:
		log.Printf("[%s] %s from %s", o.name, event.Type, event.Origin)
	}
	return nil
}

func (o *LoggingObserver) GetName() string {
	return o.name
}

func (o *LoggingObserver) ShouldHandle(eventType string) bool {
	return IsQuestEvent(eventType)
}
