package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSpec runs the rollover five minutes after midnight.
const DefaultSpec = "5 0 * * *"

// Refresher rolls quests over to the period containing on.
// session.Session implements it.
type Refresher interface {
	Refresh(ctx context.Context, on time.Time) error
}

// RefresherFunc adapts a function such as engine.Service.RefreshAllQuests.
type RefresherFunc func(ctx context.Context, on time.Time) error

func (f RefresherFunc) Refresh(ctx context.Context, on time.Time) error {
	return f(ctx, on)
}

// Rollover periodically resets repeating quests for the new day and lets
// sessions re-fetch.
type Rollover struct {
	cron    *cron.Cron
	spec    string
	now     func() time.Time
	timeout time.Duration
	entryID cron.EntryID

	mu      sync.Mutex
	targets []Refresher
	lastRun time.Time
}

// NewRollover creates a rollover firing on spec (standard 5-field cron or a
// descriptor such as "@daily") in loc.
func NewRollover(spec string, loc *time.Location, targets ...Refresher) *Rollover {
	if spec == "" {
		spec = DefaultSpec
	}
	if loc == nil {
		loc = time.Local
	}
	return &Rollover{
		cron:    cron.New(cron.WithLocation(loc)),
		spec:    spec,
		now:     time.Now,
		timeout: 30 * time.Second,
		targets: targets,
	}
}

// SetClock replaces time.Now.
func (r *Rollover) SetClock(now func() time.Time) {
	r.now = now
}

// Add registers another target, e.g. a session opened after Start.
func (r *Rollover) Add(target Refresher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = append(r.targets, target)
}

func (r *Rollover) Start() error {
	var err error
	r.entryID, err = r.cron.AddFunc(r.spec, func() {
		log.Println("[Scheduler] Running daily rollover")
		if err := r.RunNow(context.Background()); err != nil {
			log.Printf("[Scheduler] Rollover failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("error scheduling rollover: %w", err)
	}

	r.cron.Start()
	log.Printf("[Scheduler] Rollover scheduled: %s", r.spec)
	return nil
}

// Stop halts the scheduler and waits for a running rollover to finish.
func (r *Rollover) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	log.Println("[Scheduler] Rollover stopped")
}

// RunNow refreshes every target for the current day. All targets run even if
// one fails; the errors are joined.
func (r *Rollover) RunNow(ctx context.Context) error {
	r.mu.Lock()
	targets := append([]Refresher(nil), r.targets...)
	r.mu.Unlock()

	now := r.now()
	var errs []error
	for _, t := range targets {
		tctx, cancel := context.WithTimeout(ctx, r.timeout)
		err := t.Refresh(tctx, now)
		cancel()
		if err != nil {
			errs = append(errs, err)
		}
	}

	r.mu.Lock()
	r.lastRun = now
	r.mu.Unlock()
	return errors.Join(errs...)
}

func (r *Rollover) LastRun() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun
}

// Next returns the next scheduled run, zero before Start.
func (r *Rollover) Next() time.Time {
	return r.cron.Entry(r.entryID).Next
}
