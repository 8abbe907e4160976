package root

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"questlog/internal/config"
	"questlog/internal/engine"
	"questlog/internal/events"
	"questlog/internal/session"
	"questlog/internal/storage"
)

// app is everything a command needs, opened from the config file.
type app struct {
	cfg        *config.Config
	dbPath     string
	db         *sql.DB
	svc        *engine.Service
	cal        engine.Calendar
	dispatcher *events.EventDispatcher
	deps       session.Deps
	sess       *session.Session
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return config.Load(path)
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, string, error) {
	path, err := storage.ResolveDBPath(cfg.Database.Path)
	if err != nil {
		return nil, "", err
	}
	db, err := storage.Open(ctx, path)
	if err != nil {
		return nil, "", err
	}
	return db, path, nil
}

// openApp opens the database and loads a list session refreshed for today.
func openApp(ctx context.Context) (*app, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	cal, err := cfg.GetCalendar()
	if err != nil {
		return nil, nil, err
	}
	timeout, err := cfg.GetRequestTimeout()
	if err != nil {
		return nil, nil, err
	}
	db, path, err := openDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	a := &app{
		cfg:        cfg,
		dbPath:     path,
		db:         db,
		svc:        engine.NewService(db, cal),
		cal:        cal,
		dispatcher: events.NewEventDispatcher(),
	}
	a.deps = session.ForService(a.svc, cfg.RewardCalculator(), a.dispatcher, timeout)
	a.sess = session.New("cli", session.FollowToday, a.deps)

	cleanup := func() {
		a.sess.Close()
		_ = db.Close()
	}
	if err := a.sess.Refresh(ctx, time.Now()); err != nil {
		cleanup()
		return nil, nil, err
	}
	return a, cleanup, nil
}

// day parses a YYYY-MM-DD flag value, defaulting to today.
func (a *app) day(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return a.cal.StartOfDay(time.Now()), nil
	}
	d, err := a.cal.ParseDay(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", value)
	}
	return d, nil
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
