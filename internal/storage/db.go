package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// EnvDBPath overrides the configured database location.
const EnvDBPath = "QUESTLOG_DB"

const timeLayout = time.RFC3339Nano

// DefaultDBPath returns the default questlog DB location.
func DefaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(homeDir, ".questlog", "questlog.db"), nil
}

// ResolveDBPath picks $QUESTLOG_DB, then the configured path, then the default.
func ResolveDBPath(configured string) (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvDBPath)); p != "" {
		return p, nil
	}
	if p := strings.TrimSpace(configured); p != "" {
		return p, nil
	}
	return DefaultDBPath()
}

// Open creates the database file if needed, migrates it and returns a handle.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	if err := Migrate(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
