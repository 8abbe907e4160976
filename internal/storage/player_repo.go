package storage

import (
	"context"
	"database/sql"
	"fmt"
)

const MainPlayerKey = "main_user"

type PlayerRepo struct {
	db DBTX
}

func NewPlayerRepo(db DBTX) *PlayerRepo {
	return &PlayerRepo{db: db}
}

func (r *PlayerRepo) WithTx(tx *sql.Tx) *PlayerRepo {
	return &PlayerRepo{db: tx}
}

func (r *PlayerRepo) Get(ctx context.Context, key string) (*Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT key, level, xp_total, coins, gems FROM player WHERE key = ?`, key)

	var p Player
	if err := row.Scan(&p.Key, &p.Level, &p.XPTotal, &p.Coins, &p.Gems); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("player get: %w", err)
	}
	return &p, nil
}

func (r *PlayerRepo) GetOrCreateMain(ctx context.Context) (*Player, error) {
	p, err := r.Get(ctx, MainPlayerKey)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	if _, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO player (key) VALUES (?)`, MainPlayerKey); err != nil {
		return nil, fmt.Errorf("player insert: %w", err)
	}
	return r.Get(ctx, MainPlayerKey)
}

// Add increments the counters in place so concurrent writers never overwrite
// each other. It reports false when the player row is missing.
func (r *PlayerRepo) Add(ctx context.Context, key string, xp, coins, gems int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE player
		SET xp_total = xp_total + ?, coins = coins + ?, gems = gems + ?
		WHERE key = ?
	`, xp, coins, gems, key)
	if err != nil {
		return false, fmt.Errorf("player add: %w", err)
	}
	return affected(res)
}

func (r *PlayerRepo) SetLevel(ctx context.Context, key string, level int) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE player SET level = ? WHERE key = ?`, level, key); err != nil {
		return fmt.Errorf("player set level: %w", err)
	}
	return nil
}
