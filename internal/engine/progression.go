package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"questlog/internal/storage"
)

// LevelResult is what the leveling collaborator reports after adding experience.
type LevelResult struct {
	LeveledUp  bool
	NewLevel   int
	LevelAfter int
	XPTotal    int
}

// PlayerStats is a read-only view of the player for surfaces.
type PlayerStats struct {
	Level      int
	XPTotal    int
	XPToNext   int
	Coins      int
	Gems       int
	LevelFloor int
	LevelCeil  int
}

func (s *Service) Player(ctx context.Context) (PlayerStats, error) {
	p, err := s.getPlayer(ctx)
	if err != nil {
		return PlayerStats{}, err
	}
	return PlayerStats{
		Level:      p.Level,
		XPTotal:    p.XPTotal,
		XPToNext:   XPToNextLevel(p.XPTotal),
		Coins:      p.Coins,
		Gems:       p.Gems,
		LevelFloor: XPRequiredForLevel(p.Level),
		LevelCeil:  XPRequiredForLevel(p.Level + 1),
	}, nil
}

// AddExperience adds xp to the player and reports whether a level threshold was crossed.
func (s *Service) AddExperience(ctx context.Context, xp int) (LevelResult, error) {
	if xp < 0 {
		return LevelResult{}, errors.New("experience must not be negative")
	}
	p, err := s.add(ctx, xp, 0, 0)
	if err != nil {
		return LevelResult{}, err
	}

	before := LevelForTotalXP(p.XPTotal - xp)
	res := LevelResult{LevelAfter: p.Level, XPTotal: p.XPTotal}
	if p.Level > before {
		res.LeveledUp = true
		res.NewLevel = p.Level
	}
	return res, nil
}

// Credit adds coins and gems to the wallet.
func (s *Service) Credit(ctx context.Context, coins, gems int) error {
	if coins < 0 || gems < 0 {
		return errors.New("credit amounts must not be negative")
	}
	_, err := s.add(ctx, 0, coins, gems)
	return err
}

// add increments the player in one transaction that starts with the write,
// then re-reads the row and stores the level for the new total.
func (s *Service) add(ctx context.Context, xp, coins, gems int) (*storage.Player, error) {
	main, err := s.getPlayer(ctx)
	if err != nil {
		return nil, err
	}
	var p *storage.Player
	err = storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		players := s.players.WithTx(tx)
		ok, err := players.Add(ctx, main.Key, xp, coins, gems)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("player %s not found", main.Key)
		}
		if p, err = players.Get(ctx, main.Key); err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("player %s not found", main.Key)
		}
		if level := LevelForTotalXP(p.XPTotal); level != p.Level {
			p.Level = level
			return players.SetLevel(ctx, p.Key, level)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ActiveBoosters returns the boosters that have not expired at now.
func (s *Service) ActiveBoosters(ctx context.Context, now time.Time) ([]BoosterEffect, error) {
	rows, err := s.boosters.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}
	out := make([]BoosterEffect, 0, len(rows))
	for _, b := range rows {
		out = append(out, BoosterEffect{
			ID:         b.ID,
			Type:       BoosterType(b.Type),
			Multiplier: b.Multiplier,
			FlatBonus:  b.FlatBonus,
			Source:     BoosterSource(b.Source),
			SourceID:   b.SourceID,
			SourceName: b.SourceName,
			ExpiresAt:  b.ExpiresAt,
		})
	}
	return out, nil
}

func (s *Service) AddBooster(ctx context.Context, b BoosterEffect) (int64, error) {
	if b.FlatBonus < 0 {
		return 0, errors.New("booster flat bonus must not be negative")
	}
	if b.Multiplier <= 0 && b.FlatBonus == 0 {
		return 0, errors.New("booster needs a multiplier or a flat bonus")
	}
	if b.Multiplier <= 0 {
		b.Multiplier = 1
	}
	if b.Source == "" {
		b.Source = SourceItem
	}
	return s.boosters.Insert(ctx, storage.Booster{
		Type:       string(b.Type),
		Multiplier: b.Multiplier,
		FlatBonus:  b.FlatBonus,
		Source:     string(b.Source),
		SourceID:   b.SourceID,
		SourceName: b.SourceName,
		ExpiresAt:  b.ExpiresAt,
	})
}
