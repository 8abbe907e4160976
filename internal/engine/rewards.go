package engine

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// DefaultBaseExperience is the per-difficulty XP of a finished quest.
	DefaultBaseExperience = 10
	// DebugBaseExperience replaces it when rewards run in debug mode.
	DebugBaseExperience = 50

	coinsPerDifficulty = 10
	coinsPerTask       = 2
	mainQuestCoinRate  = 1.5
)

type BoosterType string

const (
	BoostExperience BoosterType = "experience"
	BoostCoins      BoosterType = "coins"
	BoostBoth       BoosterType = "both"
)

func ParseBoosterType(input string) (BoosterType, error) {
	switch strings.TrimSpace(strings.ToLower(input)) {
	case "xp", "exp", "experience":
		return BoostExperience, nil
	case "coins", "coin", "gold":
		return BoostCoins, nil
	case "both", "all":
		return BoostBoth, nil
	default:
		return "", fmt.Errorf("invalid booster type: %q", input)
	}
}

func (t BoosterType) affects(kind BoosterType) bool {
	return t == kind || t == BoostBoth
}

type BoosterSource string

const (
	SourceBuilding BoosterSource = "building"
	SourceItem     BoosterSource = "item"
)

// BoosterEffect is a multiplier and/or flat bonus on experience or coin rewards.
// A nil ExpiresAt never expires.
type BoosterEffect struct {
	ID         int64
	Type       BoosterType
	Multiplier float64
	FlatBonus  int
	Source     BoosterSource
	SourceID   string
	SourceName string
	ExpiresAt  *time.Time
}

func (b BoosterEffect) Active(now time.Time) bool {
	return b.ExpiresAt == nil || now.Before(*b.ExpiresAt)
}

// ApplyBoosters applies every active booster affecting kind to base. Multipliers
// compound, flat bonuses add after multiplication. The result is never negative.
func ApplyBoosters(base int, kind BoosterType, boosters []BoosterEffect, now time.Time) int {
	mult := 1.0
	flat := 0
	for _, b := range boosters {
		if !b.Active(now) || !b.Type.affects(kind) {
			continue
		}
		if b.Multiplier > 0 {
			mult *= b.Multiplier
		}
		flat += b.FlatBonus
	}
	return max(0, int(math.Round(float64(base)*mult))+flat)
}

// QuestCoins is the unboosted coin yield of a quest.
func QuestCoins(d Difficulty, isMainQuest bool, taskCount int) int {
	if taskCount < 0 {
		taskCount = 0
	}
	coins := float64(int(d)*coinsPerDifficulty + taskCount*coinsPerTask)
	if isMainQuest {
		coins *= mainQuestCoinRate
	}
	return int(math.Round(coins))
}

// QuestGems is the gem yield granted when a quest is marked as finished.
func QuestGems(d Difficulty, isMainQuest bool) int {
	gems := int(d) / 2
	if gems < 1 {
		gems = 1
	}
	if isMainQuest {
		gems++
	}
	return gems
}

type Reward struct {
	BaseExperience int
	BaseCoins      int
	Experience     int
	Coins          int
	Gems           int
}

// RewardCalculator turns a finished quest into experience, coins and gems.
type RewardCalculator struct {
	BaseExperience int
	Coins          func(d Difficulty, isMainQuest bool, taskCount int) int
}

// NewRewardCalculator picks the base experience for the given mode.
func NewRewardCalculator(baseXP, debugBaseXP int, debug bool) RewardCalculator {
	if baseXP <= 0 {
		baseXP = DefaultBaseExperience
	}
	if debugBaseXP <= 0 {
		debugBaseXP = DebugBaseExperience
	}
	if debug {
		baseXP = debugBaseXP
	}
	return RewardCalculator{BaseExperience: baseXP, Coins: QuestCoins}
}

func (c RewardCalculator) BaseXP(d Difficulty) int {
	base := c.BaseExperience
	if base <= 0 {
		base = DefaultBaseExperience
	}
	return base * int(d)
}

func (c RewardCalculator) Calculate(q Quest, boosters []BoosterEffect, now time.Time) Reward {
	coinsFn := c.Coins
	if coinsFn == nil {
		coinsFn = QuestCoins
	}
	r := Reward{
		BaseExperience: c.BaseXP(q.Difficulty),
		BaseCoins:      coinsFn(q.Difficulty, q.IsMainQuest, len(q.Tasks)),
		Gems:           QuestGems(q.Difficulty, q.IsMainQuest),
	}
	r.Experience = ApplyBoosters(r.BaseExperience, BoostExperience, boosters, now)
	r.Coins = ApplyBoosters(r.BaseCoins, BoostCoins, boosters, now)
	return r
}
