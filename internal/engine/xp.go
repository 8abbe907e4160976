package engine

import "math"

const (
	// XPRequiredCoef scales the level curve: XP_req(L) = 100 * (L-1)^1.5.
	XPRequiredCoef = 100.0

	// StartingLevel is the level of a player with no experience.
	StartingLevel = 1
)

// XPRequiredForLevel returns the total XP threshold required to be at the given level.
// Levels at or below StartingLevel require 0 XP.
func XPRequiredForLevel(level int) int {
	if level <= StartingLevel {
		return 0
	}
	req := XPRequiredCoef * math.Pow(float64(level-StartingLevel), 1.5)
	// Use ceil to avoid making thresholds easier due to floating point rounding.
	return int(math.Ceil(req))
}

// LevelForTotalXP returns the highest level L such that totalXP >= XPRequiredForLevel(L).
func LevelForTotalXP(totalXP int) int {
	if totalXP <= 0 {
		return StartingLevel
	}

	// Exponential search upper bound, then binary search.
	low := StartingLevel
	high := StartingLevel + 1
	for XPRequiredForLevel(high) <= totalXP {
		low = high
		high *= 2
		if high > 1_000_000 {
			break
		}
	}

	for low+1 < high {
		mid := low + (high-low)/2
		if XPRequiredForLevel(mid) <= totalXP {
			low = mid
		} else {
			high = mid
		}
	}
	return low
}

// XPToNextLevel returns how much XP is still missing for the next level.
func XPToNextLevel(totalXP int) int {
	next := XPRequiredForLevel(LevelForTotalXP(totalXP) + 1)
	if d := next - totalXP; d > 0 {
		return d
	}
	return 0
}
