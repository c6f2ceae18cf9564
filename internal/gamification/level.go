// Package gamification holds the pure reward rules: the level curve, coin and
// experience rewards, monthly streaks and the achievement catalog.
package gamification

import "math"

const (
	// BaseLevelExperience is the cost of completing level 1.
	BaseLevelExperience = 100
	// LevelGrowth is the per-level multiplier of the level cost.
	LevelGrowth = 1.5
	// MaxLevel bounds the curve so thresholds stay inside int64.
	MaxLevel = 80
)

// LevelInfo is a position on the level curve.
type LevelInfo struct {
	Level     int   `json:"level"`
	CurrentXP int64 `json:"currentXP"`
	XPToNext  int64 `json:"xpToNext"`
}

// ExperienceForLevel returns the experience needed to complete level:
// floor(100 * 1.5^(level-1)).
func ExperienceForLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return int64(math.Floor(BaseLevelExperience * math.Pow(LevelGrowth, float64(level-1))))
}

// TotalExperienceForLevel returns the cumulative experience needed to reach
// level from zero.
func TotalExperienceForLevel(level int) int64 {
	if level > MaxLevel {
		level = MaxLevel
	}
	var total int64
	for i := 1; i < level; i++ {
		total += ExperienceForLevel(i)
	}
	return total
}

// LevelFromExperience walks the curve from level 1, spending totalXP on each
// level's cost while it can. The walk stops at MaxLevel.
func LevelFromExperience(totalXP int64) LevelInfo {
	if totalXP < 0 {
		totalXP = 0
	}
	level := 1
	remaining := totalXP
	for level < MaxLevel {
		cost := ExperienceForLevel(level)
		if remaining < cost {
			break
		}
		remaining -= cost
		level++
	}
	return LevelInfo{
		Level:     level,
		CurrentXP: remaining,
		XPToNext:  ExperienceForLevel(level),
	}
}

// ProgressPct returns progress through the current level in [0, 100].
func (l LevelInfo) ProgressPct() float64 {
	if l.XPToNext <= 0 {
		return 100
	}
	pct := float64(l.CurrentXP) * 100 / float64(l.XPToNext)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// ProgressAtLevel places totalXP within a level that was stored earlier
// rather than re-deriving the level from totalXP. CurrentXP is clamped to
// [0, XPToNext].
func ProgressAtLevel(level int, totalXP int64) LevelInfo {
	if level < 1 {
		level = 1
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	toNext := ExperienceForLevel(level)
	current := totalXP - TotalExperienceForLevel(level)
	if current < 0 {
		current = 0
	}
	if current > toNext {
		current = toNext
	}
	return LevelInfo{Level: level, CurrentXP: current, XPToNext: toNext}
}
