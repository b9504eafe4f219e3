package engagement

import (
	"math"

	"github.com/sidequest-app/sidequest/internal/domain"
)

// ─── Progression Curve ──────────────────────────────────────────────────────
// Pure functions only. The per-level requirement is exponential so that a
// bounded amount of XP per event always resolves in finitely many level-ups.

const (
	baseLevelXP   = 100.0
	levelXPGrowth = 1.15
)

// MaxLevel is the highest reachable level. The requirement of the next
// level no longer fits in an int64.
const MaxLevel = 280

// XPRequiredForLevel returns the XP needed to advance from level to level+1.
// floor(100 * 1.15^(level-1)); levels below 1 are treated as 1 and levels
// above MaxLevel saturate at math.MaxInt64.
func XPRequiredForLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	if level > MaxLevel {
		return math.MaxInt64
	}
	return int64(math.Floor(baseLevelXP*math.Pow(levelXPGrowth, float64(level-1)) + floatSlack))
}

// TotalXPForLevel returns the cumulative XP earned by the time a user
// first reaches level, saturating at math.MaxInt64.
func TotalXPForLevel(level int) int64 {
	var total int64
	for l := 1; l < level; l++ {
		req := XPRequiredForLevel(l)
		if req > math.MaxInt64-total {
			return math.MaxInt64
		}
		total += req
	}
	return total
}

// LevelProgress returns progress toward the next level in [0, 1].
func LevelProgress(xp int64, level int) float64 {
	if xp <= 0 {
		return 0
	}
	return math.Min(1, float64(xp)/float64(XPRequiredForLevel(level)))
}

// DifficultyMultiplier maps a quest difficulty to its reward multiplier.
func DifficultyMultiplier(d domain.Difficulty) float64 {
	switch d {
	case domain.DifficultyEasy:
		return 0.7
	case domain.DifficultyHard:
		return 1.5
	default:
		return 1.0
	}
}

// TrustMultiplier throttles low-trust users without ever reaching zero and
// gives high-trust users up to +20%. Range [0.5, 1.2].
func TrustMultiplier(trustScore float64) float64 {
	return 0.5 + clampTrust(trustScore)/100*0.7
}

// streakTiers is ordered highest threshold first.
var streakTiers = []struct {
	minDays    int
	multiplier float64
}{
	{30, 2.0},
	{14, 1.5},
	{7, 1.25},
	{3, 1.1},
}

// StreakMultiplier returns the XP multiplier of the highest streak tier met.
func StreakMultiplier(streak int) float64 {
	for _, tier := range streakTiers {
		if streak >= tier.minDays {
			return tier.multiplier
		}
	}
	return 1.0
}

// floatSlack absorbs binary rounding so that products such as 50*0.92
// floor to 46 rather than 45.
const floatSlack = 1e-9

// floorAmount floors a scaled reward and enforces the minimum of 1.
func floorAmount(v float64) int64 {
	n := int64(math.Floor(v + floatSlack))
	if n < 1 {
		return 1
	}
	return n
}

func clampTrust(t float64) float64 {
	if math.IsNaN(t) {
		return 0
	}
	return math.Max(0, math.Min(100, t))
}
