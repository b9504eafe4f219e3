package engagement

import (
	"github.com/sidequest-app/sidequest/internal/domain"
)

// NewlyEarned returns the badges whose predicate holds for stats and that
// are not in unlocked. Already-earned badges are skipped, so evaluating the
// same stats twice yields nothing the second time.
func NewlyEarned(stats domain.UserStats, unlocked map[string]bool) []domain.BadgeDef {
	var earned []domain.BadgeDef
	for _, def := range AllBadges() {
		if unlocked[def.ID] {
			continue
		}
		if def.Predicate != nil && def.Predicate(stats) {
			earned = append(earned, def)
		}
	}
	return earned
}

// BadgeRewards converts earned badges into gem rewards for ApplyRewards.
func BadgeRewards(defs []domain.BadgeDef) []domain.Reward {
	var rewards []domain.Reward
	for _, def := range defs {
		if def.RewardGems <= 0 {
			continue
		}
		rewards = append(rewards, domain.Reward{
			Type:   domain.RewardGems,
			Amount: def.RewardGems,
			Rarity: domain.RarityRare,
			Source: domain.SourceBadge + ":" + def.ID,
		})
	}
	return rewards
}

// StatsFor derives badge stats from a snapshot.
func StatsFor(snap domain.Snapshot, chestsOpened int, verified int64) domain.UserStats {
	return domain.UserStats{
		Level:            snap.Level,
		Streak:           snap.Streak,
		LongestStreak:    snap.LongestStreak,
		TotalCompletions: snap.TotalCompletions,
		TrustScore:       snap.TrustScore,
		ChestsOpened:     chestsOpened,
		Verified:         verified,
	}
}

// AllBadges returns the badge catalog.
func AllBadges() []domain.BadgeDef {
	return []domain.BadgeDef{
		// ── Getting started ───────────────────────────────────────────
		{
			ID: "first_quest", Name: "First Step", Icon: "🎯", RewardGems: 1,
			Predicate: func(s domain.UserStats) bool { return s.TotalCompletions >= 1 },
		},
		{
			ID: "quests_50", Name: "Habit Former", Icon: "📒", RewardGems: 5,
			Predicate: func(s domain.UserStats) bool { return s.TotalCompletions >= 50 },
		},
		{
			ID: "quests_500", Name: "Creature of Habit", Icon: "🏛️", RewardGems: 25,
			Predicate: func(s domain.UserStats) bool { return s.TotalCompletions >= 500 },
		},

		// ── Streaks ───────────────────────────────────────────────────
		{
			ID: "streak_7", Name: "Week Warrior", Icon: "🔥", RewardGems: 3,
			Predicate: func(s domain.UserStats) bool { return s.Streak >= 7 },
		},
		{
			ID: "streak_30", Name: "Monthly Machine", Icon: "💪", RewardGems: 15,
			Predicate: func(s domain.UserStats) bool { return s.Streak >= 30 },
		},
		{
			ID: "streak_longest_14", Name: "Fortnight Force", Icon: "📅", RewardGems: 5,
			Predicate: func(s domain.UserStats) bool { return s.LongestStreak >= 14 },
		},

		// ── Levels ────────────────────────────────────────────────────
		{
			ID: "level_5", Name: "Apprentice", Icon: "🌱", RewardGems: 2,
			Predicate: func(s domain.UserStats) bool { return s.Level >= 5 },
		},
		{
			ID: "level_10", Name: "Rising Star", Icon: "🌅", RewardGems: 5,
			Predicate: func(s domain.UserStats) bool { return s.Level >= 10 },
		},
		{
			ID: "level_25", Name: "Veteran", Icon: "🎖️", RewardGems: 20,
			Predicate: func(s domain.UserStats) bool { return s.Level >= 25 },
		},

		// ── Trust ─────────────────────────────────────────────────────
		{
			ID: "trusted_90", Name: "Pillar of Trust", Icon: "🛡️", RewardGems: 10,
			Predicate: func(s domain.UserStats) bool { return s.TrustScore >= 90 },
		},
		{
			ID: "verified_25", Name: "Show, Don't Tell", Icon: "📸", RewardGems: 5,
			Predicate: func(s domain.UserStats) bool { return s.Verified >= 25 },
		},

		// ── Loot ──────────────────────────────────────────────────────
		{
			ID: "chest_first", Name: "Treasure Hunter", Icon: "🗝️", RewardGems: 1,
			Predicate: func(s domain.UserStats) bool { return s.ChestsOpened >= 1 },
		},
		{
			ID: "chests_30", Name: "Hoarder", Icon: "💎", RewardGems: 10,
			Predicate: func(s domain.UserStats) bool { return s.ChestsOpened >= 30 },
		},
	}
}
