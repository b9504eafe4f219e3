// Package domain holds the plain types shared by the progression engine,
// the profile store and the HTTP/CLI surfaces.
// Nothing in here performs I/O.
package domain

import "time"

// ─── Quest Types ────────────────────────────────────────────────────────────

// Difficulty scales the base reward of a quest.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyStandard Difficulty = "standard"
	DifficultyHard     Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyStandard, DifficultyHard:
		return true
	}
	return false
}

// QuestStatus tracks where a quest is in its cycle.
type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestArchived  QuestStatus = "archived"
)

// VerificationSignal names a piece of evidence that can corroborate a completion.
type VerificationSignal string

const (
	SignalHealthWorkout   VerificationSignal = "health_workout"
	SignalHealthSteps     VerificationSignal = "health_steps"
	SignalHealthSleep     VerificationSignal = "health_sleep"
	SignalTimerCompletion VerificationSignal = "timer_completion"
	SignalLowAppSwitching VerificationSignal = "low_app_switching"
	SignalLocationDwell   VerificationSignal = "location_dwell"
	SignalPhotoProof      VerificationSignal = "photo_proof"
)

// AllSignals lists every signal the trust evaluator understands.
func AllSignals() []VerificationSignal {
	return []VerificationSignal{
		SignalHealthWorkout, SignalHealthSteps, SignalHealthSleep,
		SignalTimerCompletion, SignalLowAppSwitching,
		SignalLocationDwell, SignalPhotoProof,
	}
}

// Valid reports whether s is a known signal.
func (s VerificationSignal) Valid() bool {
	for _, known := range AllSignals() {
		if s == known {
			return true
		}
	}
	return false
}

// Quest is a habit the user can complete for rewards.
type Quest struct {
	ID              string               `json:"id"`
	UserID          string               `json:"user_id"`
	Title           string               `json:"title"`
	Difficulty      Difficulty           `json:"difficulty"`
	Category        string               `json:"category"`
	Signals         []VerificationSignal `json:"signals"`
	CooldownHours   int                  `json:"cooldown_hours"`
	BaseXP          int64                `json:"base_xp"`
	BaseGold        int64                `json:"base_gold"`
	Status          QuestStatus          `json:"status"`
	LastCompletedAt time.Time            `json:"last_completed_at"`
	CreatedAt       time.Time            `json:"created_at"`
}

// Default base rewards for quests created without explicit amounts.
const (
	DefaultQuestBaseXP   int64 = 50
	DefaultQuestBaseGold int64 = 20

	// MaxQuestBaseReward bounds user-supplied base rewards.
	MaxQuestBaseReward int64 = 10_000
)

// OnCooldown reports whether the quest is still cooling down at now.
func (q Quest) OnCooldown(now time.Time) bool {
	if q.CooldownHours <= 0 || q.LastCompletedAt.IsZero() {
		return false
	}
	return now.Before(q.CooldownEndsAt())
}

// CooldownEndsAt returns when the quest becomes completable again.
// Zero if the quest has never been completed.
func (q Quest) CooldownEndsAt() time.Time {
	if q.LastCompletedAt.IsZero() {
		return time.Time{}
	}
	return q.LastCompletedAt.Add(time.Duration(q.CooldownHours) * time.Hour)
}

// CanComplete reports whether the quest is active and off cooldown.
func (q Quest) CanComplete(now time.Time) bool {
	return q.Status == QuestActive && !q.OnCooldown(now)
}

// Recurring reports whether the quest comes back after its cooldown.
func (q Quest) Recurring() bool {
	return q.CooldownHours > 0
}

// MarkCompleted returns a copy of q reflecting a completion at now.
// One-shot quests move to completed; recurring quests stay active behind
// their cooldown.
func (q Quest) MarkCompleted(now time.Time) Quest {
	q.LastCompletedAt = now
	if !q.Recurring() {
		q.Status = QuestCompleted
	}
	return q
}

// RequiresSignal reports whether s is among the quest's required signals.
func (q Quest) RequiresSignal(s VerificationSignal) bool {
	for _, req := range q.Signals {
		if req == s {
			return true
		}
	}
	return false
}

// ─── Evidence ───────────────────────────────────────────────────────────────

// HealthSummary is the health-kit style evidence for a completion.
type HealthSummary struct {
	WorkoutMinutes float64 `json:"workout_minutes"`
	Steps          int64   `json:"steps"`
	ActiveCalories float64 `json:"active_calories"`
	SleepMinutes   float64 `json:"sleep_minutes"`
}

// FocusSession is the focus-timer evidence for a completion.
type FocusSession struct {
	DurationMinutes float64 `json:"duration_minutes"`
	AppSwitches     int     `json:"app_switches"`
}

// VerificationPayload is the optional evidence bundle sent with a completion.
// Every field is optional; an empty payload means "manual, unverified".
type VerificationPayload struct {
	Health       *HealthSummary `json:"health,omitempty"`
	Focus        *FocusSession  `json:"focus,omitempty"`
	LocationHash string         `json:"location_hash,omitempty"`
	PhotoRef     string         `json:"photo_ref,omitempty"`
	Note         string         `json:"note,omitempty"`
}

// Empty reports whether no evidence at all was supplied.
func (p VerificationPayload) Empty() bool {
	return p.Health == nil && p.Focus == nil &&
		p.LocationHash == "" && p.PhotoRef == "" && p.Note == ""
}

// ─── Streak Types ───────────────────────────────────────────────────────────

// StreakState is the continuity state of a streak on a given day.
type StreakState string

const (
	StreakActive          StreakState = "active"           // already counted today
	StreakNeedsCompletion StreakState = "needs_completion" // must complete today to extend
	StreakBroken          StreakState = "broken"
)

// StreakStatus is what a UI needs to decide whether to offer a streak saver.
type StreakStatus struct {
	State          StreakState `json:"state"`
	Streak         int         `json:"streak"`
	LongestStreak  int         `json:"longest_streak"`
	LastActiveDate time.Time   `json:"last_active_date"`
	SaversHeld     int         `json:"savers_held"`
	CanUseSaver    bool        `json:"can_use_saver"`
}

// ─── Badges ─────────────────────────────────────────────────────────────────

// UserStats is a snapshot of user state fed to badge predicates.
type UserStats struct {
	Level            int     `json:"level"`
	Streak           int     `json:"streak"`
	LongestStreak    int     `json:"longest_streak"`
	TotalCompletions int64   `json:"total_completions"`
	TrustScore       float64 `json:"trust_score"`
	ChestsOpened     int     `json:"chests_opened"`
	Verified         int64   `json:"verified_completions"`
}

// BadgeDef defines a single badge and its unlock predicate.
type BadgeDef struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Icon       string               `json:"icon"`
	RewardGems int64                `json:"reward_gems"`
	Predicate  func(UserStats) bool `json:"-"`
}

// UnlockedBadge records when a user earned a badge.
type UnlockedBadge struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}
