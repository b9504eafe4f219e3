package domain

import "time"

// ─── User Progression ───────────────────────────────────────────────────────

// Currencies are the spendable balances of a user.
type Currencies struct {
	Gold    int64 `json:"gold"`
	Gems    int64 `json:"gems"`
	Tickets int64 `json:"tickets"`
}

// Snapshot is the progression state handed to the engine and returned,
// updated, inside every result. The engine never keeps it.
type Snapshot struct {
	Level          int        `json:"level"`
	XP             int64      `json:"xp"` // relative to the current level
	Currencies     Currencies `json:"currencies"`
	TrustScore     float64    `json:"trust_score"`
	Streak         int        `json:"streak"`
	LongestStreak  int        `json:"longest_streak"`
	LastActiveDate time.Time  `json:"last_active_date"` // calendar day the streak last counted

	CompletionsToday      int       `json:"completions_today"`
	CompletionsDate       time.Time `json:"completions_date"`
	TotalCompletions      int64     `json:"total_completions"`
	StreakSavers          int       `json:"streak_savers"`
	DailyChestDate        time.Time `json:"daily_chest_date"`
	HasUnopenedDailyChest bool      `json:"has_unopened_daily_chest"`
}

// NewSnapshot returns the progression state of a brand-new user.
func NewSnapshot() Snapshot {
	return Snapshot{
		Level:      1,
		TrustScore: DefaultTrustScore,
	}
}

// DefaultTrustScore is where every new user starts: neither trusted nor distrusted.
const DefaultTrustScore = 50.0

// User is a persisted profile owning a snapshot.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Snapshot  Snapshot  `json:"snapshot"`
	DecayWeek string    `json:"decay_week"` // ISO week the weekly decay was last evaluated
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ─── Rewards ────────────────────────────────────────────────────────────────

// RewardType is what a reward credits.
type RewardType string

const (
	RewardXP      RewardType = "xp"
	RewardGold    RewardType = "gold"
	RewardGems    RewardType = "gems"
	RewardTickets RewardType = "tickets"
	RewardItem    RewardType = "item"
)

// Rarity grades a reward or chest.
type Rarity string

const (
	RarityCommon Rarity = "common"
	RarityRare   Rarity = "rare"
	RarityEpic   Rarity = "epic"
	RarityMythic Rarity = "mythic"
)

// Reward sources recorded in the completion log.
const (
	SourceQuest        = "quest"
	SourceQuestBonus   = "quest_bonus"
	SourceLevelUp      = "level_up"
	SourceMilestone    = "level_milestone"
	SourceChest        = "chest"
	SourceChestJackpot = "chest_jackpot"
	SourceBadge        = "badge"
)

// Reward is a value object; once granted it is only ever appended to the log.
type Reward struct {
	Type   RewardType `json:"type"`
	Amount int64      `json:"amount"`
	Rarity Rarity     `json:"rarity"`
	Source string     `json:"source"`
	ItemID string     `json:"item_id,omitempty"`
}

// ─── Loot Chests ────────────────────────────────────────────────────────────

// ChestKind decides which deterministic slots a chest carries.
type ChestKind string

const (
	ChestDaily   ChestKind = "daily"
	ChestGeneric ChestKind = "generic"
)

// LootChest is a bundle of pending rewards opened explicitly by the user.
type LootChest struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      ChestKind `json:"kind"`
	Tier      Rarity    `json:"tier"`
	Rewards   []Reward  `json:"rewards"`
	Opened    bool      `json:"opened"`
	CreatedAt time.Time `json:"created_at"`
	OpenedAt  time.Time `json:"opened_at,omitempty"`
}

// ─── Engine Results ─────────────────────────────────────────────────────────

// Verification is the trust evaluator's verdict on a completion.
type Verification struct {
	Confidence      float64              `json:"confidence"`
	TrustDelta      float64              `json:"trust_delta"`
	NeedsProof      bool                 `json:"needs_proof"`
	SignalsVerified []VerificationSignal `json:"signals_verified"`
}

// StreakOutcome describes what happened to the streak during a completion.
type StreakOutcome struct {
	Before        StreakState `json:"before"`
	Streak        int         `json:"streak"`
	Incremented   bool        `json:"incremented"`
	Reset         bool        `json:"reset"`
	SaverConsumed bool        `json:"saver_consumed"`
}

// RewardApplication is the outcome of crediting rewards to a snapshot.
type RewardApplication struct {
	Snapshot     Snapshot `json:"snapshot"`
	Applied      []Reward `json:"applied"`
	BonusRewards []Reward `json:"bonus_rewards"` // level-up and milestone rewards
	PendingItems []Reward `json:"pending_items"` // item rewards for the caller's inventory
	LeveledUp    bool     `json:"leveled_up"`
	LevelsGained int      `json:"levels_gained"`
}

// AllRewards returns applied rewards followed by bonus rewards.
func (a RewardApplication) AllRewards() []Reward {
	out := make([]Reward, 0, len(a.Applied)+len(a.BonusRewards))
	out = append(out, a.Applied...)
	return append(out, a.BonusRewards...)
}

// CompletionResult is the single output of processing a quest completion.
// It is ephemeral: the caller applies it atomically to its own store.
type CompletionResult struct {
	QuestID       string        `json:"quest_id"`
	CompletedAt   time.Time     `json:"completed_at"`
	Verification  Verification  `json:"verification"`
	ProofRequired bool          `json:"proof_required"`
	Rewards       []Reward      `json:"rewards"`
	BonusRewards  []Reward      `json:"bonus_rewards"`
	PendingItems  []Reward      `json:"pending_items,omitempty"`
	LeveledUp     bool          `json:"leveled_up"`
	NewLevel      int           `json:"new_level"`
	LevelsGained  int           `json:"levels_gained"`
	Streak        StreakOutcome `json:"streak"`
	Chest         *LootChest    `json:"chest,omitempty"` // daily chest unlocked by this completion
	Quest         Quest         `json:"quest"`           // quest after completion
	Snapshot      Snapshot      `json:"snapshot"`
}

// ChestResult is the output of opening a chest.
type ChestResult struct {
	Chest        LootChest `json:"chest"`
	Rewards      []Reward  `json:"rewards"`
	BonusRewards []Reward  `json:"bonus_rewards"`
	PendingItems []Reward  `json:"pending_items,omitempty"`
	LeveledUp    bool      `json:"leveled_up"`
	NewLevel     int       `json:"new_level"`
	Snapshot     Snapshot  `json:"snapshot"`
}

// ─── Completion Log ─────────────────────────────────────────────────────────

// LogEntry is one append-only row of the completion log.
type LogEntry struct {
	ID         int64      `json:"id"`
	UserID     string     `json:"user_id"`
	QuestID    string     `json:"quest_id,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
	Type       RewardType `json:"type"`
	Amount     int64      `json:"amount"`
	Rarity     Rarity     `json:"rarity"`
	Source     string     `json:"source"`
	ItemID     string     `json:"item_id,omitempty"`
	Confidence float64    `json:"confidence"`
}

// PendingProof parks the rewards of a spot-checked completion until proof arrives.
type PendingProof struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	QuestID    string    `json:"quest_id"`
	Rewards    []Reward  `json:"rewards"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}
