package engagement

import (
	"fmt"
	"math"
	"time"

	"github.com/sidequest-app/sidequest/internal/domain"
)

// Config tunes the engine. The zero value of any field selects its default.
type Config struct {
	Trust        TrustPolicy
	Loot         LootTable
	DailyMinimum int // completions per day that count toward the streak

	// ChestUnlockMinimum is the completions per day that unlock the daily chest.
	ChestUnlockMinimum int

	// MilestoneEvery awards the milestone reward on every Nth level.
	MilestoneEvery int
	MilestoneGems  int64

	// LevelUpGoldPerLevel is multiplied by the new level on each level-up.
	LevelUpGoldPerLevel int64
}

// DefaultConfig returns the production engine configuration.
func DefaultConfig() Config {
	return Config{
		Trust:               DefaultTrustPolicy(),
		Loot:                DefaultLootTable(),
		DailyMinimum:        DefaultDailyMinimum,
		ChestUnlockMinimum:  3,
		MilestoneEvery:      5,
		MilestoneGems:       5,
		LevelUpGoldPerLevel: 10,
	}
}

// Engine processes a single quest completion end to end:
// verify → update trust → rewards → apply → level-ups → streak → result.
// It holds no user state; concurrent calls for one user must be serialized
// by the caller.
type Engine struct {
	cfg     Config
	trust   *TrustEvaluator
	loot    *LootGenerator
	streaks *StreakTracker
}

// NewEngine wires an engine over the given random source.
func NewEngine(cfg Config, rng domain.RandomSource) *Engine {
	def := DefaultConfig()
	if cfg.Trust == (TrustPolicy{}) {
		cfg.Trust = def.Trust
	}
	if cfg.Loot == (LootTable{}) {
		cfg.Loot = def.Loot
	}
	if cfg.DailyMinimum <= 0 {
		cfg.DailyMinimum = def.DailyMinimum
	}
	if cfg.ChestUnlockMinimum <= 0 {
		cfg.ChestUnlockMinimum = def.ChestUnlockMinimum
	}
	if cfg.MilestoneEvery <= 0 {
		cfg.MilestoneEvery = def.MilestoneEvery
	}
	if cfg.MilestoneGems <= 0 {
		cfg.MilestoneGems = def.MilestoneGems
	}
	if cfg.LevelUpGoldPerLevel <= 0 {
		cfg.LevelUpGoldPerLevel = def.LevelUpGoldPerLevel
	}

	return &Engine{
		cfg:     cfg,
		trust:   NewTrustEvaluator(cfg.Trust, rng),
		loot:    NewLootGenerator(cfg.Loot, rng),
		streaks: NewStreakTracker(cfg.DailyMinimum),
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Trust returns the engine's trust evaluator.
func (e *Engine) Trust() *TrustEvaluator { return e.trust }

// Loot returns the engine's loot generator.
func (e *Engine) Loot() *LootGenerator { return e.loot }

// Streaks returns the engine's streak tracker.
func (e *Engine) Streaks() *StreakTracker { return e.streaks }

// CompletionRequest is one "I did quest X" claim.
type CompletionRequest struct {
	Snapshot domain.Snapshot
	Quest    domain.Quest
	Payload  domain.VerificationPayload
	At       time.Time // completion time in the user's location

	// UseStreakSaver lets a broken streak survive by consuming a saver.
	// The engine never spends a saver unless asked.
	UseStreakSaver bool

	// HoldRewards parks rewards of spot-checked completions: when proof
	// is required the result lists the rewards but does not credit them.
	HoldRewards bool
}

// Complete processes a completion. Preconditions and input are checked
// before anything is drawn or computed, so a rejected request has no effect.
func (e *Engine) Complete(req CompletionRequest) (domain.CompletionResult, error) {
	if err := ValidateSnapshot(req.Snapshot); err != nil {
		return domain.CompletionResult{}, err
	}
	if err := validateQuest(req.Quest); err != nil {
		return domain.CompletionResult{}, err
	}
	if req.At.IsZero() {
		return domain.CompletionResult{}, &domain.InvalidInputError{Field: "at", Reason: "completion time is required"}
	}
	if err := CheckCompletable(req.Quest, req.At); err != nil {
		return domain.CompletionResult{}, err
	}

	snap := req.Snapshot

	// 1. Verify
	verdict := e.trust.Evaluate(req.Quest, req.Payload, snap.TrustScore)

	// 2. Update trust
	snap.TrustScore = UpdateTrustScore(snap.TrustScore, verdict.TrustDelta)

	// Streak continuity settles before rewards so a reset streak does not
	// keep paying its multiplier.
	snap, streakOut := e.streaks.Resolve(snap, req.At, req.UseStreakSaver)

	// 3. Compute rewards (post-update trust, current streak)
	rewards := e.loot.GenerateQuestRewards(req.Quest, snap.TrustScore, StreakMultiplier(snap.Streak))

	result := domain.CompletionResult{
		QuestID:       req.Quest.ID,
		CompletedAt:   req.At,
		Verification:  verdict,
		ProofRequired: verdict.NeedsProof,
		Rewards:       rewards,
		NewLevel:      snap.Level,
	}

	// 4 + 5. Apply rewards and resolve level-ups
	if !(verdict.NeedsProof && req.HoldRewards) {
		applied, err := e.ApplyRewards(snap, rewards)
		if err != nil {
			return domain.CompletionResult{}, err
		}
		snap = applied.Snapshot
		result.BonusRewards = applied.BonusRewards
		result.PendingItems = applied.PendingItems
		result.LeveledUp = applied.LeveledUp
		result.LevelsGained = applied.LevelsGained
		result.NewLevel = snap.Level
	}

	// Daily engagement: counter, streak increment, daily chest.
	snap = countCompletion(snap, req.At)
	snap, streakOut = e.streaks.Record(snap, req.At, streakOut)
	result.Streak = streakOut

	if chest, ok := e.unlockDailyChest(snap, req.At); ok {
		chest.CreatedAt = req.At
		result.Chest = &chest
		snap.DailyChestDate = CalendarDay(req.At)
		snap.HasUnopenedDailyChest = true
	}

	// 6. Emit
	result.Quest = req.Quest.MarkCompleted(req.At)
	result.Snapshot = snap
	return result, nil
}

// OpenChest applies a chest's rewards through the same routine as quest
// completion.
func (e *Engine) OpenChest(snap domain.Snapshot, chest domain.LootChest, at time.Time) (domain.ChestResult, error) {
	if chest.Opened {
		return domain.ChestResult{}, domain.ErrChestOpened
	}
	if err := ValidateSnapshot(snap); err != nil {
		return domain.ChestResult{}, err
	}

	applied, err := e.ApplyRewards(snap, chest.Rewards)
	if err != nil {
		return domain.ChestResult{}, err
	}
	if chest.Kind == domain.ChestDaily {
		applied.Snapshot.HasUnopenedDailyChest = false
	}

	chest.Opened = true
	chest.OpenedAt = at
	return domain.ChestResult{
		Chest:        chest,
		Rewards:      applied.Applied,
		BonusRewards: applied.BonusRewards,
		PendingItems: applied.PendingItems,
		LeveledUp:    applied.LeveledUp,
		NewLevel:     applied.Snapshot.Level,
		Snapshot:     applied.Snapshot,
	}, nil
}

// ApplyRewards credits rewards to a snapshot and resolves level-ups.
// Item rewards are not owned by the engine; they come back in PendingItems
// for the caller's inventory.
func (e *Engine) ApplyRewards(snap domain.Snapshot, rewards []domain.Reward) (domain.RewardApplication, error) {
	app := domain.RewardApplication{}
	for i, r := range rewards {
		if r.Amount < 1 {
			return domain.RewardApplication{}, &domain.InvalidInputError{
				Field:  fmt.Sprintf("rewards[%d].amount", i),
				Reason: "must be at least 1",
			}
		}
		var err error
		switch r.Type {
		case domain.RewardXP:
			snap.XP, err = addBalance(snap.XP, r.Amount, i, "xp")
		case domain.RewardGold:
			snap.Currencies.Gold, err = addBalance(snap.Currencies.Gold, r.Amount, i, "gold")
		case domain.RewardGems:
			snap.Currencies.Gems, err = addBalance(snap.Currencies.Gems, r.Amount, i, "gems")
		case domain.RewardTickets:
			snap.Currencies.Tickets, err = addBalance(snap.Currencies.Tickets, r.Amount, i, "tickets")
		case domain.RewardItem:
			app.PendingItems = append(app.PendingItems, r)
		default:
			return domain.RewardApplication{}, &domain.InvalidInputError{
				Field:  fmt.Sprintf("rewards[%d].type", i),
				Reason: fmt.Sprintf("unknown reward type %q", r.Type),
			}
		}
		if err != nil {
			return domain.RewardApplication{}, err
		}
		app.Applied = append(app.Applied, r)
	}

	startLevel := snap.Level
	snap, bonus, err := e.resolveLevelUps(snap)
	if err != nil {
		return domain.RewardApplication{}, err
	}
	app.BonusRewards = bonus
	app.LevelsGained = snap.Level - startLevel
	app.LeveledUp = app.LevelsGained > 0
	app.Snapshot = snap
	return app, nil
}

// resolveLevelUps rolls overflow XP into levels. Each level pays
// level*10 gold and every 5th level adds the gem milestone. At MaxLevel
// XP stops just short of the requirement.
func (e *Engine) resolveLevelUps(snap domain.Snapshot) (domain.Snapshot, []domain.Reward, error) {
	var bonus []domain.Reward
	for snap.Level < MaxLevel && snap.XP >= XPRequiredForLevel(snap.Level) {
		snap.XP -= XPRequiredForLevel(snap.Level)
		snap.Level++

		gold := domain.Reward{
			Type:   domain.RewardGold,
			Amount: int64(snap.Level) * e.cfg.LevelUpGoldPerLevel,
			Rarity: domain.RarityCommon,
			Source: fmt.Sprintf("%s:%d", domain.SourceLevelUp, snap.Level),
		}
		var err error
		if snap.Currencies.Gold, err = addBalance(snap.Currencies.Gold, gold.Amount, len(bonus), "gold"); err != nil {
			return snap, nil, err
		}
		bonus = append(bonus, gold)

		if snap.Level%e.cfg.MilestoneEvery == 0 {
			gems := domain.Reward{
				Type:   domain.RewardGems,
				Amount: e.cfg.MilestoneGems,
				Rarity: domain.RarityRare,
				Source: fmt.Sprintf("%s:%d", domain.SourceMilestone, snap.Level),
			}
			if snap.Currencies.Gems, err = addBalance(snap.Currencies.Gems, gems.Amount, len(bonus), "gems"); err != nil {
				return snap, nil, err
			}
			bonus = append(bonus, gems)
		}
	}
	if req := XPRequiredForLevel(snap.Level); snap.XP >= req {
		snap.XP = req - 1
	}
	return snap, bonus, nil
}

// addBalance credits amount to a non-negative balance. It refuses to wrap
// past math.MaxInt64 so balances never turn negative.
func addBalance(balance, amount int64, index int, balanceName string) (int64, error) {
	if amount > math.MaxInt64-balance {
		return balance, &domain.InvalidInputError{
			Field:  fmt.Sprintf("rewards[%d].amount", index),
			Reason: fmt.Sprintf("would overflow the %s balance", balanceName),
		}
	}
	return balance + amount, nil
}

// unlockDailyChest generates the daily chest the first time today's
// completions reach the unlock minimum, unless one is still unopened.
func (e *Engine) unlockDailyChest(snap domain.Snapshot, at time.Time) (domain.LootChest, bool) {
	if snap.CompletionsToday < e.cfg.ChestUnlockMinimum {
		return domain.LootChest{}, false
	}
	if snap.HasUnopenedDailyChest || SameDay(snap.DailyChestDate, at) {
		return domain.LootChest{}, false
	}
	return e.loot.GenerateChest(domain.ChestDaily, snap.CompletionsToday, snap.TrustScore), true
}

// UpgradeDailyChest regenerates an unopened daily chest when today's
// completion count has reached a higher tier than the one it was created at.
// The chest keeps its identity; only its tier and contents change. It
// reports false when the chest stays as it is.
func (e *Engine) UpgradeDailyChest(snap domain.Snapshot, chest domain.LootChest, at time.Time) (domain.LootChest, bool) {
	if chest.Kind != domain.ChestDaily || chest.Opened {
		return chest, false
	}
	if !SameDay(snap.DailyChestDate, at) || !SameDay(snap.CompletionsDate, at) {
		return chest, false
	}
	tier, _ := e.loot.ChestTier(snap.CompletionsToday)
	if tierRank(tier) <= tierRank(chest.Tier) {
		return chest, false
	}
	upgraded := e.loot.GenerateChest(domain.ChestDaily, snap.CompletionsToday, snap.TrustScore)
	upgraded.ID = chest.ID
	upgraded.UserID = chest.UserID
	upgraded.CreatedAt = chest.CreatedAt
	return upgraded, true
}

func tierRank(r domain.Rarity) int {
	switch r {
	case domain.RarityRare:
		return 1
	case domain.RarityEpic:
		return 2
	case domain.RarityMythic:
		return 3
	default:
		return 0
	}
}

// countCompletion bumps the per-day and lifetime completion counters.
func countCompletion(snap domain.Snapshot, at time.Time) domain.Snapshot {
	if !SameDay(snap.CompletionsDate, at) {
		snap.CompletionsToday = 0
		snap.CompletionsDate = CalendarDay(at)
	}
	snap.CompletionsToday++
	snap.TotalCompletions++
	return snap
}

// CheckCompletable returns a PreconditionError if the quest cannot be
// completed at now.
func CheckCompletable(q domain.Quest, now time.Time) error {
	if q.Status != domain.QuestActive {
		return &domain.PreconditionError{QuestID: q.ID, Reason: domain.ReasonNotActive}
	}
	if q.OnCooldown(now) {
		return &domain.PreconditionError{QuestID: q.ID, Reason: domain.ReasonOnCooldown}
	}
	return nil
}

// ValidateSnapshot rejects malformed snapshots instead of clamping them,
// since clamping would hide caller bugs.
func ValidateSnapshot(s domain.Snapshot) error {
	switch {
	case s.Level < 1 || s.Level > MaxLevel:
		return &domain.InvalidInputError{Field: "snapshot.level", Reason: fmt.Sprintf("must be within [1,%d], got %d", MaxLevel, s.Level)}
	case s.XP < 0:
		return &domain.InvalidInputError{Field: "snapshot.xp", Reason: fmt.Sprintf("must be ≥ 0, got %d", s.XP)}
	case s.XP >= XPRequiredForLevel(s.Level):
		return &domain.InvalidInputError{Field: "snapshot.xp", Reason: fmt.Sprintf("%d exceeds the level %d requirement", s.XP, s.Level)}
	case s.Currencies.Gold < 0 || s.Currencies.Gems < 0 || s.Currencies.Tickets < 0:
		return &domain.InvalidInputError{Field: "snapshot.currencies", Reason: "must be ≥ 0"}
	case math.IsNaN(s.TrustScore) || s.TrustScore < 0 || s.TrustScore > 100:
		return &domain.InvalidInputError{Field: "snapshot.trust_score", Reason: fmt.Sprintf("must be within [0,100], got %v", s.TrustScore)}
	case s.Streak < 0:
		return &domain.InvalidInputError{Field: "snapshot.streak", Reason: "must be ≥ 0"}
	case s.StreakSavers < 0:
		return &domain.InvalidInputError{Field: "snapshot.streak_savers", Reason: "must be ≥ 0"}
	case s.CompletionsToday < 0:
		return &domain.InvalidInputError{Field: "snapshot.completions_today", Reason: "must be ≥ 0"}
	}
	return nil
}

func validateQuest(q domain.Quest) error {
	switch {
	case q.ID == "":
		return &domain.InvalidInputError{Field: "quest.id", Reason: "is required"}
	case !q.Difficulty.Valid():
		return &domain.InvalidInputError{Field: "quest.difficulty", Reason: fmt.Sprintf("unknown difficulty %q", q.Difficulty)}
	case q.CooldownHours < 0:
		return &domain.InvalidInputError{Field: "quest.cooldown_hours", Reason: "must be ≥ 0"}
	case q.BaseXP < 0 || q.BaseGold < 0:
		return &domain.InvalidInputError{Field: "quest.base_rewards", Reason: "must be ≥ 0"}
	case q.BaseXP > domain.MaxQuestBaseReward || q.BaseGold > domain.MaxQuestBaseReward:
		return &domain.InvalidInputError{Field: "quest.base_rewards", Reason: fmt.Sprintf("must be ≤ %d", domain.MaxQuestBaseReward)}
	}
	for _, s := range q.Signals {
		if !s.Valid() {
			return &domain.InvalidInputError{Field: "quest.signals", Reason: fmt.Sprintf("unknown signal %q", s)}
		}
	}
	return nil
}
