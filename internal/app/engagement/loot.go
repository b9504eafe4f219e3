package engagement

import (
	"github.com/sidequest-app/sidequest/internal/domain"
)

// IntRange is an inclusive range of integer amounts.
type IntRange struct {
	Min int64
	Max int64
}

// LootTable holds every tunable probability and range of the loot generator.
type LootTable struct {
	// Quest completion bonus: hard quests only.
	HardGemChance float64
	HardGems      IntRange

	// Chest tiers by quests completed today.
	EpicThreshold int
	RareThreshold int
	EpicSlots     int
	RareSlots     int
	CommonSlots   int

	// Deterministic chest slots.
	ChestGold IntRange
	ChestXP   IntRange

	// Random chest slots.
	SlotGemChance float64
	SlotGems      IntRange
	SlotGold      IntRange

	// Epic jackpot.
	JackpotChance float64
	JackpotGems   int64
}

// DefaultLootTable returns the production loot table.
func DefaultLootTable() LootTable {
	return LootTable{
		HardGemChance: 0.15,
		HardGems:      IntRange{1, 3},

		EpicThreshold: 5,
		RareThreshold: 3,
		EpicSlots:     4,
		RareSlots:     3,
		CommonSlots:   2,

		ChestGold: IntRange{50, 150},
		ChestXP:   IntRange{30, 100},

		SlotGemChance: 0.30,
		SlotGems:      IntRange{1, 5},
		SlotGold:      IntRange{20, 80},

		JackpotChance: 0.02,
		JackpotGems:   50,
	}
}

// LootGenerator produces weighted-random reward bundles.
type LootGenerator struct {
	table LootTable
	rng   domain.RandomSource
}

// NewLootGenerator creates a generator drawing from rng.
func NewLootGenerator(table LootTable, rng domain.RandomSource) *LootGenerator {
	return &LootGenerator{table: table, rng: rng}
}

// Table returns the generator's loot table.
func (g *LootGenerator) Table() LootTable { return g.table }

// GenerateQuestRewards returns exactly one XP and one gold reward for a
// completion, plus the occasional gem bonus on hard quests. The streak
// multiplier scales XP only; gold is scaled by trust alone.
func (g *LootGenerator) GenerateQuestRewards(quest domain.Quest, trustScore, streakMultiplier float64) []domain.Reward {
	difficulty := DifficultyMultiplier(quest.Difficulty)
	trust := TrustMultiplier(trustScore)
	source := domain.SourceQuest + ":" + quest.ID

	baseXP, baseGold := quest.BaseXP, quest.BaseGold
	if baseXP <= 0 {
		baseXP = domain.DefaultQuestBaseXP
	}
	if baseGold <= 0 {
		baseGold = domain.DefaultQuestBaseGold
	}

	rewards := []domain.Reward{
		{
			Type:   domain.RewardXP,
			Amount: floorAmount(float64(baseXP) * difficulty * trust * streakMultiplier),
			Rarity: domain.RarityCommon,
			Source: source,
		},
		{
			Type:   domain.RewardGold,
			Amount: floorAmount(float64(baseGold) * difficulty * trust),
			Rarity: domain.RarityCommon,
			Source: source,
		},
	}

	if quest.Difficulty == domain.DifficultyHard && g.chance(g.table.HardGemChance) {
		rewards = append(rewards, domain.Reward{
			Type:   domain.RewardGems,
			Amount: g.between(g.table.HardGems),
			Rarity: domain.RarityRare,
			Source: domain.SourceQuestBonus + ":" + quest.ID,
		})
	}
	return rewards
}

// ChestTier picks the chest tier for the number of quests completed today.
func (g *LootGenerator) ChestTier(questsCompletedToday int) (domain.Rarity, int) {
	switch {
	case questsCompletedToday >= g.table.EpicThreshold:
		return domain.RarityEpic, g.table.EpicSlots
	case questsCompletedToday >= g.table.RareThreshold:
		return domain.RarityRare, g.table.RareSlots
	default:
		return domain.RarityCommon, g.table.CommonSlots
	}
}

// GenerateChest builds an unopened chest. Daily chests always start with a
// gold and an XP slot; generic chests start with gold only. Remaining slots
// are random, and epic chests roll for the mythic jackpot afterwards.
// trustScore is accepted for parity with quest rewards; chest contents are
// not trust-scaled.
func (g *LootGenerator) GenerateChest(kind domain.ChestKind, questsCompletedToday int, trustScore float64) domain.LootChest {
	tier, slots := g.ChestTier(questsCompletedToday)
	source := domain.SourceChest + ":" + string(kind)

	rewards := make([]domain.Reward, 0, slots+1)
	rewards = append(rewards, domain.Reward{
		Type:   domain.RewardGold,
		Amount: g.between(g.table.ChestGold),
		Rarity: domain.RarityCommon,
		Source: source,
	})
	if kind == domain.ChestDaily {
		rewards = append(rewards, domain.Reward{
			Type:   domain.RewardXP,
			Amount: g.between(g.table.ChestXP),
			Rarity: domain.RarityCommon,
			Source: source,
		})
	}

	for len(rewards) < slots {
		rewards = append(rewards, g.randomSlot(source))
	}

	if tier == domain.RarityEpic && g.chance(g.table.JackpotChance) {
		rewards = append(rewards, domain.Reward{
			Type:   domain.RewardGems,
			Amount: g.table.JackpotGems,
			Rarity: domain.RarityMythic,
			Source: domain.SourceChestJackpot,
		})
	}

	return domain.LootChest{
		Kind:    kind,
		Tier:    tier,
		Rewards: rewards,
	}
}

func (g *LootGenerator) randomSlot(source string) domain.Reward {
	if g.chance(g.table.SlotGemChance) {
		return domain.Reward{
			Type:   domain.RewardGems,
			Amount: g.between(g.table.SlotGems),
			Rarity: domain.RarityRare,
			Source: source,
		}
	}
	return domain.Reward{
		Type:   domain.RewardGold,
		Amount: g.between(g.table.SlotGold),
		Rarity: domain.RarityCommon,
		Source: source,
	}
}

// chance draws once and reports whether it landed under p.
func (g *LootGenerator) chance(p float64) bool {
	return g.rng.Float64() < p
}

// between draws uniformly from the inclusive range r.
func (g *LootGenerator) between(r IntRange) int64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + int64(g.rng.Intn(int(r.Max-r.Min+1)))
}
