package engagement_test

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidequest-app/sidequest/internal/app/engagement"
	"github.com/sidequest-app/sidequest/internal/domain"
)

func newEngine(rng domain.RandomSource) *engagement.Engine {
	return engagement.NewEngine(engagement.DefaultConfig(), rng)
}

func TestComplete_StandardQuestAtTrust60(t *testing.T) {
	e := newEngine(&scriptedRand{})
	snap := domain.NewSnapshot()
	snap.TrustScore = 60

	res, err := e.Complete(engagement.CompletionRequest{
		Snapshot: snap,
		Quest:    standardQuest("q1"),
		At:       day0,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.5, res.Verification.Confidence)
	assert.Equal(t, 0.0, res.Verification.TrustDelta)
	assert.False(t, res.ProofRequired)

	xp, ok := rewardOf(res.Rewards, domain.RewardXP)
	require.True(t, ok)
	assert.Equal(t, int64(46), xp.Amount)

	assert.Equal(t, int64(46), res.Snapshot.XP)
	assert.Equal(t, int64(18), res.Snapshot.Currencies.Gold)
	assert.Equal(t, 60.0, res.Snapshot.TrustScore)
	assert.Equal(t, 1, res.Snapshot.CompletionsToday)
	assert.Equal(t, int64(1), res.Snapshot.TotalCompletions)
	assert.False(t, res.LeveledUp)
	assert.Equal(t, 1, res.NewLevel)
}

func TestApplyRewards_LevelUp(t *testing.T) {
	e := newEngine(&scriptedRand{})
	snap := domain.NewSnapshot()
	snap.XP = 90

	app, err := e.ApplyRewards(snap, []domain.Reward{{
		Type: domain.RewardXP, Amount: 20, Rarity: domain.RarityCommon, Source: "quest:q1",
	}})
	require.NoError(t, err)

	assert.True(t, app.LeveledUp)
	assert.Equal(t, 1, app.LevelsGained)
	assert.Equal(t, 2, app.Snapshot.Level)
	assert.Equal(t, int64(10), app.Snapshot.XP)
	require.Len(t, app.BonusRewards, 1)
	assert.Equal(t, domain.RewardGold, app.BonusRewards[0].Type)
	assert.Equal(t, int64(20), app.BonusRewards[0].Amount)
	assert.Equal(t, "level_up:2", app.BonusRewards[0].Source)
	assert.Equal(t, int64(20), app.Snapshot.Currencies.Gold)
	assert.Len(t, app.AllRewards(), 2)
}

func TestApplyRewards_MultiLevelWithMilestone(t *testing.T) {
	e := newEngine(&scriptedRand{})
	app, err := e.ApplyRewards(domain.NewSnapshot(), []domain.Reward{{
		Type: domain.RewardXP, Amount: 1000, Rarity: domain.RarityCommon, Source: "test",
	}})
	require.NoError(t, err)

	// 100+115+132+152+174+201 = 874 consumed, level 7 needs 231.
	assert.Equal(t, 7, app.Snapshot.Level)
	assert.Equal(t, int64(126), app.Snapshot.XP)
	assert.Equal(t, 6, app.LevelsGained)
	assert.Equal(t, int64(270), app.Snapshot.Currencies.Gold)
	assert.Equal(t, int64(5), app.Snapshot.Currencies.Gems)

	var milestones int
	for _, r := range app.BonusRewards {
		if r.Type == domain.RewardGems {
			milestones++
			assert.Equal(t, "level_milestone:5", r.Source)
			assert.Equal(t, domain.RarityRare, r.Rarity)
		}
	}
	assert.Equal(t, 1, milestones)
}

func TestApplyRewards_ItemsAndTickets(t *testing.T) {
	e := newEngine(&scriptedRand{})
	app, err := e.ApplyRewards(domain.NewSnapshot(), []domain.Reward{
		{Type: domain.RewardTickets, Amount: 2, Rarity: domain.RarityCommon, Source: "event"},
		{Type: domain.RewardItem, Amount: 1, Rarity: domain.RarityEpic, Source: "event", ItemID: "hat"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), app.Snapshot.Currencies.Tickets)
	require.Len(t, app.PendingItems, 1)
	assert.Equal(t, "hat", app.PendingItems[0].ItemID)
}

func TestApplyRewards_RejectsBadRewards(t *testing.T) {
	e := newEngine(&scriptedRand{})

	_, err := e.ApplyRewards(domain.NewSnapshot(), []domain.Reward{{Type: domain.RewardGold, Amount: 0}})
	assert.True(t, domain.IsInvalidInput(err))

	_, err = e.ApplyRewards(domain.NewSnapshot(), []domain.Reward{{Type: "stardust", Amount: 3}})
	var inv *domain.InvalidInputError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "rewards[0].type", inv.Field)
}

func TestApplyRewards_RefusesToWrapBalances(t *testing.T) {
	e := newEngine(&scriptedRand{})
	snap := domain.NewSnapshot()
	snap.Currencies.Gold = math.MaxInt64 - 10

	_, err := e.ApplyRewards(snap, []domain.Reward{
		{Type: domain.RewardGems, Amount: 1, Rarity: domain.RarityCommon, Source: "event"},
		{Type: domain.RewardGold, Amount: 11, Rarity: domain.RarityCommon, Source: "event"},
	})
	var inv *domain.InvalidInputError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "rewards[1].amount", inv.Field)

	app, err := e.ApplyRewards(snap, []domain.Reward{{Type: domain.RewardGold, Amount: 10, Rarity: domain.RarityCommon, Source: "event"}})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), app.Snapshot.Currencies.Gold)
	assert.NoError(t, engagement.ValidateSnapshot(app.Snapshot))
}

func TestApplyRewards_StopsAtMaxLevel(t *testing.T) {
	e := newEngine(&scriptedRand{})
	snap := domain.NewSnapshot()
	snap.Level = engagement.MaxLevel - 1

	app, err := e.ApplyRewards(snap, []domain.Reward{
		{Type: domain.RewardXP, Amount: math.MaxInt64, Rarity: domain.RarityCommon, Source: "event"},
	})
	require.NoError(t, err)
	assert.Equal(t, engagement.MaxLevel, app.Snapshot.Level)
	assert.Equal(t, 1, app.LevelsGained)
	assert.NoError(t, engagement.ValidateSnapshot(app.Snapshot))

	// At the top level XP stops one short of the requirement.
	top := domain.NewSnapshot()
	top.Level = engagement.MaxLevel
	app, err = e.ApplyRewards(top, []domain.Reward{
		{Type: domain.RewardXP, Amount: math.MaxInt64, Rarity: domain.RarityCommon, Source: "event"},
	})
	require.NoError(t, err)
	assert.Equal(t, engagement.MaxLevel, app.Snapshot.Level)
	assert.False(t, app.LeveledUp)
	assert.Equal(t, engagement.XPRequiredForLevel(engagement.MaxLevel)-1, app.Snapshot.XP)
	assert.NoError(t, engagement.ValidateSnapshot(app.Snapshot))

	over := domain.NewSnapshot()
	over.Level = engagement.MaxLevel + 1
	assert.True(t, domain.IsInvalidInput(engagement.ValidateSnapshot(over)))
}

func TestComplete_RejectsOversizedQuestRewards(t *testing.T) {
	e := newEngine(&scriptedRand{})
	q := standardQuest("greedy")
	q.Difficulty = domain.DifficultyHard
	q.BaseGold = 4e18

	_, err := e.Complete(engagement.CompletionRequest{Snapshot: domain.NewSnapshot(), Quest: q, At: day0})
	var inv *domain.InvalidInputError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "quest.base_rewards", inv.Field)

	q.BaseGold = domain.MaxQuestBaseReward
	snap := domain.NewSnapshot()
	for i := 0; i < 3; i++ {
		q.ID = fmt.Sprintf("max-%d", i)
		res, err := e.Complete(engagement.CompletionRequest{Snapshot: snap, Quest: q, At: day0})
		require.NoError(t, err)
		snap = res.Snapshot
	}
	assert.Positive(t, snap.Currencies.Gold)
}

func TestComplete_HighConfidenceNeverNeedsProof(t *testing.T) {
	rng := &scriptedRand{floats: []float64{0, 0, 0, 0}}
	e := newEngine(rng)
	q := standardQuest("workout")
	q.Signals = []domain.VerificationSignal{domain.SignalHealthWorkout, domain.SignalLocationDwell}

	snap := domain.NewSnapshot()
	snap.TrustScore = 10
	res, err := e.Complete(engagement.CompletionRequest{
		Snapshot: snap,
		Quest:    q,
		Payload:  domain.VerificationPayload{Health: &domain.HealthSummary{WorkoutMinutes: 40}, LocationHash: "gym"},
		At:       day0,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, res.Verification.Confidence, 1e-9)
	assert.False(t, res.ProofRequired)
	assert.Equal(t, 10.5, res.Snapshot.TrustScore)
}

func TestComplete_HoldRewardsWhenProofRequired(t *testing.T) {
	e := newEngine(&scriptedRand{floats: []float64{0.01}})
	snap := domain.NewSnapshot()

	res, err := e.Complete(engagement.CompletionRequest{
		Snapshot:    snap,
		Quest:       standardQuest("q1"),
		At:          day0,
		HoldRewards: true,
	})
	require.NoError(t, err)
	assert.True(t, res.ProofRequired)
	assert.Len(t, res.Rewards, 2)
	assert.Equal(t, int64(0), res.Snapshot.XP, "held rewards are not credited")
	assert.Equal(t, int64(0), res.Snapshot.Currencies.Gold)
	assert.Equal(t, 1, res.Snapshot.CompletionsToday)
	assert.Equal(t, day0, res.Quest.LastCompletedAt)
}

func TestComplete_ProofRequiredStillCreditsWithoutHold(t *testing.T) {
	e := newEngine(&scriptedRand{floats: []float64{0.01}})
	res, err := e.Complete(engagement.CompletionRequest{
		Snapshot: domain.NewSnapshot(),
		Quest:    standardQuest("q1"),
		At:       day0,
	})
	require.NoError(t, err)
	assert.True(t, res.ProofRequired)
	assert.Positive(t, res.Snapshot.XP)
}

func TestComplete_CooldownRejectsSecondCompletion(t *testing.T) {
	e := newEngine(&scriptedRand{})
	q := standardQuest("daily")
	q.CooldownHours = 20

	res, err := e.Complete(engagement.CompletionRequest{Snapshot: domain.NewSnapshot(), Quest: q, At: day0})
	require.NoError(t, err)
	assert.Equal(t, domain.QuestActive, res.Quest.Status, "recurring quests stay active")

	_, err = e.Complete(engagement.CompletionRequest{Snapshot: res.Snapshot, Quest: res.Quest, At: day0.Add(time.Hour)})
	require.Error(t, err)
	assert.True(t, domain.IsPrecondition(err))
	assert.True(t, errors.Is(err, domain.ErrQuestOnCooldown))

	var pe *domain.PreconditionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, domain.ReasonOnCooldown, pe.Reason)
	assert.Equal(t, "daily", pe.QuestID)

	_, err = e.Complete(engagement.CompletionRequest{Snapshot: res.Snapshot, Quest: res.Quest, At: day0.Add(20 * time.Hour)})
	assert.NoError(t, err)
}

func TestComplete_OneShotQuestCompletesOnce(t *testing.T) {
	e := newEngine(&scriptedRand{})
	res, err := e.Complete(engagement.CompletionRequest{Snapshot: domain.NewSnapshot(), Quest: standardQuest("once"), At: day0})
	require.NoError(t, err)
	assert.Equal(t, domain.QuestCompleted, res.Quest.Status)

	_, err = e.Complete(engagement.CompletionRequest{Snapshot: res.Snapshot, Quest: res.Quest, At: day0.AddDate(0, 0, 3)})
	assert.True(t, errors.Is(err, domain.ErrQuestNotActive))
}

func TestComplete_RejectsInvalidInput(t *testing.T) {
	e := newEngine(&scriptedRand{})

	bad := domain.NewSnapshot()
	bad.XP = 100
	_, err := e.Complete(engagement.CompletionRequest{Snapshot: bad, Quest: standardQuest("q"), At: day0})
	assert.True(t, domain.IsInvalidInput(err))

	bad = domain.NewSnapshot()
	bad.TrustScore = 140
	_, err = e.Complete(engagement.CompletionRequest{Snapshot: bad, Quest: standardQuest("q"), At: day0})
	assert.True(t, domain.IsInvalidInput(err))

	q := standardQuest("q")
	q.Difficulty = "legendary"
	_, err = e.Complete(engagement.CompletionRequest{Snapshot: domain.NewSnapshot(), Quest: q, At: day0})
	assert.True(t, domain.IsInvalidInput(err))

	q = standardQuest("q")
	q.Signals = []domain.VerificationSignal{"telepathy"}
	_, err = e.Complete(engagement.CompletionRequest{Snapshot: domain.NewSnapshot(), Quest: q, At: day0})
	assert.True(t, domain.IsInvalidInput(err))

	_, err = e.Complete(engagement.CompletionRequest{Snapshot: domain.NewSnapshot(), Quest: standardQuest("q")})
	assert.True(t, domain.IsInvalidInput(err))
}

func TestComplete_DailyChestAndStreakOnThirdCompletion(t *testing.T) {
	e := newEngine(engagement.NewRandom(3))
	snap := domain.NewSnapshot()

	var last domain.CompletionResult
	for i, id := range []string{"a", "b", "c"} {
		res, err := e.Complete(engagement.CompletionRequest{
			Snapshot: snap,
			Quest:    standardQuest(id),
			At:       day0.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
		if i < 2 {
			assert.Nil(t, res.Chest)
			assert.False(t, res.Streak.Incremented)
		}
		snap, last = res.Snapshot, res
	}

	require.NotNil(t, last.Chest)
	assert.Equal(t, domain.ChestDaily, last.Chest.Kind)
	assert.Equal(t, domain.RarityRare, last.Chest.Tier)
	assert.Len(t, last.Chest.Rewards, 3)
	assert.True(t, snap.HasUnopenedDailyChest)
	assert.True(t, last.Streak.Incremented)
	assert.Equal(t, 1, snap.Streak)

	// A fourth completion the same day neither adds a chest nor a streak day.
	res, err := e.Complete(engagement.CompletionRequest{Snapshot: snap, Quest: standardQuest("d"), At: day0.Add(4 * time.Hour)})
	require.NoError(t, err)
	assert.Nil(t, res.Chest)
	assert.False(t, res.Streak.Incremented)
	assert.Equal(t, 4, res.Snapshot.CompletionsToday)
}

func TestUpgradeDailyChest_EpicAtFiveCompletions(t *testing.T) {
	e := newEngine(engagement.NewRandom(5))
	snap := domain.NewSnapshot()

	var chest domain.LootChest
	for i := 0; i < 5; i++ {
		at := day0.Add(time.Duration(i) * time.Hour)
		res, err := e.Complete(engagement.CompletionRequest{
			Snapshot: snap,
			Quest:    standardQuest(fmt.Sprintf("q%d", i)),
			At:       at,
		})
		require.NoError(t, err)
		snap = res.Snapshot
		if res.Chest != nil {
			chest = *res.Chest
			chest.ID, chest.UserID = "c1", "u1"
		}

		upgraded, ok := e.UpgradeDailyChest(snap, chest, at)
		switch i {
		case 0, 1:
			assert.False(t, ok, "no chest yet")
		case 2, 3:
			assert.False(t, ok, "still rare after %d completions", i+1)
			assert.Equal(t, domain.RarityRare, upgraded.Tier)
		case 4:
			require.True(t, ok)
			assert.Equal(t, domain.RarityEpic, upgraded.Tier)
			assert.Equal(t, "c1", upgraded.ID)
			assert.Equal(t, "u1", upgraded.UserID)
			assert.Equal(t, chest.CreatedAt, upgraded.CreatedAt)
			assert.GreaterOrEqual(t, len(upgraded.Rewards), 4)

			_, again := e.UpgradeDailyChest(snap, upgraded, at)
			assert.False(t, again, "already epic")
		}
	}

	opened := chest
	opened.Opened = true
	_, ok := e.UpgradeDailyChest(snap, opened, day0.Add(5*time.Hour))
	assert.False(t, ok, "opened chests are final")

	_, ok = e.UpgradeDailyChest(snap, chest, day0.Add(30*time.Hour))
	assert.False(t, ok, "yesterday's chest is not upgraded")
}

func TestComplete_BrokenStreakResetsBeforeRewards(t *testing.T) {
	e := newEngine(&scriptedRand{})
	snap := domain.NewSnapshot()
	snap.TrustScore = 60
	snap.Streak, snap.LongestStreak = 30, 30
	snap.LastActiveDate = engagement.CalendarDay(day0.AddDate(0, 0, -4))

	res, err := e.Complete(engagement.CompletionRequest{Snapshot: snap, Quest: standardQuest("q"), At: day0})
	require.NoError(t, err)
	assert.True(t, res.Streak.Reset)
	assert.Equal(t, 0, res.Snapshot.Streak)
	xp, _ := rewardOf(res.Rewards, domain.RewardXP)
	assert.Equal(t, int64(46), xp.Amount, "no 2.0 multiplier for a dead streak")
}

func TestComplete_StreakSaverKeepsMultiplier(t *testing.T) {
	e := newEngine(&scriptedRand{})
	snap := domain.NewSnapshot()
	snap.TrustScore = 60
	snap.Streak, snap.LongestStreak = 30, 30
	snap.StreakSavers = 1
	snap.LastActiveDate = engagement.CalendarDay(day0.AddDate(0, 0, -4))

	res, err := e.Complete(engagement.CompletionRequest{
		Snapshot: snap, Quest: standardQuest("q"), At: day0, UseStreakSaver: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Streak.SaverConsumed)
	assert.Equal(t, 30, res.Snapshot.Streak)
	assert.Equal(t, 0, res.Snapshot.StreakSavers)
	xp, _ := rewardOf(res.Rewards, domain.RewardXP)
	assert.Equal(t, int64(92), xp.Amount)
}

func TestComplete_XPStaysBelowRequirement(t *testing.T) {
	e := newEngine(engagement.NewRandom(99))
	snap := domain.NewSnapshot()
	q := standardQuest("grind")
	q.Difficulty = domain.DifficultyHard
	q.BaseXP = 400

	at := day0
	for i := 0; i < 200; i++ {
		res, err := e.Complete(engagement.CompletionRequest{Snapshot: snap, Quest: q, At: at})
		require.NoError(t, err)
		require.Less(t, res.Snapshot.XP, engagement.XPRequiredForLevel(res.Snapshot.Level))
		require.GreaterOrEqual(t, res.Snapshot.TrustScore, 0.0)
		require.LessOrEqual(t, res.Snapshot.TrustScore, 100.0)
		snap = res.Snapshot
		if res.Chest != nil {
			opened, err := e.OpenChest(snap, *res.Chest, at)
			require.NoError(t, err)
			snap = opened.Snapshot
		}
		at = at.Add(3 * time.Hour)
	}
	assert.Greater(t, snap.Level, 10)
}

func TestOpenChest(t *testing.T) {
	e := newEngine(&scriptedRand{})
	snap := domain.NewSnapshot()
	snap.HasUnopenedDailyChest = true
	chest := domain.LootChest{
		Kind: domain.ChestDaily,
		Tier: domain.RarityRare,
		Rewards: []domain.Reward{
			{Type: domain.RewardGold, Amount: 100, Rarity: domain.RarityCommon, Source: "chest:daily"},
			{Type: domain.RewardXP, Amount: 120, Rarity: domain.RarityCommon, Source: "chest:daily"},
		},
	}

	res, err := e.OpenChest(snap, chest, day0)
	require.NoError(t, err)
	assert.True(t, res.Chest.Opened)
	assert.Equal(t, day0, res.Chest.OpenedAt)
	assert.False(t, res.Snapshot.HasUnopenedDailyChest)
	assert.True(t, res.LeveledUp)
	assert.Equal(t, 2, res.NewLevel)
	assert.Equal(t, int64(120), res.Snapshot.Currencies.Gold) // 100 + level-up 20

	_, err = e.OpenChest(res.Snapshot, res.Chest, day0)
	assert.ErrorIs(t, err, domain.ErrChestOpened)
}

func TestNewEngine_FillsDefaults(t *testing.T) {
	e := engagement.NewEngine(engagement.Config{}, &scriptedRand{})
	assert.Equal(t, engagement.DefaultConfig(), e.Config())
	assert.NotNil(t, e.Trust())
	assert.NotNil(t, e.Loot())
	assert.Equal(t, 3, e.Streaks().DailyMinimum())
}
