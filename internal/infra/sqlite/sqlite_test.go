package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidequest-app/sidequest/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var t0 = time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)

func seedUser(t *testing.T, db *DB, id string) domain.User {
	t.Helper()
	u := domain.User{ID: id, Name: "Ada", Snapshot: domain.NewSnapshot(), CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, db.InsertUser(u))
	return u
}

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Join(dir, "state.db"))
	assert.NoError(t, err, "state.db should exist")
	assert.NoError(t, db.Ping())
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(dir)
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}

// ─── Users ──────────────────────────────────────────────────────────────────

func TestUser_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "u1")

	got, err := db.GetUser("u1")
	require.NoError(t, err)
	assert.Equal(t, u.Name, got.Name)
	assert.Equal(t, 1, got.Snapshot.Level)
	assert.Equal(t, domain.DefaultTrustScore, got.Snapshot.TrustScore)
	assert.True(t, got.CreatedAt.Equal(t0))

	_, err = db.GetUser("missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUser_SaveSnapshot(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")

	snap := domain.NewSnapshot()
	snap.Level, snap.XP = 4, 12
	snap.Currencies.Gems = 7
	snap.LastActiveDate = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.SaveSnapshot("u1", snap, "2025-W27", t0.Add(time.Hour)))

	got, err := db.GetUser("u1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Snapshot.Level)
	assert.Equal(t, int64(7), got.Snapshot.Currencies.Gems)
	assert.True(t, got.Snapshot.LastActiveDate.Equal(snap.LastActiveDate))
	assert.Equal(t, "2025-W27", got.DecayWeek)

	assert.ErrorIs(t, db.SaveSnapshot("nobody", snap, "", t0), domain.ErrUserNotFound)

	users, err := db.ListUsers()
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

// ─── Quests ─────────────────────────────────────────────────────────────────

func TestQuest_CRUD(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")

	q := domain.Quest{
		ID: "q1", UserID: "u1", Title: "Run", Difficulty: domain.DifficultyHard,
		Category: "fitness", CooldownHours: 20, BaseXP: 50, BaseGold: 20,
		Signals:   []domain.VerificationSignal{domain.SignalHealthWorkout, domain.SignalLocationDwell},
		Status:    domain.QuestActive,
		CreatedAt: t0,
	}
	require.NoError(t, db.InsertQuest(q))

	got, err := db.GetQuest("u1", "q1")
	require.NoError(t, err)
	assert.Equal(t, q.Signals, got.Signals)
	assert.True(t, got.LastCompletedAt.IsZero())

	done := q.MarkCompleted(t0.Add(time.Hour))
	require.NoError(t, db.UpdateQuestCompletion(done))
	got, err = db.GetQuest("u1", "q1")
	require.NoError(t, err)
	assert.True(t, got.LastCompletedAt.Equal(t0.Add(time.Hour)))

	_, err = db.GetQuest("u2", "q1")
	assert.ErrorIs(t, err, domain.ErrQuestNotFound, "quests are scoped to their owner")

	require.NoError(t, db.ArchiveQuest("u1", "q1"))
	active, err := db.ListQuests("u1", domain.QuestActive)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := db.ListQuests("u1", "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// ─── Chests ─────────────────────────────────────────────────────────────────

func TestChest_OpenOnce(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")

	c := domain.LootChest{
		ID: "c1", UserID: "u1", Kind: domain.ChestDaily, Tier: domain.RarityRare,
		Rewards: []domain.Reward{
			{Type: domain.RewardGold, Amount: 77, Rarity: domain.RarityCommon, Source: "chest:daily"},
		},
		CreatedAt: t0,
	}
	require.NoError(t, db.InsertChest(c))

	avail, err := db.ListChests("u1", true)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, c.Rewards, avail[0].Rewards)

	require.NoError(t, db.MarkChestOpened("u1", "c1", t0.Add(time.Minute)))
	assert.ErrorIs(t, db.MarkChestOpened("u1", "c1", t0), domain.ErrChestOpened)
	assert.ErrorIs(t, db.MarkChestOpened("u1", "nope", t0), domain.ErrChestNotFound)

	avail, err = db.ListChests("u1", true)
	require.NoError(t, err)
	assert.Empty(t, avail)

	n, err := db.OpenedChestCount("u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestChest_UpdateContentsOnlyWhileUnopened(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")

	c := domain.LootChest{
		ID: "c1", UserID: "u1", Kind: domain.ChestDaily, Tier: domain.RarityRare,
		Rewards:   []domain.Reward{{Type: domain.RewardGold, Amount: 77, Rarity: domain.RarityCommon, Source: "chest:daily"}},
		CreatedAt: t0,
	}
	require.NoError(t, db.InsertChest(c))

	c.Tier = domain.RarityEpic
	c.Rewards = append(c.Rewards, domain.Reward{Type: domain.RewardGems, Amount: 3, Rarity: domain.RarityEpic, Source: "chest:daily"})
	require.NoError(t, db.UpdateChestContents(c))

	got, err := db.GetChest("u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.RarityEpic, got.Tier)
	assert.Equal(t, c.Rewards, got.Rewards)
	assert.Equal(t, t0.Unix(), got.CreatedAt.Unix())

	require.NoError(t, db.MarkChestOpened("u1", "c1", t0))
	assert.ErrorIs(t, db.UpdateChestContents(c), domain.ErrChestOpened)
	c.ID = "nope"
	assert.ErrorIs(t, db.UpdateChestContents(c), domain.ErrChestNotFound)
}

// ─── Reward Log ─────────────────────────────────────────────────────────────

func TestRewardLog_AppendOnly(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")

	for i, amt := range []int64{46, 18} {
		typ := domain.RewardXP
		if i == 1 {
			typ = domain.RewardGold
		}
		_, err := db.InsertLogEntry(domain.LogEntry{
			UserID: "u1", QuestID: "q1", Timestamp: t0, Type: typ, Amount: amt,
			Rarity: domain.RarityCommon, Source: "quest:q1", Confidence: 0.5,
		})
		require.NoError(t, err)
	}

	entries, err := db.LogEntries("u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.RewardGold, entries[0].Type, "newest first")
	assert.Equal(t, "q1", entries[1].QuestID)

	total, err := db.RewardTotal("u1", domain.RewardXP)
	require.NoError(t, err)
	assert.Equal(t, int64(46), total)

	_, err = db.db.Exec(`UPDATE reward_log SET amount = 1000`)
	assert.Error(t, err)
	_, err = db.db.Exec(`DELETE FROM reward_log`)
	assert.Error(t, err)
}

func TestCompletions_CountWindow(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")

	for _, at := range []time.Time{t0, t0.Add(24 * time.Hour), t0.AddDate(0, 0, 8)} {
		_, err := db.InsertCompletion("u1", "q1", at, domain.Verification{Confidence: 0.8})
		require.NoError(t, err)
	}
	_, err := db.InsertCompletion("u1", "q2", t0, domain.Verification{Confidence: 0.2, NeedsProof: true})
	require.NoError(t, err)

	n, err := db.CompletionCount("u1", t0, t0.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	v, err := db.VerifiedCompletionCount("u1", 0.6)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

// ─── Pending Proofs ─────────────────────────────────────────────────────────

func TestPendingProof_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")

	p := domain.PendingProof{
		ID: "p1", UserID: "u1", QuestID: "q1", Confidence: 0.5, CreatedAt: t0,
		Rewards: []domain.Reward{{Type: domain.RewardXP, Amount: 46, Rarity: domain.RarityCommon, Source: "quest:q1"}},
	}
	require.NoError(t, db.InsertPendingProof(p))

	got, err := db.GetPendingProof("u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, p.Rewards, got.Rewards)

	list, err := db.ListPendingProofs("u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, db.DeletePendingProof("u1", "p1"))
	assert.ErrorIs(t, db.DeletePendingProof("u1", "p1"), domain.ErrProofNotFound)
	_, err = db.GetPendingProof("u1", "p1")
	assert.ErrorIs(t, err, domain.ErrProofNotFound)
}

// ─── Badges ─────────────────────────────────────────────────────────────────

func TestBadges_Idempotent(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")

	fresh, err := db.UnlockBadge("u1", "first_quest", t0)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = db.UnlockBadge("u1", "first_quest", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, fresh)

	set, err := db.UnlockedBadgeSet("u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"first_quest": true}, set)
}

// ─── Transactions ───────────────────────────────────────────────────────────

func TestInTx_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")

	err := db.InTx(func(s *Store) error {
		if _, err := s.InsertLogEntry(domain.LogEntry{
			UserID: "u1", Timestamp: t0, Type: domain.RewardGold, Amount: 5,
			Rarity: domain.RarityCommon, Source: "test",
		}); err != nil {
			return err
		}
		return domain.ErrChestOpened
	})
	assert.ErrorIs(t, err, domain.ErrChestOpened)

	entries, err := db.LogEntries("u1", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, db.InTx(func(s *Store) error {
		_, err := s.InsertLogEntry(domain.LogEntry{
			UserID: "u1", Timestamp: t0, Type: domain.RewardGold, Amount: 5,
			Rarity: domain.RarityCommon, Source: "test",
		})
		return err
	}))
	entries, err = db.LogEntries("u1", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
