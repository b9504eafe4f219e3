package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidequest-app/sidequest/internal/infra/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type brokenDB struct{}

func (brokenDB) Ping() error { return errors.New("database is locked") }

// ─── Checker Tests ──────────────────────────────────────────────────────────

func TestNewChecker(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), 0)
	require.NotNil(t, c)
	assert.Len(t, c.checks, 2)
	assert.Equal(t, 60_000_000_000, int(c.interval))
}

func TestChecker_RunAllHealthy(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), 0)
	c.RunAll(context.Background())

	assert.True(t, c.IsHealthy())
	statuses := c.Statuses()
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.True(t, s.Healthy, s.Name)
		assert.False(t, s.CheckedAt.IsZero())
	}
}

func TestChecker_SqliteFailure(t *testing.T) {
	c := NewChecker(brokenDB{}, t.TempDir(), 0)
	c.RunAll(context.Background())

	assert.False(t, c.IsHealthy())
	assert.Equal(t, "database is locked", c.Statuses()[0].Error)
}

func TestChecker_RecoversMissingDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")
	c := NewChecker(newTestDB(t), dir, 0)

	c.RunAll(context.Background())
	assert.False(t, c.IsHealthy(), "first run sees the missing dir")

	_, err := os.Stat(dir)
	require.NoError(t, err, "recovery recreates the dir")

	c.RunAll(context.Background())
	assert.True(t, c.IsHealthy())
}

func TestChecker_RunStopsOnCancel(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	<-done
	assert.Len(t, c.Statuses(), 2)
}
