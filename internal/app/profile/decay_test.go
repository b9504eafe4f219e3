package profile

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidequest-app/sidequest/internal/domain"
)

func TestSettleEach_ContinuesPastFailures(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	boom := errors.New("disk I/O error")
	var visited []string
	settled, err := settleEach([]string{"u1", "u2", "u3", "u4"}, func(id string) (*DecayResult, error) {
		visited = append(visited, id)
		switch id {
		case "u1":
			return nil, boom
		case "u3":
			return nil, domain.ErrUserNotFound
		case "u4":
			return &DecayResult{UserID: id}, nil
		}
		return &DecayResult{UserID: id, WeeksEvaluated: 1, Decays: 1, TrustBefore: 50, TrustAfter: 45}, nil
	})

	assert.Equal(t, []string{"u1", "u2", "u3", "u4"}, visited, "every user is attempted")
	require.Len(t, settled, 1)
	assert.Equal(t, "u2", settled[0].UserID)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Contains(t, err.Error(), "decay u1")
	assert.Contains(t, err.Error(), "decay u3")

	var failed []any
	for _, e := range hook.AllEntries() {
		if e.Message == "weekly decay failed" {
			failed = append(failed, e.Data["user_id"])
		}
	}
	assert.Equal(t, []any{"u1", "u3"}, failed)
}

func TestSettleEach_NoFailuresReturnsNilError(t *testing.T) {
	settled, err := settleEach([]string{"u1"}, func(id string) (*DecayResult, error) {
		return &DecayResult{UserID: id, WeeksEvaluated: 2}, nil
	})
	require.NoError(t, err)
	assert.Len(t, settled, 1)
}
