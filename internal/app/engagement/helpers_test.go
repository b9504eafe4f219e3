package engagement_test

import (
	"time"

	"github.com/sidequest-app/sidequest/internal/domain"
)

// scriptedRand replays fixed draws. When a queue runs dry it falls back to
// a draw that never triggers a probability (0.99) and the range minimum.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (s *scriptedRand) Float64() float64 {
	if len(s.floats) == 0 {
		return 0.99
	}
	f := s.floats[0]
	s.floats = s.floats[1:]
	return f
}

func (s *scriptedRand) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v >= n {
		v = n - 1
	}
	return v
}

var day0 = time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)

func standardQuest(id string) domain.Quest {
	return domain.Quest{
		ID:         id,
		Title:      "Test quest",
		Difficulty: domain.DifficultyStandard,
		BaseXP:     50,
		BaseGold:   20,
		Status:     domain.QuestActive,
	}
}

func rewardOf(rewards []domain.Reward, typ domain.RewardType) (domain.Reward, bool) {
	for _, r := range rewards {
		if r.Type == typ {
			return r, true
		}
	}
	return domain.Reward{}, false
}
