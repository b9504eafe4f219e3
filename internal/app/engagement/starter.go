package engagement

import (
	"github.com/sidequest-app/sidequest/internal/domain"
)

// StarterTemplate is a catalog entry new users can be seeded with.
type StarterTemplate struct {
	Title         string
	Category      string
	Difficulty    domain.Difficulty
	Signals       []domain.VerificationSignal
	CooldownHours int
}

// starterPool is the set of possible starter quests.
var starterPool = []StarterTemplate{
	{Title: "Walk 5,000 steps", Category: "fitness", Difficulty: domain.DifficultyEasy,
		Signals: []domain.VerificationSignal{domain.SignalHealthSteps}, CooldownHours: 20},
	{Title: "30 minute workout", Category: "fitness", Difficulty: domain.DifficultyStandard,
		Signals: []domain.VerificationSignal{domain.SignalHealthWorkout}, CooldownHours: 20},
	{Title: "Run at the park", Category: "fitness", Difficulty: domain.DifficultyHard,
		Signals: []domain.VerificationSignal{domain.SignalHealthWorkout, domain.SignalLocationDwell}, CooldownHours: 20},
	{Title: "Deep work session", Category: "focus", Difficulty: domain.DifficultyStandard,
		Signals: []domain.VerificationSignal{domain.SignalTimerCompletion, domain.SignalLowAppSwitching}, CooldownHours: 4},
	{Title: "Read for 20 minutes", Category: "focus", Difficulty: domain.DifficultyEasy,
		Signals: []domain.VerificationSignal{domain.SignalTimerCompletion}, CooldownHours: 20},
	{Title: "Sleep 7 hours", Category: "rest", Difficulty: domain.DifficultyStandard,
		Signals: []domain.VerificationSignal{domain.SignalHealthSleep}, CooldownHours: 20},
	{Title: "Cook a healthy meal", Category: "nutrition", Difficulty: domain.DifficultyStandard,
		Signals: []domain.VerificationSignal{domain.SignalPhotoProof}, CooldownHours: 8},
	{Title: "Journal entry", Category: "mindfulness", Difficulty: domain.DifficultyEasy,
		CooldownHours: 20},
}

// StarterPool returns a copy of the starter catalog.
func StarterPool() []StarterTemplate {
	out := make([]StarterTemplate, len(starterPool))
	copy(out, starterPool)
	return out
}

// PickStarterQuests selects n templates, preferring distinct categories.
func PickStarterQuests(rng domain.RandomSource, n int) []StarterTemplate {
	shuffled := StarterPool()
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	// Pick unique categories first
	seen := make(map[string]bool)
	picked := make(map[string]bool)
	var result []StarterTemplate
	for _, tmpl := range shuffled {
		if len(result) >= n {
			break
		}
		if !seen[tmpl.Category] {
			seen[tmpl.Category] = true
			picked[tmpl.Title] = true
			result = append(result, tmpl)
		}
	}

	// If not enough unique categories, fill with any
	for _, tmpl := range shuffled {
		if len(result) >= n {
			break
		}
		if !picked[tmpl.Title] {
			picked[tmpl.Title] = true
			result = append(result, tmpl)
		}
	}
	return result
}
