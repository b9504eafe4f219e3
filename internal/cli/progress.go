package cli

import (
	"fmt"
	"strings"

	"github.com/sidequest-app/sidequest/internal/app/engagement"
	"github.com/sidequest-app/sidequest/internal/domain"
)

// ─── Progress Bar ───────────────────────────────────────────────────────────
// Level progress for the terminal:
//   Lv 4  [=========>....................]  33% | 50 / 152 XP

const barWidth = 30 // Characters for the progress bar

// renderBar draws a fixed-width bar for pct in [0, 100].
func renderBar(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	filled := int(pct / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	empty := barWidth - filled

	switch {
	case filled == barWidth:
		return strings.Repeat("=", filled)
	case filled > 0:
		return strings.Repeat("=", filled-1) + ">" + strings.Repeat(".", empty)
	default:
		return strings.Repeat(".", barWidth)
	}
}

// levelLine renders a snapshot's progress toward the next level.
func levelLine(snap domain.Snapshot) string {
	pct := engagement.LevelProgress(snap.XP, snap.Level) * 100
	return fmt.Sprintf("Lv %d  [%s] %3.0f%% | %d / %d XP",
		snap.Level, renderBar(pct), pct, snap.XP, engagement.XPRequiredForLevel(snap.Level))
}

// trustLine renders the trust score on the same bar.
func trustLine(snap domain.Snapshot) string {
	return fmt.Sprintf("Trust [%s] %5.1f", renderBar(snap.TrustScore), snap.TrustScore)
}
