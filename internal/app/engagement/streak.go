// Package engagement implements the SideQuest progression engine:
// the XP curve, trust verification, loot tables, streaks and the engine
// that turns a quest completion into a CompletionResult.
// Everything here is synchronous and free of I/O; randomness is injected
// and time is passed in by the caller.
package engagement

import (
	"fmt"
	"time"

	"github.com/sidequest-app/sidequest/internal/domain"
)

// DefaultDailyMinimum is the number of completions in a calendar day that
// counts the day toward the streak. A policy choice, not an invariant.
const DefaultDailyMinimum = 3

// StreakTracker decides streak continuity with calendar-day granularity.
type StreakTracker struct {
	dailyMinimum int
}

// NewStreakTracker creates a tracker. dailyMinimum ≤ 0 selects the default.
func NewStreakTracker(dailyMinimum int) *StreakTracker {
	if dailyMinimum <= 0 {
		dailyMinimum = DefaultDailyMinimum
	}
	return &StreakTracker{dailyMinimum: dailyMinimum}
}

// DailyMinimum returns the completions needed to count a day.
func (s *StreakTracker) DailyMinimum() int { return s.dailyMinimum }

// Evaluate compares the day the streak last counted with today.
// Same day: active. Previous day: needs a completion today. Older: broken.
// A streak that never started needs a completion.
func (s *StreakTracker) Evaluate(lastActiveDate, today time.Time) domain.StreakState {
	if lastActiveDate.IsZero() {
		return domain.StreakNeedsCompletion
	}
	switch diff := DaysBetween(lastActiveDate, today); {
	case diff <= 0:
		return domain.StreakActive
	case diff == 1:
		return domain.StreakNeedsCompletion
	default:
		return domain.StreakBroken
	}
}

// Status builds the UI-facing streak status for a snapshot.
func (s *StreakTracker) Status(snap domain.Snapshot, today time.Time) domain.StreakStatus {
	state := s.Evaluate(snap.LastActiveDate, today)
	return domain.StreakStatus{
		State:          state,
		Streak:         snap.Streak,
		LongestStreak:  snap.LongestStreak,
		LastActiveDate: snap.LastActiveDate,
		SaversHeld:     snap.StreakSavers,
		CanUseSaver:    state == domain.StreakBroken && snap.Streak > 0 && snap.StreakSavers > 0,
	}
}

// Resolve settles a broken streak. With useSaver and a saver in hand the
// streak is preserved, one saver is consumed and the gap is bridged so the
// user can still extend the streak today. Otherwise a broken streak resets
// to 0. Non-broken streaks are returned untouched.
func (s *StreakTracker) Resolve(snap domain.Snapshot, today time.Time, useSaver bool) (domain.Snapshot, domain.StreakOutcome) {
	state := s.Evaluate(snap.LastActiveDate, today)
	out := domain.StreakOutcome{Before: state, Streak: snap.Streak}
	if state != domain.StreakBroken {
		return snap, out
	}

	if snap.Streak == 0 {
		return snap, out
	}

	if useSaver && snap.StreakSavers > 0 {
		snap.StreakSavers--
		snap.LastActiveDate = CalendarDay(today).AddDate(0, 0, -1)
		out.SaverConsumed = true
		return snap, out
	}

	snap.Streak = 0
	out.Streak = 0
	out.Reset = true
	return snap, out
}

// Record counts today toward the streak once the daily minimum is met.
// It runs at most once per calendar day.
func (s *StreakTracker) Record(snap domain.Snapshot, today time.Time, out domain.StreakOutcome) (domain.Snapshot, domain.StreakOutcome) {
	if snap.CompletionsToday < s.dailyMinimum {
		return snap, out
	}
	if s.Evaluate(snap.LastActiveDate, today) == domain.StreakActive {
		return snap, out
	}

	snap.Streak++
	snap.LastActiveDate = CalendarDay(today)
	if snap.Streak > snap.LongestStreak {
		snap.LongestStreak = snap.Streak
	}
	out.Streak = snap.Streak
	out.Incremented = true
	return snap, out
}

// CalendarDay truncates t to midnight in t's own location.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day in b's location.
func SameDay(a, b time.Time) bool {
	return !a.IsZero() && DaysBetween(a, b) == 0
}

// DaysBetween returns the number of calendar days from a to b, measured in
// b's location so day rollover follows the user's wall clock, not elapsed
// seconds.
func DaysBetween(a, b time.Time) int {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// ISOWeek returns "YYYY-Www" for the given time.
func ISOWeek(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// WeekStart returns Monday 00:00 of t's ISO week in t's location.
func WeekStart(t time.Time) time.Time {
	day := CalendarDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
