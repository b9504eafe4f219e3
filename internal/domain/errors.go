package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	// Precondition failures: the completion is rejected before any mutation.
	ErrQuestNotCompletable = errors.New("quest cannot be completed")
	ErrQuestOnCooldown     = errors.New("quest is on cooldown")
	ErrQuestNotActive      = errors.New("quest is not active")

	// Invalid input: malformed snapshot or request, never silently clamped.
	ErrInvalidInput = errors.New("invalid input")

	// Chest errors
	ErrChestOpened      = errors.New("chest already opened")
	ErrDailyChestExists = errors.New("an unopened daily chest already exists")

	// Lookup errors
	ErrUserNotFound  = errors.New("user not found")
	ErrQuestNotFound = errors.New("quest not found")
	ErrChestNotFound = errors.New("chest not found")
	ErrProofNotFound = errors.New("pending proof not found")

	// Streak saver errors
	ErrNoStreakSaver = errors.New("no streak saver available")
)

// PreconditionReason says why a quest was not completable.
type PreconditionReason string

const (
	ReasonOnCooldown PreconditionReason = "on_cooldown"
	ReasonNotActive  PreconditionReason = "not_active"
)

// PreconditionError rejects an action whose preconditions do not hold.
// It unwraps to ErrQuestNotCompletable and to the reason's sentinel.
type PreconditionError struct {
	QuestID string
	Reason  PreconditionReason
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("quest %s cannot be completed: %s", e.QuestID, e.Reason)
}

// Unwrap exposes both the general and the reason-specific sentinel.
func (e *PreconditionError) Unwrap() []error {
	specific := ErrQuestNotActive
	if e.Reason == ReasonOnCooldown {
		specific = ErrQuestOnCooldown
	}
	return []error{ErrQuestNotCompletable, specific}
}

// InvalidInputError reports a malformed field in engine input.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidInput) hold.
func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// IsPrecondition reports whether err is a precondition failure.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrQuestNotCompletable)
}

// IsInvalidInput reports whether err is an input validation failure.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
