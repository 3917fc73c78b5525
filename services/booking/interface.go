package booking

import (
	"context"
	"time"

	"denticare/models"
)

// Store owns the appointment lifecycle and enforces the no-overlap invariant:
// no two non-cancelled appointments for the same provider may overlap in time.
type Store interface {
	// Create persists a candidate as a confirmed appointment with a fresh
	// confirmation code, or fails with a conflict error when the candidate's
	// time range overlaps a non-cancelled appointment for that provider.
	Create(ctx context.Context, candidate models.Appointment) (*models.Appointment, error)
	// Reschedule moves an appointment to a new start, bumping its version.
	Reschedule(ctx context.Context, id string, newStart time.Time) (*models.Appointment, error)
	// Cancel is idempotent: cancelling a cancelled appointment is a no-op success.
	Cancel(ctx context.Context, id string) (*models.Appointment, error)
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	GetByCode(ctx context.Context, confirmationCode string) (*models.Appointment, error)
	FindByDate(ctx context.Context, day time.Time) ([]models.Appointment, error)
	FindByContact(ctx context.Context, phone string) ([]models.Appointment, error)
}

// Orchestrator composes the calendar, the store and the conversation state
// into the book/reschedule/cancel workflow. It is the only component that
// mutates the store, and it is deterministic: no AI dependency, no I/O beyond
// its injected collaborators.
type Orchestrator interface {
	// HandleTurn folds one turn of structured fields into the session and
	// reports what the conversation needs next.
	HandleTurn(ctx context.Context, sessionID, intent string, fields map[string]string) (*models.TurnResult, error)
	// Confirm executes the committed request of a session in the confirming
	// state. Conflicts are recovered by offering alternatives, never surfaced
	// raw to the end user.
	Confirm(ctx context.Context, sessionID string) (*models.TurnResult, error)
	// RequestChange reopens a confirming session for further edits.
	RequestChange(ctx context.Context, sessionID string) (*models.TurnResult, error)
}
