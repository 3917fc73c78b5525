package appointmentRepo

import (
	"context"
	"time"

	"denticare/models"
)

// AppointmentRepository persists appointment records. Conflict checking and
// per-provider write serialization live in the booking service; the repository
// only stores and retrieves. Appointments are never deleted.
type AppointmentRepository interface {
	Insert(ctx context.Context, appt *models.Appointment) error
	// Update replaces the stored record matching both id and the expected
	// version, then bumps the version. It fails when the version has moved.
	Update(ctx context.Context, appt *models.Appointment, expectedVersion int) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	GetByCode(ctx context.Context, confirmationCode string) (*models.Appointment, error)
	// ListActiveByProvider returns all non-cancelled appointments for a
	// provider, regardless of date, ordered by start ascending.
	ListActiveByProvider(ctx context.Context, providerID string) ([]models.Appointment, error)
	// ListByDate returns non-cancelled appointments starting within the given
	// calendar day, ordered by start ascending.
	ListByDate(ctx context.Context, day time.Time) ([]models.Appointment, error)
	// ListByPhone returns non-cancelled appointments for a contact phone
	// number, ordered by start ascending.
	ListByPhone(ctx context.Context, phone string) ([]models.Appointment, error)
	CountOnDate(ctx context.Context, day time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// ErrNotFound is returned by lookups when no record matches.
// Declared here so both implementations share one sentinel.
type notFoundError struct{}

func (notFoundError) Error() string { return "appointment not found" }

var ErrNotFound error = notFoundError{}

// ErrVersionConflict is returned by Update when the expected version no
// longer matches the stored record.
type versionConflictError struct{}

func (versionConflictError) Error() string { return "appointment version conflict" }

var ErrVersionConflict error = versionConflictError{}

// DayBounds returns the [start, end) interval covering the calendar day of t
// in t's location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
