package models

import "time"

// Appointment statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Appointment represents a committed appointment record. Records are never
// hard-deleted; cancellation flips the status and the record is retained for
// audit and history lookups.
type Appointment struct {
	ID               string       `bson:"id" json:"id"`
	ConfirmationCode string       `bson:"confirmation_code" json:"confirmationCode"` // human-presentable, unique (e.g. APT202512238KQZ)
	ProviderID       string       `bson:"provider_id" json:"providerId"`
	PatientName      string       `bson:"patient_name" json:"patientName"`
	Phone            string       `bson:"phone" json:"phone"`
	Email            string       `bson:"email,omitempty" json:"email,omitempty"`
	Start            time.Time    `bson:"start" json:"start"`
	DurationMinutes  int          `bson:"duration_minutes" json:"durationMinutes"`
	Status           string       `bson:"status" json:"status"`
	Reason           string       `bson:"reason,omitempty" json:"reason,omitempty"`
	Version          int          `bson:"version" json:"version"`
	CreatedAt        time.Time    `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time    `bson:"updated_at" json:"updatedAt"`
	History          []AuditEntry `bson:"history,omitempty" json:"history,omitempty"`
}

// AuditEntry records one successful mutation of an appointment.
type AuditEntry struct {
	Action string    `bson:"action" json:"action"` // "create", "reschedule", "cancel"
	At     time.Time `bson:"at" json:"at"`
	Detail string    `bson:"detail,omitempty" json:"detail,omitempty"`
}

// End returns the exclusive end of the appointment's time interval.
func (a Appointment) End() time.Time {
	return a.Start.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Active reports whether the appointment still occupies its slot.
func (a Appointment) Active() bool {
	return a.Status != StatusCancelled
}

// Overlaps reports whether two half-open intervals [Start, End) collide.
func (a Appointment) Overlaps(start time.Time, durationMinutes int) bool {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	return a.Start.Before(end) && start.Before(a.End())
}
