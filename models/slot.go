package models

import "time"

// AvailabilitySlot is a derived candidate interval a patient could book.
// Slots are computed on demand from provider hours minus active appointments
// and are never persisted.
type AvailabilitySlot struct {
	ProviderID      string    `json:"providerId"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"durationMinutes"`
	Label           string    `json:"label"` // e.g. "09:30"
}
