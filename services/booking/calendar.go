package booking

import (
	"context"
	"strings"
	"time"

	appointmentRepo "denticare/database/repository/appointment"
	"denticare/models"
)

// SlotCalendar derives bookable slots from provider working hours minus
// active appointments. It never writes; the orchestrator is the only mutator.
type SlotCalendar struct {
	Providers map[string]models.Provider
	Repo      appointmentRepo.AppointmentRepository
	Now       func() time.Time // injectable clock
}

func NewSlotCalendar(providers []models.Provider, repo appointmentRepo.AppointmentRepository) *SlotCalendar {
	byID := make(map[string]models.Provider, len(providers))
	for _, p := range providers {
		byID[p.ID] = p
	}
	return &SlotCalendar{Providers: byID, Repo: repo, Now: time.Now}
}

// AvailableSlots computes the open slots for a provider on a given calendar
// day, walking each working interval in duration-sized steps. Slots in the
// past, slots that would run past closing, and slots overlapping any
// non-cancelled appointment are excluded. An empty result is not an error;
// the caller decides whether to suggest other dates.
func (c *SlotCalendar) AvailableSlots(ctx context.Context, providerID string, date time.Time, durationMinutes int) ([]models.AvailabilitySlot, error) {
	const op = "calendar.available_slots"

	provider, ok := c.Providers[providerID]
	if !ok {
		return nil, newError(KindNotFound, op, "unknown provider %q", providerID)
	}
	if durationMinutes <= 0 {
		return nil, newError(KindValidation, op, "duration must be positive, got %d", durationMinutes)
	}

	intervals := provider.Hours[strings.ToLower(date.Weekday().String())]
	if len(intervals) == 0 {
		return nil, nil // closed that day
	}

	booked, err := c.Repo.ListActiveByProvider(ctx, providerID)
	if err != nil {
		return nil, wrapStorage(op, err)
	}

	now := c.Now()
	duration := time.Duration(durationMinutes) * time.Minute
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	var slots []models.AvailabilitySlot
	for _, iv := range intervals {
		open := midnight.Add(time.Duration(iv.Start) * time.Minute)
		closing := midnight.Add(time.Duration(iv.End) * time.Minute)

		for start := open; !start.Add(duration).After(closing); start = start.Add(duration) {
			if start.Before(now) {
				continue
			}
			if overlapsAny(start, durationMinutes, booked) {
				continue
			}
			slots = append(slots, models.AvailabilitySlot{
				ProviderID:      providerID,
				Start:           start,
				DurationMinutes: durationMinutes,
				Label:           start.Format("15:04"),
			})
		}
	}
	return slots, nil
}

func overlapsAny(start time.Time, durationMinutes int, appts []models.Appointment) bool {
	for _, appt := range appts {
		if appt.Overlaps(start, durationMinutes) {
			return true
		}
	}
	return false
}
