package appointmentRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"denticare/models"
)

// MemoryAppointmentRepo is an in-memory AppointmentRepository used by tests
// and by deployments that run without Mongo.
type MemoryAppointmentRepo struct {
	mu    sync.RWMutex
	byID  map[string]models.Appointment
	order []string // insertion order, for stable iteration
}

func NewMemoryAppointmentRepo() *MemoryAppointmentRepo {
	return &MemoryAppointmentRepo{byID: make(map[string]models.Appointment)}
}

func (r *MemoryAppointmentRepo) Insert(_ context.Context, appt *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[appt.ID] = cloneAppointment(*appt)
	r.order = append(r.order, appt.ID)
	return nil
}

func (r *MemoryAppointmentRepo) Update(_ context.Context, appt *models.Appointment, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[appt.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}
	appt.Version = expectedVersion + 1
	r.byID[appt.ID] = cloneAppointment(*appt)
	return nil
}

func (r *MemoryAppointmentRepo) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	appt, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneAppointment(appt)
	return &out, nil
}

func (r *MemoryAppointmentRepo) GetByCode(_ context.Context, code string) (*models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if appt := r.byID[id]; appt.ConfirmationCode == code {
			out := cloneAppointment(appt)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryAppointmentRepo) ListActiveByProvider(_ context.Context, providerID string) ([]models.Appointment, error) {
	return r.filter(func(a models.Appointment) bool {
		return a.ProviderID == providerID && a.Active()
	}), nil
}

func (r *MemoryAppointmentRepo) ListByDate(_ context.Context, day time.Time) ([]models.Appointment, error) {
	dayStart, dayEnd := DayBounds(day)
	return r.filter(func(a models.Appointment) bool {
		return a.Active() && !a.Start.Before(dayStart) && a.Start.Before(dayEnd)
	}), nil
}

func (r *MemoryAppointmentRepo) ListByPhone(_ context.Context, phone string) ([]models.Appointment, error) {
	return r.filter(func(a models.Appointment) bool {
		return a.Phone == phone && a.Active()
	}), nil
}

func (r *MemoryAppointmentRepo) CountOnDate(ctx context.Context, day time.Time) (int64, error) {
	appts, _ := r.ListByDate(ctx, day)
	return int64(len(appts)), nil
}

func (r *MemoryAppointmentRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}

func (r *MemoryAppointmentRepo) filter(keep func(models.Appointment) bool) []models.Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Appointment
	for _, id := range r.order {
		if appt := r.byID[id]; keep(appt) {
			out = append(out, cloneAppointment(appt))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func cloneAppointment(a models.Appointment) models.Appointment {
	if a.History != nil {
		history := make([]models.AuditEntry, len(a.History))
		copy(history, a.History)
		a.History = history
	}
	return a
}
