package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	appointmentRepo "denticare/database/repository/appointment"
	"denticare/models"
)

// DefaultStore implements Store on top of an AppointmentRepository. The
// conflict-check-then-write sequence is made atomic by serializing mutations
// per provider; reads never take the provider lock.
type DefaultStore struct {
	Repo appointmentRepo.AppointmentRepository
	Now  func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(repo appointmentRepo.AppointmentRepository) *DefaultStore {
	return &DefaultStore{Repo: repo, Now: time.Now, locks: make(map[string]*sync.Mutex)}
}

// providerLock returns the mutex serializing writes for one provider.
func (s *DefaultStore) providerLock(providerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[providerID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[providerID] = lock
	}
	return lock
}

// conflictExists scans all non-cancelled appointments for the provider, not
// just same-day ones, so bookings spanning midnight are still caught.
func (s *DefaultStore) conflictExists(ctx context.Context, providerID string, start time.Time, durationMinutes int, excludeID string) (bool, error) {
	appts, err := s.Repo.ListActiveByProvider(ctx, providerID)
	if err != nil {
		return false, err
	}
	for _, appt := range appts {
		if appt.ID == excludeID {
			continue
		}
		if appt.Overlaps(start, durationMinutes) {
			return true, nil
		}
	}
	return false, nil
}

func (s *DefaultStore) Create(ctx context.Context, candidate models.Appointment) (*models.Appointment, error) {
	const op = "booking.create"

	if candidate.ProviderID == "" || candidate.Start.IsZero() || candidate.DurationMinutes <= 0 {
		return nil, newError(KindValidation, op, "candidate missing provider, start or duration")
	}

	lock := s.providerLock(candidate.ProviderID)
	lock.Lock()
	defer lock.Unlock()

	conflict, err := s.conflictExists(ctx, candidate.ProviderID, candidate.Start, candidate.DurationMinutes, "")
	if err != nil {
		return nil, wrapStorage(op, err)
	}
	if conflict {
		return nil, newError(KindConflict, op, "slot %s is no longer available", candidate.Start.Format(time.RFC3339))
	}

	code, err := GenerateConfirmationCode(candidate.Start)
	if err != nil {
		return nil, wrapStorage(op, err)
	}

	now := s.Now()
	candidate.ID = uuid.New().String()
	candidate.ConfirmationCode = code
	candidate.Status = models.StatusConfirmed
	candidate.Version = 1
	candidate.CreatedAt = now
	candidate.UpdatedAt = now
	candidate.History = []models.AuditEntry{{Action: "create", At: now}}

	if err := s.Repo.Insert(ctx, &candidate); err != nil {
		return nil, wrapStorage(op, err)
	}
	return &candidate, nil
}

func (s *DefaultStore) Reschedule(ctx context.Context, id string, newStart time.Time) (*models.Appointment, error) {
	const op = "booking.reschedule"

	// the first read only locates the provider; state is re-read under the lock
	located, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, appointmentRepo.ErrNotFound) {
		return nil, newError(KindNotFound, op, "unknown appointment %q", id)
	}
	if err != nil {
		return nil, wrapStorage(op, err)
	}

	lock := s.providerLock(located.ProviderID)
	lock.Lock()
	defer lock.Unlock()

	appt, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, appointmentRepo.ErrNotFound) {
		return nil, newError(KindNotFound, op, "unknown appointment %q", id)
	}
	if err != nil {
		return nil, wrapStorage(op, err)
	}
	if appt.Status == models.StatusCancelled || appt.Status == models.StatusCompleted {
		return nil, newError(KindInvalidState, op, "appointment %s is %s and cannot be rescheduled", id, appt.Status)
	}

	conflict, err := s.conflictExists(ctx, appt.ProviderID, newStart, appt.DurationMinutes, appt.ID)
	if err != nil {
		return nil, wrapStorage(op, err)
	}
	if conflict {
		return nil, newError(KindConflict, op, "slot %s is no longer available", newStart.Format(time.RFC3339))
	}

	now := s.Now()
	previous := appt.Start
	appt.Start = newStart
	appt.UpdatedAt = now
	appt.History = append(appt.History, models.AuditEntry{
		Action: "reschedule",
		At:     now,
		Detail: "from " + previous.Format(time.RFC3339),
	})

	if err := s.Repo.Update(ctx, appt, appt.Version); err != nil {
		return nil, wrapStorage(op, err)
	}
	return appt, nil
}

func (s *DefaultStore) Cancel(ctx context.Context, id string) (*models.Appointment, error) {
	const op = "booking.cancel"

	located, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, appointmentRepo.ErrNotFound) {
		return nil, newError(KindNotFound, op, "unknown appointment %q", id)
	}
	if err != nil {
		return nil, wrapStorage(op, err)
	}

	lock := s.providerLock(located.ProviderID)
	lock.Lock()
	defer lock.Unlock()

	appt, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, appointmentRepo.ErrNotFound) {
		return nil, newError(KindNotFound, op, "unknown appointment %q", id)
	}
	if err != nil {
		return nil, wrapStorage(op, err)
	}
	if appt.Status == models.StatusCancelled {
		return appt, nil // idempotent
	}

	now := s.Now()
	appt.Status = models.StatusCancelled
	appt.UpdatedAt = now
	appt.History = append(appt.History, models.AuditEntry{Action: "cancel", At: now})

	if err := s.Repo.Update(ctx, appt, appt.Version); err != nil {
		return nil, wrapStorage(op, err)
	}
	return appt, nil
}

func (s *DefaultStore) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	const op = "booking.get"
	appt, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, appointmentRepo.ErrNotFound) {
		return nil, newError(KindNotFound, op, "unknown appointment %q", id)
	}
	if err != nil {
		return nil, wrapStorage(op, err)
	}
	return appt, nil
}

func (s *DefaultStore) GetByCode(ctx context.Context, confirmationCode string) (*models.Appointment, error) {
	const op = "booking.get_by_code"
	appt, err := s.Repo.GetByCode(ctx, confirmationCode)
	if errors.Is(err, appointmentRepo.ErrNotFound) {
		return nil, newError(KindNotFound, op, "unknown confirmation code %q", confirmationCode)
	}
	if err != nil {
		return nil, wrapStorage(op, err)
	}
	return appt, nil
}

func (s *DefaultStore) FindByDate(ctx context.Context, day time.Time) ([]models.Appointment, error) {
	appts, err := s.Repo.ListByDate(ctx, day)
	if err != nil {
		return nil, wrapStorage("booking.find_by_date", err)
	}
	return appts, nil
}

func (s *DefaultStore) FindByContact(ctx context.Context, phone string) ([]models.Appointment, error) {
	appts, err := s.Repo.ListByPhone(ctx, phone)
	if err != nil {
		return nil, wrapStorage("booking.find_by_contact", err)
	}
	return appts, nil
}
