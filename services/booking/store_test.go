package booking

import (
	"context"
	"strings"
	"testing"
	"time"

	appointmentRepo "denticare/database/repository/appointment"
	"denticare/models"
)

func newTestStore(t *testing.T) (*DefaultStore, *appointmentRepo.MemoryAppointmentRepo) {
	t.Helper()
	repo := appointmentRepo.NewMemoryAppointmentRepo()
	store := NewStore(repo)
	store.Now = func() time.Time { return testDay }
	return store, repo
}

func candidateAt(start time.Time) models.Appointment {
	return models.Appointment{
		ProviderID:      "dr-smith",
		PatientName:     "John Doe",
		Phone:           "555-0100",
		Start:           start,
		DurationMinutes: 30,
		Reason:          "cleaning",
	}
}

func TestCreateAssignsCodeAndVersion(t *testing.T) {
	store, _ := newTestStore(t)

	appt, err := store.Create(context.Background(), candidateAt(testDay.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if appt.Status != models.StatusConfirmed {
		t.Errorf("status = %q, want confirmed", appt.Status)
	}
	if appt.Version != 1 {
		t.Errorf("version = %d, want 1", appt.Version)
	}
	if !strings.HasPrefix(appt.ConfirmationCode, "APT20260310") {
		t.Errorf("confirmation code = %q, want APT20260310 prefix", appt.ConfirmationCode)
	}
	if len(appt.History) != 1 || appt.History[0].Action != "create" {
		t.Errorf("history = %+v, want single create entry", appt.History)
	}
}

func TestCreateOverlapConflicts(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, candidateAt(testDay.Add(10*time.Hour))); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	// 10:15 overlaps the 10:00-10:30 booking
	_, err := store.Create(ctx, candidateAt(testDay.Add(10*time.Hour+15*time.Minute)))
	if !IsKind(err, KindConflict) {
		t.Fatalf("want conflict for overlapping create, got %v", err)
	}

	// 10:30 starts exactly at the previous end: allowed
	if _, err := store.Create(ctx, candidateAt(testDay.Add(10*time.Hour+30*time.Minute))); err != nil {
		t.Fatalf("back-to-back Create should succeed: %v", err)
	}
}

func TestCreateDifferentProvidersNoConflict(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, candidateAt(testDay.Add(10*time.Hour))); err != nil {
		t.Fatalf("Create: %v", err)
	}

	other := candidateAt(testDay.Add(10 * time.Hour))
	other.ProviderID = "dr-jones"
	if _, err := store.Create(ctx, other); err != nil {
		t.Fatalf("same time with a different provider should succeed: %v", err)
	}
}

func TestCancelIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	appt, err := store.Create(ctx, candidateAt(testDay.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := store.Cancel(ctx, appt.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if first.Status != models.StatusCancelled {
		t.Errorf("status after cancel = %q, want cancelled", first.Status)
	}

	second, err := store.Cancel(ctx, appt.ID)
	if err != nil {
		t.Fatalf("second Cancel should be a no-op success: %v", err)
	}
	if second.Status != models.StatusCancelled {
		t.Errorf("status after repeat cancel = %q, want cancelled", second.Status)
	}
}

func TestCancelFreesSlot(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	appt, err := store.Create(ctx, candidateAt(testDay.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Cancel(ctx, appt.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if _, err := store.Create(ctx, candidateAt(testDay.Add(10*time.Hour))); err != nil {
		t.Fatalf("rebooking a cancelled slot should succeed: %v", err)
	}
}

func TestRescheduleMovesAndBumpsVersion(t *testing.T) {
	store, repo := newTestStore(t)
	ctx := context.Background()

	appt, err := store.Create(ctx, candidateAt(testDay.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	moved, err := store.Reschedule(ctx, appt.ID, testDay.Add(11*time.Hour))
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if !moved.Start.Equal(testDay.Add(11 * time.Hour)) {
		t.Errorf("start = %v, want 11:00", moved.Start)
	}

	stored, err := repo.GetByID(ctx, appt.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Version != 2 {
		t.Errorf("version = %d, want 2 after reschedule", stored.Version)
	}
}

func TestRescheduleOntoOwnSlot(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	appt, err := store.Create(ctx, candidateAt(testDay.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// shifting within its own window must not conflict with itself
	if _, err := store.Reschedule(ctx, appt.ID, testDay.Add(10*time.Hour+15*time.Minute)); err != nil {
		t.Fatalf("Reschedule overlapping own slot: %v", err)
	}
}

func TestRescheduleConflictAndInvalidState(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, candidateAt(testDay.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := store.Create(ctx, candidateAt(testDay.Add(11*time.Hour)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = store.Reschedule(ctx, second.ID, testDay.Add(10*time.Hour+15*time.Minute))
	if !IsKind(err, KindConflict) {
		t.Fatalf("want conflict rescheduling onto a taken slot, got %v", err)
	}

	if _, err := store.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	_, err = store.Reschedule(ctx, first.ID, testDay.Add(12*time.Hour))
	if !IsKind(err, KindInvalidState) {
		t.Fatalf("want invalid_state rescheduling a cancelled appointment, got %v", err)
	}
}

// staleReadRepo serves one recorded snapshot for the next GetByID, then
// delegates. It mimics a read that raced with another writer.
type staleReadRepo struct {
	appointmentRepo.AppointmentRepository
	stale *models.Appointment
}

func (r *staleReadRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	if r.stale != nil && r.stale.ID == id {
		snapshot := *r.stale
		r.stale = nil
		return &snapshot, nil
	}
	return r.AppointmentRepository.GetByID(ctx, id)
}

func newStaleReadStore(t *testing.T) (*DefaultStore, *staleReadRepo) {
	t.Helper()
	wrapped := &staleReadRepo{AppointmentRepository: appointmentRepo.NewMemoryAppointmentRepo()}
	store := NewStore(wrapped)
	store.Now = func() time.Time { return testDay }
	return store, wrapped
}

func TestCancelAfterRacingReschedule(t *testing.T) {
	store, wrapped := newStaleReadStore(t)
	ctx := context.Background()

	appt, err := store.Create(ctx, candidateAt(testDay.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	snapshot := *appt // version 1

	if _, err := store.Reschedule(ctx, appt.ID, testDay.Add(11*time.Hour)); err != nil {
		t.Fatalf("Reschedule: %v", err)
	}

	// Cancel first sees the pre-reschedule snapshot, as if the reschedule
	// landed between its read and its lock
	wrapped.stale = &snapshot
	cancelled, err := store.Cancel(ctx, appt.ID)
	if err != nil {
		t.Fatalf("Cancel after racing reschedule: %v", err)
	}
	if cancelled.Status != models.StatusCancelled {
		t.Errorf("status = %q, want cancelled", cancelled.Status)
	}
	if cancelled.Version != 3 {
		t.Errorf("version = %d, want 3 after reschedule then cancel", cancelled.Version)
	}
}

func TestRescheduleSeesRacingCancel(t *testing.T) {
	store, wrapped := newStaleReadStore(t)
	ctx := context.Background()

	appt, err := store.Create(ctx, candidateAt(testDay.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	snapshot := *appt // still confirmed

	if _, err := store.Cancel(ctx, appt.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	wrapped.stale = &snapshot
	_, err = store.Reschedule(ctx, appt.ID, testDay.Add(11*time.Hour))
	if !IsKind(err, KindInvalidState) {
		t.Fatalf("want invalid_state rescheduling a just-cancelled appointment, got %v", err)
	}
}

func TestGetByCodeAndNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	appt, err := store.Create(ctx, candidateAt(testDay.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := store.GetByCode(ctx, appt.ConfirmationCode)
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if found.ID != appt.ID {
		t.Errorf("GetByCode returned %q, want %q", found.ID, appt.ID)
	}

	_, err = store.GetByCode(ctx, "APT00000000XXXX")
	if !IsKind(err, KindNotFound) {
		t.Fatalf("want not_found for unknown code, got %v", err)
	}
	_, err = store.Cancel(ctx, "no-such-id")
	if !IsKind(err, KindNotFound) {
		t.Fatalf("want not_found cancelling unknown id, got %v", err)
	}
}
