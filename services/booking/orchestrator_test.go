package booking

import (
	"context"
	"testing"
	"time"

	appointmentRepo "denticare/database/repository/appointment"
	errorlogRepo "denticare/database/repository/errorlog"
	"denticare/models"
	"denticare/services/conversation"
)

type capturingRecorder struct {
	events []models.ErrorEvent
}

func (r *capturingRecorder) Record(_ context.Context, op, sessionID string, err error, extra map[string]string) {
	r.events = append(r.events, models.ErrorEvent{
		Kind:      string(KindOf(err)),
		Op:        op,
		SessionID: sessionID,
		Message:   err.Error(),
		Context:   extra,
	})
}

func newTestOrchestrator(t *testing.T) (*DefaultOrchestrator, *DefaultStore, *capturingRecorder) {
	t.Helper()

	repo := appointmentRepo.NewMemoryAppointmentRepo()
	cal := NewSlotCalendar([]models.Provider{testProvider()}, repo)
	cal.Now = func() time.Time { return testDay }

	store := NewStore(repo)
	store.Now = func() time.Time { return testDay }

	sessions := conversation.NewService(conversation.NewMemorySessionStore(), time.UTC)
	recorder := &capturingRecorder{}

	orch := NewOrchestrator(sessions, cal, store, recorder, "dr-smith", 30, time.UTC)
	return orch, store, recorder
}

func bookingFields() map[string]string {
	return map[string]string{
		models.FieldPatientName: "John Doe",
		models.FieldPhone:       "555-0100",
		models.FieldDate:        "2026-03-10",
		models.FieldTime:        "10:00",
		models.FieldReason:      "checkup",
	}
}

func TestHandleTurnCollectsMissingFields(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	result, err := orch.HandleTurn(ctx, "s1", models.IntentBook, map[string]string{
		models.FieldPatientName: "John Doe",
		models.FieldDate:        "2026-03-10",
	})
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if result.Status != models.TurnNeedsMoreInfo {
		t.Fatalf("status = %q, want needs_more_info", result.Status)
	}
	if len(result.MissingFields) != 3 {
		t.Fatalf("missing = %v, want phone, time and reason", result.MissingFields)
	}
	if len(result.Slots) == 0 {
		t.Errorf("a known date should come with offered slots")
	}
}

func TestHandleTurnOffersSlotsWhenOnlyTimeMissing(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	fields := bookingFields()
	delete(fields, models.FieldTime)
	result, err := orch.HandleTurn(ctx, "s1", models.IntentBook, fields)
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if result.Status != models.TurnOfferingSlots {
		t.Fatalf("status = %q, want offering_slots", result.Status)
	}
	if len(result.MissingFields) != 1 || result.MissingFields[0] != models.FieldTime {
		t.Fatalf("missing = %v, want only time", result.MissingFields)
	}
	if len(result.Slots) == 0 {
		t.Fatal("offered no slots for a known date")
	}
}

func TestFullBookingFlow(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	result, err := orch.HandleTurn(ctx, "s1", models.IntentBook, bookingFields())
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if result.Status != models.TurnAwaitingConfirmation {
		t.Fatalf("status = %q, want awaiting_confirmation", result.Status)
	}

	confirmed, err := orch.Confirm(ctx, "s1")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if confirmed.Status != models.TurnConfirmed {
		t.Fatalf("status = %q, want confirmed: %+v", confirmed.Status, confirmed)
	}
	if confirmed.Appointment == nil || confirmed.Appointment.ConfirmationCode == "" {
		t.Fatalf("confirmed turn missing appointment: %+v", confirmed)
	}

	// the session is finished; confirming again is an invalid-state turn
	again, err := orch.Confirm(ctx, "s1")
	if err != nil {
		t.Fatalf("second Confirm: %v", err)
	}
	if again.Status != models.TurnError || again.ErrorKind != string(KindInvalidState) {
		t.Fatalf("second confirm = %+v, want invalid_state error", again)
	}
}

func TestConfirmConflictOffersAlternatives(t *testing.T) {
	orch, store, recorder := newTestOrchestrator(t)
	ctx := context.Background()

	// someone else already holds 10:00
	if _, err := store.Create(ctx, candidateAt(testDay.Add(10*time.Hour))); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := orch.HandleTurn(ctx, "s1", models.IntentBook, bookingFields()); err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	result, err := orch.Confirm(ctx, "s1")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if result.Status != models.TurnConflict {
		t.Fatalf("status = %q, want conflict", result.Status)
	}
	if len(result.Alternatives) == 0 {
		t.Fatalf("conflict should offer alternatives")
	}
	for _, alt := range result.Alternatives {
		if alt.Label == "10:00" {
			t.Errorf("the contested slot must not be offered back")
		}
	}

	// the failure went to the error log
	if len(recorder.events) == 0 || recorder.events[0].Kind != string(KindConflict) {
		t.Fatalf("recorder events = %+v, want a conflict event", recorder.events)
	}

	// the session is reopened: picking an alternative completes the booking
	retry, err := orch.HandleTurn(ctx, "s1", "", map[string]string{models.FieldTime: "11:00"})
	if err != nil {
		t.Fatalf("retry HandleTurn: %v", err)
	}
	if retry.Status != models.TurnAwaitingConfirmation {
		t.Fatalf("retry status = %q, want awaiting_confirmation", retry.Status)
	}
	confirmed, err := orch.Confirm(ctx, "s1")
	if err != nil {
		t.Fatalf("retry Confirm: %v", err)
	}
	if confirmed.Status != models.TurnConfirmed {
		t.Fatalf("retry confirm status = %q, want confirmed", confirmed.Status)
	}
}

func TestCancelFlowByCode(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	if _, err := orch.HandleTurn(ctx, "s1", models.IntentBook, bookingFields()); err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	booked, err := orch.Confirm(ctx, "s1")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	code := booked.Appointment.ConfirmationCode

	result, err := orch.HandleTurn(ctx, "s2", models.IntentCancel, map[string]string{
		models.FieldConfirmationCode: code,
	})
	if err != nil {
		t.Fatalf("cancel HandleTurn: %v", err)
	}
	if result.Status != models.TurnAwaitingConfirmation {
		t.Fatalf("cancel status = %q, want awaiting_confirmation", result.Status)
	}

	cancelled, err := orch.Confirm(ctx, "s2")
	if err != nil {
		t.Fatalf("cancel Confirm: %v", err)
	}
	if cancelled.Status != models.TurnConfirmed {
		t.Fatalf("status = %q, want confirmed", cancelled.Status)
	}
	if cancelled.Appointment.Status != models.StatusCancelled {
		t.Fatalf("appointment status = %q, want cancelled", cancelled.Appointment.Status)
	}
}

func TestRescheduleFlowByCode(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	if _, err := orch.HandleTurn(ctx, "s1", models.IntentBook, bookingFields()); err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	booked, err := orch.Confirm(ctx, "s1")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	fields := map[string]string{
		models.FieldConfirmationCode: booked.Appointment.ConfirmationCode,
		models.FieldDate:             "2026-03-11",
		models.FieldTime:             "09:30",
	}
	if _, err := orch.HandleTurn(ctx, "s2", models.IntentReschedule, fields); err != nil {
		t.Fatalf("reschedule HandleTurn: %v", err)
	}
	moved, err := orch.Confirm(ctx, "s2")
	if err != nil {
		t.Fatalf("reschedule Confirm: %v", err)
	}
	if moved.Status != models.TurnConfirmed {
		t.Fatalf("status = %q, want confirmed: %+v", moved.Status, moved)
	}
	want := time.Date(2026, 3, 11, 9, 30, 0, 0, time.UTC)
	if !moved.Appointment.Start.Equal(want) {
		t.Fatalf("start = %v, want %v", moved.Appointment.Start, want)
	}
}

func TestBookOutsideOfficeHoursRejected(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	fields := bookingFields()
	fields[models.FieldTime] = "20:00"
	if _, err := orch.HandleTurn(ctx, "s1", models.IntentBook, fields); err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	result, err := orch.Confirm(ctx, "s1")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if result.Status != models.TurnError || result.ErrorKind != string(KindValidation) {
		t.Fatalf("result = %+v, want validation error", result)
	}
}

func TestRecorderWiresIntoErrorLog(t *testing.T) {
	// sanity check that the real repo-backed path accepts orchestrator events
	repo := errorlogRepo.NewMemoryErrorLogRepo()
	if err := repo.Append(context.Background(), models.ErrorEvent{
		ID: "e1", Timestamp: testDay, Kind: string(KindConflict), Op: "booking.create",
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	n, err := repo.Size(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("Size = %d, %v, want 1", n, err)
	}
}
