package annealing

import (
	"context"
	"reflect"
	"testing"
	"time"

	appointmentRepo "denticare/database/repository/appointment"
	errorlogRepo "denticare/database/repository/errorlog"
	"denticare/models"
	"denticare/services/booking"
	"denticare/services/conversation"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func seedEvents(t *testing.T, repo errorlogRepo.ErrorLogRepository, kind, op string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := repo.Append(context.Background(), models.ErrorEvent{
			ID:        kind + op + string(rune('a'+i)),
			Timestamp: testNow.Add(-time.Duration(i+1) * time.Minute),
			Kind:      kind,
			Op:        op,
			Message:   kind + " in " + op,
		})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
}

func newTestAnalyzer(repo errorlogRepo.ErrorLogRepository) *Analyzer {
	analyzer := NewAnalyzer(repo, 2, 7*24*time.Hour)
	analyzer.Now = func() time.Time { return testNow }
	return analyzer
}

func TestAnalyzeThresholdAndRanking(t *testing.T) {
	repo := errorlogRepo.NewMemoryErrorLogRepo()
	seedEvents(t, repo, string(booking.KindStorage), "booking.create", 5)
	seedEvents(t, repo, string(booking.KindConflict), "booking.create", 1) // below threshold
	seedEvents(t, repo, string(booking.KindValidation), "orchestrator.handle_turn", 3)

	analyzer := newTestAnalyzer(repo)
	suggestions, err := analyzer.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(suggestions) != 2 {
		t.Fatalf("suggestions = %d, want 2 (single conflict is noise)", len(suggestions))
	}
	if suggestions[0].Kind != string(booking.KindStorage) || suggestions[0].Count != 5 {
		t.Errorf("top suggestion = %+v, want 5x storage", suggestions[0])
	}
	if suggestions[1].Kind != string(booking.KindValidation) || suggestions[1].Count != 3 {
		t.Errorf("second suggestion = %+v, want 3x validation", suggestions[1])
	}
	if suggestions[0].Remediation == "" {
		t.Errorf("suggestions must carry a remediation")
	}
	if analyzer.LastRunAt() != testNow {
		t.Errorf("LastRunAt = %v, want %v", analyzer.LastRunAt(), testNow)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	repo := errorlogRepo.NewMemoryErrorLogRepo()
	// equal counts force the kind/op tie-break
	seedEvents(t, repo, string(booking.KindConflict), "booking.reschedule", 2)
	seedEvents(t, repo, string(booking.KindConflict), "booking.create", 2)
	seedEvents(t, repo, string(booking.KindStorage), "booking.create", 2)

	analyzer := newTestAnalyzer(repo)
	first, err := analyzer.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	second, err := analyzer.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("two runs over the same log differ:\n%+v\n%+v", first, second)
	}

	wantOrder := []string{"booking.create", "booking.reschedule", "booking.create"}
	for i, s := range first {
		if s.Op != wantOrder[i] {
			t.Errorf("suggestion[%d].Op = %q, want %q", i, s.Op, wantOrder[i])
		}
	}
	if first[0].Kind != string(booking.KindConflict) || first[2].Kind != string(booking.KindStorage) {
		t.Errorf("tie-break order wrong: %+v", first)
	}
}

func TestAnalyzeIgnoresEventsOutsideWindow(t *testing.T) {
	repo := errorlogRepo.NewMemoryErrorLogRepo()
	for i := 0; i < 3; i++ {
		if err := repo.Append(context.Background(), models.ErrorEvent{
			ID:        string(rune('a' + i)),
			Timestamp: testNow.Add(-8 * 24 * time.Hour),
			Kind:      string(booking.KindStorage),
			Op:        "booking.create",
		}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	analyzer := newTestAnalyzer(repo)
	suggestions, err := analyzer.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(suggestions) != 0 {
		t.Fatalf("stale events produced suggestions: %+v", suggestions)
	}
}

func TestRecorderRedactsContactDetails(t *testing.T) {
	repo := errorlogRepo.NewMemoryErrorLogRepo()
	recorder := NewRecorder(repo)
	recorder.Now = func() time.Time { return testNow }

	recorder.Record(context.Background(), "booking.create", "s1",
		&booking.Error{Kind: booking.KindConflict, Op: "booking.create", Message: "slot taken"},
		map[string]string{
			models.FieldPhone: "555-0100",
			"field":           "time",
		})

	events, err := repo.Window(context.Background(), testNow.Add(-time.Minute), testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	event := events[0]
	if event.Kind != string(booking.KindConflict) {
		t.Errorf("kind = %q, want conflict", event.Kind)
	}
	if event.Context[models.FieldPhone] != "[redacted]" {
		t.Errorf("phone not redacted: %q", event.Context[models.FieldPhone])
	}
	if event.Context["field"] != "time" {
		t.Errorf("non-sensitive context lost: %+v", event.Context)
	}
}

func TestHealthMonitorSnapshot(t *testing.T) {
	ctx := context.Background()

	errRepo := errorlogRepo.NewMemoryErrorLogRepo()
	seedEvents(t, errRepo, string(booking.KindUpstream), "ai.extract", 15)

	apptRepo := appointmentRepo.NewMemoryAppointmentRepo()
	for i := 0; i < 4; i++ {
		if err := apptRepo.Insert(ctx, &models.Appointment{
			ID:              string(rune('a' + i)),
			ProviderID:      "dr-smith",
			Start:           testNow.Add(time.Duration(i) * time.Hour),
			DurationMinutes: 30,
			Status:          models.StatusConfirmed,
		}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	sessions := conversation.NewService(conversation.NewMemorySessionStore(), time.UTC)
	for _, id := range []string{"s1", "s2"} {
		if _, _, err := sessions.ApplyFields(ctx, id, models.IntentBook, nil); err != nil {
			t.Fatalf("ApplyFields: %v", err)
		}
	}

	monitor := NewHealthMonitor(apptRepo, errRepo, sessions, newTestAnalyzer(errRepo))
	monitor.Now = func() time.Time { return testNow }

	snapshot, err := monitor.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.Score != 70 {
		t.Errorf("score = %d, want 70 with 15 recent errors", snapshot.Score)
	}
	if snapshot.Status != "degraded" {
		t.Errorf("status = %q, want degraded", snapshot.Status)
	}
	if snapshot.OpenSessions != 2 || snapshot.BookingsToday != 4 {
		t.Errorf("snapshot = %+v", snapshot)
	}
}

func TestHealthMonitorDiagnostics(t *testing.T) {
	ctx := context.Background()

	errRepo := errorlogRepo.NewMemoryErrorLogRepo()
	seedEvents(t, errRepo, string(booking.KindConflict), "booking.create", 3)
	seedEvents(t, errRepo, string(booking.KindStorage), "booking.cancel", 2)

	apptRepo := appointmentRepo.NewMemoryAppointmentRepo()
	sessions := conversation.NewService(conversation.NewMemorySessionStore(), time.UTC)

	analyzer := newTestAnalyzer(errRepo)
	if _, err := analyzer.Analyze(ctx); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	monitor := NewHealthMonitor(apptRepo, errRepo, sessions, analyzer)
	monitor.Now = func() time.Time { return testNow }

	diag, err := monitor.Diagnostics(ctx)
	if err != nil {
		t.Fatalf("Diagnostics: %v", err)
	}
	if diag.ErrorCountsByKind[string(booking.KindConflict)] != 3 {
		t.Errorf("conflict count = %d, want 3", diag.ErrorCountsByKind[string(booking.KindConflict)])
	}
	if diag.ErrorLogSize != 5 {
		t.Errorf("log size = %d, want 5", diag.ErrorLogSize)
	}
	if diag.AnalyzerLastRun != testNow {
		t.Errorf("analyzer last run = %v, want %v", diag.AnalyzerLastRun, testNow)
	}
}
