package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"denticare/models"
)

var testNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func newTestService() *DefaultService {
	svc := NewService(NewMemorySessionStore(), time.UTC)
	svc.Now = func() time.Time { return testNow }
	return svc
}

func TestApplyFieldsCreatesAndTracksMissing(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	session, missing, err := svc.ApplyFields(ctx, "s1", models.IntentBook, map[string]string{
		models.FieldPatientName: "Jane Doe",
	})
	if err != nil {
		t.Fatalf("ApplyFields: %v", err)
	}
	if session.State != models.SessionCollecting {
		t.Errorf("state = %q, want collecting", session.State)
	}
	want := []string{models.FieldPhone, models.FieldDate, models.FieldTime, models.FieldReason}
	if len(missing) != len(want) {
		t.Fatalf("missing = %v, want %v", missing, want)
	}
	for i, field := range want {
		if missing[i] != field {
			t.Errorf("missing[%d] = %q, want %q", i, missing[i], field)
		}
	}
}

func TestApplyFieldsAdvancesToConfirming(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, _, err := svc.ApplyFields(ctx, "s1", models.IntentBook, map[string]string{
		models.FieldPatientName: "Jane Doe",
		models.FieldPhone:       "555-0100",
	})
	if err != nil {
		t.Fatalf("first ApplyFields: %v", err)
	}

	session, missing, err := svc.ApplyFields(ctx, "s1", "", map[string]string{
		models.FieldDate:   "2026-03-12",
		models.FieldTime:   "14:30",
		models.FieldReason: "cleaning",
	})
	if err != nil {
		t.Fatalf("second ApplyFields: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("missing = %v, want none", missing)
	}
	if session.State != models.SessionConfirming {
		t.Fatalf("state = %q, want confirming", session.State)
	}
}

func TestApplyFieldsRejectsBadFormats(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []struct {
		name   string
		fields map[string]string
	}{
		{"bad date", map[string]string{models.FieldDate: "March 12th"}},
		{"bad time", map[string]string{models.FieldTime: "2pm"}},
		{"bad phone", map[string]string{models.FieldPhone: "call me"}},
		{"unknown key", map[string]string{"favorite_color": "blue"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.ApplyFields(ctx, "s-"+tc.name, models.IntentBook, tc.fields)
			var ferr *FieldError
			if !errors.As(err, &ferr) {
				t.Fatalf("want FieldError, got %v", err)
			}
		})
	}
}

func TestCommitBuildsRequest(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, _, err := svc.ApplyFields(ctx, "s1", models.IntentBook, map[string]string{
		models.FieldPatientName: "Jane Doe",
		models.FieldPhone:       "555-0100",
		models.FieldDate:        "2026-03-12",
		models.FieldTime:        "14:30",
		models.FieldReason:      "cleaning",
	})
	if err != nil {
		t.Fatalf("ApplyFields: %v", err)
	}

	req, err := svc.Commit(ctx, "s1")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	wantStart := time.Date(2026, 3, 12, 14, 30, 0, 0, time.UTC)
	if !req.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", req.Start, wantStart)
	}
	if req.Intent != models.IntentBook || req.PatientName != "Jane Doe" {
		t.Errorf("request = %+v", req)
	}

	// Commit does not finish the session
	session, err := svc.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if session.State != models.SessionConfirming {
		t.Errorf("state after commit = %q, want confirming", session.State)
	}
}

func TestCommitRequiresConfirming(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, _, err := svc.ApplyFields(ctx, "s1", models.IntentBook, map[string]string{
		models.FieldPatientName: "Jane Doe",
	})
	if err != nil {
		t.Fatalf("ApplyFields: %v", err)
	}
	if _, err := svc.Commit(ctx, "s1"); !errors.Is(err, ErrBadState) {
		t.Fatalf("Commit mid-collection = %v, want ErrBadState", err)
	}
	if _, err := svc.Commit(ctx, "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Commit unknown session = %v, want ErrSessionNotFound", err)
	}
}

func TestCompleteAndReopen(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	fields := map[string]string{models.FieldConfirmationCode: "APT20260310ABCD"}
	if _, _, err := svc.ApplyFields(ctx, "s1", models.IntentCancel, fields); err != nil {
		t.Fatalf("ApplyFields: %v", err)
	}

	session, err := svc.Reopen(ctx, "s1")
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if session.State != models.SessionCollecting {
		t.Fatalf("state after reopen = %q, want collecting", session.State)
	}

	// re-supplying the code moves it back to confirming, then complete
	if _, _, err := svc.ApplyFields(ctx, "s1", "", nil); err != nil {
		t.Fatalf("ApplyFields: %v", err)
	}
	if err := svc.Complete(ctx, "s1"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	// completed sessions accept no more turns
	if _, _, err := svc.ApplyFields(ctx, "s1", "", nil); !errors.Is(err, ErrBadState) {
		t.Fatalf("turn on completed session = %v, want ErrBadState", err)
	}
}

func TestIntentSwitchKeepsContactFields(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, _, err := svc.ApplyFields(ctx, "s1", models.IntentBook, map[string]string{
		models.FieldPatientName: "Jane Doe",
		models.FieldPhone:       "555-0100",
		models.FieldDate:        "2026-03-12",
	}); err != nil {
		t.Fatalf("ApplyFields: %v", err)
	}

	session, _, err := svc.ApplyFields(ctx, "s1", models.IntentCancel, nil)
	if err != nil {
		t.Fatalf("intent switch: %v", err)
	}
	if session.Intent != models.IntentCancel {
		t.Errorf("intent = %q, want cancel", session.Intent)
	}
	if session.Fields[models.FieldPhone] != "555-0100" {
		t.Errorf("phone dropped on intent switch")
	}
	if session.Fields[models.FieldDate] != "" {
		t.Errorf("stale date kept across intent switch")
	}
}

func TestSweepIdleAbandonsAndResumes(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, _, err := svc.ApplyFields(ctx, "stale", models.IntentBook, nil); err != nil {
		t.Fatalf("ApplyFields: %v", err)
	}

	// advance the clock past the idle timeout
	svc.Now = func() time.Time { return testNow.Add(45 * time.Minute) }
	abandoned, err := svc.SweepIdle(ctx, 30*time.Minute)
	if err != nil {
		t.Fatalf("SweepIdle: %v", err)
	}
	if abandoned != 1 {
		t.Fatalf("abandoned = %d, want 1", abandoned)
	}

	session, err := svc.Get(ctx, "stale")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if session.State != models.SessionAbandoned {
		t.Fatalf("state = %q, want abandoned", session.State)
	}

	open, err := svc.OpenCount(ctx)
	if err != nil || open != 0 {
		t.Fatalf("OpenCount = %d, %v, want 0", open, err)
	}

	// a returning caller picks up where they left off
	resumed, _, err := svc.ApplyFields(ctx, "stale", "", map[string]string{
		models.FieldPatientName: "Jane Doe",
	})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.State != models.SessionCollecting {
		t.Fatalf("resumed state = %q, want collecting", resumed.State)
	}
}
