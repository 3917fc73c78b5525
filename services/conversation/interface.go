package conversation

import (
	"context"
	"errors"
	"time"

	"denticare/models"
)

// Session store errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrBadState        = errors.New("operation not valid in current session state")
)

// FieldError reports a field value that failed format validation. The field
// is kept out of the session so the caller can re-prompt for it.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return "invalid field " + e.Field + ": " + e.Reason
}

// SessionStore persists conversation sessions keyed by session ID.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*models.ConversationSession, error)
	Put(ctx context.Context, session *models.ConversationSession) error
	Delete(ctx context.Context, sessionID string) error
	// All returns every stored session. Used by the idle sweeper and the
	// health monitor; both tolerate a slightly stale view.
	All(ctx context.Context) ([]models.ConversationSession, error)
}

// Service drives the session state machine:
//
//	collecting -> confirming -> completed
//	     ^            |
//	     +---reopen---+
//	collecting/confirming -> abandoned (idle sweep)
//
// Abandoned sessions are retained so a returning caller can resume.
type Service interface {
	// ApplyFields folds a turn's extracted fields into the session, creating
	// it on first contact. It returns the updated session plus the required
	// fields still missing for its intent; when none are missing the session
	// advances to confirming.
	ApplyFields(ctx context.Context, sessionID, intent string, fields map[string]string) (*models.ConversationSession, []string, error)
	// Commit builds the committed request from a confirming session's fields.
	// The session stays in confirming until Complete or Reopen is called.
	Commit(ctx context.Context, sessionID string) (*models.CommittedRequest, error)
	// Complete marks a confirming session completed after successful execution.
	Complete(ctx context.Context, sessionID string) error
	// Reopen returns a confirming session to collecting so fields can change.
	Reopen(ctx context.Context, sessionID string) (*models.ConversationSession, error)
	Get(ctx context.Context, sessionID string) (*models.ConversationSession, error)
	// SweepIdle abandons non-terminal sessions idle for longer than the
	// timeout and reports how many it abandoned.
	SweepIdle(ctx context.Context, idleTimeout time.Duration) (int, error)
	// OpenCount counts sessions in a non-terminal state.
	OpenCount(ctx context.Context) (int, error)
}
