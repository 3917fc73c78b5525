package models

import "time"

// Conversation session states.
const (
	SessionCollecting = "collecting"
	SessionConfirming = "confirming"
	SessionCompleted  = "completed"
	SessionAbandoned  = "abandoned"
)

// Booking intents a conversation can carry.
const (
	IntentBook       = "book"
	IntentReschedule = "reschedule"
	IntentCancel     = "cancel"
)

// Field keys filled across conversation turns. The upstream language model
// extracts these from free text; the core only ever sees the structured map.
const (
	FieldPatientName      = "patient_name"
	FieldPhone            = "phone"
	FieldEmail            = "email"
	FieldDate             = "date" // YYYY-MM-DD
	FieldTime             = "time" // HH:MM
	FieldReason           = "reason"
	FieldProvider         = "provider"
	FieldConfirmationCode = "confirmation_code"
)

// ConversationSession accumulates booking fields over a multi-turn dialogue.
type ConversationSession struct {
	SessionID    string            `json:"sessionId"`
	Intent       string            `json:"intent"`
	State        string            `json:"state"`
	Fields       map[string]string `json:"fields"`
	CreatedAt    time.Time         `json:"createdAt"`
	LastActivity time.Time         `json:"lastActivity"`
}

// Terminal reports whether the session has reached an end state. Abandoned
// sessions are terminal but retained for later resumption.
func (s ConversationSession) Terminal() bool {
	return s.State == SessionCompleted || s.State == SessionAbandoned
}

// CommittedRequest is the confirmed outcome of a conversation, handed to the
// orchestrator for execution.
type CommittedRequest struct {
	SessionID        string    `json:"sessionId"`
	Intent           string    `json:"intent"`
	PatientName      string    `json:"patientName,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	Email            string    `json:"email,omitempty"`
	ProviderID       string    `json:"providerId,omitempty"`
	Start            time.Time `json:"start,omitempty"`
	Reason           string    `json:"reason,omitempty"`
	ConfirmationCode string    `json:"confirmationCode,omitempty"`
}
