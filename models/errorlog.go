package models

import "time"

// ErrorEvent is one immutable entry in the append-only error log. Context
// payloads are redacted of patient contact details before append.
type ErrorEvent struct {
	ID        string            `bson:"id" json:"id"`
	Timestamp time.Time         `bson:"timestamp" json:"timestamp"`
	Kind      string            `bson:"kind" json:"kind"`           // taxonomy kind, e.g. "conflict", "storage"
	Op        string            `bson:"op" json:"op"`               // originating operation, e.g. "booking.create"
	SessionID string            `bson:"session_id,omitempty" json:"sessionId,omitempty"`
	Message   string            `bson:"message" json:"message"`
	Context   map[string]string `bson:"context,omitempty" json:"context,omitempty"`
}
