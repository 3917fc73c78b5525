package models

// ChatRequest is the payload coming from the frontend into /api/chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

// ChatResponse is what the chat handler returns to the frontend.
type ChatResponse struct {
	SessionID string      `json:"session_id"`
	Reply     string      `json:"reply"`
	Result    *TurnResult `json:"result,omitempty"`
}

// ExtractedIntent is the structured output of the upstream language model for
// one user utterance. Confidence below the configured floor means the fields
// are discarded rather than guessed at.
type ExtractedIntent struct {
	Intent     string            `json:"intent"` // book | reschedule | cancel | confirm | change | unknown
	Fields     map[string]string `json:"fields"`
	Confidence float64           `json:"confidence"`
}

// DialogueTurn is one prior exchange supplied to the extractor as history.
type DialogueTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
