package ai

import (
	"context"

	"denticare/models"
)

// Conversational intents the extractor may emit on top of the booking
// intents. Confirm and change steer an in-flight session; unknown means the
// utterance carried no actionable scheduling content.
const (
	IntentConfirm = "confirm"
	IntentChange  = "change"
	IntentUnknown = "unknown"
)

// Service is the language-model boundary. Everything behind it is
// best-effort and replaceable; the scheduling core never depends on it.
type Service interface {
	// ExtractIntent turns one user utterance plus recent history into a
	// structured intent with extracted fields and a confidence estimate.
	ExtractIntent(ctx context.Context, message string, history []models.DialogueTurn) (*models.ExtractedIntent, error)
	// GenerateReply phrases a structured turn result for the end user.
	GenerateReply(ctx context.Context, result *models.TurnResult) (string, error)
}
