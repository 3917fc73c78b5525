package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"denticare/models"
	"denticare/utils"
)

const (
	extractRetries   = 3
	retryBackoffBase = 500 * time.Millisecond
)

type GeminiService struct {
	model *genai.GenerativeModel
}

func NewGeminiService(apiKey string) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel("models/gemini-1.5-pro")
	return &GeminiService{model: model}, nil
}

const extractPromptHeader = `You are the intake layer of a dental clinic scheduling system.
Classify the user's latest message into exactly one intent:
book, reschedule, cancel, confirm, change, unknown.
Extract any of these fields when present:
patient_name, phone, email, date (YYYY-MM-DD), time (HH:MM, 24h),
reason, provider, confirmation_code.
Respond with ONLY a JSON object:
{"intent": "...", "fields": {...}, "confidence": 0.0-1.0}
Do not invent field values that the user did not state.`

func (g *GeminiService) ExtractIntent(ctx context.Context, message string, history []models.DialogueTurn) (*models.ExtractedIntent, error) {
	var sb strings.Builder
	sb.WriteString(extractPromptHeader)
	sb.WriteString("\n\nConversation so far:\n")
	for _, turn := range history {
		sb.WriteString(turn.Role)
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("\nLatest user message:\n")
	sb.WriteString(message)

	raw, err := g.generateWithRetry(ctx, sb.String())
	if err != nil {
		return nil, err
	}

	extracted, err := parseExtraction(raw)
	if err != nil {
		utils.GetLogger().Warn("unparseable extraction output", zap.Error(err))
		// a parse failure downgrades to unknown rather than failing the turn
		return &models.ExtractedIntent{Intent: IntentUnknown, Fields: map[string]string{}}, nil
	}
	return extracted, nil
}

func (g *GeminiService) GenerateReply(ctx context.Context, result *models.TurnResult) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	prompt := fmt.Sprintf(`You are the receptionist voice of a dental clinic.
Phrase the following structured scheduling outcome as one short, warm,
natural sentence or two for the caller. Mention slot times in plain words.
Never mention JSON, sessions or internal errors.

Outcome:
%s`, payload)

	reply, err := g.generateWithRetry(ctx, prompt)
	if err != nil {
		// the structured result still stands; fall back to templated prose
		utils.GetLogger().Warn("reply generation failed, using template", zap.Error(err))
		return TemplateReply(result), nil
	}
	return strings.TrimSpace(reply), nil
}

// generateWithRetry calls the model with bounded retries and doubling backoff.
func (g *GeminiService) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	backoff := retryBackoffBase
	for attempt := 1; attempt <= extractRetries; attempt++ {
		resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
		if err == nil {
			var sb strings.Builder
			for _, part := range resp.Candidates[0].Content.Parts {
				if textPart, ok := part.(genai.Text); ok {
					sb.WriteString(string(textPart))
				}
			}
			return sb.String(), nil
		}
		lastErr = err
		if attempt == extractRetries {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return "", fmt.Errorf("gemini generate failed after %d attempts: %w", extractRetries, lastErr)
}

// parseExtraction tolerates the model wrapping its JSON in markdown fences.
func parseExtraction(raw string) (*models.ExtractedIntent, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var extracted models.ExtractedIntent
	if err := json.Unmarshal([]byte(cleaned), &extracted); err != nil {
		return nil, fmt.Errorf("extraction output is not valid JSON: %w", err)
	}
	if extracted.Fields == nil {
		extracted.Fields = map[string]string{}
	}
	switch extracted.Intent {
	case models.IntentBook, models.IntentReschedule, models.IntentCancel,
		IntentConfirm, IntentChange, IntentUnknown:
	default:
		extracted.Intent = IntentUnknown
	}
	return &extracted, nil
}
