package conversation

import (
	"regexp"
	"strings"
	"time"

	"denticare/models"
)

// requiredFields lists what each intent needs before the session may move to
// confirming. Provider is optional everywhere; the orchestrator falls back to
// the practice default.
var requiredFields = map[string][]string{
	models.IntentBook:       {models.FieldPatientName, models.FieldPhone, models.FieldDate, models.FieldTime, models.FieldReason},
	models.IntentReschedule: {models.FieldConfirmationCode, models.FieldDate, models.FieldTime},
	models.IntentCancel:     {models.FieldConfirmationCode},
}

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\-\s()]{5,19}$`)

// validateField checks the format of a single field value. Unknown field keys
// are rejected so extractor drift shows up as a validation error instead of
// silently polluting the session.
func validateField(key, value string) *FieldError {
	value = strings.TrimSpace(value)
	if value == "" {
		return &FieldError{Field: key, Reason: "empty value"}
	}
	switch key {
	case models.FieldDate:
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return &FieldError{Field: key, Reason: "want YYYY-MM-DD"}
		}
	case models.FieldTime:
		if _, err := time.Parse("15:04", value); err != nil {
			return &FieldError{Field: key, Reason: "want HH:MM"}
		}
	case models.FieldPhone:
		if !phonePattern.MatchString(value) {
			return &FieldError{Field: key, Reason: "not a phone number"}
		}
	case models.FieldEmail:
		if !strings.Contains(value, "@") {
			return &FieldError{Field: key, Reason: "not an email address"}
		}
	case models.FieldPatientName, models.FieldReason, models.FieldProvider, models.FieldConfirmationCode:
		// free-form
	default:
		return &FieldError{Field: key, Reason: "unknown field"}
	}
	return nil
}

// missingFields returns the required fields the session does not hold yet,
// in the schema's prompt order.
func missingFields(session *models.ConversationSession) []string {
	var missing []string
	for _, key := range requiredFields[session.Intent] {
		if strings.TrimSpace(session.Fields[key]) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
