package ai

import (
	"fmt"
	"strings"

	"denticare/models"
)

var fieldPrompts = map[string]string{
	models.FieldPatientName:      "your name",
	models.FieldPhone:            "a phone number",
	models.FieldEmail:            "an email address",
	models.FieldDate:             "a preferred date",
	models.FieldTime:             "a preferred time",
	models.FieldReason:           "the reason for the visit",
	models.FieldProvider:         "a preferred dentist",
	models.FieldConfirmationCode: "your confirmation code",
}

// TemplateReply renders a turn result as plain prose without a language
// model. Used as the fallback when generation fails and in offline mode.
func TemplateReply(result *models.TurnResult) string {
	switch result.Status {
	case models.TurnNeedsMoreInfo:
		var wants []string
		for _, field := range result.MissingFields {
			if p, ok := fieldPrompts[field]; ok {
				wants = append(wants, p)
			}
		}
		msg := "Could you give me " + joinNatural(wants) + "?"
		if len(result.Slots) > 0 {
			msg += " That day we have " + slotTimes(result.Slots) + " open."
		}
		return msg
	case models.TurnAwaitingConfirmation:
		return "I have everything I need. Shall I go ahead and confirm?"
	case models.TurnOfferingSlots:
		return "We have " + slotTimes(result.Slots) + " available."
	case models.TurnConfirmed:
		if result.Appointment != nil {
			return fmt.Sprintf("All set. Your confirmation code is %s.", result.Appointment.ConfirmationCode)
		}
		return "All set."
	case models.TurnConflict:
		if len(result.Alternatives) > 0 {
			return "I'm sorry, that time was just taken. I could offer " + slotTimes(result.Alternatives) + " instead."
		}
		return "I'm sorry, that time was just taken. Would another day work?"
	default:
		return "Sorry, something went wrong on our side. Could you try that again?"
	}
}

func slotTimes(slots []models.AvailabilitySlot) string {
	labels := make([]string, 0, len(slots))
	for _, slot := range slots {
		labels = append(labels, slot.Label)
	}
	return joinNatural(labels)
}

func joinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
