package models

// Turn result statuses returned to the conversational layer.
const (
	TurnNeedsMoreInfo        = "needs_more_info"
	TurnAwaitingConfirmation = "awaiting_confirmation"
	TurnOfferingSlots        = "offering_slots"
	TurnConfirmed            = "confirmed"
	TurnConflict             = "conflict"
	TurnError                = "error"
)

// TurnResult is the structured outcome of one conversation turn. The upstream
// language model phrases it for the end user; the core never formats prose.
type TurnResult struct {
	SessionID     string             `json:"sessionId"`
	Status        string             `json:"status"`
	MissingFields []string           `json:"missingFields,omitempty"`
	Slots         []AvailabilitySlot `json:"slots,omitempty"`        // offered availability, when a date is known
	Alternatives  []AvailabilitySlot `json:"alternatives,omitempty"` // offered after a conflict
	Appointment   *Appointment       `json:"appointment,omitempty"`
	ErrorKind     string             `json:"errorKind,omitempty"`
	Detail        string             `json:"detail,omitempty"`
}
