package annealing

import "denticare/models"

// Context keys that carry patient-identifying values. The error log outlives
// conversations, so these are masked before an event is appended.
var sensitiveKeys = map[string]bool{
	models.FieldPatientName: true,
	models.FieldPhone:       true,
	models.FieldEmail:       true,
}

const redactedPlaceholder = "[redacted]"

func redactContext(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if sensitiveKeys[k] {
			out[k] = redactedPlaceholder
			continue
		}
		out[k] = v
	}
	return out
}
