package models

import "time"

// ImprovementSuggestion is one ranked output of an annealing analysis run.
// Suggestions are regenerated on every run and require an operator to act on
// them; the analyzer never feeds them back into the system itself.
type ImprovementSuggestion struct {
	Kind          string            `json:"kind"`
	Op            string            `json:"op"`
	Count         int               `json:"count"`
	Pattern       string            `json:"pattern"`     // human description of the recurring failure
	Remediation   string            `json:"remediation"` // suggested fix, templated per kind
	SampleContext map[string]string `json:"sampleContext,omitempty"`
}

// SystemHealth is the aggregate health snapshot exposed on /health.
type SystemHealth struct {
	Score             int       `json:"healthScore"` // 0-100
	Status            string    `json:"status"`      // healthy | degraded | unhealthy
	OpenSessions      int64     `json:"openSessions"`
	BookingsToday     int64     `json:"bookingsToday"`
	ErrorRateLastHour float64   `json:"errorRateLastHour"` // events per minute
	CheckedAt         time.Time `json:"checkedAt"`
}

// Diagnostics is the operator-facing view exposed on /api/diagnostics.
type Diagnostics struct {
	ErrorCountsByKind map[string]int64 `json:"errorCountsByKind"`
	AppointmentCount  int64            `json:"appointmentCount"`
	ErrorLogSize      int64            `json:"errorLogSize"`
	AnalyzerLastRun   time.Time        `json:"analyzerLastRunAt"`
}
