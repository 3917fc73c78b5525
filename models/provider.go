package models

import (
	"strings"
	"time"
)

// WorkInterval is a continuous working window within one day, expressed in
// minutes from midnight (e.g. 540 for 9:00 AM, 1020 for 5:00 PM).
type WorkInterval struct {
	Start int `mapstructure:"start" json:"start"`
	End   int `mapstructure:"end" json:"end"`
}

// Provider is a bookable practitioner with a weekly working schedule.
// Hours is keyed by lowercase weekday name ("monday" .. "sunday"); a missing
// or empty entry means the provider is closed that day.
type Provider struct {
	ID    string                    `mapstructure:"id" json:"id"`
	Name  string                    `mapstructure:"name" json:"name"`
	Hours map[string][]WorkInterval `mapstructure:"hours" json:"hours"`
}

// Open reports whether an appointment starting at start and lasting the given
// number of minutes fits entirely inside one of the provider's working
// intervals on that day.
func (p Provider) Open(start time.Time, durationMinutes int) bool {
	intervals := p.Hours[strings.ToLower(start.Weekday().String())]
	fromMidnight := start.Hour()*60 + start.Minute()
	for _, iv := range intervals {
		if fromMidnight >= iv.Start && fromMidnight+durationMinutes <= iv.End {
			return true
		}
	}
	return false
}
