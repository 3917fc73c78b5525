package errorlogRepo

import (
	"context"
	"time"

	"denticare/models"
)

// ErrorLogRepository is the append-only failure log shared by the annealing
// analyzer and the health monitor. Events are immutable once appended and
// appends from concurrent callers may interleave freely.
type ErrorLogRepository interface {
	Append(ctx context.Context, event models.ErrorEvent) error
	// Window returns events with Timestamp in [from, to), ordered ascending.
	Window(ctx context.Context, from, to time.Time) ([]models.ErrorEvent, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountByKindSince(ctx context.Context, since time.Time) (map[string]int64, error)
	Size(ctx context.Context) (int64, error)
}
