package annealing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	errorlogRepo "denticare/database/repository/errorlog"
	"denticare/models"
	"denticare/services/booking"
	"denticare/utils"
)

// Recorder appends classified failure events to the error log. Recording is
// best-effort: a log write failure is itself logged and swallowed, never
// propagated into the request path.
type Recorder struct {
	Repo errorlogRepo.ErrorLogRepository
	Now  func() time.Time
}

func NewRecorder(repo errorlogRepo.ErrorLogRepository) *Recorder {
	return &Recorder{Repo: repo, Now: time.Now}
}

func (r *Recorder) Record(ctx context.Context, op, sessionID string, err error, extra map[string]string) {
	if err == nil {
		return
	}
	event := models.ErrorEvent{
		ID:        uuid.New().String(),
		Timestamp: r.Now(),
		Kind:      string(booking.KindOf(err)),
		Op:        op,
		SessionID: sessionID,
		Message:   err.Error(),
		Context:   redactContext(extra),
	}
	if appendErr := r.Repo.Append(ctx, event); appendErr != nil {
		utils.GetLogger().Warn("failed to append error event",
			zap.String("op", op), zap.Error(appendErr))
	}
}
