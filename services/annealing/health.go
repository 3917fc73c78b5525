package annealing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	appointmentRepo "denticare/database/repository/appointment"
	errorlogRepo "denticare/database/repository/errorlog"
	"denticare/models"
	"denticare/services/conversation"
	"denticare/utils"
)

// Health score thresholds.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthMonitor assembles the aggregate health snapshot and the operator
// diagnostics view from the stores the scheduler already maintains. The last
// snapshot is cached so a broken backing store still answers /health with the
// most recent known state.
type HealthMonitor struct {
	Appointments appointmentRepo.AppointmentRepository
	Errors       errorlogRepo.ErrorLogRepository
	Sessions     conversation.Service
	Analyzer     *Analyzer
	Now          func() time.Time

	mu     sync.RWMutex
	cached *models.SystemHealth
}

func NewHealthMonitor(appointments appointmentRepo.AppointmentRepository, errors errorlogRepo.ErrorLogRepository, sessions conversation.Service, analyzer *Analyzer) *HealthMonitor {
	return &HealthMonitor{
		Appointments: appointments,
		Errors:       errors,
		Sessions:     sessions,
		Analyzer:     analyzer,
		Now:          time.Now,
	}
}

// Snapshot computes the current health score. The score starts at 100 and is
// pulled down by the recent error rate; it never goes below zero.
func (m *HealthMonitor) Snapshot(ctx context.Context) (*models.SystemHealth, error) {
	now := m.Now()

	errorsLastHour, err := m.Errors.CountSince(ctx, now.Add(-time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to count recent errors: %w", err)
	}
	open, err := m.Sessions.OpenCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count open sessions: %w", err)
	}
	bookingsToday, err := m.Appointments.CountOnDate(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to count today's bookings: %w", err)
	}

	ratePerMinute := float64(errorsLastHour) / 60.0
	score := 100 - int(errorsLastHour*2)
	if score < 0 {
		score = 0
	}

	status := statusHealthy
	switch {
	case score < 50:
		status = statusUnhealthy
	case score < 80:
		status = statusDegraded
	}

	snapshot := &models.SystemHealth{
		Score:             score,
		Status:            status,
		OpenSessions:      int64(open),
		BookingsToday:     bookingsToday,
		ErrorRateLastHour: ratePerMinute,
		CheckedAt:         now,
	}

	m.mu.Lock()
	m.cached = snapshot
	m.mu.Unlock()
	return snapshot, nil
}

// Cached returns the last computed snapshot, nil if Snapshot never succeeded.
func (m *HealthMonitor) Cached() *models.SystemHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cached
}

// StartRefresh recomputes the snapshot on a fixed interval until the context
// is cancelled.
func (m *HealthMonitor) StartRefresh(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.Snapshot(ctx); err != nil {
					utils.GetLogger().Warn("health refresh failed", zap.Error(err))
				}
			}
		}
	}()
}

// Diagnostics returns the operator view: error distribution over the analysis
// window plus store sizes and the analyzer's last run time.
func (m *HealthMonitor) Diagnostics(ctx context.Context) (*models.Diagnostics, error) {
	now := m.Now()

	window := 7 * 24 * time.Hour
	if m.Analyzer != nil && m.Analyzer.Window > 0 {
		window = m.Analyzer.Window
	}
	byKind, err := m.Errors.CountByKindSince(ctx, now.Add(-window))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate errors by kind: %w", err)
	}
	apptCount, err := m.Appointments.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}
	logSize, err := m.Errors.Size(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to size error log: %w", err)
	}

	diag := &models.Diagnostics{
		ErrorCountsByKind: byKind,
		AppointmentCount:  apptCount,
		ErrorLogSize:      logSize,
	}
	if m.Analyzer != nil {
		diag.AnalyzerLastRun = m.Analyzer.LastRunAt()
	}
	return diag, nil
}
