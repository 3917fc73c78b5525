package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"denticare/services/annealing"
)

// DiagnosticsHandler exposes the health snapshot, on-demand annealing runs
// and the operator diagnostics view.
type DiagnosticsHandler struct {
	Monitor  *annealing.HealthMonitor
	Analyzer *annealing.Analyzer
}

func NewDiagnosticsHandler(monitor *annealing.HealthMonitor, analyzer *annealing.Analyzer) *DiagnosticsHandler {
	return &DiagnosticsHandler{Monitor: monitor, Analyzer: analyzer}
}

// Health serves GET /health. Degraded systems still answer 200; when the
// backing stores are unreachable the last cached snapshot is served instead.
func (h *DiagnosticsHandler) Health(c *gin.Context) {
	snapshot, err := h.Monitor.Snapshot(c.Request.Context())
	if err != nil {
		getLogger(c).Error("health snapshot failed", zap.Error(err))
		if cached := h.Monitor.Cached(); cached != nil {
			c.JSON(http.StatusOK, gin.H{"stale": true, "snapshot": cached})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unknown", "error": "health check failed"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// Analyze serves GET /api/annealing/analyze: an on-demand analysis run.
// An optional ?days=N narrows or widens the window for this run only.
func (h *DiagnosticsHandler) Analyze(c *gin.Context) {
	window := h.Analyzer.Window
	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		window = time.Duration(days) * 24 * time.Hour
	}

	suggestions, err := h.Analyzer.AnalyzeWindow(c.Request.Context(), window)
	if err != nil {
		getLogger(c).Error("annealing analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// Diagnostics serves GET /api/diagnostics.
func (h *DiagnosticsHandler) Diagnostics(c *gin.Context) {
	diag, err := h.Monitor.Diagnostics(c.Request.Context())
	if err != nil {
		getLogger(c).Error("diagnostics failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "diagnostics failed"})
		return
	}
	c.JSON(http.StatusOK, diag)
}
