package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"denticare/models"
	"denticare/services/booking"
	ai "denticare/services/intelligence"
)

// ChatHandler bridges free-text messages into the structured scheduling core:
// the AI layer extracts intent and fields, the orchestrator decides, and the
// AI layer phrases the outcome back.
type ChatHandler struct {
	AI              ai.Service
	Orchestrator    booking.Orchestrator
	Recorder        booking.ErrorRecorder
	ConfidenceFloor float64
}

func NewChatHandler(aiSvc ai.Service, orchestrator booking.Orchestrator, recorder booking.ErrorRecorder, confidenceFloor float64) *ChatHandler {
	return &ChatHandler{AI: aiSvc, Orchestrator: orchestrator, Recorder: recorder, ConfidenceFloor: confidenceFloor}
}

// HandleChat processes one free-text turn.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	logger := getLogger(c)

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	extracted, err := h.AI.ExtractIntent(c.Request.Context(), req.Message, nil)
	if err != nil {
		logger.Error("intent extraction failed", zap.Error(err))
		if h.Recorder != nil {
			h.Recorder.Record(c.Request.Context(), "ai.extract", req.SessionID, err, nil)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not understand the message right now"})
		return
	}
	if extracted.Confidence < h.ConfidenceFloor {
		// too uncertain to act on; ask rather than guess
		extracted.Intent = ai.IntentUnknown
		extracted.Fields = nil
	}

	result, err := h.dispatch(c, req.SessionID, extracted)
	if err != nil {
		logger.Error("turn failed", zap.String("sessionId", req.SessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scheduling is temporarily unavailable"})
		return
	}

	reply, err := h.AI.GenerateReply(c.Request.Context(), result)
	if err != nil {
		reply = ai.TemplateReply(result)
	}

	c.JSON(http.StatusOK, models.ChatResponse{
		SessionID: req.SessionID,
		Reply:     reply,
		Result:    result,
	})
}

// HandleConfirm executes or reopens a pending request without going through
// extraction, for clients that render explicit confirm/change buttons.
func (h *ChatHandler) HandleConfirm(c *gin.Context) {
	logger := getLogger(c)

	var req struct {
		SessionID string `json:"session_id" binding:"required"`
		Action    string `json:"action"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	var (
		result *models.TurnResult
		err    error
	)
	switch req.Action {
	case "", "confirm":
		result, err = h.Orchestrator.Confirm(c.Request.Context(), req.SessionID)
	case "change":
		result, err = h.Orchestrator.RequestChange(c.Request.Context(), req.SessionID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be confirm or change"})
		return
	}
	if err != nil {
		logger.Error("confirm failed", zap.String("sessionId", req.SessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scheduling is temporarily unavailable"})
		return
	}

	reply, err := h.AI.GenerateReply(c.Request.Context(), result)
	if err != nil {
		reply = ai.TemplateReply(result)
	}

	c.JSON(http.StatusOK, models.ChatResponse{
		SessionID: req.SessionID,
		Reply:     reply,
		Result:    result,
	})
}

// dispatch routes an extracted intent to the right orchestrator operation.
func (h *ChatHandler) dispatch(c *gin.Context, sessionID string, extracted *models.ExtractedIntent) (*models.TurnResult, error) {
	ctx := c.Request.Context()
	switch extracted.Intent {
	case ai.IntentConfirm:
		return h.Orchestrator.Confirm(ctx, sessionID)
	case ai.IntentChange:
		return h.Orchestrator.RequestChange(ctx, sessionID)
	case ai.IntentUnknown:
		if len(extracted.Fields) > 0 {
			// mid-conversation answers often carry fields but no fresh intent
			return h.Orchestrator.HandleTurn(ctx, sessionID, "", extracted.Fields)
		}
		return &models.TurnResult{
			SessionID: sessionID,
			Status:    models.TurnNeedsMoreInfo,
			Detail:    "could not tell whether this is a booking, reschedule or cancellation",
		}, nil
	default:
		return h.Orchestrator.HandleTurn(ctx, sessionID, extracted.Intent, extracted.Fields)
	}
}
