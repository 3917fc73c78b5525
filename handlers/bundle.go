package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct for the router.
type HandlerBundle struct {
	// Conversational endpoints
	ChatHandler        gin.HandlerFunc
	ChatConfirmHandler gin.HandlerFunc
	VoiceHandler       gin.HandlerFunc

	// Scheduling endpoints
	ListBookingsHandler gin.HandlerFunc
	AvailabilityHandler gin.HandlerFunc

	// Diagnostics endpoints
	HealthHandler      gin.HandlerFunc
	AnnealingHandler   gin.HandlerFunc
	DiagnosticsHandler gin.HandlerFunc
}
