package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"denticare/models"
	"denticare/services/booking"
)

// BookingHandler serves the read-side scheduling endpoints used by the
// front desk: listings by date or phone, and availability lookups.
type BookingHandler struct {
	Bookings booking.Store
	Calendar *booking.SlotCalendar

	DefaultProviderID string
	DurationMinutes   int
	Location          *time.Location
}

func NewBookingHandler(bookings booking.Store, calendar *booking.SlotCalendar, defaultProviderID string, durationMinutes int, loc *time.Location) *BookingHandler {
	if loc == nil {
		loc = time.Local
	}
	return &BookingHandler{
		Bookings:          bookings,
		Calendar:          calendar,
		DefaultProviderID: defaultProviderID,
		DurationMinutes:   durationMinutes,
		Location:          loc,
	}
}

// ListBookings returns appointments filtered by ?date=YYYY-MM-DD or ?phone=.
// Exactly one filter is required.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	logger := getLogger(c)

	date := c.Query("date")
	phone := c.Query("phone")
	if (date == "") == (phone == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide exactly one of date or phone"})
		return
	}

	var (
		appts []models.Appointment
		err   error
	)
	if date != "" {
		day, perr := time.ParseInLocation("2006-01-02", date, h.Location)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date", "details": "want YYYY-MM-DD"})
			return
		}
		appts, err = h.Bookings.FindByDate(c.Request.Context(), day)
	} else {
		appts, err = h.Bookings.FindByContact(c.Request.Context(), phone)
	}
	if err != nil {
		logger.Error("failed to list bookings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": appts, "count": len(appts)})
}

// Availability returns open slots for ?date=YYYY-MM-DD, optional ?provider=
// and ?duration= in minutes.
func (h *BookingHandler) Availability(c *gin.Context) {
	logger := getLogger(c)

	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}
	day, err := time.ParseInLocation("2006-01-02", date, h.Location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date", "details": "want YYYY-MM-DD"})
		return
	}

	providerID := c.DefaultQuery("provider", h.DefaultProviderID)
	duration := h.DurationMinutes
	if raw := c.Query("duration"); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration"})
			return
		}
	}

	slots, err := h.Calendar.AvailableSlots(c.Request.Context(), providerID, day, duration)
	if err != nil {
		switch booking.KindOf(err) {
		case booking.KindNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		case booking.KindValidation:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("failed to compute availability", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute availability"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":     date,
		"provider": providerID,
		"slots":    slots,
		"count":    len(slots),
	})
}
