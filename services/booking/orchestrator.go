package booking

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"denticare/models"
	"denticare/services/conversation"
	"denticare/utils"
)

// ErrorRecorder receives every scheduling failure for later analysis. A nil
// recorder disables recording; the orchestrator never fails because of it.
type ErrorRecorder interface {
	Record(ctx context.Context, op, sessionID string, err error, extra map[string]string)
}

// DefaultOrchestrator is the deterministic core of the scheduling workflow.
// Intent extraction happens upstream; by the time a turn reaches here it is a
// structured (intent, fields) pair.
type DefaultOrchestrator struct {
	Sessions conversation.Service
	Calendar *SlotCalendar
	Bookings Store
	Recorder ErrorRecorder

	DefaultProviderID string
	DurationMinutes   int
	Location          *time.Location
	MaxAlternatives   int
}

func NewOrchestrator(sessions conversation.Service, calendar *SlotCalendar, bookings Store, recorder ErrorRecorder, defaultProviderID string, durationMinutes int, loc *time.Location) *DefaultOrchestrator {
	if loc == nil {
		loc = time.Local
	}
	return &DefaultOrchestrator{
		Sessions:          sessions,
		Calendar:          calendar,
		Bookings:          bookings,
		Recorder:          recorder,
		DefaultProviderID: defaultProviderID,
		DurationMinutes:   durationMinutes,
		Location:          loc,
		MaxAlternatives:   3,
	}
}

func (o *DefaultOrchestrator) HandleTurn(ctx context.Context, sessionID, intent string, fields map[string]string) (*models.TurnResult, error) {
	const op = "orchestrator.handle_turn"

	session, missing, err := o.Sessions.ApplyFields(ctx, sessionID, intent, fields)
	if err != nil {
		var ferr *conversation.FieldError
		if errors.As(err, &ferr) {
			verr := newError(KindValidation, op, "%s", ferr.Error())
			o.record(ctx, op, sessionID, verr, map[string]string{"field": ferr.Field})
			return errorResult(sessionID, verr), nil
		}
		if errors.Is(err, conversation.ErrBadState) {
			serr := newError(KindInvalidState, op, "session %s is finished", sessionID)
			o.record(ctx, op, sessionID, serr, nil)
			return errorResult(sessionID, serr), nil
		}
		werr := wrapStorage(op, err)
		o.record(ctx, op, sessionID, werr, nil)
		return nil, werr
	}

	if len(missing) > 0 {
		result := &models.TurnResult{
			SessionID:     sessionID,
			Status:        models.TurnNeedsMoreInfo,
			MissingFields: missing,
		}
		// once a date is on the table, show what is still open that day
		if date := session.Fields[models.FieldDate]; date != "" {
			result.Slots = o.slotsForDate(ctx, session, date)
			if len(result.Slots) > 0 && len(missing) == 1 && missing[0] == models.FieldTime {
				result.Status = models.TurnOfferingSlots
			}
		}
		return result, nil
	}

	return &models.TurnResult{SessionID: sessionID, Status: models.TurnAwaitingConfirmation}, nil
}

func (o *DefaultOrchestrator) Confirm(ctx context.Context, sessionID string) (*models.TurnResult, error) {
	const op = "orchestrator.confirm"

	req, err := o.Sessions.Commit(ctx, sessionID)
	if err != nil {
		return o.commitFailure(ctx, op, sessionID, err)
	}

	var appt *models.Appointment
	switch req.Intent {
	case models.IntentBook:
		appt, err = o.executeBook(ctx, req)
	case models.IntentReschedule:
		appt, err = o.executeReschedule(ctx, req)
	case models.IntentCancel:
		appt, err = o.executeCancel(ctx, req)
	default:
		err = newError(KindValidation, op, "unknown intent %q", req.Intent)
	}

	if err != nil {
		o.record(ctx, op, sessionID, err, map[string]string{"intent": req.Intent})
		if IsKind(err, KindConflict) {
			return o.recoverConflict(ctx, sessionID, req)
		}
		// leave the session in confirming so the caller can adjust and retry
		var berr *Error
		if !errors.As(err, &berr) {
			berr = wrapStorage(op, err)
		}
		return errorResult(sessionID, berr), nil
	}

	if err := o.Sessions.Complete(ctx, sessionID); err != nil {
		// booking succeeded; a stuck session is a diagnostics problem, not the caller's
		utils.GetLogger().Warn("failed to complete session after booking",
			zap.String("sessionId", sessionID), zap.Error(err))
	}

	return &models.TurnResult{
		SessionID:   sessionID,
		Status:      models.TurnConfirmed,
		Appointment: appt,
	}, nil
}

func (o *DefaultOrchestrator) RequestChange(ctx context.Context, sessionID string) (*models.TurnResult, error) {
	const op = "orchestrator.request_change"

	session, err := o.Sessions.Reopen(ctx, sessionID)
	if err != nil {
		return o.commitFailure(ctx, op, sessionID, err)
	}
	slots := o.slotsForDate(ctx, session, session.Fields[models.FieldDate])
	status := models.TurnNeedsMoreInfo
	if len(slots) > 0 {
		status = models.TurnOfferingSlots
	}
	return &models.TurnResult{
		SessionID: sessionID,
		Status:    status,
		Slots:     slots,
	}, nil
}

func (o *DefaultOrchestrator) executeBook(ctx context.Context, req *models.CommittedRequest) (*models.Appointment, error) {
	candidate := models.Appointment{
		ProviderID:      o.providerID(req),
		PatientName:     req.PatientName,
		Phone:           req.Phone,
		Email:           req.Email,
		Start:           req.Start,
		DurationMinutes: o.DurationMinutes,
		Reason:          req.Reason,
	}
	if err := o.checkWithinHours(candidate.ProviderID, candidate.Start, candidate.DurationMinutes); err != nil {
		return nil, err
	}
	return o.Bookings.Create(ctx, candidate)
}

func (o *DefaultOrchestrator) executeReschedule(ctx context.Context, req *models.CommittedRequest) (*models.Appointment, error) {
	appt, err := o.Bookings.GetByCode(ctx, req.ConfirmationCode)
	if err != nil {
		return nil, err
	}
	if err := o.checkWithinHours(appt.ProviderID, req.Start, appt.DurationMinutes); err != nil {
		return nil, err
	}
	return o.Bookings.Reschedule(ctx, appt.ID, req.Start)
}

func (o *DefaultOrchestrator) executeCancel(ctx context.Context, req *models.CommittedRequest) (*models.Appointment, error) {
	appt, err := o.Bookings.GetByCode(ctx, req.ConfirmationCode)
	if err != nil {
		return nil, err
	}
	return o.Bookings.Cancel(ctx, appt.ID)
}

// checkWithinHours rejects starts outside the provider's working intervals
// before the store is even consulted.
func (o *DefaultOrchestrator) checkWithinHours(providerID string, start time.Time, durationMinutes int) error {
	const op = "orchestrator.check_hours"

	provider, ok := o.Calendar.Providers[providerID]
	if !ok {
		return newError(KindNotFound, op, "unknown provider %q", providerID)
	}
	if !provider.Open(start, durationMinutes) {
		return newError(KindValidation, op, "%s is outside office hours", start.Format("Mon 15:04"))
	}
	return nil
}

// recoverConflict turns a lost slot into an offer of nearby alternatives and
// reopens the session so the caller can pick one.
func (o *DefaultOrchestrator) recoverConflict(ctx context.Context, sessionID string, req *models.CommittedRequest) (*models.TurnResult, error) {
	if _, err := o.Sessions.Reopen(ctx, sessionID); err != nil && !errors.Is(err, conversation.ErrBadState) {
		utils.GetLogger().Warn("failed to reopen session after conflict",
			zap.String("sessionId", sessionID), zap.Error(err))
	}

	result := &models.TurnResult{
		SessionID: sessionID,
		Status:    models.TurnConflict,
		ErrorKind: string(KindConflict),
		Detail:    "that time was just taken",
	}

	slots, err := o.Calendar.AvailableSlots(ctx, o.providerID(req), req.Start, o.DurationMinutes)
	if err != nil {
		utils.GetLogger().Warn("failed to compute alternatives", zap.Error(err))
		return result, nil
	}
	// nearest alternatives after the requested time first
	var after, before []models.AvailabilitySlot
	for _, slot := range slots {
		if slot.Start.After(req.Start) {
			after = append(after, slot)
		} else {
			before = append(before, slot)
		}
	}
	alternatives := append(after, before...)
	if len(alternatives) > o.MaxAlternatives {
		alternatives = alternatives[:o.MaxAlternatives]
	}
	result.Alternatives = alternatives
	return result, nil
}

func (o *DefaultOrchestrator) commitFailure(ctx context.Context, op, sessionID string, err error) (*models.TurnResult, error) {
	if errors.Is(err, conversation.ErrSessionNotFound) {
		nerr := newError(KindNotFound, op, "unknown session %q", sessionID)
		o.record(ctx, op, sessionID, nerr, nil)
		return errorResult(sessionID, nerr), nil
	}
	if errors.Is(err, conversation.ErrBadState) {
		serr := newError(KindInvalidState, op, "session %s has nothing to confirm", sessionID)
		o.record(ctx, op, sessionID, serr, nil)
		return errorResult(sessionID, serr), nil
	}
	var ferr *conversation.FieldError
	if errors.As(err, &ferr) {
		verr := newError(KindValidation, op, "%s", ferr.Error())
		o.record(ctx, op, sessionID, verr, map[string]string{"field": ferr.Field})
		return errorResult(sessionID, verr), nil
	}
	werr := wrapStorage(op, err)
	o.record(ctx, op, sessionID, werr, nil)
	return nil, werr
}

func (o *DefaultOrchestrator) providerID(req *models.CommittedRequest) string {
	if req.ProviderID != "" {
		return req.ProviderID
	}
	return o.DefaultProviderID
}

func (o *DefaultOrchestrator) slotsForDate(ctx context.Context, session *models.ConversationSession, date string) []models.AvailabilitySlot {
	day, err := time.ParseInLocation("2006-01-02", date, o.Location)
	if err != nil {
		return nil
	}
	providerID := session.Fields[models.FieldProvider]
	if providerID == "" {
		providerID = o.DefaultProviderID
	}
	slots, err := o.Calendar.AvailableSlots(ctx, providerID, day, o.DurationMinutes)
	if err != nil {
		utils.GetLogger().Warn("failed to compute slots for session",
			zap.String("sessionId", session.SessionID), zap.Error(err))
		return nil
	}
	return slots
}

func (o *DefaultOrchestrator) record(ctx context.Context, op, sessionID string, err error, extra map[string]string) {
	if o.Recorder == nil {
		return
	}
	o.Recorder.Record(ctx, op, sessionID, err, extra)
}

func errorResult(sessionID string, err *Error) *models.TurnResult {
	status := models.TurnError
	if err.Kind == KindConflict {
		status = models.TurnConflict
	}
	return &models.TurnResult{
		SessionID: sessionID,
		Status:    status,
		ErrorKind: string(err.Kind),
		Detail:    err.Message,
	}
}
