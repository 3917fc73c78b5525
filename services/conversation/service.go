package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"denticare/models"
	"denticare/utils"
)

// DefaultService implements Service over a SessionStore.
type DefaultService struct {
	Store SessionStore
	// Location resolves the wall-clock date and time fields into instants.
	Location *time.Location
	Now      func() time.Time
}

func NewService(store SessionStore, loc *time.Location) *DefaultService {
	if loc == nil {
		loc = time.Local
	}
	return &DefaultService{Store: store, Location: loc, Now: time.Now}
}

func (s *DefaultService) ApplyFields(ctx context.Context, sessionID, intent string, fields map[string]string) (*models.ConversationSession, []string, error) {
	session, err := s.Store.Get(ctx, sessionID)
	if err == ErrSessionNotFound {
		if _, ok := requiredFields[intent]; !ok {
			return nil, nil, &FieldError{Field: "intent", Reason: fmt.Sprintf("unknown intent %q", intent)}
		}
		now := s.Now()
		session = &models.ConversationSession{
			SessionID:    sessionID,
			Intent:       intent,
			State:        models.SessionCollecting,
			Fields:       make(map[string]string),
			CreatedAt:    now,
			LastActivity: now,
		}
	} else if err != nil {
		return nil, nil, err
	}

	if session.State == models.SessionCompleted {
		return nil, nil, ErrBadState
	}
	if session.State == models.SessionAbandoned {
		// a returning caller resumes where they left off
		session.State = models.SessionCollecting
	}
	if session.State == models.SessionConfirming {
		// new fields while confirming mean the caller changed their mind
		session.State = models.SessionCollecting
	}

	// A clear intent switch restarts collection but keeps contact fields the
	// caller already gave, so they are not asked twice.
	if intent != "" && intent != session.Intent {
		if _, ok := requiredFields[intent]; !ok {
			return nil, nil, &FieldError{Field: "intent", Reason: fmt.Sprintf("unknown intent %q", intent)}
		}
		kept := map[string]string{}
		for _, key := range []string{models.FieldPatientName, models.FieldPhone, models.FieldEmail} {
			if v := session.Fields[key]; v != "" {
				kept[key] = v
			}
		}
		session.Intent = intent
		session.Fields = kept
	}

	for key, value := range fields {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if ferr := validateField(key, value); ferr != nil {
			return nil, nil, ferr
		}
		session.Fields[key] = value
	}

	missing := missingFields(session)
	if len(missing) == 0 {
		session.State = models.SessionConfirming
	}
	session.LastActivity = s.Now()

	if err := s.Store.Put(ctx, session); err != nil {
		return nil, nil, err
	}
	return session, missing, nil
}

func (s *DefaultService) Commit(ctx context.Context, sessionID string) (*models.CommittedRequest, error) {
	session, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State != models.SessionConfirming {
		return nil, ErrBadState
	}

	req := &models.CommittedRequest{
		SessionID:        session.SessionID,
		Intent:           session.Intent,
		PatientName:      session.Fields[models.FieldPatientName],
		Phone:            session.Fields[models.FieldPhone],
		Email:            session.Fields[models.FieldEmail],
		ProviderID:       session.Fields[models.FieldProvider],
		Reason:           session.Fields[models.FieldReason],
		ConfirmationCode: session.Fields[models.FieldConfirmationCode],
	}

	if date, ok := session.Fields[models.FieldDate]; ok && date != "" {
		start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+session.Fields[models.FieldTime], s.Location)
		if err != nil {
			return nil, &FieldError{Field: models.FieldDate, Reason: "unparseable date/time pair"}
		}
		req.Start = start
	}
	return req, nil
}

func (s *DefaultService) Complete(ctx context.Context, sessionID string) error {
	session, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.State != models.SessionConfirming {
		return ErrBadState
	}
	session.State = models.SessionCompleted
	session.LastActivity = s.Now()
	return s.Store.Put(ctx, session)
}

func (s *DefaultService) Reopen(ctx context.Context, sessionID string) (*models.ConversationSession, error) {
	session, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State != models.SessionConfirming {
		return nil, ErrBadState
	}
	session.State = models.SessionCollecting
	session.LastActivity = s.Now()
	if err := s.Store.Put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *DefaultService) Get(ctx context.Context, sessionID string) (*models.ConversationSession, error) {
	return s.Store.Get(ctx, sessionID)
}

func (s *DefaultService) SweepIdle(ctx context.Context, idleTimeout time.Duration) (int, error) {
	sessions, err := s.Store.All(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := s.Now().Add(-idleTimeout)
	abandoned := 0
	for i := range sessions {
		session := sessions[i]
		if session.Terminal() || !session.LastActivity.Before(cutoff) {
			continue
		}
		session.State = models.SessionAbandoned
		if err := s.Store.Put(ctx, &session); err != nil {
			utils.GetLogger().Warn("failed to abandon idle session",
				zap.String("sessionId", session.SessionID), zap.Error(err))
			continue
		}
		abandoned++
	}
	return abandoned, nil
}

func (s *DefaultService) OpenCount(ctx context.Context) (int, error) {
	sessions, err := s.Store.All(ctx)
	if err != nil {
		return 0, err
	}
	open := 0
	for _, session := range sessions {
		if !session.Terminal() {
			open++
		}
	}
	return open, nil
}
