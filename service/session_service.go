package service

import (
	"context"
	"fmt"

	"plateraffle/events"
	"plateraffle/models"

	log "github.com/sirupsen/logrus"
)

type sessionService struct {
	uowFactory UnitOfWorkFactory
}

// NewSessionService creates a new session service
func NewSessionService(uowFactory UnitOfWorkFactory) SessionService {
	return &sessionService{
		uowFactory: uowFactory,
	}
}

// CreateSession creates a session and its initial no-winner draw state in
// one atomic operation.
func (s *sessionService) CreateSession(ctx context.Context) (*models.Session, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	session, err := uow.SessionRepository().Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	state := &models.DrawState{SessionID: session.ID}
	if err := uow.DrawStateRepository().Create(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to create draw state: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("sessionID", session.ID).Info("Session created")

	return session, nil
}

// RecordObservation derives the canonical identity key and appends one
// plate record. Records are immutable once written.
func (s *sessionService) RecordObservation(ctx context.Context, sessionID int64, studentIdentifier, preferredName, lastName string, category models.Category) (*models.Observation, error) {
	if !models.ValidCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidState, category)
	}

	key, err := models.NewIdentityKey(studentIdentifier, preferredName, lastName)
	if err != nil {
		return nil, fmt.Errorf("invalid identity: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	session, err := uow.SessionRepository().GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}

	observation := &models.Observation{
		SessionID:   sessionID,
		IdentityKey: key,
		Category:    category,
	}
	if err := uow.ObservationRepository().Create(ctx, observation); err != nil {
		return nil, fmt.Errorf("failed to create observation: %w", err)
	}

	uow.EventBus().Publish(events.ObservationRecordedEvent{
		SessionID:   sessionID,
		IdentityKey: key,
		Category:    category,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return observation, nil
}

// GetSessionDetail returns a session with its records and draw state
func (s *sessionService) GetSessionDetail(ctx context.Context, sessionID int64) (*models.SessionDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	session, state, err := getSessionDrawState(ctx, uow, sessionID)
	if err != nil {
		return nil, err
	}

	observations, err := uow.ObservationRepository().ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}

	return &models.SessionDetail{
		Session:      session,
		Observations: observations,
		DrawState:    state,
	}, nil
}

// ListSessions returns all sessions in ledger order
func (s *sessionService) ListSessions(ctx context.Context) ([]*models.Session, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	sessions, err := uow.SessionRepository().ListOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, nil
}
