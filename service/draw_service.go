package service

import (
	"context"
	"fmt"
	"strings"

	"plateraffle/events"
	"plateraffle/models"

	log "github.com/sirupsen/logrus"
)

type drawService struct {
	uowFactory UnitOfWorkFactory
	selector   WinnerSelector
}

// NewDrawService creates a new draw service
func NewDrawService(uowFactory UnitOfWorkFactory, selector WinnerSelector) DrawService {
	return &drawService{
		uowFactory: uowFactory,
		selector:   selector,
	}
}

// StartDraw runs the weighted draw for a session and records the winner.
// The ledger replay and the state write happen in one transaction so the
// draw cannot race a concurrent record insert.
func (s *drawService) StartDraw(ctx context.Context, sessionID int64, actor models.Actor) (*models.DrawState, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: starting a draw requires admin", ErrForbidden)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	session, state, err := getSessionDrawState(ctx, uow, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Discarded {
		return nil, fmt.Errorf("%w: session %d is discarded", ErrInvalidState, sessionID)
	}
	if state.HasWinner() {
		return nil, fmt.Errorf("%w: session %d already has a winner", ErrInvalidState, sessionID)
	}

	snapshot, err := replayBalances(ctx, uow, sessionID)
	if err != nil {
		return nil, err
	}

	pick, err := s.selector.Select(snapshot.Candidates)
	if err != nil {
		return nil, err
	}

	state.SetWinner(pick.Key, pick.Tickets, pick.Probability, len(snapshot.Candidates), models.DrawMethodRandom)
	if err := uow.DrawStateRepository().Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save draw state: %w", err)
	}

	if err := appendHistory(ctx, uow, state, models.DrawActionSelect, actor.Name); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.DrawStartedEvent{
		SessionID:   sessionID,
		WinnerKey:   state.WinnerKey,
		Tickets:     state.WinnerTickets,
		Probability: state.WinnerProbability,
		PoolSize:    state.PoolSize,
		Method:      state.Method,
		Actor:       actor.Name,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"sessionID":   sessionID,
		"winner":      state.WinnerKey,
		"tickets":     state.WinnerTickets,
		"probability": state.WinnerProbability,
		"poolSize":    state.PoolSize,
	}).Info("Draw winner selected")

	return state, nil
}

// Override sets the winner by hand and finalizes immediately. The target
// may be a student identifier, an identity key, or a name; it must resolve
// to exactly one student with a record in the session, tickets or not.
func (s *drawService) Override(ctx context.Context, sessionID int64, actor models.Actor, target string) (*models.DrawState, error) {
	if !actor.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: overriding a draw requires super admin", ErrForbidden)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	session, state, err := getSessionDrawState(ctx, uow, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Discarded {
		return nil, fmt.Errorf("%w: session %d is discarded", ErrInvalidState, sessionID)
	}

	observations, err := uow.ObservationRepository().ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}

	winnerKey, err := resolveOverrideTarget(observations, target)
	if err != nil {
		return nil, err
	}

	snapshot, err := replayBalances(ctx, uow, sessionID)
	if err != nil {
		return nil, err
	}

	// The override target may hold zero tickets; the snapshot numbers are
	// recorded as they stand for the audit trail.
	tickets := snapshot.Balances[winnerKey]
	var probability float64
	if candidate := snapshot.FindCandidate(winnerKey); candidate != nil {
		probability = candidate.Probability
	}

	state.SetWinner(winnerKey, tickets, probability, len(snapshot.Candidates), models.DrawMethodOverride)
	state.Finalize(actor.Name)
	if err := uow.DrawStateRepository().Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save draw state: %w", err)
	}

	if err := appendHistory(ctx, uow, state, models.DrawActionOverride, actor.Name); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.DrawFinalizedEvent{
		SessionID: sessionID,
		WinnerKey: winnerKey,
		Override:  true,
		Actor:     actor.Name,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"sessionID": sessionID,
		"winner":    winnerKey,
		"actor":     actor.Name,
	}).Info("Draw winner overridden and finalized")

	return state, nil
}

// Finalize locks in the selected winner. From the next replay on, the
// winner's balance is zeroed for later sessions.
func (s *drawService) Finalize(ctx context.Context, sessionID int64, actor models.Actor) (*models.DrawState, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: finalizing a draw requires admin", ErrForbidden)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	_, state, err := getSessionDrawState(ctx, uow, sessionID)
	if err != nil {
		return nil, err
	}
	if !state.HasWinner() {
		return nil, fmt.Errorf("%w: no winner selected for session %d", ErrInvalidState, sessionID)
	}
	if state.IsFinalized() {
		return nil, fmt.Errorf("%w: session %d draw already finalized", ErrInvalidState, sessionID)
	}

	state.Finalize(actor.Name)
	if err := uow.DrawStateRepository().Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save draw state: %w", err)
	}

	if err := appendHistory(ctx, uow, state, models.DrawActionFinalize, actor.Name); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.DrawFinalizedEvent{
		SessionID: sessionID,
		WinnerKey: state.WinnerKey,
		Override:  state.Override,
		Actor:     actor.Name,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"sessionID": sessionID,
		"winner":    state.WinnerKey,
		"actor":     actor.Name,
	}).Info("Draw finalized")

	return state, nil
}

// Reset clears the winner and finalize fields. A finalized draw may only
// be reset by a super admin. A zero-out already applied by a past finalize
// stays applied for past replays; only future replays change.
func (s *drawService) Reset(ctx context.Context, sessionID int64, actor models.Actor) (*models.DrawState, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: resetting a draw requires admin", ErrForbidden)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	_, state, err := getSessionDrawState(ctx, uow, sessionID)
	if err != nil {
		return nil, err
	}
	if !state.HasWinner() {
		return nil, fmt.Errorf("%w: no winner to reset for session %d", ErrInvalidState, sessionID)
	}
	if state.IsFinalized() && !actor.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: only a super admin may reset a finalized draw", ErrForbidden)
	}

	previousKey := state.WinnerKey
	wasFinalized := state.IsFinalized()

	state.Clear()
	if err := uow.DrawStateRepository().Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save draw state: %w", err)
	}

	if err := appendHistory(ctx, uow, state, models.DrawActionReset, actor.Name); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.DrawResetEvent{
		SessionID:    sessionID,
		PreviousKey:  previousKey,
		WasFinalized: wasFinalized,
		Actor:        actor.Name,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"sessionID":    sessionID,
		"previous":     previousKey,
		"wasFinalized": wasFinalized,
		"actor":        actor.Name,
	}).Info("Draw reset")

	return state, nil
}

// SetDiscarded toggles the session's visibility to ledger replay. Setting
// the current value again is a no-op: no history entry, no event.
func (s *drawService) SetDiscarded(ctx context.Context, sessionID int64, actor models.Actor, discarded bool) error {
	if !actor.IsSuperAdmin() {
		return fmt.Errorf("%w: discarding a session requires super admin", ErrForbidden)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	session, err := uow.SessionRepository().GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}

	if session.Discarded == discarded {
		return nil
	}

	if err := uow.SessionRepository().SetDiscarded(ctx, sessionID, discarded); err != nil {
		return fmt.Errorf("failed to set discarded flag: %w", err)
	}

	entry := &models.DrawHistoryEntry{
		SessionID: sessionID,
		Action:    models.DrawActionDiscardToggle,
		Actor:     actor.Name,
	}
	if err := uow.DrawHistoryRepository().Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append draw history: %w", err)
	}

	uow.EventBus().Publish(events.SessionDiscardToggledEvent{
		SessionID: sessionID,
		Discarded: discarded,
		Actor:     actor.Name,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"sessionID": sessionID,
		"discarded": discarded,
		"actor":     actor.Name,
	}).Info("Session discard flag changed")

	return nil
}

// GetDrawState retrieves a session's current draw state
func (s *drawService) GetDrawState(ctx context.Context, sessionID int64) (*models.DrawState, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	_, state, err := getSessionDrawState(ctx, uow, sessionID)
	if err != nil {
		return nil, err
	}

	return state, nil
}

// GetHistory retrieves a session's audit trail, oldest first
func (s *drawService) GetHistory(ctx context.Context, sessionID int64, limit int) ([]*models.DrawHistoryEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.DrawHistoryRepository().ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list draw history: %w", err)
	}

	return entries, nil
}

// getSessionDrawState loads a session and its draw state, mapping missing
// rows to NotFound.
func getSessionDrawState(ctx context.Context, uow UnitOfWork, sessionID int64) (*models.Session, *models.DrawState, error) {
	session, err := uow.SessionRepository().GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, nil, fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}

	state, err := uow.DrawStateRepository().GetBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get draw state: %w", err)
	}
	if state == nil {
		return nil, nil, fmt.Errorf("%w: draw state for session %d", ErrNotFound, sessionID)
	}

	return session, state, nil
}

// appendHistory snapshots the state's winner fields into the audit log
func appendHistory(ctx context.Context, uow UnitOfWork, state *models.DrawState, action models.DrawAction, actor string) error {
	entry := &models.DrawHistoryEntry{
		SessionID:   state.SessionID,
		Action:      action,
		Actor:       actor,
		WinnerKey:   state.WinnerKey,
		Tickets:     state.WinnerTickets,
		Probability: state.WinnerProbability,
		PoolSize:    state.PoolSize,
	}
	if err := uow.DrawHistoryRepository().Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append draw history: %w", err)
	}
	return nil
}

// resolveOverrideTarget matches the override input against the identities
// recorded in the session. Faculty records are not valid targets. The
// input must resolve to exactly one identity.
func resolveOverrideTarget(observations []*models.Observation, target string) (models.IdentityKey, error) {
	needle := strings.ToLower(strings.Join(strings.Fields(target), " "))
	if needle == "" {
		return "", fmt.Errorf("%w: empty target", ErrAmbiguousOverrideTarget)
	}

	matched := make(map[models.IdentityKey]bool)
	for _, obs := range observations {
		if obs.Category == models.CategoryFaculty {
			continue
		}
		key := obs.IdentityKey
		if matchesIdentity(key, needle) {
			matched[key] = true
		}
	}

	if len(matched) != 1 {
		return "", fmt.Errorf("%w: %q resolves to %d students in this session", ErrAmbiguousOverrideTarget, target, len(matched))
	}
	for key := range matched {
		return key, nil
	}
	return "", nil
}

func matchesIdentity(key models.IdentityKey, needle string) bool {
	if string(key) == needle {
		return true
	}
	if id := key.StudentIdentifier(); id != "" && id == needle {
		return true
	}
	preferred, last := key.NameParts()
	if preferred == "" && last == "" {
		return false
	}
	return needle == preferred || needle == last || needle == preferred+" "+last
}
