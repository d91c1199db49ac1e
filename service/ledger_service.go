package service

import (
	"context"
	"fmt"

	"plateraffle/models"
)

type ledgerService struct {
	uowFactory UnitOfWorkFactory
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
	}
}

// ComputeBalances replays history and returns the snapshot as of sessionID
func (s *ledgerService) ComputeBalances(ctx context.Context, sessionID int64) (*models.BalanceSnapshot, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	snapshot, err := replayBalances(ctx, uow, sessionID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return snapshot, nil
}

// replayBalances recomputes every student's ticket balance from scratch by
// walking all sessions in (created_at, id) order up to and including the
// target session. This full replay is the system's single source of truth
// for balances: discard toggles, roster changes and finalized draws are all
// picked up on the next call, so no running counter can drift.
//
// Per non-discarded session:
//   - a clean record earns the student one ticket
//   - a red record hard-resets the student's balance to zero
//   - students holding tickets with no clean/red activity that session
//     have their balance halved
//   - a finalized draw zeroes the winner's balance after the session's
//     snapshot is taken, so the zero-out shows from the next session on
//
// Records failing roster eligibility are counted and otherwise ignored.
// Callers run this inside a unit of work so draw decisions read a
// consistent view of records and draw states.
func replayBalances(ctx context.Context, uow UnitOfWork, asOfSessionID int64) (*models.BalanceSnapshot, error) {
	sessions, err := uow.SessionRepository().ListOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var target *models.Session
	for _, session := range sessions {
		if session.ID == asOfSessionID {
			target = session
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: session %d", ErrNotFound, asOfSessionID)
	}

	states, err := uow.DrawStateRepository().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list draw states: %w", err)
	}
	statesBySession := make(map[int64]*models.DrawState, len(states))
	for _, state := range states {
		statesBySession[state.SessionID] = state
	}

	eligible, err := eligibleKeySet(ctx, uow)
	if err != nil {
		return nil, err
	}

	balance := make(map[models.IdentityKey]float64)
	var snapshot *models.BalanceSnapshot

	for _, session := range sessions {
		if session.Discarded {
			// Invisible to the ledger: no earn, no decay, no zero-out.
			// The stored records stay untouched for a later un-discard.
			if session.ID == target.ID {
				snapshot = &models.BalanceSnapshot{
					SessionID: session.ID,
					Balances:  make(map[models.IdentityKey]float64),
				}
				break
			}
			continue
		}

		priorKeys := make(map[models.IdentityKey]bool)
		for key, tickets := range balance {
			if tickets > 0 {
				priorKeys[key] = true
			}
		}

		observations, err := uow.ObservationRepository().ListBySession(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list observations for session %d: %w", session.ID, err)
		}

		excluded := 0
		var active []*models.Observation
		for _, obs := range observations {
			if !obs.Category.AffectsTickets() {
				continue
			}
			if eligible != nil && !eligible[obs.IdentityKey] {
				excluded++
				continue
			}
			active = append(active, obs)
		}

		// Earn before reset within a session: all clean records apply
		// first, then all red records. A red anywhere in the session
		// therefore lands the student on zero no matter how the records
		// were interleaved when recorded.
		presentKeys := make(map[models.IdentityKey]bool)
		for _, obs := range active {
			if obs.Category == models.CategoryClean {
				presentKeys[obs.IdentityKey] = true
				balance[obs.IdentityKey]++
			}
		}
		for _, obs := range active {
			if obs.Category == models.CategoryRed {
				presentKeys[obs.IdentityKey] = true
				balance[obs.IdentityKey] = 0
			}
		}

		// Attrition: tickets held by students with no activity this
		// session halve. Red-carded students are present, so the reset
		// to zero stands without further decay.
		for key := range priorKeys {
			if !presentKeys[key] {
				balance[key] /= 2
			}
		}

		if session.ID == target.ID {
			snapshot = buildSnapshot(session.ID, balance, excluded)
			break
		}

		// A finalized draw spends the winner's tickets; later sessions
		// replay on top of the zeroed balance.
		if state, ok := statesBySession[session.ID]; ok && state.IsFinalized() && state.HasWinner() {
			balance[state.WinnerKey] = 0
		}
	}

	return snapshot, nil
}

// buildSnapshot freezes the running balances into the session's candidate
// pool, ordered (tickets descending, key ascending) for determinism.
func buildSnapshot(sessionID int64, balance map[models.IdentityKey]float64, excluded int) *models.BalanceSnapshot {
	balances := make(map[models.IdentityKey]float64, len(balance))
	var candidates []models.Candidate

	for key, tickets := range balance {
		balances[key] = tickets
		if tickets > 0 {
			candidates = append(candidates, models.Candidate{Key: key, Tickets: tickets})
		}
	}

	models.SortCandidates(candidates)

	snapshot := &models.BalanceSnapshot{
		SessionID:     sessionID,
		Balances:      balances,
		Candidates:    candidates,
		EligibleCount: len(candidates),
		ExcludedCount: excluded,
	}

	if total := snapshot.TotalTickets(); total > 0 {
		for i := range snapshot.Candidates {
			snapshot.Candidates[i].Probability = snapshot.Candidates[i].Tickets / total * 100
		}
	}

	return snapshot
}

// eligibleKeySet resolves the roster into a membership set. A nil return
// means an empty roster: everyone is eligible until the first upload.
func eligibleKeySet(ctx context.Context, uow UnitOfWork) (map[models.IdentityKey]bool, error) {
	students, err := uow.StudentRepository().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster: %w", err)
	}
	if len(students) == 0 {
		return nil, nil
	}

	eligible := make(map[models.IdentityKey]bool, len(students))
	for _, student := range students {
		eligible[student.IdentityKey] = true
	}
	return eligible, nil
}
