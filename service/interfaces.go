package service

import (
	"context"

	"plateraffle/events"
	"plateraffle/models"
)

// SessionRepository defines the interface for session data access
type SessionRepository interface {
	// Create creates a new empty session
	Create(ctx context.Context) (*models.Session, error)

	// GetByID retrieves a session by its ID
	GetByID(ctx context.Context, id int64) (*models.Session, error)

	// ListOrdered returns all sessions in ledger order (created_at, id ascending)
	ListOrdered(ctx context.Context) ([]*models.Session, error)

	// SetDiscarded sets the session's discarded flag
	SetDiscarded(ctx context.Context, id int64, discarded bool) error
}

// ObservationRepository defines the interface for observation record access
type ObservationRepository interface {
	// Create appends an observation record to a session
	Create(ctx context.Context, observation *models.Observation) error

	// ListBySession returns a session's records in insertion order
	ListBySession(ctx context.Context, sessionID int64) ([]*models.Observation, error)
}

// DrawStateRepository defines the interface for per-session draw state access
type DrawStateRepository interface {
	// Create creates the initial no-winner state for a session
	Create(ctx context.Context, state *models.DrawState) error

	// GetBySession retrieves the draw state for a session
	GetBySession(ctx context.Context, sessionID int64) (*models.DrawState, error)

	// ListAll returns the draw state of every session
	ListAll(ctx context.Context) ([]*models.DrawState, error)

	// Save persists the full draw state for a session
	Save(ctx context.Context, state *models.DrawState) error
}

// DrawHistoryRepository defines the interface for the append-only audit log
type DrawHistoryRepository interface {
	// Append records one state transition; entries are never updated or deleted
	Append(ctx context.Context, entry *models.DrawHistoryEntry) error

	// ListBySession returns a session's history oldest first
	ListBySession(ctx context.Context, sessionID int64, limit int) ([]*models.DrawHistoryEntry, error)
}

// StudentRepository defines the interface for roster data access
type StudentRepository interface {
	// GetByKey retrieves a roster entry by identity key
	GetByKey(ctx context.Context, key models.IdentityKey) (*models.Student, error)

	// ListActive returns all currently-enrolled students
	ListActive(ctx context.Context) ([]*models.Student, error)

	// ReplaceAll swaps the entire roster for a fresh upload
	ReplaceAll(ctx context.Context, students []*models.Student) error
}

// LedgerService derives ticket balances by session-ordered replay
type LedgerService interface {
	// ComputeBalances replays all non-discarded sessions up to and including
	// the target session and returns the balance snapshot at that boundary.
	// Pure: callers must re-run it after any mutation.
	ComputeBalances(ctx context.Context, sessionID int64) (*models.BalanceSnapshot, error)
}

// DrawService owns the per-session draw state machine
type DrawService interface {
	// StartDraw selects a winner by weighted random draw
	StartDraw(ctx context.Context, sessionID int64, actor models.Actor) (*models.DrawState, error)

	// Override sets the winner manually, resolving target against the
	// session's records, and finalizes immediately
	Override(ctx context.Context, sessionID int64, actor models.Actor, target string) (*models.DrawState, error)

	// Finalize marks the currently selected winner final
	Finalize(ctx context.Context, sessionID int64, actor models.Actor) (*models.DrawState, error)

	// Reset clears the winner; super-admin only once finalized
	Reset(ctx context.Context, sessionID int64, actor models.Actor) (*models.DrawState, error)

	// SetDiscarded toggles the session's ledger visibility; idempotent
	SetDiscarded(ctx context.Context, sessionID int64, actor models.Actor, discarded bool) error

	// GetDrawState retrieves a session's current draw state
	GetDrawState(ctx context.Context, sessionID int64) (*models.DrawState, error)

	// GetHistory retrieves a session's audit trail, oldest first
	GetHistory(ctx context.Context, sessionID int64, limit int) ([]*models.DrawHistoryEntry, error)
}

// SessionService defines session and observation plumbing
type SessionService interface {
	// CreateSession creates a session together with its no-winner draw state
	CreateSession(ctx context.Context) (*models.Session, error)

	// RecordObservation appends one plate record, deriving the identity key
	RecordObservation(ctx context.Context, sessionID int64, studentIdentifier, preferredName, lastName string, category models.Category) (*models.Observation, error)

	// GetSessionDetail returns a session with its records and draw state
	GetSessionDetail(ctx context.Context, sessionID int64) (*models.SessionDetail, error)

	// ListSessions returns all sessions in ledger order
	ListSessions(ctx context.Context) ([]*models.Session, error)
}

// RosterService answers eligibility and profile questions for the ledger
type RosterService interface {
	// IsEligible reports whether key resolves to a currently-enrolled
	// student. With an empty roster everyone is eligible (bootstrap rule).
	IsEligible(ctx context.Context, key models.IdentityKey) (bool, error)

	// Profile returns the roster entry for key, or nil
	Profile(ctx context.Context, key models.IdentityKey) (*models.Student, error)

	// ReplaceRoster swaps the roster for a fresh out-of-band upload
	ReplaceRoster(ctx context.Context, students []*models.Student) error
}

// WinnerSelector performs fair weighted random selection over a candidate pool
type WinnerSelector interface {
	// Select picks one candidate with probability proportional to tickets
	Select(candidates []models.Candidate) (*models.DrawPick, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	SessionRepository() SessionRepository
	ObservationRepository() ObservationRepository
	DrawStateRepository() DrawStateRepository
	DrawHistoryRepository() DrawHistoryRepository
	StudentRepository() StudentRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
