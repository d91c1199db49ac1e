package repository

import (
	"context"
	"fmt"

	"plateraffle/database"
	"plateraffle/models"
	"github.com/jackc/pgx/v5"
)

// SessionRepository implements the SessionRepository interface
type SessionRepository struct {
	q queryable
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{q: db.Pool}
}

// newSessionRepositoryWithTx creates a new session repository with a transaction
func newSessionRepositoryWithTx(tx queryable) *SessionRepository {
	return &SessionRepository{q: tx}
}

// Create inserts a new session
func (r *SessionRepository) Create(ctx context.Context) (*models.Session, error) {
	query := `
		INSERT INTO sessions DEFAULT VALUES
		RETURNING id, created_at, discarded
	`

	var session models.Session
	err := r.q.QueryRow(ctx, query).Scan(
		&session.ID,
		&session.CreatedAt,
		&session.Discarded,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &session, nil
}

// GetByID retrieves a session by ID, returning nil when missing
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	query := `
		SELECT id, created_at, discarded
		FROM sessions
		WHERE id = $1
	`

	var session models.Session
	err := r.q.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.CreatedAt,
		&session.Discarded,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %d: %w", id, err)
	}

	return &session, nil
}

// ListOrdered returns all sessions in ledger order: creation time, then ID
// as the tiebreaker so replay order never depends on clock resolution.
func (r *SessionRepository) ListOrdered(ctx context.Context) ([]*models.Session, error) {
	query := `
		SELECT id, created_at, discarded
		FROM sessions
		ORDER BY created_at, id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		var session models.Session
		err := rows.Scan(
			&session.ID,
			&session.CreatedAt,
			&session.Discarded,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return sessions, nil
}

// SetDiscarded updates the discarded flag on a session
func (r *SessionRepository) SetDiscarded(ctx context.Context, id int64, discarded bool) error {
	query := `
		UPDATE sessions
		SET discarded = $1
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, discarded, id)
	if err != nil {
		return fmt.Errorf("failed to set discarded flag for session %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %d not found", id)
	}

	return nil
}
