package repository

import (
	"context"
	"fmt"

	"plateraffle/database"
	"plateraffle/models"
	"github.com/jackc/pgx/v5"
)

// DrawStateRepository implements the DrawStateRepository interface
type DrawStateRepository struct {
	q queryable
}

// NewDrawStateRepository creates a new draw state repository
func NewDrawStateRepository(db *database.DB) *DrawStateRepository {
	return &DrawStateRepository{q: db.Pool}
}

// newDrawStateRepositoryWithTx creates a new draw state repository with a transaction
func newDrawStateRepositoryWithTx(tx queryable) *DrawStateRepository {
	return &DrawStateRepository{q: tx}
}

// Create inserts the initial no-winner state for a session
func (r *DrawStateRepository) Create(ctx context.Context, state *models.DrawState) error {
	query := `
		INSERT INTO draw_states (session_id, winner_key, winner_tickets, winner_probability, pool_size, method, override, finalized, finalized_by, finalized_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		state.SessionID,
		state.WinnerKey,
		state.WinnerTickets,
		state.WinnerProbability,
		state.PoolSize,
		state.Method,
		state.Override,
		state.Finalized,
		state.FinalizedBy,
		state.FinalizedAt,
	).Scan(&state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create draw state for session %d: %w", state.SessionID, err)
	}

	return nil
}

// GetBySession retrieves a session's draw state, returning nil when missing
func (r *DrawStateRepository) GetBySession(ctx context.Context, sessionID int64) (*models.DrawState, error) {
	query := `
		SELECT session_id, winner_key, winner_tickets, winner_probability, pool_size, method, override, finalized, finalized_by, finalized_at, updated_at
		FROM draw_states
		WHERE session_id = $1
	`

	var state models.DrawState
	err := r.q.QueryRow(ctx, query, sessionID).Scan(
		&state.SessionID,
		&state.WinnerKey,
		&state.WinnerTickets,
		&state.WinnerProbability,
		&state.PoolSize,
		&state.Method,
		&state.Override,
		&state.Finalized,
		&state.FinalizedBy,
		&state.FinalizedAt,
		&state.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw state for session %d: %w", sessionID, err)
	}

	return &state, nil
}

// ListAll returns every draw state; ledger replay joins them to sessions
func (r *DrawStateRepository) ListAll(ctx context.Context) ([]*models.DrawState, error) {
	query := `
		SELECT session_id, winner_key, winner_tickets, winner_probability, pool_size, method, override, finalized, finalized_by, finalized_at, updated_at
		FROM draw_states
		ORDER BY session_id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list draw states: %w", err)
	}
	defer rows.Close()

	var states []*models.DrawState
	for rows.Next() {
		var state models.DrawState
		err := rows.Scan(
			&state.SessionID,
			&state.WinnerKey,
			&state.WinnerTickets,
			&state.WinnerProbability,
			&state.PoolSize,
			&state.Method,
			&state.Override,
			&state.Finalized,
			&state.FinalizedBy,
			&state.FinalizedAt,
			&state.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw state: %w", err)
		}
		states = append(states, &state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate draw states: %w", err)
	}

	return states, nil
}

// Save persists the current winner and finalize fields
func (r *DrawStateRepository) Save(ctx context.Context, state *models.DrawState) error {
	query := `
		UPDATE draw_states
		SET winner_key = $1,
		    winner_tickets = $2,
		    winner_probability = $3,
		    pool_size = $4,
		    method = $5,
		    override = $6,
		    finalized = $7,
		    finalized_by = $8,
		    finalized_at = $9,
		    updated_at = NOW()
		WHERE session_id = $10
	`

	result, err := r.q.Exec(ctx, query,
		state.WinnerKey,
		state.WinnerTickets,
		state.WinnerProbability,
		state.PoolSize,
		state.Method,
		state.Override,
		state.Finalized,
		state.FinalizedBy,
		state.FinalizedAt,
		state.SessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to save draw state for session %d: %w", state.SessionID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("draw state for session %d not found", state.SessionID)
	}

	return nil
}
