package repository

import (
	"context"
	"fmt"

	"plateraffle/database"
	"plateraffle/models"
)

// ObservationRepository implements the ObservationRepository interface
type ObservationRepository struct {
	q queryable
}

// NewObservationRepository creates a new observation repository
func NewObservationRepository(db *database.DB) *ObservationRepository {
	return &ObservationRepository{q: db.Pool}
}

// newObservationRepositoryWithTx creates a new observation repository with a transaction
func newObservationRepositoryWithTx(tx queryable) *ObservationRepository {
	return &ObservationRepository{q: tx}
}

// Create appends a plate record. Records are insert-only; there is no
// update or delete path.
func (r *ObservationRepository) Create(ctx context.Context, observation *models.Observation) error {
	query := `
		INSERT INTO observations (session_id, identity_key, category)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		observation.SessionID,
		observation.IdentityKey,
		observation.Category,
	).Scan(
		&observation.ID,
		&observation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create observation for session %d: %w", observation.SessionID, err)
	}

	return nil
}

// ListBySession returns a session's records in insertion order
func (r *ObservationRepository) ListBySession(ctx context.Context, sessionID int64) ([]*models.Observation, error) {
	query := `
		SELECT id, session_id, identity_key, category, created_at
		FROM observations
		WHERE session_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list observations for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	var observations []*models.Observation
	for rows.Next() {
		var observation models.Observation
		err := rows.Scan(
			&observation.ID,
			&observation.SessionID,
			&observation.IdentityKey,
			&observation.Category,
			&observation.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		observations = append(observations, &observation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate observations: %w", err)
	}

	return observations, nil
}
