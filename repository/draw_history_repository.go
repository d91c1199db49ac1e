package repository

import (
	"context"
	"fmt"

	"plateraffle/database"
	"plateraffle/models"
)

// DrawHistoryRepository implements the DrawHistoryRepository interface
type DrawHistoryRepository struct {
	q queryable
}

// NewDrawHistoryRepository creates a new draw history repository
func NewDrawHistoryRepository(db *database.DB) *DrawHistoryRepository {
	return &DrawHistoryRepository{q: db.Pool}
}

// newDrawHistoryRepositoryWithTx creates a new draw history repository with a transaction
func newDrawHistoryRepositoryWithTx(tx queryable) *DrawHistoryRepository {
	return &DrawHistoryRepository{q: tx}
}

// Append adds one entry to the audit trail. The table is append-only;
// there is deliberately no update or delete method.
func (r *DrawHistoryRepository) Append(ctx context.Context, entry *models.DrawHistoryEntry) error {
	query := `
		INSERT INTO draw_history (session_id, action, actor, winner_key, tickets, probability, pool_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.SessionID,
		entry.Action,
		entry.Actor,
		entry.WinnerKey,
		entry.Tickets,
		entry.Probability,
		entry.PoolSize,
	).Scan(
		&entry.ID,
		&entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append draw history for session %d: %w", entry.SessionID, err)
	}

	return nil
}

// ListBySession returns a session's audit trail oldest first, up to limit
// entries; limit <= 0 means no limit.
func (r *DrawHistoryRepository) ListBySession(ctx context.Context, sessionID int64, limit int) ([]*models.DrawHistoryEntry, error) {
	query := `
		SELECT id, session_id, action, actor, winner_key, tickets, probability, pool_size, created_at
		FROM draw_history
		WHERE session_id = $1
		ORDER BY id
	`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list draw history for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	var entries []*models.DrawHistoryEntry
	for rows.Next() {
		var entry models.DrawHistoryEntry
		err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&entry.Action,
			&entry.Actor,
			&entry.WinnerKey,
			&entry.Tickets,
			&entry.Probability,
			&entry.PoolSize,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw history entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate draw history: %w", err)
	}

	return entries, nil
}
