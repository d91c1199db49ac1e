package repository

import (
	"context"
	"fmt"

	"plateraffle/database"
	"plateraffle/models"
	"github.com/jackc/pgx/v5"
)

// StudentRepository implements the StudentRepository interface
type StudentRepository struct {
	q queryable
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *database.DB) *StudentRepository {
	return &StudentRepository{q: db.Pool}
}

// newStudentRepositoryWithTx creates a new student repository with a transaction
func newStudentRepositoryWithTx(tx queryable) *StudentRepository {
	return &StudentRepository{q: tx}
}

// GetByKey retrieves a roster entry by identity key, returning nil when missing
func (r *StudentRepository) GetByKey(ctx context.Context, key models.IdentityKey) (*models.Student, error) {
	query := `
		SELECT identity_key, student_identifier, preferred_name, last_name, grade, house, active, created_at, updated_at
		FROM students
		WHERE identity_key = $1
	`

	var student models.Student
	err := r.q.QueryRow(ctx, query, key).Scan(
		&student.IdentityKey,
		&student.StudentIdentifier,
		&student.PreferredName,
		&student.LastName,
		&student.Grade,
		&student.House,
		&student.Active,
		&student.CreatedAt,
		&student.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student %s: %w", key, err)
	}

	return &student, nil
}

// ListActive returns all currently-enrolled students
func (r *StudentRepository) ListActive(ctx context.Context) ([]*models.Student, error) {
	query := `
		SELECT identity_key, student_identifier, preferred_name, last_name, grade, house, active, created_at, updated_at
		FROM students
		WHERE active = TRUE
		ORDER BY identity_key
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active students: %w", err)
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		var student models.Student
		err := rows.Scan(
			&student.IdentityKey,
			&student.StudentIdentifier,
			&student.PreferredName,
			&student.LastName,
			&student.Grade,
			&student.House,
			&student.Active,
			&student.CreatedAt,
			&student.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, &student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}

	return students, nil
}

// ReplaceAll swaps the whole roster for a fresh upload in one statement
// sequence: existing rows go away, the new rows come in.
func (r *StudentRepository) ReplaceAll(ctx context.Context, students []*models.Student) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM students`); err != nil {
		return fmt.Errorf("failed to clear roster: %w", err)
	}

	query := `
		INSERT INTO students (identity_key, student_identifier, preferred_name, last_name, grade, house, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, student := range students {
		_, err := r.q.Exec(ctx, query,
			student.IdentityKey,
			student.StudentIdentifier,
			student.PreferredName,
			student.LastName,
			student.Grade,
			student.House,
			student.Active,
		)
		if err != nil {
			return fmt.Errorf("failed to insert student %s: %w", student.IdentityKey, err)
		}
	}

	return nil
}
