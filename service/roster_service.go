package service

import (
	"context"
	"fmt"

	"plateraffle/models"

	log "github.com/sirupsen/logrus"
)

type rosterService struct {
	uowFactory UnitOfWorkFactory
}

// NewRosterService creates a new roster service
func NewRosterService(uowFactory UnitOfWorkFactory) RosterService {
	return &rosterService{
		uowFactory: uowFactory,
	}
}

// IsEligible reports whether key resolves to a currently-enrolled student.
// An empty roster means nobody has been uploaded yet, so every key is
// eligible rather than everybody being locked out.
func (s *rosterService) IsEligible(ctx context.Context, key models.IdentityKey) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	eligible, err := eligibleKeySet(ctx, uow)
	if err != nil {
		return false, err
	}
	if eligible == nil {
		return true, nil
	}
	return eligible[key], nil
}

// Profile returns the roster entry for key, or nil when unknown
func (s *rosterService) Profile(ctx context.Context, key models.IdentityKey) (*models.Student, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	student, err := uow.StudentRepository().GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	return student, nil
}

// ReplaceRoster swaps the whole roster for a fresh upload. Identity keys
// are derived here so uploads can never introduce a second key form for
// the same student.
func (s *rosterService) ReplaceRoster(ctx context.Context, students []*models.Student) error {
	for _, student := range students {
		key, err := student.Key()
		if err != nil {
			return fmt.Errorf("invalid roster entry %q %q: %w", student.PreferredName, student.LastName, err)
		}
		student.IdentityKey = key
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.StudentRepository().ReplaceAll(ctx, students); err != nil {
		return fmt.Errorf("failed to replace roster: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("students", len(students)).Info("Roster replaced")

	return nil
}
