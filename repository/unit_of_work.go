package repository

import (
	"context"
	"fmt"

	"plateraffle/database"
	"plateraffle/events"
	"plateraffle/service"
	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	sessionRepo      service.SessionRepository
	observationRepo  service.ObservationRepository
	drawStateRepo    service.DrawStateRepository
	drawHistoryRepo  service.DrawHistoryRepository
	studentRepo      service.StudentRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.sessionRepo = newSessionRepositoryWithTx(tx)
	u.observationRepo = newObservationRepositoryWithTx(tx)
	u.drawStateRepo = newDrawStateRepositoryWithTx(tx)
	u.drawHistoryRepo = newDrawHistoryRepositoryWithTx(tx)
	u.studentRepo = newStudentRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// SessionRepository returns the session repository for this unit of work
func (u *unitOfWork) SessionRepository() service.SessionRepository {
	if u.sessionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.sessionRepo
}

// ObservationRepository returns the observation repository for this unit of work
func (u *unitOfWork) ObservationRepository() service.ObservationRepository {
	if u.observationRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.observationRepo
}

// DrawStateRepository returns the draw state repository for this unit of work
func (u *unitOfWork) DrawStateRepository() service.DrawStateRepository {
	if u.drawStateRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.drawStateRepo
}

// DrawHistoryRepository returns the draw history repository for this unit of work
func (u *unitOfWork) DrawHistoryRepository() service.DrawHistoryRepository {
	if u.drawHistoryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.drawHistoryRepo
}

// StudentRepository returns the student repository for this unit of work
func (u *unitOfWork) StudentRepository() service.StudentRepository {
	if u.studentRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.studentRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
