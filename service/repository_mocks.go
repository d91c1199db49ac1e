package service

import (
	"context"

	"plateraffle/events"
	"plateraffle/models"

	"github.com/stretchr/testify/mock"
)

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context) (*models.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) ListOrdered(ctx context.Context) ([]*models.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

func (m *MockSessionRepository) SetDiscarded(ctx context.Context, id int64, discarded bool) error {
	args := m.Called(ctx, id, discarded)
	return args.Error(0)
}

// MockObservationRepository is a mock implementation of ObservationRepository
type MockObservationRepository struct {
	mock.Mock
}

func (m *MockObservationRepository) Create(ctx context.Context, observation *models.Observation) error {
	args := m.Called(ctx, observation)
	return args.Error(0)
}

func (m *MockObservationRepository) ListBySession(ctx context.Context, sessionID int64) ([]*models.Observation, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Observation), args.Error(1)
}

// MockDrawStateRepository is a mock implementation of DrawStateRepository
type MockDrawStateRepository struct {
	mock.Mock
}

func (m *MockDrawStateRepository) Create(ctx context.Context, state *models.DrawState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockDrawStateRepository) GetBySession(ctx context.Context, sessionID int64) (*models.DrawState, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DrawState), args.Error(1)
}

func (m *MockDrawStateRepository) ListAll(ctx context.Context) ([]*models.DrawState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DrawState), args.Error(1)
}

func (m *MockDrawStateRepository) Save(ctx context.Context, state *models.DrawState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

// MockDrawHistoryRepository is a mock implementation of DrawHistoryRepository
type MockDrawHistoryRepository struct {
	mock.Mock
}

func (m *MockDrawHistoryRepository) Append(ctx context.Context, entry *models.DrawHistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockDrawHistoryRepository) ListBySession(ctx context.Context, sessionID int64, limit int) ([]*models.DrawHistoryEntry, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DrawHistoryEntry), args.Error(1)
}

// MockStudentRepository is a mock implementation of StudentRepository
type MockStudentRepository struct {
	mock.Mock
}

func (m *MockStudentRepository) GetByKey(ctx context.Context, key models.IdentityKey) (*models.Student, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockStudentRepository) ListActive(ctx context.Context) ([]*models.Student, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Student), args.Error(1)
}

func (m *MockStudentRepository) ReplaceAll(ctx context.Context, students []*models.Student) error {
	args := m.Called(ctx, students)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// NoopEventPublisher discards events; convenient for tests that do not
// assert on publishing.
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(event events.Event) {}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// attached with SetRepositories so the getters return the test's mocks.
type MockUnitOfWork struct {
	mock.Mock

	sessionRepo     SessionRepository
	observationRepo ObservationRepository
	drawStateRepo   DrawStateRepository
	drawHistoryRepo DrawHistoryRepository
	studentRepo     StudentRepository
	eventBus        EventPublisher
}

// SetRepositories wires the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(
	sessionRepo SessionRepository,
	observationRepo ObservationRepository,
	drawStateRepo DrawStateRepository,
	drawHistoryRepo DrawHistoryRepository,
	studentRepo StudentRepository,
) {
	m.sessionRepo = sessionRepo
	m.observationRepo = observationRepo
	m.drawStateRepo = drawStateRepo
	m.drawHistoryRepo = drawHistoryRepo
	m.studentRepo = studentRepo
	m.eventBus = NoopEventPublisher{}
}

// SetEventBus overrides the default no-op event publisher
func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) SessionRepository() SessionRepository {
	return m.sessionRepo
}

func (m *MockUnitOfWork) ObservationRepository() ObservationRepository {
	return m.observationRepo
}

func (m *MockUnitOfWork) DrawStateRepository() DrawStateRepository {
	return m.drawStateRepo
}

func (m *MockUnitOfWork) DrawHistoryRepository() DrawHistoryRepository {
	return m.drawHistoryRepo
}

func (m *MockUnitOfWork) StudentRepository() StudentRepository {
	return m.studentRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
