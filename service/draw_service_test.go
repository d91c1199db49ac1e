package service

import (
	"context"
	"errors"
	"testing"

	"plateraffle/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testAdmin      = models.Actor{Name: "mr-diaz", Role: models.RoleAdmin}
	testSuperAdmin = models.Actor{Name: "principal-nguyen", Role: models.RoleSuperAdmin}
	testNobody     = models.Actor{Name: "hall-monitor"}
)

type drawFixture struct {
	service         DrawService
	uow             *MockUnitOfWork
	sessionRepo     *MockSessionRepository
	observationRepo *MockObservationRepository
	drawStateRepo   *MockDrawStateRepository
	drawHistoryRepo *MockDrawHistoryRepository
	studentRepo     *MockStudentRepository
}

// newDrawFixture wires a draw service over mocks. Rolls script the random
// source; with no rolls the crypto source is used.
func newDrawFixture(rolls ...float64) *drawFixture {
	f := &drawFixture{
		uow:             new(MockUnitOfWork),
		sessionRepo:     new(MockSessionRepository),
		observationRepo: new(MockObservationRepository),
		drawStateRepo:   new(MockDrawStateRepository),
		drawHistoryRepo: new(MockDrawHistoryRepository),
		studentRepo:     new(MockStudentRepository),
	}
	f.uow.SetRepositories(f.sessionRepo, f.observationRepo, f.drawStateRepo, f.drawHistoryRepo, f.studentRepo)

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(f.uow)
	f.uow.On("Begin", mock.Anything).Return(nil)
	f.uow.On("Commit").Return(nil)
	f.uow.On("Rollback").Return(nil)

	selector := NewWinnerSelector()
	if len(rolls) > 0 {
		selector = NewWinnerSelectorWithSource(&fakeRandSource{values: rolls})
	}
	f.service = NewDrawService(factory, selector)
	return f
}

// stubHistory registers the session history the ledger replay walks, plus
// per-session lookups.
func (f *drawFixture) stubHistory(sessions []*models.Session, observations map[int64][]*models.Observation, states map[int64]*models.DrawState) {
	allStates := make([]*models.DrawState, 0, len(states))
	for _, state := range states {
		allStates = append(allStates, state)
	}

	f.sessionRepo.On("ListOrdered", mock.Anything).Return(sessions, nil)
	f.drawStateRepo.On("ListAll", mock.Anything).Return(allStates, nil)
	f.studentRepo.On("ListActive", mock.Anything).Return([]*models.Student{}, nil)

	for _, session := range sessions {
		f.sessionRepo.On("GetByID", mock.Anything, session.ID).Return(session, nil)

		sessionObservations := observations[session.ID]
		if sessionObservations == nil {
			sessionObservations = []*models.Observation{}
		}
		f.observationRepo.On("ListBySession", mock.Anything, session.ID).Return(sessionObservations, nil)

		state, ok := states[session.ID]
		if !ok {
			state = &models.DrawState{SessionID: session.ID}
		}
		f.drawStateRepo.On("GetBySession", mock.Anything, session.ID).Return(state, nil)
	}
}

func TestDrawService_StartDrawSelectsWinner(t *testing.T) {
	ctx := context.Background()
	fixture := newDrawFixture(0.5)
	fixture.stubHistory(
		[]*models.Session{sessionAt(1, 0)},
		map[int64][]*models.Observation{
			1: {record(1, "id:101", models.CategoryClean)},
		},
		nil,
	)
	fixture.drawStateRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	fixture.drawHistoryRepo.On("Append", mock.Anything, mock.MatchedBy(func(entry *models.DrawHistoryEntry) bool {
		return entry.Action == models.DrawActionSelect && entry.WinnerKey == "id:101"
	})).Return(nil)

	state, err := fixture.service.StartDraw(ctx, 1, testAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.IdentityKey("id:101"), state.WinnerKey)
	assert.Equal(t, 1.0, state.WinnerTickets)
	assert.Equal(t, 100.0, state.WinnerProbability)
	assert.Equal(t, 1, state.PoolSize)
	assert.Equal(t, models.DrawMethodRandom, state.Method)
	assert.False(t, state.IsFinalized())

	fixture.uow.AssertCalled(t, "Commit")
	fixture.drawHistoryRepo.AssertExpectations(t)
}

func TestDrawService_StartDrawRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	fixture := newDrawFixture()

	_, err := fixture.service.StartDraw(ctx, 1, testNobody)
	assert.True(t, errors.Is(err, ErrForbidden))
	fixture.uow.AssertNotCalled(t, "Begin", mock.Anything)
}

func TestDrawService_StartDrawUnknownSession(t *testing.T) {
	ctx := context.Background()
	fixture := newDrawFixture()
	fixture.sessionRepo.On("GetByID", mock.Anything, int64(42)).Return(nil, nil)

	_, err := fixture.service.StartDraw(ctx, 42, testAdmin)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDrawService_StartDrawDiscardedSession(t *testing.T) {
	ctx := context.Background()
	fixture := newDrawFixture()

	discarded := sessionAt(1, 0)
	discarded.Discarded = true
	fixture.sessionRepo.On("GetByID", mock.Anything, int64(1)).Return(discarded, nil)
	fixture.drawStateRepo.On("GetBySession", mock.Anything, int64(1)).Return(&models.DrawState{SessionID: 1}, nil)

	_, err := fixture.service.StartDraw(ctx, 1, testAdmin)
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestDrawService_StartDrawRejectsExistingWinner(t *testing.T) {
	ctx := context.Background()
	fixture := newDrawFixture()

	state := &models.DrawState{SessionID: 1}
	state.SetWinner("id:101", 1, 100, 1, models.DrawMethodRandom)
	fixture.sessionRepo.On("GetByID", mock.Anything, int64(1)).Return(sessionAt(1, 0), nil)
	fixture.drawStateRepo.On("GetBySession", mock.Anything, int64(1)).Return(state, nil)

	_, err := fixture.service.StartDraw(ctx, 1, testAdmin)
	assert.True(t, errors.Is(err, ErrInvalidState))
	fixture.drawStateRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestDrawService_StartDrawEmptyPool(t *testing.T) {
	ctx := context.Background()
	fixture := newDrawFixture()
	fixture.stubHistory([]*models.Session{sessionAt(1, 0)}, nil, nil)

	_, err := fixture.service.StartDraw(ctx, 1, testAdmin)
	assert.True(t, errors.Is(err, ErrNoEligibleCandidates))
	fixture.uow.AssertNotCalled(t, "Commit")
}

func TestDrawService_OverrideResolvesAndFinalizes(t *testing.T) {
	ctx := context.Background()
	fixture := newDrawFixture()
	fixture.stubHistory(
		[]*models.Session{sessionAt(1, 0)},
		map[int64][]*models.Observation{
			1: {
				record(1, "id:101", models.CategoryClean),
				record(1, "maya|okafor", models.CategoryClean),
			},
		},
		nil,
	)
	fixture.drawStateRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	fixture.drawHistoryRepo.On("Append", mock.Anything, mock.MatchedBy(func(entry *models.DrawHistoryEntry) bool {
		return entry.Action == models.DrawActionOverride && entry.WinnerKey == "maya|okafor"
	})).Return(nil)

	state, err := fixture.service.Override(ctx, 1, testSuperAdmin, "Maya Okafor")
	require.NoError(t, err)
	assert.Equal(t, models.IdentityKey("maya|okafor"), state.WinnerKey)
	assert.Equal(t, models.DrawMethodOverride, state.Method)
	assert.True(t, state.Override)
	assert.True(t, state.IsFinalized())
	assert.Equal(t, testSuperAdmin.Name, state.FinalizedBy)
	assert.Equal(t, 1.0, state.WinnerTickets)
	assert.Equal(t, 50.0, state.WinnerProbability)

	// Override writes a single history entry, not a select plus finalize
	fixture.drawHistoryRepo.AssertNumberOfCalls(t, "Append", 1)
}

func TestDrawService_OverrideZeroTicketTarget(t *testing.T) {
	ctx := context.Background()
	fixture := newDrawFixture()
	fixture.stubHistory(
		[]*models.Session{sessionAt(1, 0)},
		map[int64][]*models.Observation{
			1: {
				record(1, "id:101", models.CategoryRed),
				record(1, "maya|okafor", models.CategoryClean),
			},
		},
		nil,
	)
	fixture.drawStateRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	fixture.drawHistoryRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

	// A red-carded student holds zero tickets but is still a valid target
	state, err := fixture.service.Override(ctx, 1, testSuperAdmin, "101")
	require.NoError(t, err)
	assert.Equal(t, models.IdentityKey("id:101"), state.WinnerKey)
	assert.Equal(t, 0.0, state.WinnerTickets)
	assert.Equal(t, 0.0, state.WinnerProbability)
	assert.True(t, state.IsFinalized())
}

func TestDrawService_OverrideTargetResolution(t *testing.T) {
	ctx := context.Background()

	observations := []*models.Observation{
		record(1, "abe|lee", models.CategoryClean),
		record(1, "zoe|lee", models.CategoryClean),
		record(1, "id:555", models.CategoryFaculty),
	}

	tests := []struct {
		name   string
		target string
	}{
		{name: "shared last name is ambiguous", target: "lee"},
		{name: "unknown target matches nobody", target: "quinn"},
		{name: "faculty records are not valid targets", target: "555"},
		{name: "empty target", target: "   "},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			fixture := newDrawFixture()
			fixture.sessionRepo.On("GetByID", mock.Anything, int64(1)).Return(sessionAt(1, 0), nil)
			fixture.drawStateRepo.On("GetBySession", mock.Anything, int64(1)).Return(&models.DrawState{SessionID: 1}, nil)
			fixture.observationRepo.On("ListBySession", mock.Anything, int64(1)).Return(observations, nil)

			_, err := fixture.service.Override(ctx, 1, testSuperAdmin, tt.target)
			assert.True(t, errors.Is(err, ErrAmbiguousOverrideTarget))
			fixture.drawStateRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestDrawService_OverrideRequiresSuperAdmin(t *testing.T) {
	ctx := context.Background()
	fixture := newDrawFixture()

	_, err := fixture.service.Override(ctx, 1, testAdmin, "101")
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestDrawService_FinalizeLocksWinner(t *testing.T) {
	ctx := context.Background()
	fixture := newDrawFixture()

	state := &models.DrawState{SessionID: 1}
	state.SetWinner("id:101", 2, 100, 1, models.DrawMethodRandom)
	fixture.sessionRepo.On("GetByID", mock.Anything, int64(1)).Return(sessionAt(1, 0), nil)
	fixture.drawStateRepo.On("GetBySession", mock.Anything, int64(1)).Return(state, nil)
	fixture.drawStateRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	fixture.drawHistoryRepo.On("Append", mock.Anything, mock.MatchedBy(func(entry *models.DrawHistoryEntry) bool {
		return entry.Action == models.DrawActionFinalize
	})).Return(nil)

	finalized, err := fixture.service.Finalize(ctx, 1, testAdmin)
	require.NoError(t, err)
	assert.True(t, finalized.IsFinalized())
	assert.Equal(t, testAdmin.Name, finalized.FinalizedBy)
	require.NotNil(t, finalized.FinalizedAt)
	fixture.drawHistoryRepo.AssertExpectations(t)
}

func TestDrawService_FinalizeGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("no winner selected", func(t *testing.T) {
		fixture := newDrawFixture()
		fixture.sessionRepo.On("GetByID", mock.Anything, int64(1)).Return(sessionAt(1, 0), nil)
		fixture.drawStateRepo.On("GetBySession", mock.Anything, int64(1)).Return(&models.DrawState{SessionID: 1}, nil)

		_, err := fixture.service.Finalize(ctx, 1, testAdmin)
		assert.True(t, errors.Is(err, ErrInvalidState))
	})

	t.Run("already finalized", func(t *testing.T) {
		fixture := newDrawFixture()
		state := &models.DrawState{SessionID: 1}
		state.SetWinner("id:101", 1, 100, 1, models.DrawMethodRandom)
		state.Finalize("someone")
		fixture.sessionRepo.On("GetByID", mock.Anything, int64(1)).Return(sessionAt(1, 0), nil)
		fixture.drawStateRepo.On("GetBySession", mock.Anything, int64(1)).Return(state, nil)

		_, err := fixture.service.Finalize(ctx, 1, testAdmin)
		assert.True(t, errors.Is(err, ErrInvalidState))
	})

	t.Run("requires admin", func(t *testing.T) {
		fixture := newDrawFixture()
		_, err := fixture.service.Finalize(ctx, 1, testNobody)
		assert.True(t, errors.Is(err, ErrForbidden))
	})
}

func TestDrawService_ResetPendingWinner(t *testing.T) {
	ctx := context.Background()
	fixture := newDrawFixture()

	state := &models.DrawState{SessionID: 1}
	state.SetWinner("id:101", 1, 100, 1, models.DrawMethodRandom)
	fixture.sessionRepo.On("GetByID", mock.Anything, int64(1)).Return(sessionAt(1, 0), nil)
	fixture.drawStateRepo.On("GetBySession", mock.Anything, int64(1)).Return(state, nil)
	fixture.drawStateRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	fixture.drawHistoryRepo.On("Append", mock.Anything, mock.MatchedBy(func(entry *models.DrawHistoryEntry) bool {
		return entry.Action == models.DrawActionReset
	})).Return(nil)

	// A pending (non-finalized) winner is resettable by a regular admin
	cleared, err := fixture.service.Reset(ctx, 1, testAdmin)
	require.NoError(t, err)
	assert.False(t, cleared.HasWinner())
	assert.False(t, cleared.IsFinalized())
	assert.Empty(t, cleared.FinalizedBy)
}

func TestDrawService_ResetFinalizedRequiresSuperAdmin(t *testing.T) {
	ctx := context.Background()

	buildState := func() *models.DrawState {
		state := &models.DrawState{SessionID: 1}
		state.SetWinner("id:101", 1, 100, 1, models.DrawMethodRandom)
		state.Finalize("mr-diaz")
		return state
	}

	t.Run("admin is refused", func(t *testing.T) {
		fixture := newDrawFixture()
		fixture.sessionRepo.On("GetByID", mock.Anything, int64(1)).Return(sessionAt(1, 0), nil)
		fixture.drawStateRepo.On("GetBySession", mock.Anything, int64(1)).Return(buildState(), nil)

		_, err := fixture.service.Reset(ctx, 1, testAdmin)
		assert.True(t, errors.Is(err, ErrForbidden))
		fixture.drawStateRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("super admin may reset", func(t *testing.T) {
		fixture := newDrawFixture()
		fixture.sessionRepo.On("GetByID", mock.Anything, int64(1)).Return(sessionAt(1, 0), nil)
		fixture.drawStateRepo.On("GetBySession", mock.Anything, int64(1)).Return(buildState(), nil)
		fixture.drawStateRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		fixture.drawHistoryRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

		cleared, err := fixture.service.Reset(ctx, 1, testSuperAdmin)
		require.NoError(t, err)
		assert.False(t, cleared.HasWinner())
		assert.False(t, cleared.IsFinalized())
	})
}

func TestDrawService_ResetWithoutWinner(t *testing.T) {
	ctx := context.Background()
	fixture := newDrawFixture()
	fixture.sessionRepo.On("GetByID", mock.Anything, int64(1)).Return(sessionAt(1, 0), nil)
	fixture.drawStateRepo.On("GetBySession", mock.Anything, int64(1)).Return(&models.DrawState{SessionID: 1}, nil)

	_, err := fixture.service.Reset(ctx, 1, testAdmin)
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestDrawService_SetDiscardedTogglesAndAudits(t *testing.T) {
	ctx := context.Background()
	fixture := newDrawFixture()
	fixture.sessionRepo.On("GetByID", mock.Anything, int64(1)).Return(sessionAt(1, 0), nil)
	fixture.sessionRepo.On("SetDiscarded", mock.Anything, int64(1), true).Return(nil)
	fixture.drawHistoryRepo.On("Append", mock.Anything, mock.MatchedBy(func(entry *models.DrawHistoryEntry) bool {
		return entry.Action == models.DrawActionDiscardToggle && entry.Actor == testSuperAdmin.Name
	})).Return(nil)

	err := fixture.service.SetDiscarded(ctx, 1, testSuperAdmin, true)
	require.NoError(t, err)
	fixture.sessionRepo.AssertExpectations(t)
	fixture.drawHistoryRepo.AssertExpectations(t)
	fixture.uow.AssertCalled(t, "Commit")
}

func TestDrawService_SetDiscardedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fixture := newDrawFixture()

	alreadyDiscarded := sessionAt(1, 0)
	alreadyDiscarded.Discarded = true
	fixture.sessionRepo.On("GetByID", mock.Anything, int64(1)).Return(alreadyDiscarded, nil)

	// Re-discarding succeeds but leaves no trace: no write, no history entry
	err := fixture.service.SetDiscarded(ctx, 1, testSuperAdmin, true)
	require.NoError(t, err)
	fixture.sessionRepo.AssertNotCalled(t, "SetDiscarded", mock.Anything, mock.Anything, mock.Anything)
	fixture.drawHistoryRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	fixture.uow.AssertNotCalled(t, "Commit")
}

func TestDrawService_SetDiscardedGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("requires super admin", func(t *testing.T) {
		fixture := newDrawFixture()
		err := fixture.service.SetDiscarded(ctx, 1, testAdmin, true)
		assert.True(t, errors.Is(err, ErrForbidden))
	})

	t.Run("unknown session", func(t *testing.T) {
		fixture := newDrawFixture()
		fixture.sessionRepo.On("GetByID", mock.Anything, int64(9)).Return(nil, nil)
		err := fixture.service.SetDiscarded(ctx, 9, testSuperAdmin, true)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestDrawService_GetHistory(t *testing.T) {
	ctx := context.Background()
	fixture := newDrawFixture()

	entries := []*models.DrawHistoryEntry{
		{SessionID: 1, Action: models.DrawActionSelect, Actor: "mr-diaz"},
		{SessionID: 1, Action: models.DrawActionReset, Actor: "principal-nguyen"},
		{SessionID: 1, Action: models.DrawActionSelect, Actor: "mr-diaz"},
	}
	fixture.drawHistoryRepo.On("ListBySession", mock.Anything, int64(1), 50).Return(entries, nil)

	got, err := fixture.service.GetHistory(ctx, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}
