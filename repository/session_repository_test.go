package repository

import (
	"context"
	"testing"

	"plateraffle/models"
	"plateraffle/repository/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewSessionRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing session returns nil", func(t *testing.T) {
		session, err := repo.GetByID(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, session)
	})

	t.Run("created session round trips", func(t *testing.T) {
		created, err := repo.Create(ctx)
		require.NoError(t, err)
		require.NotZero(t, created.ID)
		assert.False(t, created.Discarded)
		assert.False(t, created.CreatedAt.IsZero())

		fetched, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, created.ID, fetched.ID)
		assert.Equal(t, created.Discarded, fetched.Discarded)
	})
}

func TestSessionRepository_ListOrdered(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewSessionRepository(testDB.DB)
	ctx := context.Background()

	first, err := repo.Create(ctx)
	require.NoError(t, err)
	second, err := repo.Create(ctx)
	require.NoError(t, err)
	third, err := repo.Create(ctx)
	require.NoError(t, err)

	sessions, err := repo.ListOrdered(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, first.ID, sessions[0].ID)
	assert.Equal(t, second.ID, sessions[1].ID)
	assert.Equal(t, third.ID, sessions[2].ID)
}

func TestSessionRepository_SetDiscarded(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewSessionRepository(testDB.DB)
	ctx := context.Background()

	session, err := repo.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.SetDiscarded(ctx, session.ID, true))

	fetched, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Discarded)

	require.NoError(t, repo.SetDiscarded(ctx, session.ID, false))

	fetched, err = repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, fetched.Discarded)

	err = repo.SetDiscarded(ctx, 9999, true)
	assert.Error(t, err)
}

func TestObservationRepository_AppendAndList(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	sessionRepo := NewSessionRepository(testDB.DB)
	observationRepo := NewObservationRepository(testDB.DB)
	ctx := context.Background()

	session, err := sessionRepo.Create(ctx)
	require.NoError(t, err)

	recorded := []*models.Observation{
		testutil.CreateTestObservation(session.ID, "id:101", models.CategoryClean),
		testutil.CreateTestObservation(session.ID, "maya|okafor", models.CategoryRed),
		testutil.CreateTestObservation(session.ID, "id:101", models.CategoryDirty),
	}
	for _, observation := range recorded {
		require.NoError(t, observationRepo.Create(ctx, observation))
		assert.NotZero(t, observation.ID)
	}

	listed, err := observationRepo.ListBySession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)

	// Insertion order is preserved
	for i, observation := range listed {
		assert.Equal(t, recorded[i].IdentityKey, observation.IdentityKey)
		assert.Equal(t, recorded[i].Category, observation.Category)
	}

	other, err := sessionRepo.Create(ctx)
	require.NoError(t, err)
	empty, err := observationRepo.ListBySession(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
