package repository

import (
	"context"
	"testing"

	"plateraffle/models"
	"plateraffle/repository/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawHistoryRepository_AppendAndList(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	sessionRepo := NewSessionRepository(testDB.DB)
	historyRepo := NewDrawHistoryRepository(testDB.DB)
	ctx := context.Background()

	session, err := sessionRepo.Create(ctx)
	require.NoError(t, err)

	actions := []models.DrawAction{
		models.DrawActionSelect,
		models.DrawActionReset,
		models.DrawActionSelect,
		models.DrawActionFinalize,
	}
	for _, action := range actions {
		entry := testutil.CreateTestHistoryEntry(session.ID, action, "mr-diaz")
		require.NoError(t, historyRepo.Append(ctx, entry))
		assert.NotZero(t, entry.ID)
		assert.False(t, entry.CreatedAt.IsZero())
	}

	t.Run("full trail oldest first", func(t *testing.T) {
		entries, err := historyRepo.ListBySession(ctx, session.ID, 0)
		require.NoError(t, err)
		require.Len(t, entries, 4)
		for i, entry := range entries {
			assert.Equal(t, actions[i], entry.Action)
			assert.Equal(t, "mr-diaz", entry.Actor)
		}
	})

	t.Run("limit applies", func(t *testing.T) {
		entries, err := historyRepo.ListBySession(ctx, session.ID, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, models.DrawActionSelect, entries[0].Action)
		assert.Equal(t, models.DrawActionReset, entries[1].Action)
	})

	t.Run("other sessions are not mixed in", func(t *testing.T) {
		other, err := sessionRepo.Create(ctx)
		require.NoError(t, err)

		entries, err := historyRepo.ListBySession(ctx, other.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
