package rescue

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flood-rescue/db"
	"flood-rescue/types"
)

func newWaitingCase(t *testing.T, store *db.MemoryStore) string {
	t.Helper()
	id, err := store.Create(context.Background(), &types.Case{
		Name:        "ผู้ประสบภัย",
		Contact:     "081-000-0000",
		Description: "น้ำท่วมบ้าน",
		Status:      types.StatusWaiting,
	})
	require.NoError(t, err)
	return id
}

func TestAcceptClaimsWaitingCase(t *testing.T) {
	store := db.NewMemoryStore()
	coord := NewCoordinator(store)
	id := newWaitingCase(t, store)

	require.NoError(t, coord.Accept(context.Background(), id, "Officer A", "089-111-1111"))

	c, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusInProgress, c.Status)
	require.NotNil(t, c.AssignedOfficer)
	assert.Equal(t, "Officer A", c.AssignedOfficer.OfficerName)
	assert.Equal(t, "089-111-1111", c.AssignedOfficer.OfficerContact)
}

func TestAcceptRequiresOfficerName(t *testing.T) {
	store := db.NewMemoryStore()
	coord := NewCoordinator(store)
	id := newWaitingCase(t, store)

	assert.Error(t, coord.Accept(context.Background(), id, "", ""))
}

func TestAcceptRaceHasOneWinner(t *testing.T) {
	// Two officers race to claim the same waiting case: exactly one
	// write succeeds and the winner's assignment is the one persisted.
	store := db.NewMemoryStore()
	coord := NewCoordinator(store)
	id := newWaitingCase(t, store)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	officers := []string{"Officer A", "Officer B"}
	for i := range officers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = coord.Accept(context.Background(), id, officers[i], "")
		}(i)
	}
	wg.Wait()

	var winner string
	conflicts := 0
	for i, err := range errs {
		if err == nil {
			winner = officers[i]
		} else {
			assert.ErrorIs(t, err, ErrAlreadyClaimed)
			assert.ErrorIs(t, err, db.ErrConflict)
			conflicts++
		}
	}
	require.Equal(t, 1, conflicts, "one accept must win and one must conflict")

	c, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusInProgress, c.Status)
	require.NotNil(t, c.AssignedOfficer)
	assert.Equal(t, winner, c.AssignedOfficer.OfficerName)
}

func TestTransitionLegality(t *testing.T) {
	ctx := context.Background()

	t.Run("complete fails on a waiting case", func(t *testing.T) {
		store := db.NewMemoryStore()
		coord := NewCoordinator(store)
		id := newWaitingCase(t, store)

		assert.ErrorIs(t, coord.Complete(ctx, id), ErrNotInProgress)
	})

	t.Run("accept fails on a completed case", func(t *testing.T) {
		store := db.NewMemoryStore()
		coord := NewCoordinator(store)
		id := newWaitingCase(t, store)
		require.NoError(t, coord.Accept(ctx, id, "Officer A", ""))
		require.NoError(t, coord.Complete(ctx, id))

		assert.ErrorIs(t, coord.Accept(ctx, id, "Officer B", ""), ErrAlreadyClaimed)
	})

	t.Run("mark recovery fails unless in progress", func(t *testing.T) {
		store := db.NewMemoryStore()
		coord := NewCoordinator(store)
		id := newWaitingCase(t, store)

		assert.ErrorIs(t, coord.MarkRecovery(ctx, id), ErrNotInProgress)

		require.NoError(t, coord.Accept(ctx, id, "Officer A", ""))
		require.NoError(t, coord.Complete(ctx, id))
		assert.ErrorIs(t, coord.MarkRecovery(ctx, id), ErrNotInProgress)
	})

	t.Run("mark recovery is not repeatable", func(t *testing.T) {
		store := db.NewMemoryStore()
		coord := NewCoordinator(store)
		id := newWaitingCase(t, store)
		require.NoError(t, coord.Accept(ctx, id, "Officer A", ""))
		require.NoError(t, coord.MarkRecovery(ctx, id))

		assert.ErrorIs(t, coord.MarkRecovery(ctx, id), ErrRecoveryCase)
	})

	t.Run("finish recovery requires the flag", func(t *testing.T) {
		store := db.NewMemoryStore()
		coord := NewCoordinator(store)
		id := newWaitingCase(t, store)
		require.NoError(t, coord.Accept(ctx, id, "Officer A", ""))

		assert.ErrorIs(t, coord.FinishRecovery(ctx, id), ErrNotRecoveryCase)
	})

	t.Run("unknown case", func(t *testing.T) {
		store := db.NewMemoryStore()
		coord := NewCoordinator(store)

		assert.ErrorIs(t, coord.Complete(ctx, "missing"), db.ErrNotFound)
	})
}

func TestRecoveryLifecycle(t *testing.T) {
	// in_progress -> markRecovery; complete must then fail, and
	// finishRecovery removes the document entirely.
	ctx := context.Background()
	store := db.NewMemoryStore()
	coord := NewCoordinator(store)
	id := newWaitingCase(t, store)

	require.NoError(t, coord.Accept(ctx, id, "Officer A", ""))
	require.NoError(t, coord.MarkRecovery(ctx, id))

	c, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, c.IsBlackCase)
	assert.Equal(t, types.StatusInProgress, c.Status, "recovery flag implies in_progress")

	assert.ErrorIs(t, coord.Complete(ctx, id), ErrRecoveryCase)

	require.NoError(t, coord.FinishRecovery(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, db.ErrNotFound)
}
