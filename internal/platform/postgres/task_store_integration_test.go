//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/postgres"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/phrazzld/todo-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresTaskStoreCRUD(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		s := postgres.NewPostgresTaskStore(tx, nil)
		userID := uuid.New()
		desc := "details"

		task, err := domain.NewTask(userID, "integration", &desc)
		require.NoError(t, err)
		require.NoError(t, s.Create(ctx, task))

		got, err := s.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.Title, got.Title)
		require.NotNil(t, got.Description)
		assert.Equal(t, desc, *got.Description)

		got.ToggleComplete()
		require.NoError(t, s.Update(ctx, got))

		list, err := s.ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.True(t, list[0].Completed)

		require.NoError(t, s.Delete(ctx, task.ID))
		_, err = s.GetByID(ctx, task.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestRunInTransactionRollsBackPartialWrite(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()
	s := postgres.NewPostgresTaskStore(db, nil)
	userID := uuid.New()
	t.Cleanup(func() { testdb.DeleteUserTasks(t, db, userID) })

	task, err := domain.NewTask(userID, "never committed", nil)
	require.NoError(t, err)

	failure := errors.New("failure after write")
	err = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.WithTx(tx).Create(ctx, task); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	_, err = s.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}
