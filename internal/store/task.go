package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
)

// TaskStore defines the interface for task persistence.
// Every read and write is keyed by task id; ownership checks belong to the caller.
type TaskStore interface {
	// Create saves a new task.
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListByUser returns the user's tasks ordered by creation time, then id.
	// Returns an empty, non-nil slice when the user has no tasks.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// Update saves title, description, completed and updated_at of an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task permanently.
	// Returns ErrTaskNotFound if no row was removed.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a TaskStore that runs its statements on tx.
	WithTx(tx *sql.Tx) TaskStore
}
