package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/redact"
	"github.com/phrazzld/todo-api/internal/store"
)

// TaskService provides the owner-scoped task operations.
type TaskService interface {
	// ListTasks returns the user's tasks in creation order. Never nil.
	ListTasks(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// CreateTask creates a new incomplete task owned by userID.
	CreateTask(ctx context.Context, userID uuid.UUID, title string, description *string) (*domain.Task, error)

	// GetTask returns the task if it exists and is owned by userID, else ErrTaskNotFound.
	GetTask(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error)

	// UpdateTask applies the supplied fields of update to an owned task.
	UpdateTask(ctx context.Context, taskID, userID uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)

	// DeleteTask removes an owned task. It reports false, with no error,
	// when the task is absent or owned by someone else.
	DeleteTask(ctx context.Context, taskID, userID uuid.UUID) (bool, error)

	// ToggleComplete flips the completion flag of an owned task.
	ToggleComplete(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error)
}

// OperationRecorder receives the outcome of every task operation.
type OperationRecorder interface {
	RecordTaskOperation(operation, outcome string)
}

// Operation outcomes reported to the OperationRecorder.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

type noopRecorder struct{}

func (noopRecorder) RecordTaskOperation(string, string) {}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	db        store.TxBeginner
	taskStore store.TaskStore
	recorder  OperationRecorder
	logger    *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
// recorder may be nil.
func NewTaskService(
	db store.TxBeginner,
	taskStore store.TaskStore,
	recorder OperationRecorder,
	logger *slog.Logger,
) (TaskService, error) {
	if db == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if taskStore == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "taskStore cannot be nil"}
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		db:        db,
		taskStore: taskStore,
		recorder:  recorder,
		logger:    logger.With("component", "task_service"),
	}, nil
}

// ListTasks implements TaskService.ListTasks
func (s *taskServiceImpl) ListTasks(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		tasks, err = s.taskStore.WithTx(tx).ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "list_tasks", "failed to list tasks", err, slog.String("user_id", userID.String()))
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	s.recorder.RecordTaskOperation("list_tasks", OutcomeSuccess)
	return tasks, nil
}

// CreateTask implements TaskService.CreateTask
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	userID uuid.UUID,
	title string,
	description *string,
) (*domain.Task, error) {
	task, err := domain.NewTask(userID, title, description)
	if err != nil {
		return nil, s.fail(ctx, "create_task", "invalid task", err, slog.String("user_id", userID.String()))
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.taskStore.WithTx(tx).Create(ctx, task)
	})
	if err != nil {
		return nil, s.fail(ctx, "create_task", "failed to save task", err, slog.String("user_id", userID.String()))
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", userID.String()))
	s.recorder.RecordTaskOperation("create_task", OutcomeSuccess)
	return task, nil
}

// GetTask implements TaskService.GetTask
func (s *taskServiceImpl) GetTask(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	var task *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		task, err = getOwnedTask(ctx, s.taskStore.WithTx(tx), taskID, userID)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "get_task", "failed to get task", err, taskAttrs(taskID, userID)...)
	}

	s.recorder.RecordTaskOperation("get_task", OutcomeSuccess)
	return task, nil
}

// UpdateTask implements TaskService.UpdateTask
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	taskID, userID uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	var task *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		var err error
		task, err = getOwnedTask(ctx, txStore, taskID, userID)
		if err != nil {
			return err
		}
		if err := task.Apply(update); err != nil {
			return err
		}
		return txStore.Update(ctx, task)
	})
	if err != nil {
		return nil, s.fail(ctx, "update_task", "failed to update task", err, taskAttrs(taskID, userID)...)
	}

	s.recorder.RecordTaskOperation("update_task", OutcomeSuccess)
	return task, nil
}

// DeleteTask implements TaskService.DeleteTask
func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	deleted := false
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		if _, err := getOwnedTask(ctx, txStore, taskID, userID); err != nil {
			if errors.Is(err, ErrTaskNotFound) {
				return nil
			}
			return err
		}

		err := txStore.Delete(ctx, taskID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, s.fail(ctx, "delete_task", "failed to delete task", err, taskAttrs(taskID, userID)...)
	}

	if deleted {
		s.recorder.RecordTaskOperation("delete_task", OutcomeSuccess)
	} else {
		s.recorder.RecordTaskOperation("delete_task", OutcomeNotFound)
	}
	return deleted, nil
}

// ToggleComplete implements TaskService.ToggleComplete
func (s *taskServiceImpl) ToggleComplete(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	var task *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		var err error
		task, err = getOwnedTask(ctx, txStore, taskID, userID)
		if err != nil {
			return err
		}
		task.ToggleComplete()
		return txStore.Update(ctx, task)
	})
	if err != nil {
		return nil, s.fail(ctx, "toggle_complete", "failed to toggle task", err, taskAttrs(taskID, userID)...)
	}

	s.recorder.RecordTaskOperation("toggle_complete", OutcomeSuccess)
	return task, nil
}

// getOwnedTask fetches a task and hides tasks owned by other users.
func getOwnedTask(ctx context.Context, s store.TaskStore, taskID, userID uuid.UUID) (*domain.Task, error) {
	task, err := s.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if task.UserID != userID {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// fail classifies err, records the outcome and logs unexpected failures.
func (s *taskServiceImpl) fail(ctx context.Context, operation, message string, err error, attrs ...any) error {
	mapped := NewTaskServiceError(operation, message, err)

	switch {
	case errors.Is(mapped, ErrTaskNotFound):
		s.recorder.RecordTaskOperation(operation, OutcomeNotFound)
	case errors.Is(mapped, domain.ErrValidation), errors.Is(mapped, domain.ErrInvalidID):
		s.recorder.RecordTaskOperation(operation, OutcomeInvalid)
	default:
		s.recorder.RecordTaskOperation(operation, OutcomeError)
		log := logger.FromContextOrDefault(ctx, s.logger)
		log.Error(message, append(attrs, slog.String("error", redact.Error(err)))...)
	}
	return mapped
}

func taskAttrs(taskID, userID uuid.UUID) []any {
	return []any{
		slog.String("task_id", taskID.String()),
		slog.String("user_id", userID.String()),
	}
}
