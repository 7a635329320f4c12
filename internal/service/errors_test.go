package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestNewTaskServiceError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewTaskServiceError("op", "msg", nil))
	assert.Equal(t, ErrTaskNotFound, NewTaskServiceError("op", "msg", store.ErrTaskNotFound))
	assert.Equal(t, ErrTaskNotFound, NewTaskServiceError("op", "msg", fmt.Errorf("wrap: %w", ErrTaskNotFound)))

	vErr := domain.NewValidationError("title", "cannot be empty", nil)
	assert.Same(t, vErr, NewTaskServiceError("op", "msg", vErr))

	cause := errors.New("boom")
	err := NewTaskServiceError("create_task", "failed to save task", cause)
	var svcErr *TaskServiceError
	assert.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "task service create_task failed: failed to save task: boom", err.Error())
	assert.ErrorIs(t, err, cause)

	assert.Same(t, err, NewTaskServiceError("other", "msg", err))
}
