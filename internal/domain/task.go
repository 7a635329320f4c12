package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Field limits for tasks.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 2000
)

// Task is a single to-do item owned by exactly one user.
type Task struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskUpdate is a partial update. Nil fields are left untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
}

// NewTask creates a new incomplete Task for userID with a fresh ID.
// The title is trimmed; an empty description is stored as nil.
// Returns an error if validation fails.
func NewTask(userID uuid.UUID, title string, description *string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: normalizeDescription(description),
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if t.UserID == uuid.Nil {
		return NewValidationError("user_id", "cannot be empty", ErrInvalidID)
	}
	if err := validateTitle(t.Title); err != nil {
		return err
	}
	return validateDescription(t.Description)
}

// Apply copies the supplied fields of u onto the task and bumps UpdatedAt.
// The task is left unchanged if the result would be invalid.
func (t *Task) Apply(u TaskUpdate) error {
	next := *t
	if u.Title != nil {
		next.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		next.Description = normalizeDescription(u.Description)
	}
	if u.Completed != nil {
		next.Completed = *u.Completed
	}
	if err := next.Validate(); err != nil {
		return err
	}

	next.UpdatedAt = time.Now().UTC()
	*t = next
	return nil
}

// ToggleComplete flips the completion flag and bumps UpdatedAt.
func (t *Task) ToggleComplete() {
	t.Completed = !t.Completed
	t.UpdatedAt = time.Now().UTC()
}

func validateTitle(title string) error {
	if title == "" {
		return NewValidationError("title", "cannot be empty", ErrValidation)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return NewValidationError("title", "must be at most 255 characters", ErrValidation)
	}
	return nil
}

func validateDescription(description *string) error {
	if description != nil && utf8.RuneCountInString(*description) > MaxDescriptionLength {
		return NewValidationError("description", "must be at most 2000 characters", ErrValidation)
	}
	return nil
}

func normalizeDescription(description *string) *string {
	if description == nil || *description == "" {
		return nil
	}
	d := *description
	return &d
}
