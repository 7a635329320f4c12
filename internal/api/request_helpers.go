package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/service/auth"
)

// Route parameter names.
const (
	UserIDParam = "userId"
	TaskIDParam = "taskId"
)

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// handleUserID returns the authenticated user ID, writing a 401 if it is missing.
func handleUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		logger.FromContext(r.Context()).Warn("user ID not found or invalid in request context")
		HandleAPIError(w, r, auth.ErrMissingToken, "")
		return uuid.Nil, false
	}
	return userID, true
}

// handleUserIDAndTaskID extracts the authenticated user ID and the task ID
// path parameter, writing an error response if either is unusable.
func handleUserIDAndTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := handleUserID(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	taskID, err := getPathUUID(r, TaskIDParam)
	if err != nil {
		logger.FromContext(r.Context()).Debug("invalid task id",
			"value", chi.URLParam(r, TaskIDParam))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, taskID, true
}

// decodeAndValidate decodes the JSON body into req and validates it.
// Decoding failures are reported as validation errors.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := shared.DecodeJSON(w, r, req); err != nil {
		if !errors.Is(err, shared.ErrEmptyBody) {
			err = &decodeError{err: err}
		}
		HandleValidationError(w, r, err)
		return false
	}

	if err := shared.ValidateRequest(req); err != nil {
		HandleValidationError(w, r, err)
		return false
	}

	return true
}

// decodeError marks a malformed request body as a validation failure.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "malformed request body: " + e.err.Error() }

func (e *decodeError) Unwrap() []error { return []error{domain.ErrValidation, e.err} }
