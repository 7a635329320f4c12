package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/service/auth"
	"github.com/phrazzld/todo-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, shared.ErrEmptyBody),
		isFieldValidationError(err):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "Authentication required"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, auth.ErrForbidden):
		return "Access denied"

	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return "Task not found"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, shared.ErrEmptyBody),
		isFieldValidationError(err):
		return "Validation failed"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the error response for err. defaultMsg overrides the
// safe message for non-validation errors when set.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)

	if status == http.StatusUnprocessableEntity {
		HandleValidationError(w, r, err)
		return
	}

	msg := GetSafeErrorMessage(err)
	if defaultMsg != "" && status == http.StatusInternalServerError {
		msg = defaultMsg
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	shared.RespondWithErrorAndLog(w, r, status, msg, err)
}

// HandleValidationError writes a 422 response listing the invalid fields.
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(
		w, r,
		http.StatusUnprocessableEntity,
		GetSafeErrorMessage(err),
		err,
		shared.WithDetails(validationDetails(err)),
	)
}

// validationDetails extracts field-level details from validator, domain and
// JSON decoding errors. Raw error text is never included.
func validationDetails(err error) []shared.ErrorDetail {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make([]shared.ErrorDetail, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, shared.ErrorDetail{
				Field:   fe.Field(),
				Message: getValidationTagMessage(fe.Tag()),
			})
		}
		return details
	}

	var domainErr *domain.ValidationError
	if errors.As(err, &domainErr) {
		field := domainErr.Field
		if field == "" {
			field = "body"
		}
		return []shared.ErrorDetail{{Field: field, Message: domainErr.Message}}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return []shared.ErrorDetail{{Field: typeErr.Field, Message: "has the wrong type"}}
	}

	if errors.Is(err, shared.ErrEmptyBody) {
		return []shared.ErrorDetail{{Field: "body", Message: "required field"}}
	}

	var decodeErr *decodeError
	if errors.As(err, &decodeErr) {
		return []shared.ErrorDetail{{Field: "body", Message: "malformed JSON"}}
	}

	return nil
}

func isFieldValidationError(err error) bool {
	var fieldErrs validator.ValidationErrors
	return errors.As(err, &fieldErrs)
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "uuid", "uuid4":
		return "must be a UUID"
	default:
		return "validation failed"
	}
}
