package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/service/auth"
)

// RequireUserAccess rejects requests whose {paramName} path user id differs
// from the authenticated user. It must run after Authenticate.
// A malformed path id is a 422; a mismatch is a 403.
func RequireUserAccess(paramName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := shared.ClaimsFromContext(r.Context())
			if !ok {
				respondUnauthorized(w, r, "Authentication required", auth.ErrMissingToken)
				return
			}

			raw := chi.URLParam(r, paramName)
			pathUserID, err := uuid.Parse(raw)
			if err != nil {
				shared.RespondWithErrorAndLog(w, r, http.StatusUnprocessableEntity, "Invalid ID",
					domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID),
					shared.WithDetails([]shared.ErrorDetail{{Field: paramName, Message: "must be a UUID"}}))
				return
			}

			if err := auth.CheckUserAccess(pathUserID, claims); err != nil {
				shared.RespondWithErrorAndLog(w, r, http.StatusForbidden, "Access denied", err,
					shared.WithElevatedLogLevel())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
