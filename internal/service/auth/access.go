package auth

import "github.com/google/uuid"

// CheckUserAccess returns nil when the verified identity owns the path user id,
// and ErrForbidden otherwise. Nil claims are forbidden.
func CheckUserAccess(pathUserID uuid.UUID, claims *Claims) error {
	if claims == nil || claims.UserID == uuid.Nil {
		return ErrForbidden
	}
	if claims.UserID != pathUserID {
		return ErrForbidden
	}
	return nil
}
