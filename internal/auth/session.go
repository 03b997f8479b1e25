package auth

import (
	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
)

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID      string      `json:"user_id"`
	Email       string      `json:"email"`
	Role        models.Role `json:"role"`
	DisplayName string      `json:"display_name"`
	TokenID     string      `json:"token_id"` // jti of the presented token
}

// HasRole reports whether the session's role is in the allowed set.
// An empty set means any authenticated role.
func (s *SessionData) HasRole(allowed ...models.Role) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, role := range allowed {
		if s.Role == role {
			return true
		}
	}
	return false
}
