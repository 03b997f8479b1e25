// Package guard gates protected views by required role. Decide is a pure
// function of the session store's state; it performs no I/O and caches
// nothing.
package guard

import (
	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/session"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
)

// Decision is the verdict for one protected route
type Decision int

const (
	ShowLoading Decision = iota
	RedirectToLogin
	RedirectToUnauthorized
	Render
)

func (d Decision) String() string {
	switch d {
	case ShowLoading:
		return "show-loading"
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectToUnauthorized:
		return "redirect-to-unauthorized"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Decide evaluates a route against the current auth state. An empty
// required set means any authenticated user may enter. The checks run in
// a fixed order: an unresolved store always yields ShowLoading so a
// startup resume never flashes a redirect, and a route's whole subtree
// shares the one verdict.
func Decide(phase session.Phase, sess *session.Session, required ...models.Role) Decision {
	if phase == session.PhaseResolving {
		return ShowLoading
	}
	if sess == nil {
		return RedirectToLogin
	}
	if len(required) > 0 && !roleIn(sess.Role, required) {
		return RedirectToUnauthorized
	}
	return Render
}

func roleIn(role models.Role, set []models.Role) bool {
	for _, allowed := range set {
		if role == allowed {
			return true
		}
	}
	return false
}
