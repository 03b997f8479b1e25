package guard

import (
	"testing"
	"time"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/session"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
)

func sessionWithRole(role models.Role) *session.Session {
	return &session.Session{
		SubjectID:   "user-123",
		Role:        role,
		Email:       "user@example.com",
		DisplayName: "Test User",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func TestDecide(t *testing.T) {
	adminOnly := []models.Role{models.RoleAdmin}
	staff := []models.Role{models.RoleAdmin, models.RoleFaculty}

	tests := []struct {
		name     string
		phase    session.Phase
		sess     *session.Session
		required []models.Role
		want     Decision
	}{
		{
			name:  "resolving yields loading even with no session",
			phase: session.PhaseResolving,
			want:  ShowLoading,
		},
		{
			name:     "resolving outranks a role mismatch",
			phase:    session.PhaseResolving,
			sess:     sessionWithRole(models.RoleStudent),
			required: adminOnly,
			want:     ShowLoading,
		},
		{
			name:  "resolved without session redirects to login",
			phase: session.PhaseResolved,
			want:  RedirectToLogin,
		},
		{
			name:     "resolved without session redirects to login even on role-gated routes",
			phase:    session.PhaseResolved,
			required: adminOnly,
			want:     RedirectToLogin,
		},
		{
			name:  "authenticated user renders open route",
			phase: session.PhaseResolved,
			sess:  sessionWithRole(models.RoleStudent),
			want:  Render,
		},
		{
			name:     "matching role renders",
			phase:    session.PhaseResolved,
			sess:     sessionWithRole(models.RoleAdmin),
			required: adminOnly,
			want:     Render,
		},
		{
			name:     "wrong role is unauthorized, not unauthenticated",
			phase:    session.PhaseResolved,
			sess:     sessionWithRole(models.RoleStudent),
			required: adminOnly,
			want:     RedirectToUnauthorized,
		},
		{
			name:     "any of several allowed roles renders",
			phase:    session.PhaseResolved,
			sess:     sessionWithRole(models.RoleFaculty),
			required: staff,
			want:     Render,
		},
		{
			name:     "student excluded from staff route",
			phase:    session.PhaseResolved,
			sess:     sessionWithRole(models.RoleStudent),
			required: staff,
			want:     RedirectToUnauthorized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(tc.phase, tc.sess, tc.required...)
			if got != tc.want {
				t.Errorf("Decide() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDecide_IsPure(t *testing.T) {
	sess := sessionWithRole(models.RoleFaculty)
	for i := 0; i < 3; i++ {
		if got := Decide(session.PhaseResolved, sess, models.RoleFaculty); got != Render {
			t.Fatalf("call %d: Decide() = %v, want %v", i, got, Render)
		}
	}
}

func TestDecisionString(t *testing.T) {
	if got := ShowLoading.String(); got != "show-loading" {
		t.Errorf("ShowLoading.String() = %q", got)
	}
	if got := Render.String(); got != "render" {
		t.Errorf("Render.String() = %q", got)
	}
	if got := Decision(99).String(); got != "unknown" {
		t.Errorf("Decision(99).String() = %q", got)
	}
}
