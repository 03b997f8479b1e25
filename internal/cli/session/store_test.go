package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/auth"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/client"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
)

// mockTokenStore is a simple in-memory token store for testing
type mockTokenStore struct {
	tokens map[string]string

	// When set, the first LoadToken signals loadStarted and then blocks
	// until loadGate is closed; later loads pass through. Used to hold a
	// resume in flight while another transition runs.
	loadGate    chan struct{}
	loadStarted chan struct{}
	gateOnce    sync.Once
}

func newMockTokenStore() *mockTokenStore {
	return &mockTokenStore{tokens: make(map[string]string)}
}

func (m *mockTokenStore) SaveToken(server, token string) error {
	m.tokens[server] = token
	return nil
}

func (m *mockTokenStore) LoadToken(server string) (string, error) {
	token := m.tokens[server]
	if m.loadGate != nil {
		first := false
		m.gateOnce.Do(func() { first = true })
		if first {
			if m.loadStarted != nil {
				close(m.loadStarted)
			}
			<-m.loadGate
		}
	}
	return token, nil
}

func (m *mockTokenStore) DeleteToken(server string) error {
	delete(m.tokens, server)
	return nil
}

// makeToken builds a bearer token with the given role and expiry. The
// store decodes without verifying, so the signing key is irrelevant.
func makeToken(t *testing.T, role models.Role, expiresAt time.Time) string {
	t.Helper()

	claims := auth.JWTClaims{
		UserID: "user-123",
		Email:  "user@example.com",
		Role:   string(role),
		Name:   "Test User",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "token-123",
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

const testServer = "http://portal.test"

func TestResume_NoStoredCredential(t *testing.T) {
	tokens := newMockTokenStore()
	store := NewStore(nil, tokens, testServer)

	if phase, _ := store.State(); phase != PhaseResolving {
		t.Fatalf("expected initial phase resolving, got %v", phase)
	}

	store.Resume()

	phase, sess := store.State()
	if phase != PhaseResolved {
		t.Errorf("expected resolved, got %v", phase)
	}
	if sess != nil {
		t.Errorf("expected no session, got %+v", sess)
	}
}

func TestResume_ValidCredential(t *testing.T) {
	tokens := newMockTokenStore()
	expiry := time.Now().Add(time.Hour)
	tokens.SaveToken(testServer, makeToken(t, models.RoleAdmin, expiry))

	store := NewStore(nil, tokens, testServer)
	store.Resume()

	phase, sess := store.State()
	if phase != PhaseResolved {
		t.Fatalf("expected resolved, got %v", phase)
	}
	if sess == nil {
		t.Fatal("expected a session")
	}
	if sess.Role != models.RoleAdmin {
		t.Errorf("expected role ADMIN, got %s", sess.Role)
	}
	if sess.SubjectID != "user-123" {
		t.Errorf("expected subject user-123, got %s", sess.SubjectID)
	}
	if sess.Email != "user@example.com" {
		t.Errorf("expected email user@example.com, got %s", sess.Email)
	}
	if !sess.ExpiresAt.After(time.Now()) {
		t.Errorf("expected a future expiry, got %v", sess.ExpiresAt)
	}
}

func TestResume_ExpiredCredential(t *testing.T) {
	tokens := newMockTokenStore()
	tokens.SaveToken(testServer, makeToken(t, models.RoleStudent, time.Now().Add(-time.Hour)))

	store := NewStore(nil, tokens, testServer)
	store.Resume()

	phase, sess := store.State()
	if phase != PhaseResolved {
		t.Errorf("expected resolved, got %v", phase)
	}
	if sess != nil {
		t.Errorf("expected expired credential to be discarded, got %+v", sess)
	}
	if _, ok := tokens.tokens[testServer]; ok {
		t.Error("expected expired credential to be deleted from the store")
	}
}

func TestResume_MalformedCredential(t *testing.T) {
	tokens := newMockTokenStore()
	tokens.SaveToken(testServer, "not-a-jwt")

	store := NewStore(nil, tokens, testServer)
	store.Resume()

	phase, sess := store.State()
	if phase != PhaseResolved {
		t.Errorf("expected resolved, got %v", phase)
	}
	if sess != nil {
		t.Errorf("expected no session for a malformed credential, got %+v", sess)
	}
	if _, ok := tokens.tokens[testServer]; ok {
		t.Error("expected malformed credential to be deleted from the store")
	}
}

func TestResume_UnknownRole(t *testing.T) {
	tokens := newMockTokenStore()
	tokens.SaveToken(testServer, makeToken(t, models.Role("SUPERUSER"), time.Now().Add(time.Hour)))

	store := NewStore(nil, tokens, testServer)
	store.Resume()

	_, sess := store.State()
	if sess != nil {
		t.Errorf("expected a token with an unknown role to be rejected, got %+v", sess)
	}
}

func TestLogin_Success(t *testing.T) {
	token := makeToken(t, models.RoleFaculty, time.Now().Add(time.Hour))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token": token,
			"user": map[string]interface{}{
				"id":    "user-123",
				"email": "user@example.com",
				"name":  "Test User",
				"role":  "FACULTY",
			},
		})
	}))
	defer srv.Close()

	tokens := newMockTokenStore()
	api := client.New(srv.URL, nil)
	store := NewStore(api, tokens, srv.URL)
	store.Resume()

	sess, err := store.Login(context.Background(), "user@example.com", "password123")
	if err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}
	if sess.Role != models.RoleFaculty {
		t.Errorf("expected role FACULTY, got %s", sess.Role)
	}
	if tokens.tokens[srv.URL] != token {
		t.Error("expected credential to be persisted")
	}

	phase, current := store.State()
	if phase != PhaseResolved || current == nil {
		t.Fatalf("expected resolved populated state, got %v %+v", phase, current)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "Invalid email or password"}`))
	}))
	defer srv.Close()

	tokens := newMockTokenStore()
	api := client.New(srv.URL, nil)
	store := NewStore(api, tokens, srv.URL)
	store.Resume()

	_, err := store.Login(context.Background(), "user@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	phase, sess := store.State()
	if phase != PhaseResolved {
		t.Errorf("expected resolved, got %v", phase)
	}
	if sess != nil {
		t.Errorf("expected session unchanged (none), got %+v", sess)
	}
	if len(tokens.tokens) != 0 {
		t.Error("expected no credential to be persisted")
	}
}

func TestLogin_ServerUnreachable(t *testing.T) {
	// A server that is already closed refuses connections
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	tokens := newMockTokenStore()
	api := client.New(srv.URL, nil)
	store := NewStore(api, tokens, srv.URL)
	store.Resume()

	_, err := store.Login(context.Background(), "user@example.com", "password123")
	if !errors.Is(err, ErrServerUnreachable) {
		t.Fatalf("expected ErrServerUnreachable, got %v", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("unreachable server must not report invalid credentials")
	}

	_, sess := store.State()
	if sess != nil {
		t.Errorf("expected no session, got %+v", sess)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	tokens := newMockTokenStore()
	store := NewStore(nil, tokens, testServer)
	store.Resume()

	// Logging out while already logged out is a no-op that still lands in
	// a resolved, empty state
	store.Logout(context.Background())
	store.Logout(context.Background())

	phase, sess := store.State()
	if phase != PhaseResolved {
		t.Errorf("expected resolved, got %v", phase)
	}
	if sess != nil {
		t.Errorf("expected no session, got %+v", sess)
	}
}

func TestLogout_ClearsActiveSession(t *testing.T) {
	tokens := newMockTokenStore()
	tokens.SaveToken(testServer, makeToken(t, models.RoleAdmin, time.Now().Add(time.Hour)))

	store := NewStore(nil, tokens, testServer)
	store.Resume()

	if _, sess := store.State(); sess == nil {
		t.Fatal("expected a session before logout")
	}

	store.Logout(context.Background())

	_, sess := store.State()
	if sess != nil {
		t.Errorf("expected session cleared, got %+v", sess)
	}
	if _, ok := tokens.tokens[testServer]; ok {
		t.Error("expected credential to be deleted")
	}
}

func TestLogout_RevocationCarriesCredential(t *testing.T) {
	token := makeToken(t, models.RoleAdmin, time.Now().Add(time.Hour))

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/logout" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tokens := newMockTokenStore()
	tokens.SaveToken(srv.URL, token)

	api := client.New(srv.URL, nil)
	store := NewStore(api, tokens, srv.URL)
	store.Resume()

	store.Logout(context.Background())

	// The local copy is discarded first, so the revocation call must carry
	// the credential it captured beforehand
	if gotAuth != "Bearer "+token {
		t.Errorf("revocation request carried %q, want the bearer token", gotAuth)
	}
	if _, ok := tokens.tokens[srv.URL]; ok {
		t.Error("expected credential to be deleted")
	}
	if _, sess := store.State(); sess != nil {
		t.Errorf("expected session cleared, got %+v", sess)
	}
}

func TestLogout_WinsOverInFlightResume(t *testing.T) {
	tokens := newMockTokenStore()
	tokens.SaveToken(testServer, makeToken(t, models.RoleAdmin, time.Now().Add(time.Hour)))
	tokens.loadGate = make(chan struct{})
	tokens.loadStarted = make(chan struct{})

	store := NewStore(nil, tokens, testServer)

	// Resume stalls inside the token store
	resumeDone := make(chan struct{})
	go func() {
		store.Resume()
		close(resumeDone)
	}()
	<-tokens.loadStarted

	// Logout settles first
	store.Logout(context.Background())

	// Now let the stale resume settle; its outcome must be discarded
	close(tokens.loadGate)
	<-resumeDone

	phase, sess := store.State()
	if phase != PhaseResolved {
		t.Errorf("expected resolved, got %v", phase)
	}
	if sess != nil {
		t.Errorf("late resume resurrected a logged-out session: %+v", sess)
	}
}
