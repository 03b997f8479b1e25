// Package session is the single source of truth for "who is logged in" on
// the client side. The credential is a bearer JWT persisted by a TokenStore
// and decoded locally for role and expiry; no other component reads or
// writes it.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/auth"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/client"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
)

// Phase is the resolution state of the store. Consumers must not branch
// on role before PhaseResolved.
type Phase int

const (
	PhaseResolving Phase = iota
	PhaseResolved
)

func (p Phase) String() string {
	if p == PhaseResolving {
		return "resolving"
	}
	return "resolved"
}

// Session is the authenticated identity. Either nil or fully populated
// with a valid, unexpired role; there is no partially-authenticated state.
type Session struct {
	SubjectID   string
	Role        models.Role
	Email       string
	DisplayName string
	ExpiresAt   time.Time
}

var (
	// ErrInvalidCredentials covers every authentication rejection on login.
	// 401 and 403 are deliberately not distinguished to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrServerUnreachable is reported distinctly so a login form can say
	// "server unreachable" instead of "wrong password".
	ErrServerUnreachable = errors.New("server unreachable")
)

// TokenStore persists the bearer credential under one well-known key per
// server. The OS keyring in production, a map in tests.
type TokenStore interface {
	SaveToken(server, token string) error
	LoadToken(server string) (string, error)
	DeleteToken(server string) error
}

// Store owns the session state machine. Resume, Login and Logout each
// claim a generation at start; a settlement is discarded when a newer
// transition has begun, so the last transition to settle always wins.
type Store struct {
	mu         sync.Mutex
	phase      Phase
	session    *Session
	generation uint64

	server string
	tokens TokenStore
	api    *client.Client
}

// NewStore creates a store in PhaseResolving with no session
func NewStore(api *client.Client, tokens TokenStore, server string) *Store {
	return &Store{
		phase:  PhaseResolving,
		server: server,
		tokens: tokens,
		api:    api,
	}
}

// State returns the current phase and session snapshot
func (s *Store) State() (Phase, *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase, s.session
}

// begin claims a generation for a transition
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// settle installs the transition's outcome unless a newer transition has
// already claimed a later generation
func (s *Store) settle(generation uint64, session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return
	}
	s.phase = PhaseResolved
	s.session = session
}

// resolveOnly marks the store resolved without touching the session
func (s *Store) resolveOnly(generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return
	}
	s.phase = PhaseResolved
}

// Resume loads and decodes the persisted credential. Absent, malformed or
// expired credentials are discarded and the store resolves to no session;
// it never stays unresolved.
func (s *Store) Resume() {
	generation := s.begin()

	token, err := s.tokens.LoadToken(s.server)
	if err != nil || token == "" {
		s.settle(generation, nil)
		return
	}

	session, err := decodeSession(token)
	if err != nil {
		// Malformed or expired: discard the credential and stay logged out
		s.tokens.DeleteToken(s.server)
		s.settle(generation, nil)
		return
	}

	s.settle(generation, session)
}

// Login authenticates against the server, persists the issued credential
// and populates the session from it. On ErrInvalidCredentials the session
// is left unchanged; on ErrServerUnreachable likewise.
func (s *Store) Login(ctx context.Context, email, password string) (*Session, error) {
	generation := s.begin()

	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.resolveOnly(generation)

		var authErr *client.AuthError
		if errors.As(err, &authErr) {
			return nil, ErrInvalidCredentials
		}
		var netErr *client.NetworkError
		if errors.As(err, &netErr) {
			return nil, ErrServerUnreachable
		}
		return nil, err
	}

	session, err := decodeSession(resp.Token)
	if err != nil {
		// A credential we cannot decode is one we cannot trust
		s.resolveOnly(generation)
		return nil, ErrInvalidCredentials
	}

	if err := s.tokens.SaveToken(s.server, resp.Token); err != nil {
		s.resolveOnly(generation)
		return nil, err
	}

	s.settle(generation, session)
	return session, nil
}

// Logout discards the credential and clears the session synchronously,
// then best-effort revokes the token server-side. Idempotent: logging out
// while logged out still ends resolved with no session.
func (s *Store) Logout(ctx context.Context) {
	generation := s.begin()

	// Grab the credential before discarding it: the revocation call below
	// must still be able to authenticate itself
	token, _ := s.tokens.LoadToken(s.server)

	s.tokens.DeleteToken(s.server)
	s.settle(generation, nil)

	// Server-side revocation is a courtesy; its failure never blocks the
	// local logout
	if s.api != nil && token != "" {
		s.api.Logout(ctx, token)
	}
}

// decodeSession turns a bearer JWT into a Session, rejecting expired or
// roleless tokens
func decodeSession(token string) (*Session, error) {
	claims, err := auth.DecodeUnverified(token)
	if err != nil {
		return nil, err
	}

	role, ok := models.ParseRole(claims.Role)
	if !ok {
		return nil, errors.New("credential carries no recognized role")
	}

	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now()) {
		return nil, errors.New("credential expired")
	}

	return &Session{
		SubjectID:   claims.UserID,
		Role:        role,
		Email:       claims.Email,
		DisplayName: claims.Name,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
