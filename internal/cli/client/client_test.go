package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// staticTokenSource returns a fixed token
type staticTokenSource string

func (s staticTokenSource) Token() (string, error) {
	return string(s), nil
}

func TestDo_AttachesBearerWhenTokenHeld(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"id":"u1","email":"a@b.c","name":"A","role":"ADMIN"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokenSource("tok-abc"))
	if _, err := c.Me(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-abc" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestDo_OmitsHeaderWhenNoToken(t *testing.T) {
	var gotAuth string
	var sawHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, sawHeader = r.Header["Authorization"]
		w.Write([]byte(`{"token":"t","user":{}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokenSource(""))
	if _, err := c.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawHeader {
		t.Errorf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestDo_AuthError(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(`{"error": "Invalid or expired token"}`))
		}))

		_, err := New(srv.URL, nil).Me(context.Background())
		srv.Close()

		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("status %d: expected *AuthError, got %T %v", status, err, err)
		}
		if authErr.StatusCode != status {
			t.Errorf("expected status %d, got %d", status, authErr.StatusCode)
		}
		if authErr.Message != "Invalid or expired token" {
			t.Errorf("expected server message, got %q", authErr.Message)
		}
	}
}

func TestDo_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to fetch notices"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Notices(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T %v", err, err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("unexpected status: %d", apiErr.StatusCode)
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		t.Error("a 500 must not classify as an auth failure")
	}
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := New(srv.URL, nil).Me(context.Background())

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got %T %v", err, err)
	}
	if netErr.Unwrap() == nil {
		t.Error("expected the transport error to be wrapped")
	}
}

func TestDo_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down\n"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Me(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T %v", err, err)
	}
	if apiErr.Message != "upstream down" {
		t.Errorf("expected raw body fallback, got %q", apiErr.Message)
	}
}

func TestLogin_SendsCredentialsAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		w.Write([]byte(`{"token":"tok-xyz","user":{"id":"u1","email":"a@b.c","name":"A","role":"STUDENT"}}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL, nil).Login(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Token != "tok-xyz" {
		t.Errorf("unexpected token %q", resp.Token)
	}
	if resp.User.Role != "STUDENT" {
		t.Errorf("unexpected role %q", resp.User.Role)
	}
}

func TestLogout_UsesExplicitToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/logout" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	// The TokenSource is deliberately empty: logout authenticates with the
	// token handed to it, not with whatever the source still holds
	c := New(srv.URL, staticTokenSource(""))
	if err := c.Logout(context.Background(), "tok-revoked"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-revoked" {
		t.Errorf("expected explicit bearer token, got %q", gotAuth)
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://example.com/", nil)
	if c.baseURL != "http://example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", c.baseURL)
	}
}
