package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubAuthenticator struct {
	identity Identity
	err      error
}

func (s stubAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	return s.identity, s.err
}

func testMiddleware(authenticator Authenticator) Middleware {
	return Middleware{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Authenticator: authenticator,
		SkipPrefixes:  []string{"/healthz", "/readyz"},
	}
}

func TestMiddlewarePassesIdentityToHandler(t *testing.T) {
	mw := testMiddleware(stubAuthenticator{identity: Identity{Subject: "user-1"}})

	var got Identity
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predictions", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.Subject != "user-1" {
		t.Fatalf("expected identity in context, got %+v", got)
	}
}

func TestMiddlewareRejectsUnauthenticated(t *testing.T) {
	mw := testMiddleware(stubAuthenticator{err: ErrUnauthenticated})

	called := false
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predictions", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if called {
		t.Fatalf("handler must not run for unauthenticated requests")
	}
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	mw := testMiddleware(stubAuthenticator{err: errors.New("token expired")})

	rec := httptest.NewRecorder()
	mw.Wrap(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predictions", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMiddlewareSkipsProbeEndpoints(t *testing.T) {
	mw := testMiddleware(stubAuthenticator{err: ErrUnauthenticated})

	called := false
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if !called {
		t.Fatalf("probe endpoints must bypass auth")
	}
}

func TestAnonymousAuthenticator(t *testing.T) {
	identity, err := Anonymous{}.Authenticate(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.Subject != "anonymous" {
		t.Fatalf("expected anonymous subject, got %q", identity.Subject)
	}
}
