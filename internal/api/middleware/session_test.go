package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/velia/accounts-api/internal/core/domain"
)

type stubSessionStore struct {
	sessions map[string]*domain.Session
}

func (s *stubSessionStore) Create(_ context.Context, accountID, email string, role domain.Role) (string, error) {
	return "", nil
}

func (s *stubSessionStore) Resolve(_ context.Context, sessionID string) (*domain.Session, error) {
	return s.sessions[sessionID], nil
}

func (s *stubSessionStore) Destroy(_ context.Context, sessionID string) error {
	delete(s.sessions, sessionID)
	return nil
}

const cookieName = "velia_session"

func runSession(t *testing.T, store *stubSessionStore, cookie *http.Cookie) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured echo.Context
	handler := Session(store, cookieName)(func(c echo.Context) error {
		captured = c
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	return rec, captured, err
}

func TestSession_ValidCookie(t *testing.T) {
	store := &stubSessionStore{sessions: map[string]*domain.Session{
		"sess-1": {ID: "sess-1", AccountID: "acct-1", Email: "alice@example.com", Role: domain.RoleUser, CreatedAt: time.Now()},
	}}

	rec, captured, err := runSession(t, store, &http.Cookie{Name: cookieName, Value: "sess-1"})
	if err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Get(ContextAccountID) != "acct-1" {
		t.Fatalf("account id not injected: %v", captured.Get(ContextAccountID))
	}
	if captured.Get(ContextEmail) != "alice@example.com" {
		t.Fatalf("email not injected: %v", captured.Get(ContextEmail))
	}
}

func TestSession_MissingCookie(t *testing.T) {
	store := &stubSessionStore{sessions: map[string]*domain.Session{}}

	_, _, err := runSession(t, store, nil)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestSession_UnknownSession(t *testing.T) {
	store := &stubSessionStore{sessions: map[string]*domain.Session{}}

	_, _, err := runSession(t, store, &http.Cookie{Name: cookieName, Value: "expired-or-bogus"})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown session, got %v", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	e := echo.New()

	run := func(role domain.Role, set bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin/accounts", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if set {
			c.Set(ContextRole, role)
		}
		handler := RequireAdmin()(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		_ = handler(c)
		return rec
	}

	if rec := run(domain.RoleAdmin, true); rec.Code != http.StatusOK {
		t.Fatalf("admin expected 200, got %d", rec.Code)
	}
	if rec := run(domain.RoleUser, true); rec.Code != http.StatusForbidden {
		t.Fatalf("user expected 403, got %d", rec.Code)
	}
	if rec := run("", false); rec.Code != http.StatusForbidden {
		t.Fatalf("missing role expected 403, got %d", rec.Code)
	}
}
