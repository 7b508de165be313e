package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/velia/accounts-api/internal/api/middleware"
	"github.com/velia/accounts-api/internal/core/domain"
	"github.com/velia/accounts-api/internal/core/ports"
)

type stubAccountService struct {
	registerFn       func(ctx context.Context, input ports.RegisterInput) (*domain.Account, error)
	verifyEmailFn    func(ctx context.Context, token string) error
	resendFn         func(ctx context.Context, email string) error
	loginFn          func(ctx context.Context, email, password string) (*domain.Account, string, error)
	loginGoogleFn    func(ctx context.Context, idToken string) (*domain.Account, string, error)
	logoutFn         func(ctx context.Context, sessionID string) error
	requestResetFn   func(ctx context.Context, email string) error
	completeResetFn  func(ctx context.Context, token, newPassword string) error
	changePasswordFn func(ctx context.Context, accountID, currentPassword, newPassword string) error
	getAccountFn     func(ctx context.Context, accountID string) (*domain.Account, error)
	passwordAgeFn    func(ctx context.Context, accountID string) (time.Duration, error)
	updateProfileFn  func(ctx context.Context, accountID string, params ports.UpdateAccountParams) (*domain.Account, error)
	listAccountsFn   func(ctx context.Context, limit, offset int64) ([]*domain.Account, error)
}

func (s *stubAccountService) Register(ctx context.Context, input ports.RegisterInput) (*domain.Account, error) {
	return s.registerFn(ctx, input)
}

func (s *stubAccountService) VerifyEmail(ctx context.Context, token string) error {
	return s.verifyEmailFn(ctx, token)
}

func (s *stubAccountService) ResendVerification(ctx context.Context, email string) error {
	return s.resendFn(ctx, email)
}

func (s *stubAccountService) Login(ctx context.Context, email, password string) (*domain.Account, string, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAccountService) LoginWithGoogle(ctx context.Context, idToken string) (*domain.Account, string, error) {
	return s.loginGoogleFn(ctx, idToken)
}

func (s *stubAccountService) Logout(ctx context.Context, sessionID string) error {
	return s.logoutFn(ctx, sessionID)
}

func (s *stubAccountService) RequestPasswordReset(ctx context.Context, email string) error {
	return s.requestResetFn(ctx, email)
}

func (s *stubAccountService) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	return s.completeResetFn(ctx, token, newPassword)
}

func (s *stubAccountService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	return s.changePasswordFn(ctx, accountID, currentPassword, newPassword)
}

func (s *stubAccountService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.getAccountFn(ctx, accountID)
}

func (s *stubAccountService) PasswordAge(ctx context.Context, accountID string) (time.Duration, error) {
	return s.passwordAgeFn(ctx, accountID)
}

func (s *stubAccountService) UpdateProfile(ctx context.Context, accountID string, params ports.UpdateAccountParams) (*domain.Account, error) {
	return s.updateProfileFn(ctx, accountID, params)
}

func (s *stubAccountService) ListAccounts(ctx context.Context, limit, offset int64) ([]*domain.Account, error) {
	return s.listAccountsFn(ctx, limit, offset)
}

var testCookie = CookieConfig{Name: "velia_session", Secure: false, TTL: 24 * time.Hour}

func newTestContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == testCookie.Name {
			return ck
		}
	}
	return nil
}

func TestAccountHandler_Register_Success(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(ctx context.Context, input ports.RegisterInput) (*domain.Account, error) {
			if input.Email != "alice@example.com" || input.FirstName != "Alice" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return &domain.Account{ID: "acc-1", Email: input.Email, FirstName: input.FirstName, LastName: input.LastName, Role: domain.RoleUser}, nil
		},
	}
	handler := NewAccountHandler(stub, testCookie)

	c, rec := newTestContext(t, http.MethodPost, "/auth/register",
		`{"email":"alice@example.com","password":"hunter2-long","first_name":"Alice","last_name":"Soto"}`)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["email"] != "alice@example.com" || resp["active"] != false {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if sessionCookie(t, rec) != nil {
		t.Fatal("registration must not open a session")
	}
}

func TestAccountHandler_Register_ShortPassword(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(ctx context.Context, input ports.RegisterInput) (*domain.Account, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}
	handler := NewAccountHandler(stub, testCookie)

	c, _ := newTestContext(t, http.MethodPost, "/auth/register",
		`{"email":"alice@example.com","password":"short","first_name":"Alice","last_name":"Soto"}`)

	err := handler.Register(c)
	if httpCode(t, err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAccountHandler_Register_InvalidPayload(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(ctx context.Context, input ports.RegisterInput) (*domain.Account, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}
	handler := NewAccountHandler(stub, testCookie)

	c, _ := newTestContext(t, http.MethodPost, "/auth/register", "not-json")

	err := handler.Register(c)
	if httpCode(t, err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAccountHandler_Register_Duplicate(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(ctx context.Context, input ports.RegisterInput) (*domain.Account, error) {
			return nil, domain.ErrAccountExists
		},
	}
	handler := NewAccountHandler(stub, testCookie)

	c, _ := newTestContext(t, http.MethodPost, "/auth/register",
		`{"email":"alice@example.com","password":"hunter2-long","first_name":"Alice","last_name":"Soto"}`)

	if err := handler.Register(c); !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestAccountHandler_VerifyEmail(t *testing.T) {
	stub := &stubAccountService{
		verifyEmailFn: func(ctx context.Context, token string) error {
			if token != "tok-1" {
				t.Fatalf("unexpected token %q", token)
			}
			return nil
		},
	}
	handler := NewAccountHandler(stub, testCookie)

	c, rec := newTestContext(t, http.MethodGet, "/auth/verify-email?token=tok-1", "")
	if err := handler.VerifyEmail(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAccountHandler_VerifyEmail_MissingToken(t *testing.T) {
	handler := NewAccountHandler(&stubAccountService{}, testCookie)

	c, _ := newTestContext(t, http.MethodGet, "/auth/verify-email", "")
	err := handler.VerifyEmail(c)
	if httpCode(t, err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAccountHandler_VerifyEmail_InvalidToken(t *testing.T) {
	stub := &stubAccountService{
		verifyEmailFn: func(ctx context.Context, token string) error {
			return domain.ErrInvalidToken
		},
	}
	handler := NewAccountHandler(stub, testCookie)

	c, _ := newTestContext(t, http.MethodGet, "/auth/verify-email?token=used", "")
	if err := handler.VerifyEmail(c); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAccountHandler_ResendVerification(t *testing.T) {
	bodies := make(map[string]string)
	for name, email := range map[string]string{
		"pending":  "alice@example.com",
		"verified": "bob@example.com",
	} {
		stub := &stubAccountService{
			resendFn: func(ctx context.Context, e string) error {
				return nil
			},
		}
		handler := NewAccountHandler(stub, testCookie)

		c, rec := newTestContext(t, http.MethodPost, "/auth/verify-email/resend",
			`{"email":"`+email+`"}`)
		if err := handler.ResendVerification(c); err != nil {
			t.Fatalf("%s: handler error: %v", name, err)
		}
		if rec.Code != http.StatusAccepted {
			t.Fatalf("%s: expected 202, got %d", name, rec.Code)
		}
		bodies[name] = rec.Body.String()
	}

	if bodies["pending"] != bodies["verified"] {
		t.Fatalf("responses must be indistinguishable: %q vs %q", bodies["pending"], bodies["verified"])
	}
}

func TestAccountHandler_ResendVerification_InvalidEmail(t *testing.T) {
	handler := NewAccountHandler(&stubAccountService{}, testCookie)

	c, _ := newTestContext(t, http.MethodPost, "/auth/verify-email/resend", `{"email":"not-an-email"}`)
	err := handler.ResendVerification(c)
	if httpCode(t, err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAccountHandler_Login_SetsCookie(t *testing.T) {
	stub := &stubAccountService{
		loginFn: func(ctx context.Context, email, password string) (*domain.Account, string, error) {
			return &domain.Account{ID: "acc-1", Email: email, Active: true, Role: domain.RoleUser}, "sess-abc", nil
		},
	}
	handler := NewAccountHandler(stub, testCookie)

	c, rec := newTestContext(t, http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"hunter2-long"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	ck := sessionCookie(t, rec)
	if ck == nil {
		t.Fatal("expected session cookie")
	}
	if ck.Value != "sess-abc" {
		t.Fatalf("unexpected cookie value %q", ck.Value)
	}
	if !ck.HttpOnly {
		t.Fatal("cookie must be httpOnly")
	}
	if ck.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected SameSite=Lax, got %v", ck.SameSite)
	}
	if ck.MaxAge != int((24 * time.Hour).Seconds()) {
		t.Fatalf("unexpected MaxAge %d", ck.MaxAge)
	}
}

func TestAccountHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAccountService{
		loginFn: func(ctx context.Context, email, password string) (*domain.Account, string, error) {
			return nil, "", domain.ErrInvalidCredentials
		},
	}
	handler := NewAccountHandler(stub, testCookie)

	c, rec := newTestContext(t, http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"wrong-password"}`)
	if err := handler.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if sessionCookie(t, rec) != nil {
		t.Fatal("failed login must not set a cookie")
	}
}

func TestAccountHandler_LoginWithGoogle(t *testing.T) {
	stub := &stubAccountService{
		loginGoogleFn: func(ctx context.Context, idToken string) (*domain.Account, string, error) {
			if idToken != "google-id-token" {
				t.Fatalf("unexpected token %q", idToken)
			}
			return &domain.Account{ID: "acc-2", Email: "g@example.com", Active: true, Role: domain.RoleUser}, "sess-g", nil
		},
	}
	handler := NewAccountHandler(stub, testCookie)

	c, rec := newTestContext(t, http.MethodPost, "/auth/google", `{"id_token":"google-id-token"}`)
	if err := handler.LoginWithGoogle(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if ck := sessionCookie(t, rec); ck == nil || ck.Value != "sess-g" {
		t.Fatalf("expected session cookie, got %v", ck)
	}
}

func TestAccountHandler_Logout_ClearsCookie(t *testing.T) {
	var destroyed string
	stub := &stubAccountService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			destroyed = sessionID
			return nil
		},
	}
	handler := NewAccountHandler(stub, testCookie)

	c, rec := newTestContext(t, http.MethodPost, "/auth/logout", "")
	c.Set(middleware.ContextSessionID, "sess-abc")

	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if destroyed != "sess-abc" {
		t.Fatalf("expected session destroyed, got %q", destroyed)
	}
	if ck := sessionCookie(t, rec); ck == nil || ck.MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got %v", ck)
	}
}

func TestAccountHandler_Me(t *testing.T) {
	stub := &stubAccountService{
		getAccountFn: func(ctx context.Context, accountID string) (*domain.Account, error) {
			return &domain.Account{ID: accountID, Email: "alice@example.com", Active: true, Role: domain.RoleUser}, nil
		},
		passwordAgeFn: func(ctx context.Context, accountID string) (time.Duration, error) {
			return 72 * time.Hour, nil
		},
	}
	handler := NewAccountHandler(stub, testCookie)

	c, rec := newTestContext(t, http.MethodGet, "/account", "")
	c.Set(middleware.ContextAccountID, "acc-1")

	if err := handler.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["password_age_days"] != float64(3) {
		t.Fatalf("expected password_age_days=3, got %v", resp["password_age_days"])
	}
}

func TestAccountHandler_UpdateProfile_PartialFields(t *testing.T) {
	stub := &stubAccountService{
		updateProfileFn: func(ctx context.Context, accountID string, params ports.UpdateAccountParams) (*domain.Account, error) {
			if params.FirstName == nil || *params.FirstName != "Alicia" {
				t.Fatalf("expected first_name set, got %+v", params)
			}
			if params.Email != nil || params.LastName != nil {
				t.Fatalf("unexpected fields set: %+v", params)
			}
			return &domain.Account{ID: accountID, FirstName: "Alicia", Email: "alice@example.com", Role: domain.RoleUser}, nil
		},
	}
	handler := NewAccountHandler(stub, testCookie)

	c, rec := newTestContext(t, http.MethodPatch, "/account", `{"first_name":"Alicia"}`)
	c.Set(middleware.ContextAccountID, "acc-1")

	if err := handler.UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAccountHandler_ChangePassword(t *testing.T) {
	stub := &stubAccountService{
		changePasswordFn: func(ctx context.Context, accountID, currentPassword, newPassword string) error {
			if accountID != "acc-1" || currentPassword != "old-password" || newPassword != "new-password" {
				t.Fatalf("unexpected args: %s %s %s", accountID, currentPassword, newPassword)
			}
			return nil
		},
	}
	handler := NewAccountHandler(stub, testCookie)

	c, rec := newTestContext(t, http.MethodPut, "/account/password",
		`{"current_password":"old-password","new_password":"new-password"}`)
	c.Set(middleware.ContextAccountID, "acc-1")

	if err := handler.ChangePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestAccountHandler_ListAccounts_Paging(t *testing.T) {
	stub := &stubAccountService{
		listAccountsFn: func(ctx context.Context, limit, offset int64) ([]*domain.Account, error) {
			if limit != 10 || offset != 20 {
				t.Fatalf("unexpected paging: %d %d", limit, offset)
			}
			return []*domain.Account{{ID: "acc-1", Role: domain.RoleUser}}, nil
		},
	}
	handler := NewAccountHandler(stub, testCookie)

	c, rec := newTestContext(t, http.MethodGet, "/admin/accounts?limit=10&offset=20", "")
	if err := handler.ListAccounts(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 1 || resp[0]["id"] != "acc-1" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}
