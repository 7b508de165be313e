package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/velia/accounts-api/internal/api/metrics"
	"github.com/velia/accounts-api/internal/api/middleware"
	"github.com/velia/accounts-api/internal/core/ports"
)

// CookieConfig controls how the session cookie is issued.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

type AccountHandler struct {
	accounts ports.AccountService
	cookie   CookieConfig
}

func NewAccountHandler(accounts ports.AccountService, cookie CookieConfig) *AccountHandler {
	return &AccountHandler{accounts: accounts, cookie: cookie}
}

// Register creates a new account and sends the verification mail.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  accountResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	account, err := h.accounts.Register(c.Request().Context(), ports.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusCreated, toAccountResponse(account))
}

// VerifyEmail consumes a verification token and activates the account.
//
// @Summary      Verify an email address
// @Tags         auth
// @Produce      json
// @Param        token  query     string  true  "Verification token"
// @Success      200    {object}  messageResponse
// @Failure      422    {object}  errorResponse
// @Router       /auth/verify-email [get]
func (h *AccountHandler) VerifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing token")
	}

	if err := h.accounts.VerifyEmail(c.Request().Context(), token); err != nil {
		metrics.EmailVerificationsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.EmailVerificationsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "email verified"})
}

// ResendVerification mails a fresh verification link, invalidating the
// previous token. The response is identical whether or not the email belongs
// to an unverified account.
//
// @Summary      Resend the verification email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resendVerificationRequest  true  "Account email"
// @Success      202   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/verify-email/resend [post]
func (h *AccountHandler) ResendVerification(c echo.Context) error {
	var req resendVerificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.accounts.ResendVerification(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, messageResponse{
		Message: "if the email belongs to an unverified account, a new link has been sent",
	})
}

// Login authenticates with email and password and opens a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  accountResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	account, sessionID, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("password", "error").Inc()
		return err
	}

	h.setSessionCookie(c, sessionID)
	metrics.LoginsTotal.WithLabelValues("password", "success").Inc()
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// LoginWithGoogle authenticates with a Google ID token, creating the account
// on first sign-in.
//
// @Summary      Login with Google
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      googleLoginRequest  true  "Google ID token"
// @Success      200   {object}  accountResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/google [post]
func (h *AccountHandler) LoginWithGoogle(c echo.Context) error {
	var req googleLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	account, sessionID, err := h.accounts.LoginWithGoogle(c.Request().Context(), req.IDToken)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("google", "error").Inc()
		return err
	}

	h.setSessionCookie(c, sessionID)
	metrics.LoginsTotal.WithLabelValues("google", "success").Inc()
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// Logout destroys the current session and clears the cookie.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      204  "session destroyed"
// @Failure      401  {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AccountHandler) Logout(c echo.Context) error {
	sessionID, _ := c.Get(middleware.ContextSessionID).(string)
	if err := h.accounts.Logout(c.Request().Context(), sessionID); err != nil {
		return err
	}

	h.clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated account including its password age.
//
// @Summary      Get own account
// @Tags         account
// @Produce      json
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  errorResponse
// @Router       /account [get]
func (h *AccountHandler) Me(c echo.Context) error {
	accountID, _ := c.Get(middleware.ContextAccountID).(string)
	ctx := c.Request().Context()

	account, err := h.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	age, err := h.accounts.PasswordAge(ctx, accountID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profileResponse{
		accountResponse: toAccountResponse(account),
		PasswordAgeDays: int(age.Hours() / 24),
	})
}

// UpdateProfile applies a partial profile update to the authenticated account.
//
// @Summary      Update own profile
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      updateProfileRequest  true  "Fields to update"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /account [patch]
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	accountID, _ := c.Get(middleware.ContextAccountID).(string)
	account, err := h.accounts.UpdateProfile(c.Request().Context(), accountID, ports.UpdateAccountParams{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Image:     req.Image,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// ChangePassword rotates the password after re-verifying the current one.
//
// @Summary      Change own password
// @Tags         account
// @Accept       json
// @Success      204  "password changed"
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Router       /account/password [put]
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	accountID, _ := c.Get(middleware.ContextAccountID).(string)
	if err := h.accounts.ChangePassword(c.Request().Context(), accountID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	metrics.PasswordChangesTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}

// ListAccounts returns a page of accounts. Admin only.
//
// @Summary      List accounts
// @Tags         admin
// @Produce      json
// @Param        limit   query     int  false  "Page size"    default(50)
// @Param        offset  query     int  false  "Page offset"  default(0)
// @Success      200     {array}   accountResponse
// @Failure      403     {object}  errorResponse
// @Router       /admin/accounts [get]
func (h *AccountHandler) ListAccounts(c echo.Context) error {
	limit := int64(50)
	offset := int64(0)
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			offset = n
		}
	}

	accounts, err := h.accounts.ListAccounts(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) setSessionCookie(c echo.Context, sessionID string) {
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AccountHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
