package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/velia/accounts-api/internal/api/metrics"
	"github.com/velia/accounts-api/internal/core/ports"
)

type PasswordResetHandler struct {
	accounts ports.AccountService
}

func NewPasswordResetHandler(accounts ports.AccountService) *PasswordResetHandler {
	return &PasswordResetHandler{accounts: accounts}
}

// Request starts a password reset. The response is identical whether or not
// the email is registered, so it cannot be used to probe for accounts.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetRequestRequest  true  "Account email"
// @Success      202   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/password-reset/request [post]
func (h *PasswordResetHandler) Request(c echo.Context) error {
	var req resetRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.accounts.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}

	metrics.PasswordResetsRequestedTotal.Inc()
	return c.JSON(http.StatusAccepted, messageResponse{
		Message: "if the email is registered, a reset link has been sent",
	})
}

// Complete consumes a reset token and installs the new password.
//
// @Summary      Complete a password reset
// @Tags         auth
// @Accept       json
// @Success      204  "password updated"
// @Failure      400  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /auth/password-reset/complete [post]
func (h *PasswordResetHandler) Complete(c echo.Context) error {
	var req resetCompleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.accounts.CompletePasswordReset(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		metrics.PasswordResetsCompletedTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.PasswordResetsCompletedTotal.WithLabelValues("success").Inc()
	return c.NoContent(http.StatusNoContent)
}
