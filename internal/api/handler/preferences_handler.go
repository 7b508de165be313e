package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/velia/accounts-api/internal/api/middleware"
	"github.com/velia/accounts-api/internal/core/ports"
)

type PreferencesHandler struct {
	preferences ports.PreferencesService
}

func NewPreferencesHandler(preferences ports.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{preferences: preferences}
}

// Get returns the authenticated account's preferences, defaults included.
//
// @Summary      Get own preferences
// @Tags         account
// @Produce      json
// @Success      200  {object}  preferencesResponse
// @Failure      401  {object}  errorResponse
// @Router       /account/preferences [get]
func (h *PreferencesHandler) Get(c echo.Context) error {
	accountID, _ := c.Get(middleware.ContextAccountID).(string)

	prefs, err := h.preferences.Get(c.Request().Context(), accountID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPreferencesResponse(prefs))
}

// Update applies a partial preferences update and returns the merged result.
//
// @Summary      Update own preferences
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      updatePreferencesRequest  true  "Fields to update"
// @Success      200   {object}  preferencesResponse
// @Failure      400   {object}  errorResponse
// @Router       /account/preferences [put]
func (h *PreferencesHandler) Update(c echo.Context) error {
	var req updatePreferencesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	accountID, _ := c.Get(middleware.ContextAccountID).(string)
	prefs, err := h.preferences.Update(c.Request().Context(), accountID, ports.UpdatePreferencesParams{
		EmailNotifications: req.EmailNotifications,
		Newsletter:         req.Newsletter,
		DarkMode:           req.DarkMode,
		Language:           req.Language,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toPreferencesResponse(prefs))
}
