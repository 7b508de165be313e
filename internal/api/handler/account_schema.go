package handler

import (
	"time"

	"github.com/velia/accounts-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// messageResponse carries a human-readable outcome for flows that return no
// resource.
type messageResponse struct {
	Message string `json:"message"`
}

// --- Request types ---

type registerRequest struct {
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"  validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type googleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type resetRequestRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetCompleteRequest struct {
	Token       string `json:"token"        validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8"`
}

// updateProfileRequest carries partial profile mutations. Only these fields
// can ever reach the store; anything else in the payload is dropped at bind
// time.
type updateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Image     *string `json:"image"`
}

type updatePreferencesRequest struct {
	EmailNotifications *bool   `json:"email_notifications"`
	Newsletter         *bool   `json:"newsletter"`
	DarkMode           *bool   `json:"dark_mode"`
	Language           *string `json:"language" validate:"omitempty,len=2"`
}

// --- Response types ---

// Response-only types owned by the transport layer, kept separate from the
// domain structs so the JSON contract is not coupled to internal changes.

type accountResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Active    bool       `json:"active"`
	Role      string     `json:"role"`
	Image     string     `json:"image,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// profileResponse is the authenticated self view. PasswordAgeDays is
// informational only; no rotation policy hangs off it.
type profileResponse struct {
	accountResponse
	PasswordAgeDays int `json:"password_age_days"`
}

type preferencesResponse struct {
	EmailNotifications bool   `json:"email_notifications"`
	Newsletter         bool   `json:"newsletter"`
	DarkMode           bool   `json:"dark_mode"`
	Language           string `json:"language"`
}

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Active:    a.Active,
		Role:      string(a.Role),
		Image:     a.Image,
		CreatedAt: a.CreatedAt,
		LastLogin: a.LastLogin,
	}
}

func toPreferencesResponse(p *domain.Preferences) preferencesResponse {
	return preferencesResponse{
		EmailNotifications: p.EmailNotifications,
		Newsletter:         p.Newsletter,
		DarkMode:           p.DarkMode,
		Language:           p.Language,
	}
}
