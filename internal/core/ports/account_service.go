package ports

import (
	"context"
	"time"

	"github.com/velia/accounts-api/internal/core/domain"
)

// RegisterInput carries the fields accepted at registration time.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AccountService orchestrates the credential lifecycle: registration, email
// verification, login, password reset/change and profile reads.
type AccountService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.Account, error)

	// VerifyEmail consumes a single-use verification token. Returns
	// domain.ErrInvalidToken whether the token never existed, was already
	// used, or is simply wrong.
	VerifyEmail(ctx context.Context, token string) error

	// ResendVerification replaces the pending verification token of an
	// inactive account and mails the new link, invalidating the old token.
	// Like the reset request, the outcome never reveals whether the email
	// is registered or already verified.
	ResendVerification(ctx context.Context, email string) error

	// Login returns the account and a fresh session id. Unknown email and
	// wrong password fail identically with domain.ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*domain.Account, string, error)

	// LoginWithGoogle accepts a Google ID token, finds or creates the
	// matching account (created accounts are active immediately) and opens
	// a session exactly as a password login would.
	LoginWithGoogle(ctx context.Context, idToken string) (*domain.Account, string, error)

	Logout(ctx context.Context, sessionID string) error

	// RequestPasswordReset never reveals whether the email is registered:
	// the outcome is identical either way, only the internal side effects
	// differ.
	RequestPasswordReset(ctx context.Context, email string) error

	CompletePasswordReset(ctx context.Context, token, newPassword string) error

	// ChangePassword re-verifies the current secret before mutating; an
	// authenticated session alone is not enough for this operation.
	ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error

	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)

	// PasswordAge reports time since the last password change (falling back
	// to account creation). Informational only; nothing expires.
	PasswordAge(ctx context.Context, accountID string) (time.Duration, error)

	UpdateProfile(ctx context.Context, accountID string, params UpdateAccountParams) (*domain.Account, error)

	ListAccounts(ctx context.Context, limit, offset int64) ([]*domain.Account, error)
}

// PreferencesService exposes per-account settings.
type PreferencesService interface {
	Get(ctx context.Context, accountID string) (*domain.Preferences, error)
	Update(ctx context.Context, accountID string, params UpdatePreferencesParams) (*domain.Preferences, error)
}
