package ports

import (
	"context"
	"time"

	"github.com/velia/accounts-api/internal/core/domain"
)

// UpdateAccountParams is the allow-list for profile mutations. Only the
// fields declared here can ever be written; nil fields are left untouched.
// Caller-supplied objects are never merged into an update blindly.
type UpdateAccountParams struct {
	Email     *string
	FirstName *string
	LastName  *string
	Image     *string
	Active    *bool
	Role      *domain.Role
}

// AccountRepository is the credential store: the single source of truth for
// accounts, their hashed secrets, one-time tokens and timestamps.
//
// Token lookups are exact-match only. ConsumeVerificationToken and
// ConsumeResetToken apply the token-clearing and the gated effect in one
// atomic write, so a raced token has exactly one winner and can never be
// replayed.
type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)

	// Create persists a new inactive account. Returns
	// domain.ErrAccountExists when the email is already registered.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)

	// Update writes the non-nil allow-listed fields. Returns
	// domain.ErrAccountExists when an email change collides with a
	// registered address.
	Update(ctx context.Context, id string, params UpdateAccountParams) (*domain.Account, error)

	// UpdatePassword replaces the stored hash and appends one
	// PasswordChangeRecord.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// IssueVerificationToken overwrites any existing verification token.
	IssueVerificationToken(ctx context.Context, id, token string) error

	// ConsumeVerificationToken activates the holding account and clears the
	// token. False means invalid or already used, not an error.
	ConsumeVerificationToken(ctx context.Context, token string) (bool, error)

	// IssueResetToken attaches a fresh reset token to the account registered
	// under email. Returns domain.ErrAccountNotFound when no such account
	// exists; callers decide whether that fact may be revealed.
	IssueResetToken(ctx context.Context, email, token string) (*domain.Account, error)

	// ConsumeResetToken replaces the hash, clears the token and appends one
	// PasswordChangeRecord. False means invalid or already used. True with a
	// non-nil error means the hash was installed and the token cleared but
	// the audit append failed; the reset itself has taken effect.
	ConsumeResetToken(ctx context.Context, token, passwordHash string) (bool, error)

	RecordLogin(ctx context.Context, id string) error

	// LastPasswordChange returns the most recent change-record time for the
	// account, or nil when the password has never been changed.
	LastPasswordChange(ctx context.Context, id string) (*time.Time, error)

	FindAll(ctx context.Context, limit, offset int64) ([]*domain.Account, error)
}

// UpdatePreferencesParams is the allow-list for preference writes.
type UpdatePreferencesParams struct {
	EmailNotifications *bool
	Newsletter         *bool
	DarkMode           *bool
	Language           *string
}

// PreferencesRepository persists per-account settings. Get never fails on a
// missing record; it answers with defaults instead.
type PreferencesRepository interface {
	Get(ctx context.Context, accountID string) (*domain.Preferences, error)
	Upsert(ctx context.Context, accountID string, params UpdatePreferencesParams) (*domain.Preferences, error)
}
