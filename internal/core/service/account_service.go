package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/velia/accounts-api/internal/core/domain"
	"github.com/velia/accounts-api/internal/core/ports"
	"github.com/velia/accounts-api/internal/pkg/security"
)

const minPasswordLength = 8

var validate = validator.New()

// AccountService implements the credential lifecycle on top of the account
// repository, the session store and the external collaborators.
type AccountService struct {
	accounts ports.AccountRepository
	sessions ports.SessionStore
	mailer   ports.Mailer
	identity ports.IdentityVerifier
	hasher   *security.PasswordHasher
	baseURL  string
	logger   zerolog.Logger
}

func NewAccountService(
	accounts ports.AccountRepository,
	sessions ports.SessionStore,
	mailer ports.Mailer,
	identity ports.IdentityVerifier,
	hasher *security.PasswordHasher,
	baseURL string,
	logger zerolog.Logger,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		sessions: sessions,
		mailer:   mailer,
		identity: identity,
		hasher:   hasher,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}
}

// Register creates an inactive account with a fresh verification token and
// mails the verification link. Registration does reveal duplicate emails,
// unlike the reset flow.
func (s *AccountService) Register(ctx context.Context, input ports.RegisterInput) (*domain.Account, error) {
	email := normalizeEmail(input.Email)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if len(input.Password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	token, err := security.GenerateToken()
	if err != nil {
		return nil, err
	}

	created, err := s.accounts.Create(ctx, &domain.Account{
		Email:             email,
		FirstName:         input.FirstName,
		LastName:          input.LastName,
		PasswordHash:      hash,
		Active:            false,
		Role:              domain.RoleUser,
		VerificationToken: token,
	})
	if err != nil {
		return nil, err
	}

	s.sendVerificationMail(created.Email, token)

	s.logger.Info().Str("account_id", created.ID).Msg("account registered")
	return created, nil
}

// VerifyEmail consumes a single-use verification token, activating the
// holding account. Verification is terminal: there is no path back to
// unverified.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) error {
	ok, err := s.accounts.ConsumeVerificationToken(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidToken
	}
	return nil
}

// ResendVerification issues a fresh verification token for an inactive
// account and mails the link; the previous token stops working. Unknown or
// already-verified emails report the same nil outcome as the happy path, the
// same silence contract RequestPasswordReset keeps.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	account, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil
		}
		return err
	}
	if account.Active {
		return nil
	}

	token, err := security.GenerateToken()
	if err != nil {
		return err
	}
	if err := s.accounts.IssueVerificationToken(ctx, account.ID, token); err != nil {
		return err
	}

	s.sendVerificationMail(account.Email, token)
	return nil
}

// Login authenticates an email/password pair and opens a session. An unknown
// email and a wrong password are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.Account, string, error) {
	account, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, "", domain.ErrInvalidCredentials
	}

	return s.openSession(ctx, account)
}

// LoginWithGoogle validates a Google ID token and logs the asserted identity
// in, creating the account on first sight. Accounts created here are active
// immediately: the provider already verified the mailbox.
func (s *AccountService) LoginWithGoogle(ctx context.Context, idToken string) (*domain.Account, string, error) {
	ident, err := s.identity.Verify(ctx, idToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("google id token rejected")
		return nil, "", domain.ErrInvalidCredentials
	}

	email := normalizeEmail(ident.Email)
	account, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		account, err = s.accounts.Create(ctx, &domain.Account{
			Email:     email,
			FirstName: ident.GivenName,
			LastName:  ident.FamilyName,
			Active:    true,
			Role:      domain.RoleUser,
		})
	}
	if err != nil {
		return nil, "", err
	}

	return s.openSession(ctx, account)
}

func (s *AccountService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Destroy(ctx, sessionID)
}

// RequestPasswordReset issues a reset token and mails the reset link, but
// only when the email is registered. The caller sees the same nil outcome
// either way; the asymmetry between response and side effect is the
// anti-enumeration contract and must not be "improved".
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	token, err := security.GenerateToken()
	if err != nil {
		return err
	}

	account, err := s.accounts.IssueResetToken(ctx, normalizeEmail(email), token)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil
		}
		return err
	}

	s.sendResetMail(account.Email, token)
	return nil
}

// CompletePasswordReset consumes a single-use reset token and installs the
// new secret. The token is cleared on first successful use; a replay fails.
func (s *AccountService) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return domain.ErrWeakPassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	ok, err := s.accounts.ConsumeResetToken(ctx, token, hash)
	if !ok {
		if err != nil {
			return err
		}
		return domain.ErrInvalidToken
	}
	if err != nil {
		// The new secret is live and the token is gone; only the audit
		// record is missing. Reporting failure here would leave the caller
		// retrying a token that no longer exists.
		s.logger.Warn().Err(err).Msg("password reset applied but audit record failed")
	}

	s.logger.Info().Msg("password reset completed")
	return nil
}

// ChangePassword re-verifies the current secret before mutating. A valid
// session alone is not trusted for this operation.
func (s *AccountService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return domain.ErrWeakPassword
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(currentPassword, account.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.accounts.UpdatePassword(ctx, accountID, hash); err != nil {
		return err
	}

	s.logger.Info().Str("account_id", accountID).Msg("password changed")
	return nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.accounts.FindByID(ctx, accountID)
}

// PasswordAge reports how long ago the account's secret last changed,
// counting from creation when no change has been recorded. Informational
// only; nothing in this service enforces rotation.
func (s *AccountService) PasswordAge(ctx context.Context, accountID string) (time.Duration, error) {
	changed, err := s.accounts.LastPasswordChange(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if changed == nil {
		account, err := s.accounts.FindByID(ctx, accountID)
		if err != nil {
			return 0, err
		}
		created := account.CreatedAt
		changed = &created
	}
	return time.Since(*changed), nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, params ports.UpdateAccountParams) (*domain.Account, error) {
	if params.Email != nil {
		email := normalizeEmail(*params.Email)
		if err := validate.Var(email, "required,email"); err != nil {
			return nil, domain.ErrInvalidEmail
		}
		params.Email = &email
	}
	return s.accounts.Update(ctx, accountID, params)
}

func (s *AccountService) ListAccounts(ctx context.Context, limit, offset int64) ([]*domain.Account, error) {
	return s.accounts.FindAll(ctx, limit, offset)
}

func (s *AccountService) openSession(ctx context.Context, account *domain.Account) (*domain.Account, string, error) {
	if err := s.accounts.RecordLogin(ctx, account.ID); err != nil {
		return nil, "", err
	}

	sessionID, err := s.sessions.Create(ctx, account.ID, account.Email, account.Role)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info().Str("account_id", account.ID).Msg("session opened")
	return account, sessionID, nil
}

// sendVerificationMail and sendResetMail run detached from the request: a
// delivery failure is logged, the issued token stays valid, and the caller's
// credential mutation is never rolled back.
func (s *AccountService) sendVerificationMail(email, token string) {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, token)
	body := fmt.Sprintf(`
		<p>Welcome!</p>
		<p>Please confirm your email address by clicking the link below:</p>
		<p><a href="%s">%s</a></p>
		<p>If you did not create this account, you can safely ignore this email.</p>
	`, link, link)

	go func() {
		if err := s.mailer.Send(email, "Confirm your email address", body); err != nil {
			s.logger.Error().Err(err).Msg("failed to send verification email")
		}
	}()
}

func (s *AccountService) sendResetMail(email, token string) {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	body := fmt.Sprintf(`
		<p>Hi,</p>
		<p>We received a request to reset the password for your account.</p>
		<p>If you made this request, click the link below to choose a new password:</p>
		<p><a href="%s">%s</a></p>
		<p>If you did not request a password reset, you can safely ignore this email.</p>
	`, link, link)

	go func() {
		if err := s.mailer.Send(email, "Password reset request", body); err != nil {
			s.logger.Error().Err(err).Msg("failed to send password reset email")
		}
	}()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
