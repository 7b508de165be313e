package ports

import "context"

// Mailer delivers transactional email. Sends are fire-and-forget from the
// lifecycle service's perspective: a failed delivery is logged, never rolled
// back into credential state.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// ExternalIdentity is the profile asserted by a trusted third-party
// provider after its own out-of-band verification.
type ExternalIdentity struct {
	Email      string
	GivenName  string
	FamilyName string
}

// IdentityVerifier validates a provider-issued ID token and returns the
// identity it asserts.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*ExternalIdentity, error)
}
