// Package identity validates external identity assertions. Only Google is
// supported; the provider performs mailbox verification out of band, which
// is why accounts created from this path skip the email verification step.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/velia/accounts-api/internal/core/ports"
)

const userinfoEndpoint = "https://www.googleapis.com/oauth2/v1/userinfo"

var ErrAudienceMismatch = errors.New("identity: token issued for a different client")

// GoogleVerifier checks Google ID tokens against the configured OAuth client
// id and extracts the asserted profile.
type GoogleVerifier struct {
	clientID string
	client   *http.Client
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, client: &http.Client{}}
}

// Verify validates the ID token with Google's tokeninfo endpoint and returns
// the identity it asserts. The audience must match our own client id; a
// valid token minted for another application is rejected.
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*ports.ExternalIdentity, error) {
	service, err := oauth2.NewService(ctx, option.WithHTTPClient(v.client))
	if err != nil {
		return nil, fmt.Errorf("identity: init oauth2 service: %w", err)
	}

	info, err := service.Tokeninfo().IdToken(idToken).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("identity: tokeninfo: %w", err)
	}

	if info.Audience != v.clientID {
		return nil, ErrAudienceMismatch
	}
	if info.Email == "" || !info.VerifiedEmail {
		return nil, errors.New("identity: token carries no verified email")
	}

	identity := &ports.ExternalIdentity{Email: info.Email}

	// Profile names are best-effort: the tokeninfo response above already
	// proves the identity.
	if given, family, err := v.fetchNames(ctx, idToken); err == nil {
		identity.GivenName = given
		identity.FamilyName = family
	}

	return identity, nil
}

func (v *GoogleVerifier) fetchNames(ctx context.Context, idToken string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoEndpoint, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+idToken)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("identity: userinfo status %d", resp.StatusCode)
	}

	var userInfo oauth2.Userinfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return "", "", err
	}
	return userInfo.GivenName, userInfo.FamilyName, nil
}
