package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleUserInfoURL is the endpoint returning the profile of an access token.
const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var ErrGoogleToken = errors.New("invalid google token")

// GoogleIdentity is the verified profile of a Google account.
type GoogleIdentity struct {
	ID    string
	Email string
	Name  string
}

// GoogleVerifier resolves a client-supplied Google token to an identity.
type GoogleVerifier interface {
	Verify(ctx context.Context, token string) (*GoogleIdentity, error)
}

// OAuthGoogleVerifier verifies access tokens by fetching the userinfo
// profile with an oauth2 client.
type OAuthGoogleVerifier struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewOAuthGoogleVerifier creates a verifier for the given OAuth client.
func NewOAuthGoogleVerifier(clientID, clientSecret string) *OAuthGoogleVerifier {
	return &OAuthGoogleVerifier{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: GoogleUserInfoURL,
	}
}

// WithUserInfoURL points the verifier at another userinfo endpoint.
func (v *OAuthGoogleVerifier) WithUserInfoURL(url string) *OAuthGoogleVerifier {
	v.userInfoURL = url
	return v
}

// Verify fetches the profile behind accessToken. Tokens Google rejects and
// profiles without a verified email return ErrGoogleToken.
func (v *OAuthGoogleVerifier) Verify(ctx context.Context, accessToken string) (*GoogleIdentity, error) {
	if accessToken == "" {
		return nil, ErrGoogleToken
	}

	client := v.config.Client(ctx, &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrGoogleToken
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("google api error: %s: %s", resp.Status, body)
	}

	var profile struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		Verified bool   `json:"verified_email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	if profile.Email == "" || !profile.Verified {
		return nil, ErrGoogleToken
	}

	return &GoogleIdentity{ID: profile.ID, Email: profile.Email, Name: profile.Name}, nil
}
