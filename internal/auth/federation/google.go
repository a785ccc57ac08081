package federation

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/learnloop/learnloop/internal/auth/domain"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleProvider authenticates against Google's OAuth2 endpoints.
type GoogleProvider struct {
	cfg *oauth2.Config
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

type googleUserinfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (p *GoogleProvider) FetchClaim(ctx context.Context, code string) (domain.FederatedClaim, error) {
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return domain.FederatedClaim{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	var info googleUserinfo
	if err := fetchJSON(ctx, p.cfg.Client(ctx, token), googleUserinfoURL, &info); err != nil {
		return domain.FederatedClaim{}, err
	}

	return googleClaim(info), nil
}

// googleClaim maps the raw userinfo payload onto the neutral claim shape.
func googleClaim(info googleUserinfo) domain.FederatedClaim {
	return domain.FederatedClaim{
		Provider:      "google",
		ExternalID:    info.ID,
		Email:         domain.NormalizeEmail(info.Email),
		EmailVerified: info.VerifiedEmail,
		Name:          info.Name,
		AvatarURL:     info.Picture,
	}
}
