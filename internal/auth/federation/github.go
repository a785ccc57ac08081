package federation

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/learnloop/learnloop/internal/auth/domain"
)

const (
	githubUserURL   = "https://api.github.com/user"
	githubEmailsURL = "https://api.github.com/user/emails"
)

// GitHubProvider authenticates against GitHub's OAuth2 endpoints. GitHub does
// not return the email on the user profile when it is private, so a second
// call to the emails endpoint is required.
type GitHubProvider struct {
	cfg *oauth2.Config
}

func NewGitHubProvider(clientID, clientSecret, redirectURL string) *GitHubProvider {
	return &GitHubProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

func (p *GitHubProvider) Name() string { return "github" }

func (p *GitHubProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (p *GitHubProvider) FetchClaim(ctx context.Context, code string) (domain.FederatedClaim, error) {
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return domain.FederatedClaim{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	client := p.cfg.Client(ctx, token)

	var user githubUser
	if err := fetchJSON(ctx, client, githubUserURL, &user); err != nil {
		return domain.FederatedClaim{}, err
	}

	var emails []githubEmail
	if err := fetchJSON(ctx, client, githubEmailsURL, &emails); err != nil {
		return domain.FederatedClaim{}, err
	}

	return githubClaim(user, emails), nil
}

// githubClaim maps the profile plus emails listing onto the neutral claim
// shape. The primary verified address wins; otherwise the first listed
// address is taken but the claim is marked unverified, so the trust gate
// refuses it. A claim without any address comes back with an empty Email,
// which the trust gate also refuses.
func githubClaim(user githubUser, emails []githubEmail) domain.FederatedClaim {
	claim := domain.FederatedClaim{
		Provider:   "github",
		ExternalID: strconv.FormatInt(user.ID, 10),
		Name:       user.Name,
		AvatarURL:  user.AvatarURL,
	}
	if claim.Name == "" {
		claim.Name = user.Login
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			claim.Email = domain.NormalizeEmail(e.Email)
			claim.EmailVerified = true
			return claim
		}
	}
	if len(emails) > 0 {
		claim.Email = domain.NormalizeEmail(emails[0].Email)
		claim.EmailVerified = false
	}
	return claim
}
