package federation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/learnloop/learnloop/internal/auth/domain"
)

var (
	// ErrExchangeFailed covers a rejected or expired authorization code.
	ErrExchangeFailed = errors.New("federation: code exchange failed")
	// ErrProfileFetch covers a provider profile endpoint failure after a
	// successful exchange.
	ErrProfileFetch = errors.New("federation: profile fetch failed")
)

// Provider turns an OAuth authorization code into a provider-neutral claim.
// Implementations never decide trust; they only report what the provider says.
type Provider interface {
	Name() string

	// AuthCodeURL builds the provider consent URL carrying the CSRF state.
	AuthCodeURL(state string) string

	// FetchClaim exchanges the code and reads the provider profile.
	FetchClaim(ctx context.Context, code string) (domain.FederatedClaim, error)
}

// Registry holds the configured providers keyed by name.
type Registry map[string]Provider

func (r Registry) Lookup(name string) (Provider, bool) {
	p, ok := r[name]
	return p, ok
}

// fetchJSON performs an authenticated GET against a provider API and decodes
// the JSON body into out.
func fetchJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", ErrProfileFetch, url, resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
