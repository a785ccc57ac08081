package domain

// FederatedClaim is the canonical, provider-neutral view of an OAuth profile
// payload. It is transient: produced per callback, resolved to an Account or
// discarded, never persisted.
type FederatedClaim struct {
	Provider   string // "google" or "github"
	ExternalID string
	Email      string
	// EmailVerified reports whether the provider vouches for the email.
	// Unverified claims are refused at the trust gate.
	EmailVerified bool
	Name          string
	AvatarURL     string
}
