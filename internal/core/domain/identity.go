package domain

// Identity is the authenticated principal returned by a social provider.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	Subject       string // stable provider-side identifier
	Email         string
	Name          string
	Image         string
	EmailVerified bool
}
