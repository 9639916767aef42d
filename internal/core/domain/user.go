package domain

import "time"

const (
	// ProviderCredential marks accounts created with email/password.
	ProviderCredential = "credential"
	ProviderGoogle     = "google"
	ProviderGithub     = "github"
)

// User models an account in the system. PasswordHash is empty for accounts
// created through a social provider.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Image         string    `json:"image,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	PasswordHash  string    `json:"-"`
	Provider      string    `json:"provider"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
