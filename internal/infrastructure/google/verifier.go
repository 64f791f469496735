package google

import (
	"context"
	"fmt"

	"github.com/go-secret-switch/internal/domain"
	"google.golang.org/api/idtoken"
)

// Verifier exchanges Google ID tokens for verified email addresses. The
// email is the user's identity throughout the system.
type Verifier struct {
	clientID string
}

func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientID: clientID}
}

// Verify validates the ID token against the configured OAuth client id and
// returns the verified email. Invalid, expired, or unverified-email tokens
// get a domain.ErrUnauthorized-wrapped error.
func (v *Verifier) Verify(ctx context.Context, token string) (string, error) {
	p, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return "", fmt.Errorf("invalid google token: %w", domain.ErrUnauthorized)
	}
	email, _ := p.Claims["email"].(string)
	emailVerified, _ := p.Claims["email_verified"].(bool)
	if email == "" {
		return "", fmt.Errorf("token carries no email: %w", domain.ErrUnauthorized)
	}
	if !emailVerified {
		return "", fmt.Errorf("email is not verified: %w", domain.ErrUnauthorized)
	}
	return email, nil
}
