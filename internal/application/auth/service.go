package auth

import (
	"context"
	"fmt"

	"github.com/go-secret-switch/internal/domain"
	"github.com/go-secret-switch/internal/pkg/clock"
)

// Service authorizes bearer credentials and records liveness. Every
// successful authorization upserts the user with a fresh last_seen — the
// check-in that keeps the dead-man's switch from firing.
type Service interface {
	// Authorize verifies the bearer token, touches the user's last_seen,
	// and returns the verified email.
	Authorize(ctx context.Context, token string) (string, error)
}

type tokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

type userStore interface {
	GetUser(ctx context.Context, id string) (domain.User, error)
	PutUser(ctx context.Context, u domain.User) error
}

type service struct {
	verifier          tokenVerifier
	store             userStore
	now               clock.Clock
	blockRegistration bool
}

func NewService(verifier tokenVerifier, store userStore, now clock.Clock, blockRegistration bool) Service {
	return &service{
		verifier:          verifier,
		store:             store,
		now:               now,
		blockRegistration: blockRegistration,
	}
}

func (s *service) Authorize(ctx context.Context, token string) (string, error) {
	email, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return "", err
	}

	sub := domain.Subscription{}
	if existing, err := s.store.GetUser(ctx, email); err == nil {
		sub = existing.Subscription
	} else if s.blockRegistration {
		return "", fmt.Errorf("%s is not registered and registration is blocked: %w",
			email, domain.ErrUnauthorized)
	}

	// Upsert preserves the subscription; last_seen always moves forward.
	if err := s.store.PutUser(ctx, domain.User{
		ID:           email,
		LastSeen:     s.now(),
		Subscription: sub,
	}); err != nil {
		return "", fmt.Errorf("update last_seen for %s: %w", email, err)
	}
	return email, nil
}
