package message

import (
	"context"
	"fmt"
	"time"

	"github.com/go-secret-switch/internal/domain"
	"github.com/go-secret-switch/internal/pkg/validate"
)

// Service covers the message lifecycle driven by authenticated users:
// deposit, list-with-lazy-reveal, delete.
type Service interface {
	Create(ctx context.Context, owner string, req domain.CreateMessageRequest) (string, error)
	List(ctx context.Context, email string) ([]domain.MessageProjection, error)
	Delete(ctx context.Context, email, id string) error
}

type messageStore interface {
	GetUser(ctx context.Context, id string) (domain.User, error)
	PutMessage(ctx context.Context, m domain.SecretMessage) (string, error)
	GetMessagesFor(ctx context.Context, email string) ([]domain.MessageProjection, error)
	DeleteMessage(ctx context.Context, email, id string) error
}

type service struct {
	store           messageStore
	schedulerPeriod time.Duration
}

func NewService(store messageStore, schedulerPeriod time.Duration) Service {
	return &service{store: store, schedulerPeriod: schedulerPeriod}
}

func (s *service) Create(ctx context.Context, owner string, req domain.CreateMessageRequest) (string, error) {
	if err := validate.Struct(req); err != nil {
		return "", fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	// A window shorter than the sweep period could never be honored on time.
	window := time.Duration(req.VerifyEveryMinutes) * time.Minute
	if s.schedulerPeriod > window {
		return "", fmt.Errorf("verification window is too short, server minimum is %.0f minutes: %w",
			s.schedulerPeriod.Minutes(), domain.ErrForbidden)
	}
	recipient, err := s.store.GetUser(ctx, req.Recipient)
	if err != nil {
		return "", fmt.Errorf("recipient email is not registered: %w", domain.ErrNotFound)
	}
	if recipient.ID == owner {
		return "", fmt.Errorf("owner and recipient must be different: %w", domain.ErrForbidden)
	}
	if recipient.Subscription.IsZero() {
		return "", fmt.Errorf("recipient has not subscribed to push notifications: %w", domain.ErrForbidden)
	}
	return s.store.PutMessage(ctx, domain.SecretMessage{
		Owner:                 owner,
		Recipient:             req.Recipient,
		SystemShare:           req.SystemShare,
		VerifyEveryMinutes:    req.VerifyEveryMinutes,
		MaxFailedVerification: req.MaxFailedVerification,
	})
}

func (s *service) List(ctx context.Context, email string) ([]domain.MessageProjection, error) {
	return s.store.GetMessagesFor(ctx, email)
}

func (s *service) Delete(ctx context.Context, email, id string) error {
	return s.store.DeleteMessage(ctx, email, id)
}
