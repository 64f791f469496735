package user

import (
	"context"
	"fmt"

	"github.com/go-secret-switch/internal/domain"
)

// Service covers push-subscription management and the hello-style test
// notification users send to confirm their setup (or to nudge another
// registered user).
type Service interface {
	Subscribe(ctx context.Context, email string, sub domain.Subscription) error
	Unsubscribe(ctx context.Context, email string) error
	TestNotification(ctx context.Context, from, to string) error
}

type userStore interface {
	GetUser(ctx context.Context, id string) (domain.User, error)
	SubscribeUser(ctx context.Context, email string, sub domain.Subscription) error
	UnsubscribeUser(ctx context.Context, email string) error
}

type dispatcher interface {
	Send(ctx context.Context, sub domain.Subscription, msg domain.PushMessage) error
}

type service struct {
	store  userStore
	pusher dispatcher
}

func NewService(store userStore, pusher dispatcher) Service {
	return &service{store: store, pusher: pusher}
}

func (s *service) Subscribe(ctx context.Context, email string, sub domain.Subscription) error {
	if sub.IsZero() {
		return fmt.Errorf("subscription must not be empty: %w", domain.ErrBadRequest)
	}
	return s.store.SubscribeUser(ctx, email, sub)
}

func (s *service) Unsubscribe(ctx context.Context, email string) error {
	return s.store.UnsubscribeUser(ctx, email)
}

// TestNotification pushes a greeting to the caller, or to another
// registered user when to is set.
func (s *service) TestNotification(ctx context.Context, from, to string) error {
	target := from
	if to != "" {
		target = to
	}
	u, err := s.store.GetUser(ctx, target)
	if err != nil {
		return err
	}
	if u.Subscription.IsZero() {
		return fmt.Errorf("%s has no push subscription: %w", target, domain.ErrBadRequest)
	}
	msg := domain.PushMessage{Tag: "test"}
	if u.ID == from {
		msg.Title = "The switch says hi"
		msg.Message = "This means you're ready to receive future notifications!"
	} else {
		msg.Title = from + " says hi"
		msg.Message = from + " wants to confirm that you're still around"
	}
	return s.pusher.Send(ctx, u.Subscription, msg)
}
