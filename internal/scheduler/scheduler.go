// Package scheduler periodically sweeps all messages, decides who is due a
// reminder, dispatches notifications, and persists the resulting state
// transitions. A sweep can also be triggered on demand; concurrent sweeps
// are rejected, never queued.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-secret-switch/internal/domain"
	"github.com/go-secret-switch/internal/pkg/clock"
	"github.com/go-secret-switch/internal/storage"
)

// Dispatcher pushes a notification to a subscription endpoint.
type Dispatcher interface {
	Send(ctx context.Context, sub domain.Subscription, msg domain.PushMessage) error
}

// Mailer is the fallback channel for users without a push subscription.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// Scheduler holds no state across sweeps except the execution-exclusivity
// flag; everything else lives in the store.
type Scheduler struct {
	store   storage.Store
	pusher  Dispatcher
	mailer  Mailer // may be nil, which disables the email fallback
	now     clock.Clock
	period  time.Duration
	running atomic.Bool
}

func New(store storage.Store, pusher Dispatcher, mailer Mailer, now clock.Clock, period time.Duration) *Scheduler {
	return &Scheduler{
		store:  store,
		pusher: pusher,
		mailer: mailer,
		now:    now,
		period: period,
	}
}

// notification is the complete addressable unit of work for one delivery.
// It is comparable so identical pending notifications collapse into one
// attempt; message id in the key makes cross-message collisions impossible.
type notification struct {
	email        string
	messageID    string
	payload      domain.PushMessage
	subscription domain.Subscription
}

// Run executes a sweep every period until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("scheduler started", "period", s.period)
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopping")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil && !errors.Is(err, domain.ErrBusy) {
				slog.Error("scheduled sweep failed", "err", err)
			}
		}
	}
}

// RunOnce performs a single sweep. At most one sweep executes at a time; a
// caller losing the compare-and-swap gets domain.ErrBusy immediately. Item
// failures inside the sweep are logged and skipped, never aborting the
// batch; only a failure to enumerate messages fails the run itself.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("a sweep is already executing: %w", domain.ErrBusy)
	}
	defer s.running.Store(false)

	slog.Info("sweep started")
	now := s.now()

	messages, err := s.store.GetAllMessages(ctx)
	if err != nil {
		return fmt.Errorf("enumerate messages: %w", err)
	}

	pending := map[notification]struct{}{}
	for msgID, m := range messages {
		owner, err := s.store.GetUser(ctx, m.Owner)
		if err != nil {
			slog.Error("cannot get owner, skipping message", "message_id", msgID, "err", err)
			continue
		}
		recipient, err := s.store.GetUser(ctx, m.Recipient)
		if err != nil {
			slog.Error("cannot get recipient, skipping message", "message_id", msgID, "err", err)
			continue
		}
		if n, ok := classify(m, owner, recipient, now); ok {
			pending[n] = struct{}{}
		}
	}

	for n := range pending {
		if err := s.deliver(ctx, n); err != nil {
			// No write-back on failure, so the same notification is retried
			// on the next sweep.
			slog.Error("cannot deliver notification",
				"email", n.email, "message_id", n.messageID, "err", err)
			continue
		}
		slog.Info("notification delivered", "email", n.email, "message_id", n.messageID)
		if err := s.store.UpdateMessageNotifiedOn(ctx, n.messageID, n.email); err != nil {
			slog.Error("cannot stamp notification time", "message_id", n.messageID, "err", err)
		}
		if _, err := s.store.SetMessageRevealedIfNeeded(ctx, n.messageID); err != nil {
			slog.Error("cannot update reveal flag", "message_id", n.messageID, "err", err)
		}
	}
	slog.Info("sweep finished", "messages", len(messages), "notifications", len(pending))
	return nil
}

// classify applies the reveal/notification policy to one message and
// returns at most one pending notification. The owner is checked first so
// they receive their full configured budget of reminders; the recipient is
// only considered on a sweep where the owner is not due.
func classify(m domain.SecretMessage, owner, recipient domain.User, now int64) (notification, bool) {
	if m.ShouldNotifyOwner(owner.LastSeen, now) {
		return notification{
			email:        owner.ID,
			messageID:    m.ID,
			subscription: owner.Subscription,
			payload: domain.PushMessage{
				Tag:     "owner",
				Title:   "Owner verification",
				Message: "Time to verify your presence!",
			},
		}, true
	}
	if m.ShouldNotifyRecipient(owner.LastSeen, now) {
		return notification{
			email:        recipient.ID,
			messageID:    m.ID,
			subscription: recipient.Subscription,
			payload: domain.PushMessage{
				Tag:   "recipient",
				Title: "Secret message unlocked!",
				Message: "You can now reveal the message from " + owner.ID +
					". Please delete the message after that to stop this alert.",
			},
		}, true
	}
	return notification{}, false
}

func (s *Scheduler) deliver(ctx context.Context, n notification) error {
	if !n.subscription.IsZero() {
		return s.pusher.Send(ctx, n.subscription, n.payload)
	}
	if s.mailer == nil {
		return fmt.Errorf("no push subscription for %s and email fallback is disabled", n.email)
	}
	return s.mailer.SendEmail(n.email, n.payload.Title, n.payload.Message)
}
