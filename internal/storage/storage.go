// Package storage defines the persistence contract shared by the DynamoDB
// and JSON-file backends. Both implement identical semantics; callers never
// need to know which backend is behind the interface.
package storage

import (
	"context"

	"github.com/go-secret-switch/internal/domain"
)

// Store is the durable-state contract. Every write to a single record is
// all-or-nothing: a concurrent reader observes either the previous or the
// new version, never a torn one. The file backend achieves this with one
// intra-process mutex; the DynamoDB backend relies on per-item atomicity.
type Store interface {
	// PutUser upserts a user record keyed by email.
	PutUser(ctx context.Context, u domain.User) error
	// GetUser returns the user or a domain.ErrNotFound-wrapped error.
	GetUser(ctx context.Context, id string) (domain.User, error)

	// PutMessage validates the message, assigns a generated id, stamps
	// created_ts, and persists it. Invalid input is rejected with a
	// domain.ErrBadRequest-wrapped error before anything is written.
	// Returns the generated id.
	PutMessage(ctx context.Context, m domain.SecretMessage) (string, error)

	// UpdateMessageNotifiedOn stamps owner_notified_on or
	// recipient_notified_on with the current time, depending on which party
	// actingEmail matches.
	UpdateMessageNotifiedOn(ctx context.Context, id, actingEmail string) error

	// SetMessageRevealedIfNeeded evaluates the reveal deadline against the
	// owner's last check-in and persists revealed=true when it has passed.
	// Idempotent: once the flag is set, calls are pure reads returning true.
	SetMessageRevealedIfNeeded(ctx context.Context, id string) (bool, error)

	// GetAllMessages returns every message keyed by id.
	GetAllMessages(ctx context.Context) (map[string]domain.SecretMessage, error)

	// GetMessagesFor returns projections of the messages where email is the
	// owner or the recipient. Each projection reflects a fresh lazy-reveal
	// check; the share is disclosed to the owner unconditionally and to the
	// recipient only once revealed.
	GetMessagesFor(ctx context.Context, email string) ([]domain.MessageProjection, error)

	// DeleteMessage removes the message. Owners may delete at any time;
	// recipients only once the message is revealed (evaluated at delete
	// time), otherwise domain.ErrForbidden. Unknown ids or non-parties get
	// domain.ErrNotFound.
	DeleteMessage(ctx context.Context, email, id string) error

	// SubscribeUser replaces the user's push subscription, preserving id
	// and last_seen.
	SubscribeUser(ctx context.Context, email string, sub domain.Subscription) error
	// UnsubscribeUser clears the user's push subscription, preserving id
	// and last_seen.
	UnsubscribeUser(ctx context.Context, email string) error
}
