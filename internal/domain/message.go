package domain

import "fmt"

// Bounds on message verification parameters.
const (
	MinFailedVerification = 1
	MaxFailedVerification = 9
	MinVerifyEveryMinutes = 1
	MaxVerifyEveryMinutes = 4336204 // roughly 99 months
)

// minSecondsBetweenRecipientNotifications rate-limits recipient reminders
// after the reveal deadline, independent of the message's own window.
const minSecondsBetweenRecipientNotifications = 86400

// SecretMessage holds one share of a client-side-split secret together with
// the liveness policy that governs its release. SystemShare is opaque to the
// server. Revealed transitions false to true exactly once; the notified-on
// timestamps are monotonically non-decreasing.
type SecretMessage struct {
	ID                    string `json:"id" dynamodbav:"id"`
	Owner                 UserID `json:"owner" dynamodbav:"owner"`
	Recipient             UserID `json:"recipient" dynamodbav:"recipient"`
	SystemShare           string `json:"system_share" dynamodbav:"system_share"`
	VerifyEveryMinutes    int64  `json:"verify_every_minutes" dynamodbav:"verify_every_minutes"`
	MaxFailedVerification int64  `json:"max_failed_verification" dynamodbav:"max_failed_verification"`
	CreatedTS             int64  `json:"created_ts" dynamodbav:"created_ts"`
	RecipientNotifiedOn   int64  `json:"recipient_notified_on" dynamodbav:"recipient_notified_on"`
	OwnerNotifiedOn       int64  `json:"owner_notified_on" dynamodbav:"owner_notified_on"`
	Revealed              bool   `json:"revealed" dynamodbav:"revealed"`
}

// Validate checks the invariants a message must satisfy before it may be
// persisted. Both storage backends call this so neither can write an
// invalid record.
func (m *SecretMessage) Validate() error {
	if m.Owner == "" {
		return fmt.Errorf("owner must not be empty: %w", ErrBadRequest)
	}
	if m.Recipient == "" {
		return fmt.Errorf("recipient must not be empty: %w", ErrBadRequest)
	}
	if m.MaxFailedVerification < MinFailedVerification || m.MaxFailedVerification > MaxFailedVerification {
		return fmt.Errorf("maximum consecutive failures must be between %d and %d: %w",
			MinFailedVerification, MaxFailedVerification, ErrBadRequest)
	}
	if m.VerifyEveryMinutes < MinVerifyEveryMinutes || m.VerifyEveryMinutes > MaxVerifyEveryMinutes {
		return fmt.Errorf("time between verifications must be between 1 minute and 99 months: %w",
			ErrBadRequest)
	}
	return nil
}

// ShouldReveal reports whether the share is releasable to the recipient:
// the owner has used up MaxFailedVerification consecutive windows of
// VerifyEveryMinutes without checking in. Once Revealed is set the answer
// is always true regardless of now.
func (m *SecretMessage) ShouldReveal(ownerLastSeen, now int64) bool {
	if m.Revealed {
		return true
	}
	deadline := ownerLastSeen + m.VerifyEveryMinutes*60*m.MaxFailedVerification
	return now >= deadline
}

// ShouldNotifyOwner reports whether the owner is due a liveness reminder:
// one full window has elapsed since the later of their last check-in and
// their last reminder. Anchoring on the later of the two prevents reminder
// storms when the owner checks in between reminders. Never true once the
// message is revealed.
func (m *SecretMessage) ShouldNotifyOwner(ownerLastSeen, now int64) bool {
	if m.Revealed {
		return false
	}
	anchor := ownerLastSeen
	if m.OwnerNotifiedOn > anchor {
		anchor = m.OwnerNotifiedOn
	}
	return now >= anchor+m.VerifyEveryMinutes*60
}

// ShouldNotifyRecipient reports whether the recipient is due a reminder:
// the reveal deadline has passed and at least 24 hours have elapsed since
// the recipient was last notified.
func (m *SecretMessage) ShouldNotifyRecipient(ownerLastSeen, now int64) bool {
	if !m.ShouldReveal(ownerLastSeen, now) {
		return false
	}
	return now >= m.RecipientNotifiedOn+minSecondsBetweenRecipientNotifications
}

// MessageProjection is the per-party view of a message returned by list
// operations. SystemShare is populated for the owner unconditionally and for
// the recipient only once the message is revealed.
type MessageProjection struct {
	ID                    string `json:"id"`
	Owner                 UserID `json:"owner"`
	Recipient             UserID `json:"recipient"`
	SystemShare           string `json:"system_share"`
	VerifyEveryMinutes    int64  `json:"verify_every_minutes"`
	MaxFailedVerification int64  `json:"max_failed_verification"`
	CreatedTS             int64  `json:"created_ts"`
	Revealed              bool   `json:"revealed"`
	OwnerLastSeen         int64  `json:"owner_last_seen"`
	RecipientLastSeen     int64  `json:"recipient_last_seen"`
}

// CreateMessageRequest is the payload for depositing a new message.
type CreateMessageRequest struct {
	Recipient             string `json:"recipient" validate:"required,email"`
	SystemShare           string `json:"system_share" validate:"required"`
	VerifyEveryMinutes    int64  `json:"verify_every_minutes" validate:"required,min=1,max=4336204"`
	MaxFailedVerification int64  `json:"max_failed_verification" validate:"required,min=1,max=9"`
}
