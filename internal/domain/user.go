package domain

// UserID is the user's email address, which doubles as the primary key.
type UserID = string

// User is a registered party. A record is created on first successful
// authentication and never deleted; unsubscribing only clears Subscription.
// LastSeen is epoch seconds, updated on every authenticated action.
type User struct {
	ID           UserID       `json:"id" dynamodbav:"id"`
	LastSeen     int64        `json:"last_seen" dynamodbav:"last_seen"`
	Subscription Subscription `json:"subscription" dynamodbav:"subscription"`
}

// Subscription is an opaque web-push delivery address. It is a pure value
// type; the zero value means the user has no push endpoint registered.
type Subscription struct {
	Endpoint string           `json:"endpoint" dynamodbav:"endpoint"`
	Keys     SubscriptionKeys `json:"keys" dynamodbav:"keys"`
}

type SubscriptionKeys struct {
	P256dh string `json:"p256dh" dynamodbav:"p256dh"`
	Auth   string `json:"auth" dynamodbav:"auth"`
}

func (s Subscription) IsZero() bool {
	return s.Endpoint == "" && s.Keys.P256dh == "" && s.Keys.Auth == ""
}
