// Package webpush delivers notifications over the Web Push protocol with
// VAPID signing. Payload encryption and transport details are handled by
// the underlying library; callers only see deliver-or-error.
package webpush

import (
	"context"
	"encoding/json"
	"fmt"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/go-secret-switch/internal/config"
	"github.com/go-secret-switch/internal/domain"
)

// Pusher sends push messages to a subscription endpoint.
type Pusher struct {
	publicKey  string
	privateKey string
	subject    string
	ttl        int
}

func NewPusher(cfg *config.Config) (*Pusher, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, fmt.Errorf("VAPID key pair is not configured")
	}
	return &Pusher{
		publicKey:  cfg.VAPIDPublicKey,
		privateKey: cfg.VAPIDPrivateKey,
		subject:    cfg.PushSubject,
		ttl:        cfg.PushTTLSeconds,
	}, nil
}

// Send encrypts and pushes msg to sub. A 2xx from the push service is
// success; 404 and 410 mean the subscription is gone and are reported as
// errors so the caller retries (or the user re-subscribes).
func (p *Pusher) Send(ctx context.Context, sub domain.Subscription, msg domain.PushMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      p.subject, // the library adds the mailto: prefix
		VAPIDPublicKey:  p.publicKey,
		VAPIDPrivateKey: p.privateKey,
		TTL:             p.ttl,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == 404 || resp.StatusCode == 410:
		return fmt.Errorf("subscription no longer valid (status %d)", resp.StatusCode)
	case resp.StatusCode >= 300:
		return fmt.Errorf("push service returned status %d", resp.StatusCode)
	}
	return nil
}
