package http

import (
	"context"

	"github.com/go-secret-switch/internal/scheduler"
	"github.com/go-secret-switch/internal/storage"
)

// TokenVerifier is the minimal interface the router requires from the
// identity provider.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	Store     storage.Store
	Verifier  TokenVerifier
	Pusher    scheduler.Dispatcher
	Scheduler *scheduler.Scheduler
}
