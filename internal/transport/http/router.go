package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-secret-switch/internal/application/auth"
	"github.com/go-secret-switch/internal/application/message"
	"github.com/go-secret-switch/internal/application/user"
	"github.com/go-secret-switch/internal/config"
	"github.com/go-secret-switch/internal/pkg/clock"
	"github.com/go-secret-switch/internal/transport/http/handler"
	appmiddleware "github.com/go-secret-switch/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authSvc := auth.NewService(deps.Verifier, deps.Store, clock.System, cfg.BlockRegistration)
	messageSvc := message.NewService(deps.Store, time.Duration(cfg.SchedulerPeriodSeconds)*time.Second)
	userSvc := user.NewService(deps.Store, deps.Pusher)

	healthH := handler.NewHealthHandler(cfg)
	messageH := handler.NewMessageHandler(messageSvc)
	userH := handler.NewUserHandler(userSvc)
	notifH := handler.NewNotificationHandler(userSvc)
	schedulerH := handler.NewSchedulerHandler(deps.Scheduler, cfg.SchedulerToken)

	authMw := appmiddleware.Auth(authSvc)

	// 5 requests/second, burst of 10 — applied to endpoints that trigger
	// outbound deliveries.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Get("/runtime-config", healthH.RuntimeConfig)

		// Guarded by its own static token, not the user bearer flow.
		r.With(sensitiveRL.Limit).Post("/scheduler/run", schedulerH.Run)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/messages", messageH.List)
			r.Post("/messages", messageH.Create)
			r.Delete("/messages/{id}", messageH.Delete)

			r.Post("/users/ping", userH.Ping)
			r.Put("/users/subscription", userH.Subscribe)
			r.Delete("/users/subscription", userH.Unsubscribe)

			r.With(sensitiveRL.Limit).Post("/notifications/test", notifH.Test)
		})
	})

	return r
}
