package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"finance-dashboard/internal/config"
	"finance-dashboard/internal/handler"
	"finance-dashboard/internal/metrics"
	"finance-dashboard/internal/middleware"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

func New(
	cfg *config.Config,
	logger *slog.Logger,
	health HealthCheck,
	collector *metrics.Metrics,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	assetHandler *handler.AssetHandler,
	transactionHandler *handler.TransactionHandler,
	classifyHandler *handler.ClassifyHandler,
	deletionHandler *handler.DeletionHandler,
	preferenceHandler *handler.PreferenceHandler,
	wsHandler *handler.WSHandler,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(collector.Middleware)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", collector.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		// TimeoutHandler cannot hijack, so the socket sits outside it.
		api.With(authMiddleware.RequireAuth).Get("/ws", wsHandler.Serve)

		api.Group(func(api chi.Router) {
			api.Use(middleware.Timeout(cfg.RequestTimeout))

			api.Route("/auth", func(auth chi.Router) {
				auth.Post("/login", authHandler.Login)
				auth.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Post("/register", authHandler.Register)
				auth.Post("/refresh", authHandler.Refresh)
				auth.With(authMiddleware.RequireAuth).Post("/logout", authHandler.Logout)
				auth.With(authMiddleware.RequireAuth).Post("/logout-all", authHandler.LogoutAll)
				auth.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
			})

			api.Group(func(private chi.Router) {
				private.Use(authMiddleware.RequireAuth)

				private.Get("/assets", assetHandler.List)
				private.Post("/assets", assetHandler.Create)
				private.Get("/assets/{id}", assetHandler.Get)
				private.Patch("/assets/{id}", assetHandler.Update)
				private.Delete("/assets/{id}", assetHandler.Delete)

				private.Get("/transactions", transactionHandler.List)
				private.Post("/transactions", transactionHandler.Create)
				private.Post("/transactions/classify", classifyHandler.Classify)
				private.Get("/transactions/{id}", transactionHandler.Get)
				private.Patch("/transactions/{id}", transactionHandler.Update)
				private.Delete("/transactions/{id}", transactionHandler.Delete)

				private.Get("/deletions", deletionHandler.Active)
				private.Get("/deletions/history", deletionHandler.History)
				private.Post("/deletions/{kind}/{id}/undo", deletionHandler.Undo)
				private.Post("/deletions/{kind}/{id}/commit", deletionHandler.Commit)

				private.Get("/preferences", preferenceHandler.Get)
				private.Put("/preferences", preferenceHandler.Update)
			})
		})
	})

	return r
}
