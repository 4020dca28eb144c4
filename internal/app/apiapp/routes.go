package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/amatsuk/civicforum/backend/internal/config"
	authsvc "github.com/amatsuk/civicforum/backend/internal/services/auth"
	modsvc "github.com/amatsuk/civicforum/backend/internal/services/moderation"
	ratesvc "github.com/amatsuk/civicforum/backend/internal/services/rate"
	restrsvc "github.com/amatsuk/civicforum/backend/internal/services/restrictions"
	topicssvc "github.com/amatsuk/civicforum/backend/internal/services/topics"
	"github.com/amatsuk/civicforum/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService         *authsvc.Service
	TopicsService       *topicssvc.Service
	ModerationService   *modsvc.Service
	RestrictionsService *restrsvc.Service
	FlagLimiter         *ratesvc.Limiter
	Logger              *zap.Logger
	Config              config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	topicsHandler := handlers.NewTopicsHandler(deps.TopicsService)
	flagsHandler := handlers.NewFlagsHandler(deps.ModerationService, deps.FlagLimiter)
	moderationHandler := handlers.NewModerationHandler(deps.ModerationService)
	restrictionsHandler := handlers.NewRestrictionsHandler(
		deps.RestrictionsService,
		deps.Config.Forum.DefaultPageSize,
		deps.Config.Forum.MaxPageSize,
	)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	moderatorRoleMW := RequireRole("ADMIN", "MODERATOR")

	r.Get("/healthz", healthHandler.Handle)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.With(authMW).Post("/logout", authHandler.Logout)
	})

	r.Route("/forum", func(r chi.Router) {
		r.Get("/topics", topicsHandler.List)
		r.Get("/topics/{id}", topicsHandler.Get)
		r.With(authMW).Post("/flags", flagsHandler.Submit)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(authMW, moderatorRoleMW)

		r.Route("/moderation", func(r chi.Router) {
			r.Get("/flagged", moderationHandler.ListFlagged)
			r.Get("/stats", moderationHandler.Stats)
			r.Post("/content/{id}", moderationHandler.ApplyAction)
			r.Get("/content/{id}", moderationHandler.GetContent)
			r.Get("/content/{id}/flags", moderationHandler.FlagHistory)
			r.Get("/content/{id}/audit", moderationHandler.AuditTrail)
		})

		r.Route("/restrictions", func(r chi.Router) {
			r.Post("/", restrictionsHandler.Restrict)
			r.Get("/", restrictionsHandler.List)
			r.Post("/{id}/lift", restrictionsHandler.Lift)
			r.Get("/users/{id}", restrictionsHandler.ListByUser)
		})
	})
}
