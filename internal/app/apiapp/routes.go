package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fuega-ai/backend/internal/config"
	modsvc "github.com/fuega-ai/backend/internal/services/moderation"
	"github.com/fuega-ai/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	ModerationService *modsvc.Service
	CommunityStore    handlers.CommunityStore
	AuditReader       handlers.AuditReader
	RateLimiter       handlers.RateLimiter
	Logger            *zap.Logger
	Config            config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	moderationHandler := handlers.NewModerationHandler(
		deps.ModerationService,
		deps.CommunityStore,
		deps.AuditReader,
		deps.RateLimiter,
		deps.Logger,
	)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/moderate", moderationHandler.Moderate)
		r.Get("/moderation/log/{content_id}", moderationHandler.Log)
		r.Get("/moderation/budget/{author_id}", moderationHandler.Budget)
	})
}
