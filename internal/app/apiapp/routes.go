package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	redrepo "github.com/olaemy/HomeConnectproV3-sub001/internal/repo/redis"
	analyticsvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/analytics"
	authsvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/auth"
	compatsvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/compatibility"
	discoverysvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/discovery"
	evidencesvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/evidence"
	ratesvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/rate"
	safetysvc "github.com/olaemy/HomeConnectproV3-sub001/internal/services/safety"
	"github.com/olaemy/HomeConnectproV3-sub001/internal/transport/http/handlers"
)

type Dependencies struct {
	SafetyService        *safetysvc.Service
	CompatibilityService *compatsvc.Service
	DiscoveryService     *discoverysvc.Service
	EvidenceService      *evidencesvc.Service
	AnalyticsService     *analyticsvc.Service
	ReportLimiter        *ratesvc.Limiter
	SafetyDashboard      *redrepo.SafetyDashboardRepo
	Logger               *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	safetyHandler := handlers.NewSafetyHandler(deps.SafetyService, deps.ReportLimiter)
	compatibilityHandler := handlers.NewCompatibilityHandler(deps.CompatibilityService)
	discoveryHandler := handlers.NewDiscoveryHandler(deps.DiscoveryService, deps.Logger)
	eventsHandler := handlers.NewEventsHandler(deps.AnalyticsService)
	adminHandler := handlers.NewSafetyAdminHandler(deps.SafetyService, deps.EvidenceService, deps.Logger)
	if deps.SafetyDashboard != nil {
		adminHandler.AttachSummary(deps.SafetyDashboard)
	}
	viewerMW := ViewerIdentity(deps.Logger)
	moderatorMW := RequireRole(authsvc.RoleModerator, authsvc.RoleOwner)

	r.Get("/healthz", healthHandler.Handle)

	r.Group(func(r chi.Router) {
		r.Use(viewerMW)

		r.Route("/safety", func(r chi.Router) {
			r.Post("/reports", safetyHandler.Report)
			r.Post("/blocks", safetyHandler.Block)
			r.Get("/blocks/{id}", safetyHandler.BlockStatus)
			r.Delete("/blocks/{id}", safetyHandler.Unblock)
			r.Get("/users/{id}", safetyHandler.UserSafety)
		})

		r.Post("/compatibility", compatibilityHandler.Calculate)
		r.Post("/recommendations", compatibilityHandler.Recommendations)
		r.Post("/discovery", discoveryHandler.Handle)
		r.Post("/events/batch", eventsHandler.Batch)

		r.Route("/admin", func(r chi.Router) {
			r.Use(moderatorMW)
			r.Get("/reports", adminHandler.Reports)
			r.Post("/reports/{id}/status", adminHandler.UpdateReportStatus)
			r.Post("/users/{id}/status", adminHandler.UpdateAccountStatus)
			r.Post("/users/{id}/signals", adminHandler.UpdateSignals)
			r.Get("/safety/summary", adminHandler.Summary)
		})
	})
}
