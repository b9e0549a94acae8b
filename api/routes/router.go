package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/pipeline-crm/api/controllers"
	"github.com/angelmondragon/pipeline-crm/api/middleware"
	"github.com/angelmondragon/pipeline-crm/internal/session"
	"github.com/angelmondragon/pipeline-crm/pkg/config"
	"github.com/angelmondragon/pipeline-crm/pkg/logger"
)

type identityGate interface {
	middleware.IdentityGate
	CurrentUser(ctx context.Context) (session.Identity, bool)
	SignOut(ctx context.Context, id session.Identity) error
}

// Deps groups what the router hands to middleware and controllers.
type Deps struct {
	Checks     map[string]controllers.Pinger
	Gate       identityGate
	Workspaces middleware.WorkspaceResolver
	Gatherer   prometheus.Gatherer
	Now        func() time.Time
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Checks))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Identity, deps.Gate, logg))

		r.Post("/session/logout", controllers.SessionLogout(deps.Gate, logg))
		r.Get("/stages", controllers.Stages())

		r.Group(func(r chi.Router) {
			r.Use(middleware.Workspace(deps.Workspaces, logg))

			r.Get("/dashboard", controllers.Dashboard(now, logg))
			r.Get("/clients", controllers.Clients(logg))

			r.Route("/leads", func(r chi.Router) {
				r.Get("/", controllers.LeadsList(logg))
				r.Post("/", controllers.LeadCreate(logg))
				r.Get("/export", controllers.LeadsExport(logg))
				r.Route("/{leadId}", func(r chi.Router) {
					r.Get("/", controllers.LeadGet(logg))
					r.Patch("/", controllers.LeadUpdate(logg))
					r.Delete("/", controllers.LeadDelete(logg))
					r.Post("/notes", controllers.LeadAddNote(logg))
					r.Post("/reminders", controllers.LeadAddReminder(logg))
					r.Put("/stage", controllers.LeadSetStage(logg))
				})
			})

			r.Route("/pipeline", func(r chi.Router) {
				r.Get("/", controllers.PipelineBoard(logg))
				r.Post("/moves", controllers.PipelineMove(logg))
			})

			r.Route("/meetings", func(r chi.Router) {
				r.Get("/", controllers.MeetingsList(now, logg))
				r.Post("/", controllers.MeetingCreate(logg))
			})

			r.Get("/activities", controllers.Activities(logg))
			r.Get("/reminders/overdue", controllers.OverdueReminders(now, logg))
		})
	})

	return r
}
