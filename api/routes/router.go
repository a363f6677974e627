package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/estoque-mci/estoque-api/api/controllers"
	"github.com/estoque-mci/estoque-api/api/middleware"
	"github.com/estoque-mci/estoque-api/internal/branchmap"
	"github.com/estoque-mci/estoque-api/internal/inventory"
	"github.com/estoque-mci/estoque-api/internal/nfe"
	"github.com/estoque-mci/estoque-api/internal/projects"
	"github.com/estoque-mci/estoque-api/internal/reservations"
	"github.com/estoque-mci/estoque-api/internal/uploads"
	"github.com/estoque-mci/estoque-api/pkg/config"
	"github.com/estoque-mci/estoque-api/pkg/db"
	"github.com/estoque-mci/estoque-api/pkg/logger"
	pkgredis "github.com/estoque-mci/estoque-api/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           *db.Client
	Redis        pkgredis.IdempotencyStore
	Registry     *prometheus.Registry
	Inventory    inventory.Service
	Reservations reservations.Service
	Uploads      uploads.Service
	NFe          nfe.Service
	Projects     projects.Service
	Mappings     *branchmap.Repository
}

// NewRouter assembles the HTTP surface.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins...),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		privileged := middleware.RequirePrivileged(cfg.Access.MasterEmails, logg)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Inventory, logg))
			r.Get("/{id}", controllers.ProductGet(deps.Inventory, logg))

			r.Group(func(r chi.Router) {
				r.Use(privileged)
				r.Post("/", controllers.ProductCreate(deps.Inventory, logg))
				r.Put("/{id}", controllers.ProductUpdate(deps.Inventory, logg))
				r.Delete("/{id}", controllers.ProductDelete(deps.Inventory, logg))
				r.Post("/{id}/adjust", controllers.ProductAdjust(deps.Inventory, logg))
				r.Post("/upload", controllers.ProductUpload(deps.Uploads, logg))
			})
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", controllers.ReservationList(deps.Reservations, logg))
			r.Post("/", controllers.ReservationCreate(deps.Reservations, logg))
			r.Delete("/{id}", controllers.ReservationCancel(deps.Reservations, logg))
			r.With(privileged).Post("/cleanup", controllers.ReservationCleanup(deps.Reservations, logg))
		})

		r.Route("/nfe", func(r chi.Router) {
			r.Use(privileged)
			r.Post("/preview", controllers.NFePreview(deps.NFe, logg))
			r.Post("/process", controllers.NFeProcess(deps.NFe, logg))
			r.Get("/mappings", controllers.MappingList(deps.Mappings, logg))
			r.Post("/mappings", controllers.MappingAssign(deps.Mappings, logg))
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", controllers.ProjectList(deps.Projects, logg))
			r.Get("/{id}", controllers.ProjectGet(deps.Projects, logg))
			r.Post("/", controllers.ProjectCreate(deps.Projects, logg))
			r.Put("/{id}", controllers.ProjectUpdate(deps.Projects, logg))
			r.Delete("/{id}", controllers.ProjectDelete(deps.Projects, logg))
		})
	})

	return r
}
