package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/access"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/dashboard"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/equipment"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/session"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/workorder"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/utilities"
)

// Deps is what the HTTP surface needs from main.
type Deps struct {
	Logger      *zap.SugaredLogger
	DB          *sqlx.DB
	Codec       *session.Codec
	IDs         *utilities.IDSource
	Metrics     *metrics.Metrics
	CORSOrigins []string
	Env         string
	// Debug exposes 5xx causes in error bodies; off in production.
	Debug bool
	// Hasher overrides the bcrypt hasher of the authenticator.
	Hasher personnel.PasswordHasher
	// OrderOptions are passed to the work order manager.
	OrderOptions []workorder.Option
}

// New builds the service router. The guard runs before routing, role
// checks are attached per route group.
func New(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New(nil)
	}

	people := personnel.NewService(d.DB, nil, d.Hasher, logger)
	equip := equipment.NewService(d.DB)
	orders := workorder.NewManager(d.DB, equip, logger, d.OrderOptions...)

	authH := personnel.NewHandler(people, d.Codec, logger, d.Debug)
	equipH := equipment.NewHandler(equip, logger, d.Debug)
	orderH := workorder.NewHandler(orders, logger, d.Debug)
	dashH := dashboard.NewHandler(dashboard.NewService(orders, equip, people), logger, d.Debug)

	r := chi.NewRouter()
	r.Use(
		RequestIDMiddleware(d.IDs),
		middleware.RealIP,
		LoggingMiddleware(logger),
		RecoverMiddleware(logger, d.Debug),
		SecurityHeadersMiddleware(),
		cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
			ExposedHeaders:   []string{requestIDHeader},
			AllowCredentials: len(d.CORSOrigins) > 0,
			MaxAge:           300,
		}),
		d.Metrics.Middleware,
		access.NewGuard(d.Codec, logger).Middleware,
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if utilities.IsAPIPath(r.URL.Path) {
			utilities.WriteJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "not found"})
			return
		}
		http.NotFound(w, r)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utilities.WriteJSON(w, http.StatusMethodNotAllowed, map[string]any{"success": false, "error": "method not allowed"})
	})

	// pages
	r.Get("/", dashH.Root)
	r.Get(access.PathLogin, dashH.Login)
	r.Get(access.PathDashboard, dashH.Dashboard)
	r.With(access.RequireRole(entity.RoleAdmin)).Get(access.PathAdmin, dashH.Admin)
	r.With(access.RequireRole(entity.RoleTechnician)).Get(access.PathTechnician, dashH.Technician)
	r.With(access.RequireRole(entity.RoleClient)).Get(access.PathClient, dashH.Client)

	r.Route("/api", func(r chi.Router) {
		r.Get("/test", probeHandler(d.DB, d.Env, logger, d.Debug, time.Now))

		r.Post("/auth/login", authH.Login)
		r.Get("/auth/login", authH.Session)
		r.Delete("/auth/login", authH.Logout)

		r.Group(func(r chi.Router) {
			r.Use(access.RequireRole(entity.RoleClient))
			r.Get("/work-orders", orderH.List)
			r.Get("/work-orders/{id}", orderH.Get)
			r.Get("/requests", orderH.FormOptions)
			r.Post("/requests", orderH.Submit)
			r.Get("/equipment", equipH.List)
			r.Get("/equipment/{id}", equipH.Get)
		})
		r.Group(func(r chi.Router) {
			r.Use(access.RequireRole(entity.RoleTechnician))
			r.Post("/work-orders", orderH.Create)
			r.Put("/work-orders/{id}", orderH.Update)
			r.Patch("/work-orders/{id}", orderH.Update)
		})
		r.With(access.RequireRole(entity.RoleAdmin)).Delete("/work-orders/{id}", orderH.Delete)
	})

	return r
}
