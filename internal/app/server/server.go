package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"staffcore/internal/db"
	"staffcore/internal/domain/access"
	"staffcore/internal/domain/audit"
	"staffcore/internal/domain/catalog"
	"staffcore/internal/domain/directory"
	"staffcore/internal/domain/lifecycle"
	"staffcore/internal/domain/notifications"
	"staffcore/internal/platform/config"
	cryptoutil "staffcore/internal/platform/crypto"
	"staffcore/internal/platform/email"
	"staffcore/internal/platform/metrics"
	"staffcore/internal/transport/http/api"
	accesshandler "staffcore/internal/transport/http/handlers/access"
	audithandler "staffcore/internal/transport/http/handlers/audit"
	authhandler "staffcore/internal/transport/http/handlers/auth"
	cataloghandler "staffcore/internal/transport/http/handlers/catalog"
	directoryhandler "staffcore/internal/transport/http/handlers/directory"
	lifecyclehandler "staffcore/internal/transport/http/handlers/lifecycle"
	"staffcore/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Metrics *metrics.Collector
}

// New connects to the database, prepares the schema, and wires the HTTP
// surface. The returned App is ready to serve.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	cryptoSvc, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}

	collector := metrics.New()
	auditSvc := audit.New(pool)
	notifier := notifications.NewService(cfg, email.New(cfg))

	catalogStore := catalog.NewStore(pool)
	directoryStore := directory.NewStore(pool)
	accessSvc := access.NewService(access.NewStore(pool), notifier)
	lifecycleSvc := lifecycle.NewService(pool)

	// A cascade that misses a referencing table surfaces here, not as an
	// FK error during a delete weeks later.
	if uncovered, err := lifecycleSvc.VerifyCoverage(ctx); err != nil {
		slog.Warn("cascade coverage check failed", "err", err)
	} else if len(uncovered) > 0 {
		for entity, tables := range uncovered {
			slog.Error("cascade plan does not cover referencing tables", "entity", entity, "tables", tables)
		}
		return nil, fmt.Errorf("cascade coverage incomplete for %d entities", len(uncovered))
	}

	app := &App{Config: cfg, DB: pool, Metrics: collector}
	app.Router = app.buildRouter(auditSvc, notifier, catalogStore, directoryStore, accessSvc, lifecycleSvc, cryptoSvc)
	return app, nil
}

// Close releases the database pool.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

func (a *App) buildRouter(
	auditSvc *audit.Service,
	notifier *notifications.Service,
	catalogStore *catalog.Store,
	directoryStore *directory.Store,
	accessSvc *access.Service,
	lifecycleSvc *lifecycle.Service,
	cryptoSvc *cryptoutil.Service,
) http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	guard := &middleware.Guard{Gate: accessSvc, Incidents: auditSvc}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(directoryStore, auditSvc, cfg.JWTSecret, cryptoSvc)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(max(cfg.RateLimitPerMinute/4, 1), time.Minute,
				middleware.WithKeyFunc(middleware.AuthEmailOrIPKey("email"))))
			r.Post("/auth/register", authHandler.HandleRegister)
			r.Post("/auth/login", authHandler.HandleLogin)
		})
		r.With(middleware.RequireAuth).Post("/auth/mfa/setup", authHandler.HandleMFASetup)
		r.With(middleware.RequireAuth).Post("/auth/mfa/verify", authHandler.HandleMFAVerify)

		catalogHandler := cataloghandler.NewHandler(catalogStore, auditSvc)
		r.With(guard.RequireAction("manage_routes", access.MatchAny, "create")).
			Post("/manage/routes", catalogHandler.HandleCreateRoute)
		r.With(guard.RequireAction("manage_routes", access.MatchAny, "view")).
			Get("/routes", catalogHandler.HandleListRoutes)
		r.With(guard.RequireAction("manage_routes", access.MatchAny, "update")).
			Put("/manage/routes/{name}", catalogHandler.HandleUpdateRoute)
		r.With(guard.RequireMFA(), guard.RequireAction("manage_routes", access.MatchAny, "delete")).
			Delete("/manage/routes/{name}", catalogHandler.HandleDeleteRoute)
		r.With(guard.RequireAction("manage_actions", access.MatchAny, "create")).
			Post("/manage/actions", catalogHandler.HandleCreateAction)
		r.With(guard.RequireAction("manage_actions", access.MatchAny, "view")).
			Get("/actions", catalogHandler.HandleListActions)
		r.With(guard.RequireAction("manage_actions", access.MatchAny, "update")).
			Put("/manage/actions/{name}", catalogHandler.HandleUpdateAction)
		r.With(guard.RequireMFA(), guard.RequireAction("manage_actions", access.MatchAny, "delete")).
			Delete("/manage/actions/{name}", catalogHandler.HandleDeleteAction)
		r.With(guard.RequireAction("route_associations", access.MatchAny, "create")).
			Post("/route-actions", catalogHandler.HandleAssociate)
		r.With(guard.RequireAction("route_associations", access.MatchAny, "delete")).
			Delete("/route-actions", catalogHandler.HandleDissociate)
		r.With(guard.RequireAction("route_associations", access.MatchAny, "view")).
			Get("/route-actions/{name}", catalogHandler.HandleRouteActions)

		accessHandler := accesshandler.NewHandler(accessSvc, auditSvc)
		r.With(guard.RequireAction("admin_permissions", access.MatchAny, "view")).
			Get("/get-admin-permissions/{adminID}", accessHandler.HandlePermissions)
		r.With(guard.RequireMFA(), guard.RequireAction("grant_access", access.MatchAny, "grant_access")).
			Post("/grant-access", accessHandler.HandleGrant)
		r.With(guard.RequireMFA(), guard.RequireAction("remove_access", access.MatchAny, "remove_access")).
			Post("/remove-access", accessHandler.HandleRevoke)
		r.With(middleware.RequireAuth).Post("/request-access", accessHandler.HandleSubmit)
		r.With(middleware.RequireAuth).Get("/my-requests", accessHandler.HandleMyRequests)
		r.With(guard.RequireAction("review_requests", access.MatchAny, "view")).
			Get("/review-requests", accessHandler.HandlePendingRequests)
		r.With(guard.RequireMFA(), guard.RequireAction("review_requests", access.MatchAny, "approve", "reject")).
			Post("/review-requests/action", accessHandler.HandleReview)

		directoryHandler := directoryhandler.NewHandler(directoryStore, auditSvc, notifier)
		r.With(guard.RequireAction("admin_directory", access.MatchAny, "view")).
			Get("/admins", directoryHandler.HandleListAdmins)
		r.With(guard.RequireAction("registrations", access.MatchAny, "view")).
			Get("/pending-registrations", directoryHandler.HandlePendingRegistrations)
		r.With(guard.RequireMFA(), guard.RequireAction("registrations", access.MatchAny, "verify")).
			Post("/verify", directoryHandler.HandleVerify)
		r.With(guard.RequireMFA(), guard.RequireAction("registrations", access.MatchAny, "reject")).
			Post("/reject", directoryHandler.HandleReject)
		r.With(guard.RequireAction("employee_management", access.MatchAny, "view")).
			Get("/employees", directoryHandler.HandleListEmployees)
		r.With(guard.RequireAction("employee_management", access.MatchAny, "create")).
			Post("/employees", directoryHandler.HandleCreateEmployee)
		r.With(guard.RequireAction("employee_management", access.MatchAny, "update")).
			Patch("/employees/{id}/status", directoryHandler.HandleEmployeeStatus)
		r.With(guard.RequireAction("team_management", access.MatchAny, "view")).
			Get("/teams", directoryHandler.HandleListTeams)
		r.With(guard.RequireAction("team_management", access.MatchAny, "create")).
			Post("/teams", directoryHandler.HandleCreateTeam)
		r.With(guard.RequireAction("team_management", access.MatchAny, "update")).
			Post("/teams/{id}/members", directoryHandler.HandleAddTeamMember)

		lifecycleHandler := lifecyclehandler.NewHandler(lifecycleSvc, auditSvc)
		r.With(guard.RequireMFA(), guard.RequireAction("employee_management", access.MatchAny, "delete_employee")).
			Delete("/employees/{id}", lifecycleHandler.HandleDeleteEmployee)
		r.With(guard.RequireMFA(), guard.RequireAction("admin_management", access.MatchAny, "delete_admin")).
			Delete("/admins/{id}", lifecycleHandler.HandleDeleteAdmin)
		r.With(guard.RequireMFA(), guard.RequireAction("team_management", access.MatchAny, "delete_team")).
			Post("/teams/delete", lifecycleHandler.HandleDeleteTeam)

		auditHandler := audithandler.NewHandler(auditSvc)
		r.With(guard.RequireAction("audit_trail", access.MatchAny, "view")).
			Get("/audit", auditHandler.HandleList)
		r.With(guard.RequireAction("audit_trail", access.MatchAny, "view")).
			Get("/audit/incidents", auditHandler.HandleListIncidents)
		r.With(guard.RequireAction("audit_trail", access.MatchAny, "export")).
			Get("/audit/export.pdf", auditHandler.HandleExportPDF)
	})

	return router
}

// Run starts the server and blocks.
func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	log.Printf("staffcore listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
