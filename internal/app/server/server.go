package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campusleave/internal/domain/audit"
	"campusleave/internal/domain/leave"
	"campusleave/internal/domain/notifications"
	"campusleave/internal/domain/people"
	"campusleave/internal/domain/reports"
	"campusleave/internal/platform/config"
	"campusleave/internal/platform/db"
	"campusleave/internal/platform/email"
	"campusleave/internal/platform/jobs"
	"campusleave/internal/platform/metrics"
	audithandler "campusleave/internal/transport/http/handlers/audit"
	authhandler "campusleave/internal/transport/http/handlers/auth"
	leavehandler "campusleave/internal/transport/http/handlers/leave"
	notificationshandler "campusleave/internal/transport/http/handlers/notifications"
	peoplehandler "campusleave/internal/transport/http/handlers/people"
	reportshandler "campusleave/internal/transport/http/handlers/reports"
	"campusleave/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	Pool    *pgxpool.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector
}

// New connects, migrates, seeds, and wires the full router. The caller owns
// the pool lifetime via Close.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	app := &App{Config: cfg, Pool: pool}
	if cfg.MetricsEnabled {
		app.Metrics = metrics.New()
	}

	leaveService := leave.NewService(leave.NewStore(pool))
	peopleService := people.NewService(people.NewStore(pool))
	auditService := audit.New(pool)
	notifyService := notifications.New(notifications.NewStore(pool), email.New(cfg), cfg.EmailFrom)
	reportsService := reports.New(reports.NewStore(pool), leaveService)
	app.Jobs = jobs.New(pool, cfg)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Metrics(app.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Get("/metricsz", func(w http.ResponseWriter, r *http.Request) {
		if app.Metrics == nil {
			http.Error(w, "metrics disabled", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(app.Metrics.Snapshot())
	})

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(peopleService, leaveService, auditService, cfg.JWTSecret, cfg.TokenTTL, cfg.AllowSelfSignup)
		authHandler.RegisterRoutes(r)

		peopleHandler := peoplehandler.NewHandler(peopleService, auditService)
		peopleHandler.RegisterRoutes(r)

		leaveHandler := leavehandler.NewHandler(leaveService, notifyService, auditService, app.Jobs)
		leaveHandler.RegisterRoutes(r)

		reportsHandler := reportshandler.NewHandler(reportsService)
		reportsHandler.RegisterRoutes(r)

		auditHandler := audithandler.NewHandler(auditService)
		auditHandler.RegisterRoutes(r)

		notificationsHandler := notificationshandler.NewHandler(notifyService)
		notificationsHandler.RegisterRoutes(r)
	})

	app.Router = router
	return app, nil
}

func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// Run blocks serving HTTP until the listener fails.
func (a *App) Run(ctx context.Context) error {
	a.Jobs.Start(ctx)
	log.Printf("campusleave server listening on %s", a.Config.Addr)
	return http.ListenAndServe(a.Config.Addr, a.Router)
}
