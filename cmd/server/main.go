// Command server runs the storefront HTTP API.
//
// @title                       Storefront API
// @version                     1.0
// @description                 Storefront and admin back-office with session-based authentication and role-gated routes.
// @BasePath                    /
// @securityDefinitions.apikey  SessionCookie
// @in                          cookie
// @name                        session
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/storefront/internal/api"
	"github.com/99minutos/storefront/internal/api/handler"
	"github.com/99minutos/storefront/internal/api/metrics"
	"github.com/99minutos/storefront/internal/core/ports"
	"github.com/99minutos/storefront/internal/core/service"
	mongostore "github.com/99minutos/storefront/internal/infrastructure/db/mongo"
	"github.com/99minutos/storefront/internal/infrastructure/db/postgres"
	redisstore "github.com/99minutos/storefront/internal/infrastructure/db/redis"
	"github.com/99minutos/storefront/internal/infrastructure/queue"
	"github.com/99minutos/storefront/internal/pkg/config"
	"github.com/99minutos/storefront/pkg/logger"
)

type stores struct {
	users      ports.UserRepository
	categories ports.CategoryRepository
	audit      ports.AuditRepository
	checks     map[string]handler.Check
	close      func()
}

func main() {
	cfg := config.Load()
	log := logger.Init(logger.ForEnv(cfg.Env, cfg.LogLevel, "storefront"))

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("storefront exited")
		os.Exit(1)
	}
}

// run owns every resource so deferred cleanup, including the audit drain,
// happens on both shutdown and failure.
func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer st.close()

	// --- Sessions, gate and guard ---
	issuer, err := service.NewSessionIssuer(cfg.Session.Secret, cfg.Session.TTL, service.WithIssuerName(cfg.Session.Issuer))
	if err != nil {
		return fmt.Errorf("session issuer: %w", err)
	}
	rules, err := service.ParseGateRules(cfg.Gate.ProtectedRoutes)
	if err != nil {
		return fmt.Errorf("PROTECTED_ROUTES: %w", err)
	}
	gate, err := service.NewGate(rules, cfg.Gate.LoginPath, cfg.Gate.DeniedPath)
	if err != nil {
		return fmt.Errorf("gate: %w", err)
	}
	guard := service.NewGuard(issuer, cfg.Gate.LoginPath, cfg.Gate.DeniedPath)
	hasher := service.NewPasswordHasher()

	// --- Audit trail ---
	auditSvc := service.NewAuditService(st.audit, guard, log)
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditSvc, log, queue.OnDrop(func() {
		metrics.AuditEventsDroppedTotal.Inc()
	}))
	// workers outlive the signal context so Close can drain pending events
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Close()

	// --- Login throttling (optional) ---
	authOpts := []service.AuthOption{service.WithAuditSink(dispatcher)}
	if cfg.ThrottleLogins() {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, login throttling disabled")
		} else {
			defer rdb.Close()
			authOpts = append(authOpts, service.WithLoginLimiter(redisstore.NewLoginLimiter(rdb, cfg.Login.MaxAttempts, cfg.Login.Window)))
			st.checks["redis"] = redisstore.Ping(rdb)
			log.Info().Int("max_attempts", cfg.Login.MaxAttempts).Dur("window", cfg.Login.Window).Msg("login throttling enabled")
		}
	}

	authSvc, err := service.NewAuthService(st.users, hasher, issuer, log, authOpts...)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}
	userSvc := service.NewUserService(st.users, hasher, guard, dispatcher, log)
	categorySvc := service.NewCategoryService(st.categories, guard, dispatcher, log)

	if cfg.Bootstrap.AdminEmail != "" {
		admin, err := userSvc.Bootstrap(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap super admin: %w", err)
		}
		log.Info().Str("user_id", admin.ID).Msg("super admin bootstrapped")
	}

	e, err := api.NewRouter(api.Deps{
		Log:        log,
		Auth:       authSvc,
		Users:      userSvc,
		Categories: categorySvc,
		Audit:      auditSvc,
		Sessions:   issuer,
		Gate:       gate,
		Guard:      guard,
		Cookie:     handler.CookieConfig{Name: cfg.Session.Cookie, Secure: cfg.CookieSecure()},
		Checks:     st.checks,
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("driver", cfg.Store.Driver).Msg("storefront starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		log.Info().Msg("storefront stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		store, err := mongostore.Open(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		db := store.DB()
		return &stores{
			users:      mongostore.NewUserRepository(db),
			categories: mongostore.NewCategoryRepository(db),
			audit:      mongostore.NewAuditRepository(db),
			checks:     map[string]handler.Check{"mongo": store.Ping},
			close: func() {
				if err := store.Close(); err != nil {
					log.Error().Err(err).Msg("mongo disconnect failed")
				}
			},
		}, nil

	default:
		pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Store.DatabaseURL})
		if err != nil {
			return nil, err
		}
		if cfg.Store.MigrateOnStart {
			migrator, err := postgres.NewMigrator(pool, log)
			if err != nil {
				pool.Close()
				return nil, err
			}
			if err := migrator.Up(ctx); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &stores{
			users:      postgres.NewUserRepository(pool),
			categories: postgres.NewCategoryRepository(pool),
			audit:      postgres.NewAuditRepository(pool),
			checks: map[string]handler.Check{
				"postgres": pool.Ping,
			},
			close: pool.Close,
		}, nil
	}
}
