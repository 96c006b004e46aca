package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/BradenHooton/vitrine/internal/auth"
	"github.com/BradenHooton/vitrine/internal/background"
	"github.com/BradenHooton/vitrine/internal/config"
	"github.com/BradenHooton/vitrine/internal/database"
	"github.com/BradenHooton/vitrine/internal/handlers"
	middlewareCustom "github.com/BradenHooton/vitrine/internal/middleware"
	"github.com/BradenHooton/vitrine/internal/models"
	"github.com/BradenHooton/vitrine/internal/repositories"
	"github.com/BradenHooton/vitrine/internal/routes"
	"github.com/BradenHooton/vitrine/internal/services"
	"github.com/BradenHooton/vitrine/internal/throttle"
	pkgauth "github.com/BradenHooton/vitrine/pkg/auth"
	pkghttp "github.com/BradenHooton/vitrine/pkg/http"
	pkglogger "github.com/BradenHooton/vitrine/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		err := database.Migrate(ctx, cfg.Database.DSN(), logger)
		cancel()
		if err != nil {
			logger.Error("failed to run database migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Initialize database
	connectCtx, connectCancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := database.NewConnection(connectCtx, &cfg.Database, logger)
	connectCancel()
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	loginAttemptRepo := repositories.NewLoginAttemptRepository(db)
	auditLogRepo := repositories.NewAuditLogRepository(db)

	// Bootstrap first admin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, userRepo, cfg.Admin, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Login throttle, one per process
	tracker := throttle.NewTracker(throttle.Config{
		MaxAttempts:  cfg.Throttle.MaxAttempts,
		InitialDelay: cfg.Throttle.InitialDelay,
		MaxDelay:     cfg.Throttle.MaxDelay,
		MaxTier:      cfg.Throttle.MaxTier,
		IdleTTL:      cfg.Throttle.IdleTTL,
	})
	throttleCfg := tracker.Config()
	logger.Info("login throttle configured",
		slog.Int("max_attempts", throttleCfg.MaxAttempts),
		slog.Duration("initial_delay", throttleCfg.InitialDelay),
		slog.Duration("max_delay", throttleCfg.MaxDelay))

	cleanupManager := background.NewCleanupManager(
		tracker,
		loginAttemptRepo,
		auditLogRepo,
		cfg.Throttle.AuditRetention,
		logger,
		cfg.Throttle.SweepInterval,
	)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:    cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs:  cfg.Auth.TimingDelayRandomMs,
		DelayOnSuccess: cfg.Auth.TimingDelayOnSuccess,
	})

	notifier, err := newLockoutNotifier(cfg.Email, userRepo, logger)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	auditService := services.NewAuditService(auditLogRepo, pkglogger.NewAuditLogger(logger), logger)
	attemptService := services.NewAttemptService(tracker, loginAttemptRepo, auditService, notifier, cfg.Throttle.HistoryRetention, logger)
	verifier := services.NewPasswordVerifier(userRepo, logger)
	authService := services.NewAuthService(verifier, attemptService, tokenManager, timingDelay, auditService, logger)

	// Initialize handlers
	ipConfig, err := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error("invalid TRUSTED_PROXIES", slog.Any("error", err))
		os.Exit(1)
	}
	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	adminHandler := handlers.NewAdminHandler(attemptService, auditService, logger)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Setup router. Client IPs come from ExtractClientIP, which only trusts
	// forwarding headers from TRUSTED_PROXIES, so chi's RealIP is not used.
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	routes.RegisterRoutes(router, authHandler, adminHandler, auditHandler, tokenManager, userRepo, routes.Options{
		IPConfig:                ipConfig,
		LoginRequestsPerMinute:  cfg.Auth.LoginRequestsPerMinute,
		StatusRequestsPerMinute: cfg.Auth.StatusRequestsPerMinute,
		AdminRequestsPerMinute:  cfg.Auth.AdminRequestsPerMinute,
	})

	// Health check with database and throttle state
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		dbHealth := db.Health(r.Context())
		resp := map[string]any{
			"status":           "healthy",
			"database":         dbHealth,
			"throttle_records": tracker.Len(),
		}
		if !dbHealth.Up() {
			resp["status"] = "unhealthy"
			pkghttp.WriteJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		pkghttp.WriteJSON(w, http.StatusOK, resp)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLockoutNotifier returns the SES notifier when email is enabled and a
// log-only notifier otherwise
func newLockoutNotifier(cfg config.EmailConfig, users services.UserRepository, logger *slog.Logger) (services.LockoutNotifier, error) {
	if !cfg.Enabled {
		logger.Info("email disabled, lockout notices are only logged")
		return services.NewLogLockoutNotifier(logger), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notifier, err := services.NewSESLockoutNotifier(ctx, cfg.AWSRegion, cfg.FromAddress, cfg.DashboardURL, users, logger)
	if err != nil {
		return nil, err
	}
	return notifier, nil
}

// ensureAdminUser creates or promotes the admin account named by ADMIN_EMAIL
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, cfg config.AdminConfig, logger *slog.Logger) error {
	if cfg.Email == "" || cfg.Password == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	if err := pkgauth.ValidateAdminPassword(cfg.Password, cfg.Email); err != nil {
		return fmt.Errorf("admin password rejected: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	created, err := userRepo.EnsureAdmin(ctx, &models.User{
		Email:        throttle.NormalizeIdentity(cfg.Email),
		PasswordHash: hashedPassword,
		Name:         "Admin",
		Role:         models.RoleAdmin,
		Status:       models.StatusActive,
	})
	if err != nil {
		return err
	}

	if created {
		logger.Info("admin user created successfully")
	} else {
		logger.Info("admin user already exists")
	}
	return nil
}
