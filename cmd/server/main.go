package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forgo/ludoteca/api/internal/config"
	"github.com/forgo/ludoteca/api/internal/database"
	"github.com/forgo/ludoteca/api/internal/handler"
	"github.com/forgo/ludoteca/api/internal/jobs"
	"github.com/forgo/ludoteca/api/internal/metrics"
	"github.com/forgo/ludoteca/api/internal/middleware"
	"github.com/forgo/ludoteca/api/internal/model"
	"github.com/forgo/ludoteca/api/internal/repository"
	"github.com/forgo/ludoteca/api/internal/service"
	"github.com/forgo/ludoteca/api/migrations"
	"github.com/forgo/ludoteca/api/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	level := slog.LevelInfo
	if cfg.IsDevelopment() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,

		ConnectRetries: cfg.Database.ConnectRetries,
		SlowQuery:      cfg.Database.SlowQuery,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("namespace", cfg.Database.Namespace),
	)

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, db, migrations.FS); err != nil {
			slog.Error("failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Metrics live on a private registry so /metrics only shows what we register
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	rentalMetrics := metrics.NewRentalMetrics(registry)
	jobMetrics := metrics.NewJobMetrics(registry)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	centerRepo := repository.NewCenterRepository(db)
	gameRepo := repository.NewGameRepository(db)
	instanceRepo := repository.NewInstanceRepository(db)
	rentalRepo := repository.NewRentalRepository(db)

	// Initialize services
	tokenService := service.NewTokenService(service.TokenServiceConfig{
		JWTService:      jwtService,
		TokenRepo:       tokenRepo,
		RefreshDuration: cfg.RefreshTokenTTL(),
	})
	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:     userRepo,
		TokenService: tokenService,
	})
	adminUsersService := service.NewAdminUsersService(userRepo, centerRepo)
	centerService := service.NewCenterService(centerRepo, userRepo)
	catalogService := service.NewCatalogService(gameRepo, centerRepo)
	inventoryService := service.NewInventoryService(instanceRepo, gameRepo)
	rentalService := service.NewRentalService(service.RentalServiceConfig{
		RentalRepo:   rentalRepo,
		InstanceRepo: instanceRepo,
		CenterRepo:   centerRepo,
		Recorder:     rentalMetrics,
		LoanPeriod:   cfg.LoanPeriod(),
		MaxOpen:      cfg.Rental.MaxActivePerUser,
		PendingTTL:   cfg.Rental.PendingTTL,
	})
	statsService := service.NewStatsService(userRepo, centerRepo, gameRepo, instanceRepo, rentalRepo)

	// Bootstrap the first administrator
	if created, err := service.EnsureAdmin(ctx, userRepo, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		slog.Error("failed to bootstrap admin", slog.String("error", err.Error()))
		os.Exit(1)
	} else if created {
		slog.Info("bootstrap admin created", slog.String("email", cfg.Bootstrap.AdminEmail))
	}

	// Start background jobs
	rentalExpiry := jobs.NewRentalExpiryJob(rentalService, jobMetrics, cfg.Jobs.RentalExpiryInterval)
	rentalExpiry.Start()
	defer rentalExpiry.Stop()

	tokenCleanup, err := jobs.NewTokenCleanupJob(tokenRepo, jobMetrics, cfg.Jobs.TokenCleanupSchedule)
	if err != nil {
		slog.Error("failed to create token cleanup job", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := tokenCleanup.Start(); err != nil {
		slog.Error("failed to start token cleanup job", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer tokenCleanup.Stop()

	// Initialize rate limiter and idempotency store
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RPS:   cfg.RateLimit.RPS,
		Burst: cfg.RateLimit.Burst,
	})
	defer rateLimiter.Stop()

	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
		TTL: cfg.Server.IdempotencyTTL,
	})
	defer idempotencyStore.Stop()

	// Route guards. Idempotency runs after Auth so replays are keyed per user.
	authMiddleware := middleware.Auth(tokenService)
	idempotent := middleware.Idempotency(idempotencyStore)
	guard := func(roles ...model.UserRole) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return middleware.Chain(next, authMiddleware, middleware.RequireRole(roles...), idempotent)
		}
	}
	userMiddleware := guard(model.UserRoleUser, model.UserRoleCoordinator, model.UserRoleSuperCoordinator, model.UserRoleAdmin)
	coordinatorMiddleware := guard(model.UserRoleCoordinator)
	catalogMiddleware := guard(model.UserRoleCoordinator, model.UserRoleAdmin)
	superMiddleware := guard(model.UserRoleSuperCoordinator, model.UserRoleAdmin)
	adminMiddleware := guard(model.UserRoleAdmin)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db)
	authHandler := handler.NewAuthHandler(authService)
	publicHandler := handler.NewPublicHandler(centerService, catalogService)
	rentalHandler := handler.NewRentalHandler(rentalService)
	coordinatorHandler := handler.NewCoordinatorHandler(centerService, inventoryService, rentalService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	centerHandler := handler.NewCenterHandler(centerService, adminUsersService, rentalService)
	adminUsersHandler := handler.NewAdminUsersHandler(adminUsersService)
	statsHandler := handler.NewStatsHandler(statsService)

	// Setup router
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	authHandler.RegisterRoutes(mux, userMiddleware)
	publicHandler.RegisterRoutes(mux)
	rentalHandler.RegisterUserRoutes(mux, userMiddleware)
	coordinatorHandler.RegisterRoutes(mux, coordinatorMiddleware)
	catalogHandler.RegisterCoordinatorRoutes(mux, catalogMiddleware)
	centerHandler.RegisterSuperRoutes(mux, superMiddleware)
	statsHandler.RegisterSuperRoutes(mux, superMiddleware)

	centerHandler.RegisterAdminRoutes(mux, adminMiddleware)
	catalogHandler.RegisterAdminRoutes(mux, adminMiddleware)
	adminUsersHandler.RegisterRoutes(mux, adminMiddleware)
	rentalHandler.RegisterAdminRoutes(mux, adminMiddleware)
	statsHandler.RegisterAdminRoutes(mux, adminMiddleware)

	// Apply global middleware. Metrics wraps the mux directly so the matched
	// route pattern is visible.
	wrapped := middleware.Chain(
		httpMetrics.Middleware(mux),
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.BodyLimit(cfg.Server.MaxBodyBytes),
		middleware.RateLimit(rateLimiter, tokenService),
		middleware.Compress,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}
