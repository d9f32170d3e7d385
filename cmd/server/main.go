package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Stewz00/myfabtotum-link/internal/config"
	"github.com/Stewz00/myfabtotum-link/internal/database"
	"github.com/Stewz00/myfabtotum-link/internal/handler"
	"github.com/Stewz00/myfabtotum-link/internal/interfaces"
	"github.com/Stewz00/myfabtotum-link/internal/logging"
	"github.com/Stewz00/myfabtotum-link/internal/middleware"
	"github.com/Stewz00/myfabtotum-link/internal/myfabtotum"
	"github.com/Stewz00/myfabtotum-link/internal/repository"
	"github.com/Stewz00/myfabtotum-link/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	ctx := context.Background()

	if err := database.Migrate(ctx, cfg.DbURL); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize database
	db, err := database.New(ctx, cfg.DbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Daemon reload signal goes over redis when configured
	var reloader interfaces.CredentialReloader
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		reloader = myfabtotum.NewRedisReloader(rdb, logger)
	} else {
		logger.Warn(ctx, "REDIS_ADDR not set, daemon reload is logged only")
		reloader = myfabtotum.NewLogReloader(logger)
	}

	// Initialize repositories, services, and handlers
	userRepo := repository.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, cfg.JwtSecret)
	linkService := service.NewAccountLinkService(
		userRepo,
		myfabtotum.NewClient(cfg.MyFabtotumURL, cfg.DeviceSerial, cfg.DeviceMAC),
		myfabtotum.NewProbe(cfg.ProbeAddr),
		reloader,
		logger,
	)

	authHandler := handler.NewAuthHandler(authService)
	fabHandler := handler.NewMyFabtotumHandler(linkService, logger)

	// Create router with middleware
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Mount("/", handler.NewRouter(authHandler, fabHandler, authService))

	// Create server with timeouts
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info(ctx, "server starting", "port", cfg.Port, "myfabtotum_url", cfg.MyFabtotumURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "server is shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info(ctx, "server exited properly")
}
