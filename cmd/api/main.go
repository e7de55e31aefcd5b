package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/tci-social/backend/internal/config"
	"github.com/emilythestrangee/tci-social/backend/internal/database"
	"github.com/emilythestrangee/tci-social/backend/internal/handlers"
	"github.com/emilythestrangee/tci-social/backend/internal/middleware"
	"github.com/emilythestrangee/tci-social/backend/internal/repositories/postgres"
	"github.com/emilythestrangee/tci-social/backend/internal/server"
	"github.com/emilythestrangee/tci-social/backend/internal/services"
	"github.com/emilythestrangee/tci-social/backend/internal/session"
	"github.com/emilythestrangee/tci-social/backend/internal/storage"
	"github.com/emilythestrangee/tci-social/backend/internal/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Initialize database
	gormLevel := logger.Info
	if cfg.IsProduction() {
		gormLevel = logger.Warn
	}
	db, err := database.New(ctx, cfg.Database.DSN(), database.Options{LogLevel: gormLevel})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = redisClient.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("✅ Redis connected successfully")

	// Initialize media storage
	store, err := storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.URLPrefix)
	if err != nil {
		log.Fatalf("Failed to initialize upload directory: %v", err)
	}

	repo := postgres.NewPostgreSQLRepository(db.GetDB())
	svc := services.New(repo, store, slogLogger, validator.New())

	sessions := middleware.NewSessions(
		session.NewManager(redisClient, cfg.Session.JWTSecret, cfg.Session.TTL),
		middleware.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure},
		slogLogger,
	)

	handler := handlers.NewHandler(handlers.Dependencies{
		Feed:       svc.Feed,
		Posts:      svc.Posts,
		Engagement: svc.Engagement,
		Identity:   svc.Identity,
		Sessions:   sessions,
	}, slogLogger)

	httpServer := server.New(cfg, handler, sessions, db, slogLogger).HTTPServer()

	// Start server in a goroutine
	go func() {
		slogLogger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		log.Printf("🚀 Server starting on port %s\n", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slogLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := db.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Failed to close Redis: %v", err)
	}

	slogLogger.Info("Server exited")
}
