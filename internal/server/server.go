package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/tci-social/backend/internal/config"
	"github.com/emilythestrangee/tci-social/backend/internal/handlers"
	"github.com/emilythestrangee/tci-social/backend/internal/middleware"
)

// maxRequestBody covers six 10 MiB attachments plus form overhead.
const maxRequestBody = 100 << 20

// HealthChecker reports database health; database.Service satisfies it.
type HealthChecker interface {
	Health() map[string]string
}

type Server struct {
	cfg      *config.Config
	handler  *handlers.Handler
	sessions *middleware.Sessions
	health   HealthChecker
	logger   *slog.Logger
}

func New(cfg *config.Config, handler *handlers.Handler, sessions *middleware.Sessions, health HealthChecker, logger *slog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		handler:  handler,
		sessions: sessions,
		health:   health,
		logger:   logger,
	}
}

// HTTPServer wraps the router in a configured http.Server
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.MaxMultipartMemory = 32 << 20

	r.Use(
		middleware.RequestID(),
		middleware.Recovery(s.logger),
		middleware.RequestLogger(s.logger),
	)

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Content-Type", "X-Requested-With", middleware.CSRFHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.SecurityHeaders())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "code": "not_found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed", "code": "method_not_allowed"})
	})

	// Uploaded media, read-only
	r.Static(s.cfg.Upload.URLPrefix, s.cfg.Upload.Dir)

	// Health check endpoint
	r.GET("/health", s.healthHandler)

	// API routes
	api := r.Group("/api")
	api.Use(middleware.BodyLimit(maxRequestBody), s.sessions.Load())
	{
		h := s.handler

		api.GET("/csrf", h.Auth.CSRFToken)

		// Public reads
		api.GET("/feed", h.Post.GetFeed)
		api.GET("/posts/:id", h.Post.GetPost)
		api.GET("/posts/:id/comments", h.Comment.GetComments)
		api.GET("/users/:id", h.User.GetUserProfile)

		// Auth routes (public, anti-forgery token still required)
		public := api.Group("")
		public.Use(middleware.RequireCSRF())
		{
			public.POST("/register", h.Auth.Register)
			public.POST("/login", h.Auth.Login)
		}

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.RequireAuth())
		{
			protected.GET("/me", h.Auth.GetMe)

			mutations := protected.Group("")
			mutations.Use(middleware.RequireCSRF())
			{
				mutations.POST("/logout", h.Auth.Logout)
				mutations.POST("/posts", h.Post.CreatePost)
				mutations.DELETE("/posts/:id", h.Post.DeletePost)
				mutations.POST("/likes", h.Post.ToggleLike)
				mutations.POST("/comments", h.Comment.CreateComment)
				mutations.POST("/profile", h.User.UpdateProfile)
			}
		}
	}

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	stats := s.health.Health()
	if stats["status"] != "up" {
		s.logger.WarnContext(c.Request.Context(), "Health check failed", "error", stats["error"])
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
}
