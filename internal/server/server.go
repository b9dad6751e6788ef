// Package server contains the HTTP handlers of the posts manager API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	_ "postsmanager/docs" // swagger docs
	"postsmanager/internal/cache"
	"postsmanager/internal/config"
	"postsmanager/internal/featureflags"
	"postsmanager/internal/gateway"
	"postsmanager/internal/middleware"
	"postsmanager/internal/models"
	"postsmanager/internal/observability"
	"postsmanager/internal/query"
	"postsmanager/internal/service"
	"postsmanager/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
)

const (
	serviceName = "postsmanager"
	// globalRateLimit is the per-IP request budget per minute.
	globalRateLimit = 300
)

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	redis           *redis.Client
	promMiddleware  *fiberprometheus.FiberPrometheus
	shutdownTracing func(context.Context) error
	cache           *cache.Cache
	gateway         *gateway.Client
	featureFlags    *featureflags.Manager
	sessions        *session.Manager
	reader          *query.Reader
	postService     *service.PostService
	commentService  *service.CommentService
	userService     *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	// Redis is optional: without it cached reads stay in-process.
	redisClient := cache.NewRedisClient(cfg.RedisURL)

	server, err := NewServerWithDeps(cfg, redisClient)
	if err != nil {
		return nil, err
	}
	server.shutdownTracing = shutdownTracing
	return server, nil
}

// NewServerWithDeps creates a Server using an already-initialized Redis client (nil for none).
// Use this in tests or when a bootstrap layer establishes Redis.
func NewServerWithDeps(cfg *config.Config, redisClient *redis.Client) (*Server, error) {
	// Gateway and service logs go through the request-aware logger.
	observability.SetLogger(middleware.Logger)

	store, err := cache.NewStore(redisClient, cfg.LocalCacheSize)
	if err != nil {
		return nil, fmt.Errorf("cache init failed: %w", err)
	}
	readCache := cache.New(store)
	gw := gateway.New(cfg.APIBaseURL, cfg.UpstreamTimeout())
	flags := featureflags.NewManager(cfg.FeatureFlags)

	server := &Server{
		config:         cfg,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(serviceName),
		cache:          readCache,
		gateway:        gw,
		featureFlags:   flags,
		sessions:       session.NewManager(cfg.MaxSessions, cfg.SessionTTL()),
		reader:         query.NewReader(gw, readCache, cfg.CacheTTL(), flags),
		postService:    service.NewPostService(gw, readCache),
		commentService: service.NewCommentService(gw, readCache, cfg.CacheTTL()),
		userService:    service.NewUserService(gw, readCache, cfg.CacheTTL(), cfg.TagsCacheTTL()),
	}

	observability.GlobalLogger.Info("server ready", "cache", readCache.Backend(), "upstream", gw.BaseURL())
	return server, nil
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Posts Manager API",
		BodyLimit: 1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code := models.CodeInternal
				switch fe.Code {
				case fiber.StatusNotFound:
					code = models.CodeNotFound
				case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusMethodNotAllowed:
					code = models.CodeValidation
				}
				return models.RespondWithError(c, fe.Code, &models.AppError{Code: code, Message: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err.Error())
			var appErr *models.AppError
			if !errors.As(err, &appErr) {
				err = models.NewInternalError(err)
			}
			return respondError(c, err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		MaxAge:       86400,
	}))

	// Global rate limiting (per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        globalRateLimit,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				&models.AppError{Code: models.CodeRateLimited, Message: "Too many requests, please try again later."})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Posts Manager Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Page sessions
	sessions := api.Group("/sessions")
	sessions.Post("/", s.CreateSession)
	sessions.Get("/:id/posts", s.GetSessionPosts)
	sessions.Patch("/:id/filter", s.UpdateSessionFilter)
	sessions.Post("/:id/page/next", s.NextPage)
	sessions.Post("/:id/page/prev", s.PrevPage)
	sessions.Get("/:id", s.GetSession)
	sessions.Delete("/:id", s.DeleteSession)

	// Posts
	posts := api.Group("/posts")
	posts.Post("/", middleware.RateLimit(s.redis, 20, time.Minute, "create_post"), s.CreatePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	// Comments
	comments := api.Group("/comments")
	comments.Post("/", middleware.RateLimit(s.redis, 30, time.Minute, "create_comment"), s.CreateComment)
	comments.Post("/:id/like", middleware.RateLimit(s.redis, 60, time.Minute, "like_comment"), s.LikeComment)
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	api.Get("/tags", s.GetTags)
	api.Get("/users/:id", s.GetUser)
	api.Get("/feature-flags", s.GetFeatureFlags)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. The remote API is probed through
// the cached tag list so a healthy instance does not hit it on every probe.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	upstreamStatus := "healthy"
	if _, err := s.userService.ListTags(ctx); err != nil {
		upstreamStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if redisStatus == "unhealthy" || upstreamStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"service": serviceName,
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"redis":    redisStatus,
			"upstream": upstreamStatus,
			"cache":    s.cache.Backend(),
			"sessions": s.sessions.Len(),
		},
		"time": time.Now(),
	})
}

// GetFeatureFlags handles GET /api/feature-flags
// @Summary Feature flags
// @Description Configured feature flags and their evaluation for a page session.
// @Tags meta
// @Produce json
// @Param session query string false "Page session ID"
// @Success 200 {object} object{flags=map[string]string,enabled=map[string]bool}
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"flags":   s.featureFlags.Raw(),
		"enabled": s.featureFlags.Snapshot(c.Query("session")),
	})
}

// Shutdown releases server resources. The Fiber app is shut down by its owner.
func (s *Server) Shutdown(ctx context.Context) error {
	// Abandon every in-flight session read.
	s.sessions.Purge()

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	if s.shutdownTracing != nil {
		if err := s.shutdownTracing(ctx); err != nil {
			log.Printf("error shutting down tracing: %v", err)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
