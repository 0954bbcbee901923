// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	_ "mangafas/docs" // swagger docs
	"mangafas/internal/cache"
	"mangafas/internal/config"
	"mangafas/internal/database"
	"mangafas/internal/middleware"
	"mangafas/internal/models"
	"mangafas/internal/notifications"
	"mangafas/internal/repository"
	"mangafas/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo         repository.UserRepository
	suspensionRepo   repository.SuspensionRepository
	commentRepo      repository.CommentRepository
	reportRepo       repository.ReportRepository
	pendingRepo      repository.PendingContentRepository
	notificationRepo repository.NotificationRepository
	catalogRepo      repository.CatalogRepository

	notifier *notifications.Notifier
	hub      *notifications.Hub

	notificationService *service.NotificationService
	suspensionService   *service.SuspensionService
	userService         *service.UserService
	moderationService   *service.ModerationService
	commentService      *service.CommentService
	reportService       *service.ReportService
	catalogService      *service.CatalogService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Initialize Redis
	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	suspensionRepo := repository.NewSuspensionRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	reportRepo := repository.NewReportRepository(db)
	pendingRepo := repository.NewPendingContentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)

	// Initialize Prometheus metrics
	prom := middleware.InitMetrics("mangafas-api")

	server := &Server{
		config:           cfg,
		db:               db,
		redis:            redisClient,
		promMiddleware:   prom,
		userRepo:         userRepo,
		suspensionRepo:   suspensionRepo,
		commentRepo:      commentRepo,
		reportRepo:       reportRepo,
		pendingRepo:      pendingRepo,
		notificationRepo: notificationRepo,
		catalogRepo:      catalogRepo,
	}

	// Initialize notifier and hub if Redis is available
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.hub = notifications.NewHub()
	}

	// Services. The suspension service sits under everything that gates on
	// suspension state; notifications fan out from most of the others.
	server.notificationService = service.NewNotificationService(
		notificationRepo, userRepo, server.notifier, cfg.NotificationInboxCap, cfg.SystemRecipientID)
	server.suspensionService = service.NewSuspensionService(
		suspensionRepo, userRepo, server.notificationService)
	server.userService = service.NewUserService(
		userRepo, suspensionRepo, catalogRepo, commentRepo, reportRepo,
		notificationRepo, server.notificationService)
	server.catalogService = service.NewCatalogService(
		catalogRepo, userRepo, server.suspensionService, cfg.ReadingHistoryCap)
	server.moderationService = service.NewModerationService(
		pendingRepo, catalogRepo, userRepo, server.suspensionService, server.notificationService)
	server.commentService = service.NewCommentService(
		commentRepo, catalogRepo, userRepo, server.suspensionService, server.notificationService)
	server.reportService = service.NewReportService(
		reportRepo, commentRepo, userRepo, server.suspensionService, server.notificationService)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Mangafas Backend Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// Public catalog routes (browse/search)
	publicManga := api.Group("/manga")
	publicManga.Get("/", s.GetMangaList)
	publicManga.Get("/search", middleware.RateLimit(
		s.redis, 10, time.Minute, "search"), s.SearchManga)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	publicManga.Get("/:id/chapters", s.GetChapters)
	publicManga.Get("/:id/comments", s.GetComments)
	publicManga.Get("/:id", s.GetManga)

	publicChapters := api.Group("/chapters")
	publicChapters.Get("/:id", s.GetChapter)

	// Public comment reads; hidden content is masked for anonymous viewers.
	publicComments := api.Group("/comments")
	publicComments.Get("/:id/replies", s.GetReplies)

	// WebSocket ticket issuance
	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	// User routes
	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Get("/me/permissions", s.GetMyPermissions)
	users.Get("/me/favorites", s.GetMyFavorites)
	users.Get("/me/history", s.GetMyHistory)
	users.Get("/", s.AdminRequired(), s.GetAllUsers)
	users.Get("/search", s.AdminRequired(), s.SearchUsers)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	users.Put("/:id/role", s.AdminRequired(), s.ChangeUserRole)
	users.Get("/:id/suspensions", s.AdminRequired(), s.GetUserSuspensions)
	users.Get("/:id", s.GetUserProfile)
	users.Delete("/:id", s.DeleteUser)

	// Suspension routes (administer capability enforced in the service too)
	suspensions := protected.Group("/suspensions", s.AdminRequired())
	suspensions.Post("/", s.IssueSuspension)
	suspensions.Post("/lift", s.LiftSuspension)
	suspensions.Get("/active", s.GetActiveSuspensions)

	// Content submission pipeline
	content := protected.Group("/content")
	content.Post("/", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "submit_content"), s.SubmitContent)
	content.Get("/pending", s.AdminRequired(), s.GetPendingContent)
	content.Get("/mine", s.GetMySubmissions)
	content.Post("/:id/approve", s.AdminRequired(), s.ApproveContent)
	content.Post("/:id/reject", s.AdminRequired(), s.RejectContent)

	// Protected catalog routes
	manga := protected.Group("/manga")
	manga.Post("/:id/favorite", s.AddFavorite)
	manga.Delete("/:id/favorite", s.RemoveFavorite)
	manga.Post("/:id/comments", middleware.RateLimit(
		s.redis, s.config.CommentRateLimit,
		time.Duration(s.config.CommentRateWindow)*time.Second, "create_comment"), s.CreateComment)

	chapters := protected.Group("/chapters")
	chapters.Post("/:id/read", s.RecordChapterRead)

	// Comment routes
	comments := protected.Group("/comments")
	comments.Get("/stats", s.ModeratorRequired(), s.GetCommentStats)
	comments.Get("/status/:status", s.ModeratorRequired(), s.GetCommentsByStatus)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	comments.Post("/:id/hide", s.ModeratorRequired(), s.HideComment)
	comments.Post("/:id/restore", s.ModeratorRequired(), s.RestoreComment)
	comments.Post("/:id/reactions", s.ReactToComment)
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)
	comments.Get("/:id", s.GetComment)

	// Report routes
	reports := protected.Group("/reports")
	reports.Post("/", middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "file_report"), s.FileReport)
	reports.Get("/", s.AdminRequired(), s.GetOpenReports)
	reports.Get("/target/:type/:targetId", s.AdminRequired(), s.GetReportsForTarget)
	reports.Post("/:id/resolve", s.AdminRequired(), s.ResolveReport)
	reports.Post("/:id/dismiss", s.AdminRequired(), s.DismissReport)

	// Notification inbox
	notificationsGroup := protected.Group("/notifications")
	notificationsGroup.Get("/", s.GetNotifications)
	notificationsGroup.Get("/unread-count", s.GetUnreadCount)
	notificationsGroup.Post("/read-all", s.MarkAllNotificationsRead)
	notificationsGroup.Post("/:id/read", s.MarkNotificationRead)

	// Websocket endpoint - protected by AuthRequired
	ws := api.Group("/ws", s.AuthRequired())
	ws.Get("/", s.WebsocketHandler()) // Real-time notifications

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/stats/users", s.GetUserStats)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is considered required for full readiness in this app
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":  overallStatus,
		"version": "1.0.0",
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects users without the administer
// capability with 403. Must be placed after AuthRequired so that userID is
// available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return s.capabilityRequired("Administrator access required",
		func(caps models.Capabilities) bool { return caps.CanAdminister })
}

// ModeratorRequired returns middleware that rejects users without the comment
// moderation capability with 403.
func (s *Server) ModeratorRequired() fiber.Handler {
	return s.capabilityRequired("Moderator access required",
		func(caps models.Capabilities) bool { return caps.CanModerateComments })
}

func (s *Server) capabilityRequired(message string, allowed func(models.Capabilities) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		user, err := s.userRepo.GetByID(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithError(c, httpStatusFor(err), err)
		}
		if !allowed(user.Permissions()) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewUnauthorizedError(message))
		}

		c.Locals("userRole", user.Role)
		return c.Next()
	}
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		isWSPath := strings.HasPrefix(path, "/api/ws")

		// 1. Try WebSocket ticket first (short-lived, single-use)
		ticket := c.Query("ticket")
		if ticket != "" && s.redis != nil {
			key := fmt.Sprintf("ws_ticket:%s", ticket)
			userIDStr, err := s.redis.Get(c.Context(), key).Result()
			if err == nil {
				userID, parseErr := strconv.ParseUint(userIDStr, 10, 32)
				if parseErr == nil {
					// Delete ticket immediately (single-use)
					s.redis.Del(c.Context(), key)

					c.Locals("userID", uint(userID))
					// Sync to UserContext for logging and downstream services
					ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
					c.SetUserContext(ctx)
					return c.Next()
				}
			}
			// If ticket was provided but invalid/expired, we fail if it's a WS path
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		// 2. Fall back to JWT (Bearer token or query param)
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Reject token in query param for WS routes (must use ticket)
		if tokenString == "" && !isWSPath {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		// Parse and validate token
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			// Validate signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		// Extract claims
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		// Validate issuer and audience
		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != "mangafas-api" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != "mangafas-client" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		// Extract user ID from subject claim
		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}

		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		// Check JTI for revocation
		if jti, exists := claims["jti"].(string); exists && jti != "" {
			if s.redis != nil {
				isBlacklisted, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
				if err == nil && isBlacklisted > 0 {
					return models.RespondWithError(c, fiber.StatusUnauthorized,
						models.NewUnauthorizedError("Token has been revoked"))
				}
			}
		}

		// Store user ID in context
		c.Locals("userID", uint(userID))
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// optionalUserID attempts to extract userID from Authorization header but does not enforce it.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false
	}

	tokenString := parts[1]
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(userID), true
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Mangafas API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Wire the notification hub to the Redis subscriber if available
	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start notification stream wiring: %v", err)
			}
		}()
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop all wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Shutdown the HTTP/WS server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close WebSocket connections gracefully
	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			log.Printf("error shutting down notification hub: %v", err)
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
