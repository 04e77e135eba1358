// Package server provides HTTP server setup and configuration.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/RanaPoddar/gcs-service/internal/auth"
	"github.com/RanaPoddar/gcs-service/internal/config"
	"github.com/RanaPoddar/gcs-service/internal/drone"
	"github.com/RanaPoddar/gcs-service/internal/flightlog"
	"github.com/RanaPoddar/gcs-service/internal/handlers"
	"github.com/RanaPoddar/gcs-service/internal/middleware"
	"github.com/RanaPoddar/gcs-service/internal/notify"
)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check if request ID already exists in header
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			// Generate new UUID for request ID
			requestID = uuid.New().String()
		}

		// Set request ID in context and response header
		c.Set("RequestID", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

// NewRateLimitMiddleware creates a rate limiting middleware using ulule/limiter.
// It allows 100 requests per minute per IP address.
func NewRateLimitMiddleware() gin.HandlerFunc {
	// Define rate: 100 requests per 1 minute
	rate := limiter.Rate{
		Period: 1 * time.Minute,
		Limit:  100,
	}

	// Create in-memory store
	store := memory.NewStore()

	// Create rate limiter instance
	instance := limiter.New(store, rate)

	// Create and return Gin middleware
	middleware := mgin.NewMiddleware(instance)

	return middleware
}

// Dependencies holds all dependencies needed to create a server
type Dependencies struct {
	Config        *config.Config
	Registry      *drone.Registry
	Fleet         *config.Fleet       // Optional: nil without a fleet file
	Hub           *notify.Hub         // Optional: nil disables the events endpoint
	Sink          notify.Sink         // Event fan-out handed to new connections
	FlightLogRepo flightlog.Repository // Optional: nil without a database
}

// New creates a new Gin router with all routes configured
func New(deps *Dependencies) *gin.Engine {
	// Set Gin to release mode to disable ANSI colors in logs
	gin.SetMode(gin.ReleaseMode)

	// Use gin.New() instead of gin.Default() to have explicit control over middleware
	// gin.Default() includes colored logging which contaminates HTTP responses with ANSI codes
	router := gin.New()

	// Add recovery middleware (without colored output)
	router.Use(gin.Recovery())

	// Add logger middleware without colored output
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(_ gin.LogFormatterParams) string {
			// Custom log format without ANSI color codes
			return ""
		},
		Output:    nil,                        // Disable output to prevent any log contamination
		SkipPaths: []string{"/api/v1/health"}, // Skip health check logging
	}))

	// Add CORS middleware for the dashboard
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Encoding", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Add middlewares
	router.Use(RequestIDMiddleware())
	router.Use(NewRateLimitMiddleware())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithDecompressFn(gzip.DefaultDecompressHandle)))

	sink := deps.Sink
	if sink == nil {
		sink = notify.NewConsoleSink()
	}

	// Initialize handlers
	droneHandler := handlers.NewDroneHandler(deps.Registry, deps.Fleet, deps.Config.Fleet, sink)
	commandHandler := handlers.NewCommandHandler(deps.Registry)
	missionHandler := handlers.NewMissionHandler(deps.Registry)
	surveyHandler := handlers.NewSurveyHandler()

	// Control endpoints require the operator token only when auth is
	// enabled; bench setups run open.
	protect := func(c *gin.Context) { c.Next() }
	var authRateLimiter gin.HandlerFunc
	var authHandler *handlers.AuthHandler
	if deps.Config.Auth.Enabled {
		jwtService := auth.NewJWTService(
			deps.Config.Auth.JWTSecret,
			deps.Config.Auth.JWTAccessTokenTTL,
		)
		authMiddleware := middleware.NewAuthMiddleware(jwtService)
		protect = authMiddleware.Required()
		authRateLimiter = middleware.NewAuthRateLimitMiddleware()
		authHandler = handlers.NewAuthHandler(
			jwtService,
			deps.Config.Auth.OperatorUser,
			deps.Config.Auth.OperatorPasswordHash,
		)
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint for network quality detection
		v1.GET("/health", func(c *gin.Context) {
			c.PureJSON(http.StatusOK, gin.H{
				"status":    "healthy",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
				"version":   "1.0.0",
			})
		})

		// Auth routes (with stricter rate limiting)
		if authHandler != nil {
			authGroup := v1.Group("/auth")
			authGroup.Use(authRateLimiter)
			{
				authGroup.POST("/login", authHandler.Login)
			}
		}

		// Vehicle listing and per-drone surface
		v1.GET("/drones", droneHandler.List)

		d := v1.Group("/drone/:id")
		{
			// Read-only state
			d.GET("/telemetry", droneHandler.Telemetry)
			d.GET("/status", droneHandler.Status)
			d.GET("/mission/status", missionHandler.Status)

			// Control endpoints
			d.POST("/connect", protect, droneHandler.Connect)
			d.POST("/disconnect", protect, droneHandler.Disconnect)
			d.POST("/arm", protect, commandHandler.Arm)
			d.POST("/disarm", protect, commandHandler.Disarm)
			d.POST("/mode", protect, commandHandler.SetMode)
			d.POST("/takeoff", protect, commandHandler.Takeoff)
			d.POST("/land", protect, commandHandler.Land)
			d.POST("/rtl", protect, commandHandler.RTL)
			d.POST("/goto", protect, commandHandler.Goto)
			d.POST("/mission/upload", protect, missionHandler.Upload)
			d.POST("/mission/start", protect, missionHandler.Start)
			d.POST("/mission/pause", protect, missionHandler.Pause)
			d.POST("/mission/resume", protect, missionHandler.Resume)
			d.POST("/mission/stop", protect, missionHandler.Stop)

			// Flight history
			if deps.FlightLogRepo != nil {
				d.GET("/flightlog", handlers.NewFlightLogHandler(deps.FlightLogRepo).Get)
			}
		}

		// Survey planning
		v1.POST("/survey/plan", protect, surveyHandler.Plan)

		// Dashboard event stream
		if deps.Hub != nil {
			v1.GET("/events", handlers.EventsHandler(deps.Hub))
		}
	}

	return router
}
