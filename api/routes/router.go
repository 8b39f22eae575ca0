package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tourbase/internal/availability"
	"tourbase/internal/bookings"
	"tourbase/internal/holds"
	"tourbase/internal/orders"
	"tourbase/internal/schedules"
	"tourbase/internal/shared/clock"
	"tourbase/internal/shared/config"
	"tourbase/internal/shared/database"
	"tourbase/internal/shared/middleware"
	"tourbase/pkg/cache"
	"tourbase/pkg/logger"
	"tourbase/pkg/ratelimit"
)

// Router holds all route dependencies
type Router struct {
	config *config.Config
	db     *database.DB
	log    *logger.Logger
	clk    clock.Clock
	events bookings.EventPublisher

	limiter *ratelimit.RateLimiter

	// wired during setup, reused by the hold sweeper
	holdService holds.Service
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, log *logger.Logger, clk clock.Clock, events bookings.EventPublisher) *Router {
	return &Router{
		config: cfg,
		db:     db,
		log:    log,
		clk:    clk,
		events: events,
	}
}

// HoldService exposes the wired hold service so main can start the sweeper.
func (r *Router) HoldService() holds.Service {
	return r.holdService
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	if r.config.RateLimit.Enabled {
		r.limiter = ratelimit.NewRateLimiter(r.db.GetRedisClient(), &ratelimit.Config{
			Enabled:         r.config.RateLimit.Enabled,
			WindowDuration:  r.config.RateLimit.WindowDuration,
			DefaultRequests: r.config.RateLimit.DefaultRequests,
			PublicRequests:  r.config.RateLimit.PublicRequests,
			BookingRequests: r.config.RateLimit.BookingRequests,
			AdminRequests:   r.config.RateLimit.AdminRequests,
			WhitelistedIPs:  r.config.RateLimit.WhitelistedIPs,
		})
	}

	// Shared engine plumbing. The availability cache is the only read cache
	// and every mutation path invalidates it.
	scheduleRepo := schedules.NewRepository(r.db.GetPostgreSQL())
	holdRepo := holds.NewRepository(r.db.GetPostgreSQL())
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())

	availCache := availability.NewCache(
		cache.NewService(r.db.GetRedisClient()),
		r.config.Redis.AvailabilityCacheTTL,
		r.log,
	)
	resolver := availability.NewResolver(scheduleRepo, scheduleRepo, bookingRepo, holdRepo, availCache, r.clk)

	scheduleService := schedules.NewService(scheduleRepo, availCache)
	r.holdService = holds.NewService(holdRepo, resolver, availCache, r.clk, r.config.Booking, r.log)
	orderAdapter := orders.NewAdapter(r.db.GetPostgreSQL())
	bookingService := bookings.NewService(bookingRepo, resolver, holdRepo, orderAdapter, availCache, r.events, r.clk, r.config.Booking, r.log)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		public := api.Group("")
		public.Use(middleware.RateLimit(r.limiter, ratelimit.RateLimitTypePublic))
		{
			availController := availability.NewController(resolver)
			availability.SetupAvailabilityRoutes(public, availController)
		}

		booking := api.Group("")
		booking.Use(middleware.RateLimit(r.limiter, ratelimit.RateLimitTypeBooking))
		{
			holdController := holds.NewController(r.holdService, r.clk)
			holds.SetupHoldRoutes(booking, holdController)

			bookingController := bookings.NewController(bookingService)
			bookings.SetupBookingRoutes(booking, bookingController, r.config)
		}

		admin := api.Group("")
		admin.Use(middleware.RateLimit(r.limiter, ratelimit.RateLimitTypeAdmin))
		{
			scheduleController := schedules.NewController(scheduleService)
			schedules.SetupScheduleRoutes(admin, scheduleController, r.config)
		}
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "tourbase",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "tourbase",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}
