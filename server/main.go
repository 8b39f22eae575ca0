package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"tourbase/api/routes"
	"tourbase/internal/bookings"
	"tourbase/internal/holds"
	"tourbase/internal/notifications"
	"tourbase/internal/schedules"
	"tourbase/internal/shared/clock"
	"tourbase/internal/shared/config"
	"tourbase/internal/shared/database"
	"tourbase/internal/shared/middleware"
	"tourbase/pkg/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("Failed to initialize databases", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Booking lifecycle events go to Kafka when enabled; the engine runs
	// fine without a broker.
	var publisher bookings.EventPublisher = notifications.NoopPublisher{}
	if cfg.Kafka.Enabled {
		producer, err := notifications.NewProducer(&notifications.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			RetryMax:     3,
			Timeout:      10 * time.Second,
			RequiredAcks: sarama.WaitForAll,
		}, appLogger)
		if err != nil {
			appLogger.Error("Failed to create Kafka producer, continuing without events", slog.Any("error", err))
		} else {
			publisher = producer
			defer producer.Close()
		}
	}

	clk := clock.NewSystem()
	appRouter := routes.NewRouter(cfg, db, appLogger, clk, publisher)
	engine := setupEngine(cfg, appLogger)
	appRouter.SetupRoutes(engine)

	// Background sweep reconciles expired holds back into availability.
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	var sweeper *holds.Sweeper
	if cfg.Booking.HoldsEnabled {
		sweeper = holds.NewSweeper(appRouter.HoldService(), cfg.Booking.HoldSweepInterval, appLogger)
		sweeper.Start(sweepCtx)
		defer sweeper.Stop()
	}

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", cfg.APIVersion),
			slog.Bool("holds_enabled", cfg.Booking.HoldsEnabled),
			slog.Bool("kafka_enabled", cfg.Kafka.Enabled),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func setupEngine(cfg *config.Config, appLogger *logger.Logger) *gin.Engine {
	registerValidations()

	engine := gin.New()
	engine.Use(middleware.RequestLogger(appLogger), gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	return engine
}

// registerValidations adds the timeofday rule used by slot DTOs so malformed
// times are rejected at binding time with a field-level message.
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
			_, err := schedules.NormalizeTimeOfDay(fl.Field().String())
			return err == nil
		})
	}
}
