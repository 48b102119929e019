package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wrenchly/service-booking/internal/application"
	"github.com/wrenchly/service-booking/internal/auth"
	"github.com/wrenchly/service-booking/internal/config"
	"github.com/wrenchly/service-booking/internal/database"
	"github.com/wrenchly/service-booking/internal/domain/payment"
	eventConsumer "github.com/wrenchly/service-booking/internal/events/consumer"
	"github.com/wrenchly/service-booking/internal/handler"
	"github.com/wrenchly/service-booking/internal/health"
	"github.com/wrenchly/service-booking/internal/kafka"
	"github.com/wrenchly/service-booking/internal/logger"
	"github.com/wrenchly/service-booking/internal/middleware"
	"github.com/wrenchly/service-booking/internal/processor"
	"github.com/wrenchly/service-booking/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-booking")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.BookingModel{},
			&repository.ExtensionModel{},
			&repository.AssignmentModel{},
			&repository.VehicleModel{},
			&repository.PhotoModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.AccessExpiry,
		cfg.JWTConfig.RefreshExpiry,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	extensionRepo := repository.NewGormExtensionRepository(db)
	assignmentRepo := repository.NewGormAssignmentRepository(db)
	vehicleRepo := repository.NewGormVehicleRepository(db)
	photoRepo := repository.NewGormPhotoRepository(db)
	txManager := repository.NewTxManager(db)

	// Select the payment adapter
	var payments payment.AuthorizationPort
	if cfg.PaymentConfig.Mode == "processor" {
		payments = processor.NewClient(
			cfg.PaymentConfig.BaseURL,
			cfg.PaymentConfig.APIKey,
			cfg.PaymentConfig.Currency,
			cfg.PaymentConfig.Timeout,
			log,
		)
		log.Info("payment processor client configured", zap.String("base_url", cfg.PaymentConfig.BaseURL))
	} else {
		payments = processor.NewSimulator(cfg.PaymentConfig.Currency)
		log.Info("payment simulator configured")
	}

	// Initialize application services
	extensionService := application.NewExtensionService(
		extensionRepo,
		bookingRepo,
		payments,
		txManager,
		kafkaProducer,
		log,
	)
	bookingService := application.NewBookingService(
		bookingRepo,
		vehicleRepo,
		assignmentRepo,
		payments,
		extensionService,
		txManager,
		kafkaProducer,
		log,
	)
	vehicleService := application.NewVehicleService(vehicleRepo, log)
	photoService := application.NewPhotoService(photoRepo, log)
	assignmentService := application.NewAssignmentService(assignmentRepo, log)

	// Initialize and start payment event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
	paymentConsumer := eventConsumer.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		bookingService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	extensionHandler := handler.NewExtensionHandler(extensionService)
	vehicleHandler := handler.NewVehicleHandler(vehicleService)
	photoHandler := handler.NewPhotoHandler(photoService)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService)
	adminHandler := handler.NewAdminBookingHandler(bookingService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-booking")
	healthHandler.RegisterRoutes(router)

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	extensionHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	vehicleHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	photoHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	assignmentHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
