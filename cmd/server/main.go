package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/roomdesk/service-reservation/internal/application"
	"github.com/roomdesk/service-reservation/internal/config"
	reservationDomain "github.com/roomdesk/service-reservation/internal/domain/reservation"
	reservationEvents "github.com/roomdesk/service-reservation/internal/events"
	"github.com/roomdesk/service-reservation/internal/handler"
	"github.com/roomdesk/service-reservation/internal/repository"
	"github.com/roomdesk/service-reservation/pkg/auth"
	"github.com/roomdesk/service-reservation/pkg/database"
	"github.com/roomdesk/service-reservation/pkg/health"
	"github.com/roomdesk/service-reservation/pkg/kafka"
	"github.com/roomdesk/service-reservation/pkg/logger"
	"github.com/roomdesk/service-reservation/pkg/middleware"
)

const serviceName = "service-reservation"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.RoomModel{}, &repository.UserModel{}, &repository.ReservationModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize auth
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL)
	hasher := auth.NewBcryptHasher(0)

	// Initialize Kafka producer
	var publisher application.EventPublisher = application.NopPublisher{}
	if cfg.KafkaConfig.Enabled {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = kafkaProducer
	} else {
		log.Warn("kafka disabled, reservation events will not be published")
	}

	// Initialize Redis for rate limiting
	var rdb *redis.Client
	if cfg.RedisConfig.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis unreachable, rate limiting fails open", zap.Error(err))
		}
		pingCancel()
	}

	// Initialize repositories
	transactor := repository.NewGormTransactor(db)
	roomRepo := repository.NewGormRoomRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	reservationRepo := repository.NewGormReservationRepository(db)

	// Initialize application services
	reservationService := application.NewReservationService(
		transactor,
		reservationRepo,
		roomRepo,
		userRepo,
		reservationDomain.NewHourlyPricingStrategy(),
		publisher,
		log,
	)
	roomService := application.NewRoomService(transactor, roomRepo, reservationRepo, log)
	userService := application.NewUserService(userRepo, reservationRepo, hasher, log)
	authService := application.NewAuthService(userRepo, hasher, jwtManager, log)

	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := userService.EnsureAdmin(bootstrapCtx, cfg.AdminConfig.Username, cfg.AdminConfig.Password); err != nil {
		log.Fatal("failed to bootstrap admin account", zap.Error(err))
	}
	bootstrapCancel()

	// Initialize and start facility event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.KafkaConfig.Enabled {
		groupID := cfg.KafkaConfig.GroupPrefix + "reservation-service"
		facilityConsumer := reservationEvents.NewFacilityEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			roomService,
			log,
		)
		defer func() { _ = facilityConsumer.Close() }()

		go func() {
			log.Info("starting facility event consumer")
			if err := facilityConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("facility event consumer error", zap.Error(err))
			}
		}()
	}

	// Initialize HTTP handlers
	reservationHandler := handler.NewReservationHandler(reservationService)
	roomHandler := handler.NewRoomHandler(roomService)
	userHandler := handler.NewUserHandler(userService)
	authHandler := handler.NewAuthHandler(authService)
	adminHandler := handler.NewAdminHandler(reservationService, userService)

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
	healthHandler := health.NewHandler(db, serviceName)
	healthHandler.RegisterRoutes(router)

	// Register routes
	loginLimiter := middleware.RateLimitMiddleware(rdb, cfg.RateLimitConfig, log)
	authHandler.RegisterRoutes(&router.RouterGroup, jwtManager, loginLimiter)
	userHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	roomHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	reservationHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}
