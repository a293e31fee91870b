// Package main provides the main entry point for the SamiWater backend
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samiwater/samiwater-backend/app/handlers"
	"github.com/samiwater/samiwater-backend/app/middleware"
	"github.com/samiwater/samiwater-backend/app/router"
	"github.com/samiwater/samiwater-backend/app/services"
	businessflow "github.com/samiwater/samiwater-backend/business_flow"
	"github.com/samiwater/samiwater-backend/config"
	"github.com/samiwater/samiwater-backend/models"
	"github.com/samiwater/samiwater-backend/repository"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting SamiWater backend...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.Logging)

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging directs the standard logger to stdout, a rotating file, or both
func setupLogging(cfg config.LoggingConfig) {
	switch cfg.Output {
	case "file":
		log.SetOutput(newRotatingWriter(cfg))
	case "both":
		log.SetOutput(io.MultiWriter(os.Stdout, newRotatingWriter(cfg)))
	default:
		log.SetOutput(os.Stdout)
	}
}

func newRotatingWriter(cfg config.LoggingConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	// TranslateError maps driver unique-violation errors to gorm.ErrDuplicatedKey,
	// which the repositories rely on for conflict detection.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Customer{},
		&models.ServiceRequest{},
		&models.SequenceCounter{},
		&models.OTPVerification{},
		&models.AuditLog{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	// One open non-follow-up request per phone, enforced at the index level
	// so concurrent creates cannot both pass the application check. Follow-ups
	// carry a related invoice code and are exempt from the guard.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uk_service_requests_active_phone
		ON service_requests (customer_phone)
		WHERE status IN ('pending', 'scheduled', 'in_progress')
		AND related_invoice_code IS NULL`).Error; err != nil {
		return nil, fmt.Errorf("failed to create active request index: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity.
// Redis is optional; when disabled the OTP resend cooldown is skipped.
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established (db=%d)", cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeSMSService selects the SMS provider based on configuration
func initializeSMSService(cfg *config.ProductionConfig) services.SMSService {
	if cfg.SMS.ProviderDomain == "mock" {
		return services.NewMockSMSService()
	}
	return services.NewSMSService(&cfg.SMS)
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		cancel := startCacheHealthMonitor(context.Background(), rc, 30*time.Second)
		stopFuncs = append(stopFuncs, cancel)
	}

	// Initialize repositories
	customerRepo := repository.NewCustomerRepository(db)
	requestRepo := repository.NewServiceRequestRepository(db)
	counterRepo := repository.NewSequenceCounterRepository(db)
	otpRepo := repository.NewOTPVerificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Initialize services
	smsService := initializeSMSService(cfg)

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	roleResolver := services.NewRoleResolver(cfg.Admin.Phone, cfg.Admin.PINHash)

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Initialize flows
	sequencer := businessflow.NewInvoiceSequencer(counterRepo)

	customerFlow := businessflow.NewCustomerFlow(customerRepo, auditRepo, db)

	requestFlow := businessflow.NewRequestFlow(
		requestRepo,
		customerRepo,
		auditRepo,
		sequencer,
		db,
	)

	authFlow := businessflow.NewAuthFlow(
		otpRepo,
		customerRepo,
		auditRepo,
		smsService,
		tokenService,
		roleResolver,
		rc,
		db,
	)

	exportFlow := businessflow.NewAdminExportFlow(requestRepo, auditRepo)

	// Initialize handlers
	customerHandler := handlers.NewCustomerHandler(customerFlow)
	requestHandler := handlers.NewRequestHandler(requestFlow)
	authHandler := handlers.NewAuthHandler(authFlow, customerFlow)
	smsHandler := handlers.NewSMSHandler(smsService)
	adminHandler := handlers.NewAdminHandler(requestFlow, exportFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(
		customerHandler,
		requestHandler,
		authHandler,
		smsHandler,
		adminHandler,
		authMiddleware,
		cfg.Security.AllowedOrigins,
		cfg.Metrics.Enabled,
	)

	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}
