package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"locomotion/internal/app"
	"locomotion/internal/config"
	"locomotion/internal/handler"
	internalRedis "locomotion/internal/redis"
	"locomotion/internal/repository/postgres"
	"locomotion/internal/routing"
	"locomotion/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, scheduler := wireServer(db, redisClient, nrApp, cfg)

	// Background jobs run until shutdown.
	jobCtx, jobCancel := context.WithCancel(context.Background())
	defer jobCancel()
	scheduler.Start(jobCtx)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	jobCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server plus
// the background-job scheduler.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *app.Scheduler) {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	rideRepo := postgres.NewRideRepository(db)
	riderRepo := postgres.NewRiderRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	walletRepo := postgres.NewWalletRepository(db)
	orderRepo := postgres.NewPaymentOrderRepository(db)
	txManager := postgres.NewTxManager(db)

	// Routing collaborator. Without an API key the fare endpoint cannot
	// resolve routes, so fail fast at startup.
	routes, err := routing.NewGoogleRoutes(cfg.Maps.APIKey)
	if err != nil {
		log.Fatalf("failed to create routing client: %v", err)
	}

	// Initialize services.
	fareService := service.NewFareService(routes)
	rideService := service.NewRideService(txManager, rideRepo, riderRepo, driverRepo)
	riderService := service.NewRiderService(riderRepo)
	driverService := service.NewDriverService(txManager, driverRepo, cacheStore, cfg.Wallet.VisibilityFloor)
	walletService := service.NewWalletService(walletRepo)
	gateway := service.NewMockGateway()
	paymentService := service.NewPaymentService(txManager, orderRepo, rideRepo, driverRepo, gateway)
	reaperService := service.NewReaperService(rideRepo, cfg.Jobs.PendingTimeout)
	settlementService := service.NewSettlementService(txManager, rideRepo, lockStore)

	// Initialize handlers.
	rideHandler := handler.NewRideHandler(rideService, driverRepo)
	fareHandler := handler.NewFareHandler(fareService)
	riderHandler := handler.NewRiderHandler(riderService)
	driverHandler := handler.NewDriverHandler(driverService, walletService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	jobHandler := handler.NewJobHandler(settlementService, reaperService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		RideHandler:    rideHandler,
		FareHandler:    fareHandler,
		RiderHandler:   riderHandler,
		DriverHandler:  driverHandler,
		PaymentHandler: paymentHandler,
		JobHandler:     jobHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	scheduler := app.NewScheduler(reaperService, settlementService, cfg.Jobs, nrApp)

	// Create HTTP server.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return server, scheduler
}
