package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"locomotion/internal/handler"
	"locomotion/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler    *handler.RideHandler
	FareHandler    *handler.FareHandler
	DriverHandler  *handler.DriverHandler
	RiderHandler   *handler.RiderHandler
	PaymentHandler *handler.PaymentHandler
	JobHandler     *handler.JobHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Rider routes.
		riders := v1.Group("/riders")
		{
			riders.POST("", deps.RiderHandler.Register)
			riders.GET("/:id", deps.RiderHandler.GetRider)
			riders.GET("/:id/rides", deps.RideHandler.ListRiderRides)
		}

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("", deps.DriverHandler.Provision)
			drivers.GET("", deps.DriverHandler.ListVisible)
			drivers.GET("/:id", deps.DriverHandler.GetDriver)
			drivers.PUT("/:id/availability", deps.DriverHandler.SetAvailability)
			drivers.GET("/:id/wallet", deps.DriverHandler.GetWallet)
			drivers.GET("/:id/rides", deps.RideHandler.ListDriverRides)
		}

		// Fare routes.
		fares := v1.Group("/fares")
		{
			fares.POST("/quote", deps.FareHandler.Quote)
		}

		// Ride routes.
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.CreateRide)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/action", deps.RideHandler.PerformAction)
			rides.POST("/:id/rating", deps.RideHandler.RateRide)
		}

		// Payment routes.
		payments := v1.Group("/payments")
		{
			payments.POST("/ride-orders", deps.PaymentHandler.CreateRideOrder)
			payments.POST("/recharge-orders", deps.PaymentHandler.CreateRechargeOrder)
			payments.POST("/verified", deps.PaymentHandler.HandleVerified)
		}

		// Batch job routes, for operator-triggered runs.
		jobs := v1.Group("/jobs")
		{
			jobs.POST("/settlement", deps.JobHandler.RunSettlement)
			jobs.POST("/reaper", deps.JobHandler.RunReaper)
		}
	}

	return router
}
