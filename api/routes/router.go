// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"ticketly/internal/events"
	"ticketly/internal/notifications"
	"ticketly/internal/orders"
	"ticketly/internal/redemption"
	"ticketly/internal/shared/config"
	"ticketly/internal/shared/database"
	"ticketly/internal/shared/middleware"
	"ticketly/internal/tickets"
	"ticketly/pkg/lock"
	"ticketly/pkg/logger"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router holds all route dependencies
type Router struct {
	config *config.Config
	db     *database.DB

	// Cross-domain services, wired during setup
	ticketService   tickets.Service
	expiryScheduler *tickets.ExpiryScheduler
	publisher       *notifications.KafkaLifecyclePublisher
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB) *Router {
	return &Router{
		config: cfg,
		db:     db,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	if err := events.RegisterValidations(); err != nil {
		logger.GetDefault().Error("failed to register custom validations", "error", err)
	}

	r.setupHealthRoutes(engine)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := middleware.JWTAuthWithConfig(r.config)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		// Ticket routes first: the other domains hang off the ticket service
		r.setupTicketRoutes(api, auth)
		r.setupEventRoutes(api, auth)
		r.setupOrderRoutes(api, auth)
		r.setupRedemptionRoutes(api, auth)
	}
}

// Scheduler returns the expiry scheduler so the server can run its lifecycle
func (r *Router) Scheduler() *tickets.ExpiryScheduler {
	return r.expiryScheduler
}

// Publisher returns the Kafka publisher, nil when Kafka is disabled
func (r *Router) Publisher() *notifications.KafkaLifecyclePublisher {
	return r.publisher
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "ticketly-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "ticketly-backend",
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
			"status":               "operational",
			"api_version":          r.config.APIVersion,
			"lock_mode":            r.config.Lock.Mode,
			"lock_nodes_reachable": r.db.LockNodesReachable(c.Request.Context()),
			"timestamp":            time.Now(),
		})
	})
}

// lockProvider builds the configured lock coordinator
func (r *Router) lockProvider() lock.Provider {
	if r.config.Lock.Mode == config.LockModeOptimistic {
		return lock.NewOptimisticProvider()
	}
	return lock.NewRedlockProvider(r.db.GetLockNodes())
}

// setupTicketRoutes configures the reservation routes and the background
// expiry machinery
func (r *Router) setupTicketRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	ticketRepo := tickets.NewRepository(r.db.GetPostgreSQL())
	ticketService := tickets.NewService(ticketRepo, r.lockProvider(), r.config.Reservation.HoldDuration)

	scheduler := tickets.NewExpiryScheduler(ticketService, r.config.Reservation.SweepInterval)
	ticketService.SetScheduler(scheduler)

	if r.config.Kafka.Enabled {
		producerConfig := notifications.DefaultKafkaProducerConfig()
		producerConfig.Brokers = r.config.Kafka.Brokers
		producerConfig.Topic = r.config.Kafka.Topic

		publisher, err := notifications.NewKafkaLifecyclePublisher(producerConfig)
		if err != nil {
			logger.GetDefault().Error("failed to initialize Kafka publisher, lifecycle events disabled", "error", err)
		} else {
			r.publisher = publisher
			ticketService.SetPublisher(publisher)
		}
	}

	// Stash for the other domains and the server lifecycle
	r.ticketService = ticketService
	r.expiryScheduler = scheduler

	ticketController := tickets.NewController(ticketService)
	tickets.SetupTicketRoutes(rg, ticketController, auth)
}

// setupEventRoutes configures event management routes
func (r *Router) setupEventRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	eventRepo := events.NewRepository(r.db.GetPostgreSQL())
	eventService := events.NewService(eventRepo, r.ticketService)
	eventController := events.NewController(eventService)

	events.SetupEventRoutes(rg, eventController, auth)
}

// setupOrderRoutes configures order and payment confirmation routes
func (r *Router) setupOrderRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	orderRepo := orders.NewRepository(r.db.GetPostgreSQL())
	ticketRepo := tickets.NewRepository(r.db.GetPostgreSQL())

	// TODO: swap the mock for the real processor client once its Go SDK is vendored
	gateway := orders.NewMockGateway(true)

	orderService := orders.NewService(orderRepo, ticketRepo, gateway)
	if r.publisher != nil {
		orderService.SetPublisher(r.publisher)
	}

	orderController := orders.NewController(orderService)
	orders.SetupOrderRoutes(rg, orderController, auth)
}

// setupRedemptionRoutes configures token issuance and gate redemption routes
func (r *Router) setupRedemptionRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	ticketRepo := tickets.NewRepository(r.db.GetPostgreSQL())

	redemptionService := redemption.NewService(ticketRepo, r.config.JWT.Secret, r.config.JWT.TicketTokenTTL)
	if r.publisher != nil {
		redemptionService.SetPublisher(r.publisher)
	}

	redemptionController := redemption.NewController(redemptionService)
	redemption.SetupRedemptionRoutes(rg, redemptionController, auth)
}
