package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/api/handlers"
	"github.com/ikyum/shopbridge/internal/api/middleware"
	"github.com/ikyum/shopbridge/internal/config"
	"github.com/ikyum/shopbridge/internal/repository"
	"github.com/ikyum/shopbridge/internal/service"
	"github.com/ikyum/shopbridge/internal/shopify"
)

// Services groups the injected dependencies the routes need
type Services struct {
	Client        *shopify.Client
	DraftOrders   *service.DraftOrderService
	CustomerSync  *service.CustomerSyncService
	Emails        *service.EmailService
	Registrations *service.RegistrationService
	Idempotency   repository.IdempotencyStore
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, svcs *Services, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	limiter := middleware.NewRateLimiter(cfg.API.RateLimitPerMinute)
	router.Use(limiter.Middleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Staff routes (require the API key)
	staff := router.Group("")
	staff.Use(middleware.AuthMiddleware(cfg.API, logger))
	{
		staff.GET("/list-customers", handlers.HandleListCustomers(svcs.Client, logger))
		staff.GET("/draft-orders", handlers.HandleListDraftOrders(svcs.DraftOrders, logger))
		staff.GET("/draft-orders/:id", handlers.HandleGetDraftOrder(svcs.DraftOrders, logger))
		staff.PUT("/draft-orders/:id", handlers.HandleUpdateDraftOrder(svcs.DraftOrders, logger))
		staff.DELETE("/draft-orders/:id", handlers.HandleDeleteDraftOrder(svcs.DraftOrders, logger))
		staff.POST("/can-complete-draft-order", handlers.HandleCanCompleteDraftOrder(svcs.DraftOrders, logger))
		staff.POST("/complete-draft-order", handlers.HandleCompleteDraftOrder(svcs.DraftOrders, logger))
		staff.POST("/send-order-confirmation", handlers.HandleSendOrderConfirmation(svcs.Client, svcs.Emails, logger))
		staff.POST("/send-order-email", handlers.HandleSendOrderEmail(svcs.DraftOrders, svcs.Client, svcs.Emails, logger))

		// Creation endpoints additionally honor Idempotency-Key replay
		idem := staff.Group("")
		idem.Use(middleware.IdempotencyMiddleware(svcs.Idempotency, logger))
		{
			idem.POST("/create-customer", handlers.HandleCreateCustomer(svcs.Client, logger))
			idem.POST("/create-draft-order", handlers.HandleCreateDraftOrder(svcs.DraftOrders, logger))
		}
	}

	// Public registration form (honeypot + origin check, no API key)
	router.POST("/ikyum/regpro/submit", handlers.HandleRegistrationSubmit(cfg, svcs.Registrations, logger))

	// Shopify webhook target (HMAC-verified)
	router.POST("/sync-customer-data", handlers.HandleCustomerSyncWebhook(cfg, svcs.CustomerSync, logger))

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
