// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/planmarket/planmarket-backend/internal/config"
	"github.com/planmarket/planmarket-backend/internal/handlers"
	"github.com/planmarket/planmarket-backend/internal/middleware"
	"github.com/planmarket/planmarket-backend/internal/services"
	"github.com/planmarket/planmarket-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	storageService, _ := services.NewStorageService(cfg)
	auditService := services.NewAuditService(db)
	watermarkService := services.NewWatermarkService()

	authService := services.NewAuthService(db, cfg)
	designService := services.NewDesignService(db, storageService, cfg)
	paymentService := services.NewPaymentService(db, cfg)
	purchaseService := services.NewPurchaseService(db, paymentService, cfg)
	settlementService := services.NewSettlementService(db, paymentService, auditService, cfg)
	accessService := services.NewAccessService(db, storageService, watermarkService, auditService)
	messagingService := services.NewMessagingService(db)
	reviewService := services.NewReviewService(db)
	modificationService := services.NewModificationService(db, paymentService, cfg)
	adminService := services.NewAdminService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	designHandler := handlers.NewDesignHandler(designService, accessService, storageService)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)
	webhookHandler := handlers.NewWebhookHandler(settlementService)
	messageHandler := handlers.NewMessageHandler(messagingService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	modificationHandler := handlers.NewModificationHandler(modificationService)
	adminHandler := handlers.NewAdminHandler(adminService, designService, paymentService, auditService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	var origins []string
	if cfg.Frontend.BaseURL != "" {
		origins = []string{cfg.Frontend.BaseURL}
	}
	r.Use(middleware.CORS(origins))
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// Public catalog
		designs := v1.Group("/designs")
		{
			designs.GET("", middleware.OptionalAuth(), designHandler.ListDesigns)
			designs.GET("/:id", middleware.OptionalAuth(), designHandler.GetDesign)
			designs.GET("/:id/reviews", reviewHandler.GetDesignReviews)
			designs.GET("/:id/files/:fileId/download", middleware.OptionalAuth(), designHandler.DownloadFile)

			// Buyer actions
			protected := designs.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.GET("/:id/availability", purchaseHandler.CheckAvailability)
				protected.POST("/:id/checkout", middleware.CheckoutRateLimit(), purchaseHandler.InitiateCheckout)
				protected.POST("/:id/reviews", reviewHandler.CreateReview)
				protected.POST("/:id/conversations", messageHandler.OpenConversation)
				protected.POST("/:id/modifications", modificationHandler.RequestModification)
			}
		}

		// Architect portfolio
		architect := v1.Group("/architect")
		architect.Use(middleware.AuthRequired(), middleware.ArchitectRequired())
		{
			architect.GET("/designs", designHandler.GetMyDesigns)
			architect.POST("/designs", designHandler.CreateDesign)
			architect.PUT("/designs/:id", designHandler.UpdateDesign)
			architect.DELETE("/designs/:id", designHandler.DeleteDesign)
			architect.POST("/designs/:id/submit", designHandler.SubmitDesign)
			architect.POST("/designs/:id/files", middleware.UploadRateLimit(), designHandler.UploadFiles)
			architect.DELETE("/designs/:id/files/:fileId", designHandler.DeleteFile)
			architect.GET("/earnings", purchaseHandler.GetEarnings)
		}

		// Buyer account
		buyer := v1.Group("")
		buyer.Use(middleware.AuthRequired())
		{
			buyer.GET("/purchases", purchaseHandler.GetPurchaseHistory)
			buyer.GET("/licenses", purchaseHandler.GetLicenses)
			buyer.GET("/conversations", messageHandler.GetConversations)
			buyer.GET("/conversations/:id/messages", messageHandler.GetMessages)
			buyer.POST("/conversations/:id/messages", messageHandler.SendMessage)
			buyer.DELETE("/reviews/:id", reviewHandler.DeleteReview)
			buyer.GET("/modifications", modificationHandler.GetModifications)
			buyer.POST("/modifications/:id/quote", modificationHandler.QuoteModification)
			buyer.POST("/modifications/:id/pay", modificationHandler.PayModification)
			buyer.POST("/modifications/:id/decline", modificationHandler.DeclineModification)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/designs/pending", adminHandler.GetPendingDesigns)
			admin.POST("/designs/:id/approve", adminHandler.ApproveDesign)
			admin.POST("/designs/:id/reject", adminHandler.RejectDesign)
			admin.POST("/designs/:id/publish", adminHandler.PublishDesign)
			admin.GET("/users", adminHandler.GetUsers)
			admin.PUT("/users/:id/status", adminHandler.SetUserStatus)
			admin.GET("/transactions", adminHandler.GetTransactions)
			admin.POST("/transactions/:id/refund", adminHandler.RefundTransaction)
			admin.GET("/webhook-events", adminHandler.GetWebhookEvents)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
		}

		// Payment provider webhooks: no auth middleware, signature-verified
		// inside the handler. Excluded from the audit body logger.
		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/stripe", webhookHandler.HandleStripeWebhook)
		}
	}

	return r
}
