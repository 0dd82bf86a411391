// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tradebridge/tradebridge-backend/internal/config"
	"github.com/tradebridge/tradebridge-backend/internal/handlers"
	"github.com/tradebridge/tradebridge-backend/internal/middleware"
	"github.com/tradebridge/tradebridge-backend/internal/models"
	"github.com/tradebridge/tradebridge-backend/internal/services"
	"github.com/tradebridge/tradebridge-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)

	authService := services.NewAuthService(db, cfg)
	userService := services.NewUserService(db)
	productService := services.NewProductService(db)
	orderService := services.NewOrderService(db, notificationService)
	quoteService := services.NewQuoteService(db, orderService, notificationService)
	documentService := services.NewDocumentService(db, storageService, orderService)
	paymentService := services.NewPaymentService(db, cfg, orderService, notificationService)
	analyticsService := services.NewAnalyticsService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	productHandler := handlers.NewProductHandler(productService)
	quoteHandler := handlers.NewQuoteHandler(quoteService)
	orderHandler := handlers.NewOrderHandler(orderService, documentService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	adminHandler := handlers.NewAdminHandler(userService, analyticsService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
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
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// User routes
		users := v1.Group("/users")
		users.Use(middleware.AuthRequired())
		{
			users.GET("/:id", userHandler.GetUser)
			users.PATCH("/me", userHandler.UpdateProfile)
		}

		// Product routes
		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), productHandler.ListProducts)
			products.GET("/:id", middleware.OptionalAuth(), productHandler.GetProduct)

			// Authenticated routes
			protected := products.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", middleware.RoleRequired(models.UserRoleSupplier), productHandler.CreateProduct)
				protected.PATCH("/:id", productHandler.UpdateProduct)
			}
		}

		// Quote routes
		quotes := v1.Group("/quotes")
		quotes.Use(middleware.AuthRequired())
		{
			quotes.POST("", middleware.RoleRequired(models.UserRoleSupplier), quoteHandler.CreateQuote)
			quotes.GET("", quoteHandler.ListQuotes)
			quotes.GET("/:id", quoteHandler.GetQuote)
			quotes.PATCH("/:id", quoteHandler.UpdateQuote)
			quotes.PUT("/:id/margin", quoteHandler.SetMargin)
			quotes.PUT("/:id/price", quoteHandler.SetSellingPrice)
			quotes.POST("/:id/send", quoteHandler.SendQuote)
			quotes.POST("/:id/accept", quoteHandler.AcceptQuote)
			quotes.POST("/:id/reject", quoteHandler.RejectQuote)
		}

		// Order routes
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.POST("/:id/advance", orderHandler.AdvanceStatus)
			orders.PUT("/:id/status", orderHandler.SetStatus)
			orders.GET("/:id/events", orderHandler.GetOrderEvents)
			orders.POST("/:id/events", orderHandler.RecordEvent)
			orders.GET("/:id/documents", orderHandler.ListDocuments)
			orders.GET("/:id/documents/:docID/download", orderHandler.DownloadDocument)
			orders.POST("/:id/documents", middleware.DocumentRateLimit(), orderHandler.GenerateDocument)
			orders.POST("/:id/payments", paymentHandler.ProcessPayment)
			orders.GET("/:id/payments", paymentHandler.GetPaymentHistory)
		}

		// Payment routes
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.POST("", paymentHandler.ProcessPaymentByBody)
			payments.POST("/confirm", paymentHandler.ConfirmPayment)
			payments.GET("/history", paymentHandler.GetPaymentHistoryByQuery)
		}

		// Analytics routes
		analytics := v1.Group("/analytics")
		analytics.Use(middleware.AuthRequired())
		{
			analytics.GET("/profit", analyticsHandler.GetProfitAnalysis)
		}

		// Notifications (derived, never stored)
		v1.GET("/notifications", middleware.AuthRequired(), analyticsHandler.GetNotifications)

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard/stats", adminHandler.GetDashboardStats)

			adminUsers := admin.Group("/users")
			{
				adminUsers.GET("", adminHandler.ListUsers)
				adminUsers.PUT("/:id/status", adminHandler.SetUserStatus)
				adminUsers.PUT("/:id/verify", adminHandler.VerifyUser)
			}
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
