package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medipos-system/config"
	"medipos-system/internal/cart"
	"medipos-system/internal/database"
	"medipos-system/internal/gateway/handlers"
	"medipos-system/internal/gateway/middleware"
	billinghandler "medipos-system/internal/services/billing/handler"
	cataloghandler "medipos-system/internal/services/catalog/handler"
	directoryhandler "medipos-system/internal/services/directory/handler"
	"medipos-system/internal/utils"
)

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.Auth.JWTSecret)

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewConnection(cfg.DB.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to db: %v", err)
	}
	if err := database.MigratePharmacyDB(db); err != nil {
		log.Fatalf("Failed to migrate pharmacy database: %v", err)
	}

	redisClient := config.NewRedisClient(cfg.Redis)
	defer redisClient.Close()

	catalogSvc := cataloghandler.NewCatalogHandler(db, redisClient, logger, cfg.Server.RequireLocation)
	billingSvc := billinghandler.NewBillingHandler(db, logger)
	directorySvc := directoryhandler.NewDirectoryHandler(db, logger)

	quiet := time.Duration(cfg.Server.SearchQuietMs) * time.Millisecond
	store := cart.NewStore(catalogSvc, billingSvc, quiet)

	sessionHandler := handlers.NewSessionHTTPHandler(store, catalogSvc, logger)
	catalogHandler := handlers.NewCatalogHTTPHandler(catalogSvc, logger)
	directoryHandler := handlers.NewDirectoryHTTPHandler(directorySvc, logger)
	billingHandler := handlers.NewBillingHTTPHandler(billingSvc, logger)
	authHandler := handlers.NewAuthHTTPHandler(cfg.Auth, logger)

	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit("120-M"))

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
		}
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth())
	{
		catalog := protected.Group("/catalog")
		{
			catalog.GET("/search", catalogHandler.Search)
			catalog.GET("/products/:id", catalogHandler.GetProduct)
		}

		protected.GET("/locations", directoryHandler.ListLocations)
		protected.GET("/doctors", directoryHandler.ListDoctors)
		protected.GET("/patients", directoryHandler.SearchPatients)

		sessions := protected.Group("/sessions")
		{
			sessions.POST("", sessionHandler.CreateSession)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.DELETE("/:id", sessionHandler.DeleteSession)
			sessions.POST("/:id/items", sessionHandler.AddItem)
			sessions.PUT("/:id/items/:key", sessionHandler.UpdateItem)
			sessions.DELETE("/:id/items/:key", sessionHandler.RemoveItem)
			sessions.PUT("/:id/context", sessionHandler.SetContext)
			sessions.POST("/:id/query", sessionHandler.UpdateQuery)
			sessions.GET("/:id/results", sessionHandler.GetResults)
			sessions.POST("/:id/confirm", sessionHandler.Confirm)
			sessions.POST("/:id/cancel", sessionHandler.Cancel)
			sessions.POST("/:id/submit", sessionHandler.Submit)
		}

		bills := protected.Group("/bills")
		{
			bills.GET("", billingHandler.ListBills)
			bills.GET("/:number", billingHandler.GetBill)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"message":   "Server is running",
			"timestamp": time.Now(),
		})
	})

	port := ":" + cfg.Server.Port
	log.Printf("Starting server on port %s", port)
	if err := r.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
