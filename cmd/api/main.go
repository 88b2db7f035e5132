package main

import (
	"context"
	"log"
	"os"
	"time"

	_ "lustre-backend/api/swagger" // swagger docs
	"lustre-backend/internal/database"
	"lustre-backend/internal/email"
	"lustre-backend/internal/handler"
	"lustre-backend/internal/middleware"
	"lustre-backend/internal/pdf"
	"lustre-backend/internal/repository"
	"lustre-backend/internal/service"
	"lustre-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Lustre CRM API
// @version         1.0
// @description     CRM, quoting and scheduling API for small cleaning businesses.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "lustre"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	baseURL := os.Getenv("PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	orgRepo := repository.NewOrganisationRepository(db)
	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	lineItemRepo := repository.NewLineItemRepository(db)
	jobRepo := repository.NewJobRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	mailer := email.NewSMTPMailer()
	pdfRenderer := pdf.NewQuoteRenderer()

	authService := service.NewAuthService(userRepo, orgRepo, txManager)
	clientService := service.NewClientService(clientRepo)
	propertyService := service.NewPropertyService(propertyRepo, clientRepo)
	activityService := service.NewActivityService(activityRepo, clientRepo)
	jobService := service.NewJobService(jobRepo, clientRepo, activityRepo)
	settingsService := service.NewSettingsService(orgRepo)
	dashboardService := service.NewDashboardService(clientRepo, jobRepo, activityRepo)
	quoteService := service.NewQuoteService(
		quoteRepo, lineItemRepo, clientRepo, propertyRepo, jobRepo, orgRepo, activityRepo,
		txManager, mailer, pdfRenderer, wsHub, baseURL,
	)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService)
	clientHandler := handler.NewClientHandler(clientService, propertyService, activityService, quoteService)
	quoteHandler := handler.NewQuoteHandler(quoteService)
	publicHandler := handler.NewPublicHandler(quoteService)
	jobHandler := handler.NewJobHandler(jobService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)

	// Background expiry: sent/viewed quotes past their validity date become
	// expired. Reads never mutate state, so this is the only expiry path.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if _, err := quoteService.ExpireOverdue(ctx); err != nil {
				log.Printf("quote expiry sweep failed: %v", err)
			}
			cancel()
		}
	}()

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3000"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	clientHandler.RegisterRoutes(router.Group(""))
	quoteHandler.RegisterRoutes(router.Group(""))
	publicHandler.RegisterRoutes(router.Group(""))
	jobHandler.RegisterRoutes(router.Group(""))
	settingsHandler.RegisterRoutes(router.Group(""))
	dashboardHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
