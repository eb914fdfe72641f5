package main

import (
	"context"
	"log"
	"os"

	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"
	"backend/pkg/currency"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// defaultHighValueThreshold is the base-currency amount above which approved
// transaction documents are copied to the linked project.
const defaultHighValueThreshold = "100000000"

// @title           Approval & Consolidation API
// @version         1.0
// @description     Unified approval queue and financial consolidation service for HQ and branch facilities.
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
		dbName = "postgres"
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

	// Permission middleware needs a DB handle for role lookups
	middleware.InitPermissionMiddleware(db)

	// Currency normalization config
	normalizer := currency.NewNormalizer(os.Getenv("BASE_CURRENCY"))
	log.Printf("Base currency: %s", normalizer.Base())

	thresholdRaw := os.Getenv("HIGH_VALUE_THRESHOLD")
	if thresholdRaw == "" {
		thresholdRaw = defaultHighValueThreshold
	}
	highValueThreshold, err := decimal.NewFromString(thresholdRaw)
	if err != nil {
		log.Fatalf("Invalid HIGH_VALUE_THRESHOLD %q: %v", thresholdRaw, err)
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	facilityRepo := repository.NewFacilityRepository(db)
	budgetRepo := repository.NewBudgetRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	userService := service.NewUserService(userRepo)
	facilityService := service.NewFacilityService(facilityRepo)
	budgetService := service.NewBudgetService(budgetRepo, auditRepo, txManager)
	transactionService := service.NewTransactionService(transactionRepo, auditRepo, txManager, normalizer)
	transferService := service.NewTransferService(
		transferRepo, transactionRepo, categoryRepo, partnerRepo, facilityRepo,
		auditRepo, txManager, normalizer,
	)
	partnerService := service.NewPartnerService(partnerRepo)
	campaignService := service.NewCampaignService(campaignRepo)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(db)
	roleService := service.NewRoleService(db)

	// Approval queue: consolidation engine + one adapter per resource kind
	consolidator := service.NewBudgetConsolidator(budgetRepo, projectRepo, auditRepo, txManager, normalizer)
	adapters := service.NewAdapterRegistry(
		service.NewBudgetAdapter(budgetRepo, consolidator, normalizer),
		service.NewPartnerAdapter(partnerRepo, auditRepo, txManager, normalizer),
		service.NewCampaignAdapter(campaignRepo, auditRepo, txManager, normalizer),
		service.NewTransferAdapter(transferRepo, transferService, normalizer),
		service.NewTransactionAdapter(transactionRepo, projectRepo, auditRepo, txManager, normalizer, highValueThreshold),
	)
	approvalService := service.NewApprovalService(adapters, service.NewHubSink(wsHub))

	// Seed default roles/permissions so a fresh database is usable
	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		log.Printf("WARNING: failed to seed roles and permissions: %v", err)
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	facilityHandler := handler.NewFacilityHandler(facilityService)
	budgetHandler := handler.NewBudgetHandler(budgetService)
	transferHandler := handler.NewTransferHandler(transferService)
	transactionHandler := handler.NewTransactionHandler(transactionService)
	partnerHandler := handler.NewPartnerHandler(partnerService)
	campaignHandler := handler.NewCampaignHandler(campaignService)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	auditHandler := handler.NewAuditHandler(auditService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)
	roleHandler := handler.NewRoleHandler(roleService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
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
	userHandler.RegisterRoutes(router.Group(""))
	facilityHandler.RegisterRoutes(router.Group(""))
	budgetHandler.RegisterRoutes(router.Group(""))
	transferHandler.RegisterRoutes(router.Group(""))
	transactionHandler.RegisterRoutes(router.Group(""))
	partnerHandler.RegisterRoutes(router.Group(""))
	campaignHandler.RegisterRoutes(router.Group(""))
	approvalHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
