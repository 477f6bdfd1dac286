package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/techfix/techfix-backend/internal/config"
	"github.com/techfix/techfix-backend/internal/handler"
	"github.com/techfix/techfix-backend/internal/integration/ai"
	"github.com/techfix/techfix-backend/internal/integration/mail"
	"github.com/techfix/techfix-backend/internal/integration/viacep"
	"github.com/techfix/techfix-backend/internal/middleware"
	"github.com/techfix/techfix-backend/internal/repository/postgres"
	"github.com/techfix/techfix-backend/internal/repository/storage"
	"github.com/techfix/techfix-backend/internal/service"
	"github.com/techfix/techfix-backend/internal/util"
	"github.com/techfix/techfix-backend/internal/websocket"

	_ "github.com/techfix/techfix-backend/docs"
)

// @title TechFix API
// @version 1.0
// @description Repair shop management: service orders, POS sales, installment plans and finances.
// @BasePath /api/v1
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	clock := util.SystemClock{}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	storeRepo := postgres.NewStoreRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	orderRepo := postgres.NewServiceOrderRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	planRepo := postgres.NewInstallmentPlanRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	profileRepo := postgres.NewStoreProfileRepository(pool)

	// Optional integrations degrade to disabled when not configured
	cepClient := viacep.NewClient(cfg.ViaCEPBaseURL)
	aiClient := ai.NewClient(cfg.AI)
	mailSender := mail.NewSender(cfg.SMTP)

	var photoStorage storage.PhotoRepository
	if cfg.S3.Bucket != "" {
		s3Repo, err := storage.NewS3PhotoRepository(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize photo storage")
		}
		photoStorage = s3Repo
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Photo storage enabled")
	} else {
		log.Warn().Msg("S3_BUCKET not set, photo uploads disabled")
	}

	// WebSocket hub for live store updates
	hub := websocket.NewHub()

	// Initialize services
	authService := service.NewAuthService(userRepo, storeRepo)
	customerService := service.NewCustomerService(customerRepo, cepClient)
	productService := service.NewProductService(productRepo, hub)
	photoService := service.NewPhotoService(photoStorage)
	orderService := service.NewServiceOrderService(orderRepo, customerRepo, transactionRepo, aiClient, photoService, clock, hub)
	saleService := service.NewSaleService(saleRepo, productRepo, customerRepo, transactionRepo, clock, hub)
	installmentService := service.NewInstallmentService(planRepo, customerRepo, clock, mailSender, hub)
	transactionService := service.NewTransactionService(transactionRepo, clock, hub)
	settingsService := service.NewSettingsService(profileRepo)
	receiptService := service.NewReceiptService(profileRepo, planRepo, saleRepo, clock)

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, authService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// WebSocket JWT validation shares the store lookup with the HTTP layer
	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience, authService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create websocket validator")
	}

	// Initialize handlers
	handlers := handler.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Customer:     handler.NewCustomerHandler(customerService),
		Product:      handler.NewProductHandler(productService),
		ServiceOrder: handler.NewServiceOrderHandler(orderService),
		Sale:         handler.NewSaleHandler(saleService, receiptService),
		Installment:  handler.NewInstallmentHandler(installmentService, receiptService),
		Transaction:  handler.NewTransactionHandler(transactionService),
		Settings:     handler.NewSettingsHandler(settingsService),
		WebSocket:    handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestID())

	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	e.Use(zerologMiddleware())
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
