package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appmetrics "ravello/app/echo-server/metrics"
	"ravello/app/echo-server/router"
	"ravello/business/cart"
	"ravello/business/category"
	"ravello/business/orders"
	"ravello/business/payments"
	"ravello/business/product"
	"ravello/business/store"
	userService "ravello/business/user"
	"ravello/internal/middleware"
	"ravello/internal/repository/filestore"
	"ravello/internal/repository/notification"
	psqlRepo "ravello/internal/repository/postgres"
	redisRepo "ravello/internal/repository/redis"
	"ravello/internal/rest"
	"ravello/pkg/config"
	"ravello/pkg/database"
	redisdb "ravello/pkg/database/redis"
	"ravello/pkg/logger"
	"ravello/pkg/metrics"
	"ravello/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Ravello", "version", cfg.App.Version)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	// Session registry is optional; without Redis tokens live until expiry
	var redisClient *redis.Client
	var sessions *redisRepo.SessionRepository
	if cfg.Redis.Enabled() {
		redisClient, err = redisdb.NewRedisClient(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to redis", "error", err)
		}
		sessions = redisRepo.NewSessionRepository(redisClient)
		logger.Info("Redis session registry enabled")
	}

	metrics.Init()
	appmetrics.Init()

	// Init notification from mailjet
	mailjetEmail := notification.NewMailjetRepository(
		notification.MailjetConfig{
			MailjetBaseURL:           cfg.Mailjet.MailjetBaseUrl,
			MailjetBasicAuthUsername: cfg.Mailjet.MailjetBasicAuthUsername,
			MailjetBasicAuthPassword: cfg.Mailjet.MailjetBasicAuthPassword,
			MailjetSenderEmail:       cfg.Mailjet.MailjetSenderEmail,
			MailjetSenderName:        cfg.Mailjet.MailjetSenderName,
		},
	)

	images, err := filestore.NewLocalStore(cfg.Upload.Dir, cfg.Upload.URLPrefix)
	if err != nil {
		logger.Fatal("Failed to prepare upload dir", "error", err)
	}

	validate := validator.New()
	tokens := utils.NewTokenIssuer(cfg.JWT.SecretKey, cfg.JWT.TTL)
	tickets := utils.NewResetTicketer(cfg.App.AppResetTicketKey)

	// Init repo
	userRepo := psqlRepo.NewUserRepository(db)
	otpRepo := psqlRepo.NewOTPRepository(db)
	storeRepo := psqlRepo.NewStoreRepository(db)
	categoryRepo := psqlRepo.NewCategoryRepository(db)
	productsRepo := psqlRepo.NewProductRepository(db)
	cartRepo := psqlRepo.NewCartRepository(db)
	ordersRepo := psqlRepo.NewOrdersRepository(db)
	paymentsRepo := psqlRepo.NewPaymentsRepository(db)

	// Init service. A nil *SessionRepository must not become a non-nil
	// interface value.
	var registry userService.SessionRegistry
	if sessions != nil {
		registry = sessions
	}
	userSvc := userService.NewUserService(userRepo, otpRepo, mailjetEmail, registry, tokens, tickets, validate)
	storeService := store.NewStoreService(storeRepo)
	categoryService := category.NewCategoryService(categoryRepo)
	productService := product.NewProductService(productsRepo, storeService, images)
	cartService := cart.NewCartService(cartRepo, productsRepo)
	ordersService := orders.NewOrdersService(ordersRepo, productsRepo, mailjetEmail)
	paymentsService := payments.NewPaymentsService(paymentsRepo)

	// Init handler
	userHandler := rest.NewUserHandler(userSvc)
	storeHandler := rest.NewStoreHandler(storeService)
	categoryHandler := rest.NewCategoryHandler(categoryService)
	productHandler := rest.NewProductHandler(productService)
	cartHandler := rest.NewCartHandler(cartService)
	ordersHandler := rest.NewOrdersHandler(ordersService)
	paymentsHandler := rest.NewPaymentsHandler(paymentsService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(appmetrics.Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomiddleware.BodyLimit("6M"))

	// Auth middleware
	var authRequired echo.MiddlewareFunc
	if sessions != nil {
		authRequired = middleware.AuthMiddlewareWithRedis(tokens, sessions)
	} else {
		authRequired = middleware.AuthMiddleware(tokens)
	}
	storeOwner := middleware.RequireStoreOwner(storeService)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.Static(cfg.Upload.URLPrefix, cfg.Upload.Dir)

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupUserRoutes(api, userHandler, authRequired)
	router.SetupStoreRoutes(api, storeHandler, ordersHandler, authRequired, storeOwner)
	router.SetupCategoryRoutes(api, categoryHandler, authRequired)
	router.SetupProductRoutes(api, productHandler, authRequired, storeOwner)
	router.SetupCartRoutes(api, cartHandler, authRequired)
	router.SetOrdersRoutes(api, ordersHandler, authRequired)
	router.SetPaymentsRoutes(api, paymentsHandler, authRequired)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	go runHousekeeping(workerCtx, cfg.App.HousekeepingEvery, userSvc)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if err := redisdb.CloseRedisClient(redisClient); err != nil {
		logger.Error("Failed to close redis", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}

	logger.Info("Server stopped")
}
