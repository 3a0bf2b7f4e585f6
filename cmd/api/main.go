package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"e-courier/internal/api"
	"e-courier/internal/config"
	"e-courier/internal/modules/cities"
	"e-courier/internal/modules/hubs"
	"e-courier/internal/modules/payments"
	"e-courier/internal/modules/pricing"
	"e-courier/internal/modules/shipments"
	"e-courier/internal/modules/users"
	"e-courier/pkg/email"
	"e-courier/pkg/payment"
	"e-courier/pkg/qrcode"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	e := echo.New()

	// 2. --- Middleware ---
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:5173", cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// 3. --- Database Connection ---
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database configuration: %v", err)
	}

	dbPool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	e.Logger.Info("Successfully connected to the database!")

	// 4. --- Shared infrastructure ---
	gateway := payment.NewWaafiGateway(payment.WaafiConfig{
		APIURL:      cfg.WaafiAPIURL,
		APIKey:      cfg.MerchantAPIKey,
		APIUserID:   cfg.MerchantAPIUserID,
		MerchantUID: cfg.MerchantUID,
	})
	qrIssuer := qrcode.NewIssuer(cfg.UploadDir)

	var alerter email.AlertSender
	if cfg.AWSRegion != "" && cfg.OpsAlertEmail != "" {
		sesAlerter, err := email.NewSESAlerter(context.Background(), cfg.AWSRegion, cfg.AlertFromEmail, cfg.OpsAlertEmail)
		if err != nil {
			log.Fatalf("Unable to initialize SES alerter: %v", err)
		}
		alerter = sesAlerter
	}

	// 5. --- Dependency Injection (Wiring everything up) ---
	userRepo := users.NewRepository(dbPool)
	userService := users.NewService(userRepo, cfg.JWTSecret)
	userHandler := users.NewHandler(userService)

	cityRepo := cities.NewRepository(dbPool)
	cityService := cities.NewService(cityRepo)
	cityHandler := cities.NewHandler(cityService)

	hubRepo := hubs.NewRepository(dbPool)
	hubService := hubs.NewService(hubRepo, cityRepo)
	hubHandler := hubs.NewHandler(hubService)

	pricingRepo := pricing.NewRepository(dbPool)
	pricingService := pricing.NewService(pricingRepo, cityRepo)
	pricingHandler := pricing.NewHandler(pricingService)

	paymentRepo := payments.NewRepository(dbPool)
	paymentHandler := payments.NewHandler(paymentRepo)

	shipmentRepo := shipments.NewRepository(dbPool)
	shipmentService := shipments.NewService(shipmentRepo, userRepo, hubRepo, pricingService, paymentRepo, gateway, qrIssuer, alerter)
	shipmentHandler := shipments.NewHandler(shipmentService)

	// 6. --- Initialize Router ---
	api.SetupRoutes(e,
		userHandler,
		shipmentHandler,
		cityHandler,
		hubHandler,
		pricingHandler,
		paymentHandler,
		cfg.JWTSecret,
		cfg.UploadDir,
	)

	// 7. --- Start Server with graceful shutdown logic ---
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server an error occurred:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal("Server forced to shutdown:", err)
	}
	log.Println("Server exiting")
}
