package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"plateful-backend/internal/api"
	"plateful-backend/internal/config"
	"plateful-backend/internal/events"
	"plateful-backend/internal/modules/catalog"
	"plateful-backend/internal/modules/coupons"
	"plateful-backend/internal/modules/delivery"
	"plateful-backend/internal/modules/orders"
	"plateful-backend/internal/modules/payments"
	"plateful-backend/internal/modules/users"
	"plateful-backend/pkg/email"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func main() {
	// 1. --- Configuration & Logging ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	// 2. --- Echo & Middleware ---
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"http://localhost:5173", cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// 3. --- Database Connection ---
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Unable to parse database configuration: %v", err)
	}

	dbPool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		logger.Fatalf("Unable to create connection pool: %v", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		logger.Fatalf("Unable to ping database: %v", err)
	}
	logger.Info("Successfully connected to the database")

	// 4. --- Event Producer (optional) ---
	// No brokers configured leaves the producer nil; a nil *KafkaProducer
	// publishes as a no-op.
	var producer *events.KafkaProducer
	if cfg.KafkaBrokers != "" {
		producer, err = events.NewKafkaProducer(strings.Split(cfg.KafkaBrokers, ","), logger)
		if err != nil {
			logger.Fatalf("Unable to connect to Kafka: %v", err)
		}
	}
	defer producer.Close()

	// 5. --- Email (AWS SES) ---
	emailSender, err := email.NewSESV2Sender(context.Background(), cfg.AWSRegion, cfg.EmailSender, cfg.ClientOrigin, logger)
	if err != nil {
		logger.Fatalf("Unable to initialize email sender: %v", err)
	}

	googleOAuth := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}

	// 6. --- Dependency Injection (Wiring everything up) ---
	// --- Users Module ---
	userRepo := users.NewRepository(dbPool)
	userService := users.NewService(userRepo, emailSender, logger, cfg.JWTSecret, googleOAuth)
	userHandler := users.NewHandler(userService)

	// --- Catalog Module ---
	catalogRepo := catalog.NewRepository(dbPool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	// --- Coupons Module ---
	couponRepo := coupons.NewRepository(dbPool)
	couponService := coupons.NewService(couponRepo, catalogRepo, logger)
	couponHandler := coupons.NewHandler(couponService)

	// --- Orders Module ---
	orderRepo := orders.NewRepository(dbPool)
	orderService := orders.NewService(orderRepo, couponRepo, catalogRepo, userRepo, producer, logger, cfg.TaxRate, cfg.DeliveryFee)
	orderHandler := orders.NewHandler(orderService)

	// --- Delivery Module ---
	deliveryService := delivery.NewService(orderRepo, userService, producer, logger)
	deliveryHandler := delivery.NewHandler(deliveryService)

	// --- Payments Module ---
	paymentRepo := payments.NewRepository(dbPool)
	paymentService := payments.NewService(paymentRepo, orderRepo, userService, emailSender, producer, logger)
	paymentHandler := payments.NewHandler(paymentService)

	// 7. --- Initialize Router ---
	api.SetupRoutes(e,
		userHandler,
		catalogHandler,
		orderHandler,
		couponHandler,
		deliveryHandler,
		paymentHandler,
		cfg.JWTSecret,
	)

	// 8. --- Start Server with graceful shutdown logic ---
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server, an error occurred:", err)
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
	logger.Info("Server exiting")
}
