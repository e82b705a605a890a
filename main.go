package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/scholarfund_backend/config"
	"github.com/HSouheill/scholarfund_backend/controllers"
	"github.com/HSouheill/scholarfund_backend/middleware"
	"github.com/HSouheill/scholarfund_backend/repositories"
	"github.com/HSouheill/scholarfund_backend/routes"
	"github.com/HSouheill/scholarfund_backend/security"
	"github.com/HSouheill/scholarfund_backend/services"
	"github.com/HSouheill/scholarfund_backend/utils"
	"github.com/HSouheill/scholarfund_backend/websocket"
)

const (
	otpSendsPerHour = 5
	maxBodySize     = "12M"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	config.InitLogger("scholarfund-backend", cfg.LogLevel, cfg.IsProduction())

	// Connect to database
	client, err := config.ConnectDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	db := client.Database(cfg.Mongo.DBName)

	// Redis is optional
	redisClient := config.ConnectRedis(cfg)

	var nonces security.NonceStore = security.NewMemoryNonceStore()
	if redisClient != nil {
		nonces = security.NewRedisNonceStore(redisClient)
	}

	// Initialize repositories
	applicationRepo := repositories.NewApplicationRepository(db)
	userRepo := repositories.NewUserRepository(db)
	otpRepo := repositories.NewOTPRepository(db)

	// Create WebSocket hub
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)

	// Initialize services
	mailer := services.NewEmailService(cfg.SMTP, cfg.FrontendURL)
	ipfs := services.NewIPFSService(cfg.IPFS)
	events := services.NewEventPublisher(cfg.Kafka)

	applicationService := services.NewApplicationService(applicationRepo, ipfs, mailer, events, wsHub)
	otpService := services.NewOTPService(otpRepo, mailer, utils.NewOTPThrottle(redisClient, otpSendsPerHour, time.Hour))
	userService := services.NewUserService(userRepo, otpService)
	authService := services.NewAuthService(nonces, userService, cfg.Auth.JWTSecret, cfg.IsAdminWallet)

	// Create a new Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = controllers.NewValidator()
	e.HTTPErrorHandler = controllers.HTTPErrorHandler
	controllers.SetProduction(cfg.IsProduction())

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()
	rateLimiter.StartCleanup(time.Hour, ctx.Done())

	// Middleware
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.CORSWithConfig(middleware.NewCORSConfig(cfg.FrontendURL, cfg.CORSAllowedOrigins)))
	e.Use(middleware.SecurityHeaders(middleware.SecurityConfig{HSTS: cfg.IsProduction()}))
	e.Use(echoMiddleware.BodyLimit(maxBodySize))
	e.Use(middleware.RequireContentType())
	e.Use(rateLimiter.RateLimit())
	if cfg.IsProduction() {
		e.Use(httpsRedirect())
	}

	ctrl := routes.Controllers{
		Applications: controllers.NewApplicationController(applicationService),
		Admin:        controllers.NewAdminController(applicationService, userService),
		Onboarding:   controllers.NewOnboardingController(userService),
		OTP:          controllers.NewOTPController(otpService),
		Users:        controllers.NewUserController(userService),
		Transactions: controllers.NewTransactionController(applicationService),
		Auth:         controllers.NewAuthController(authService),
	}
	if !cfg.IsProduction() {
		ctrl.Debug = controllers.NewDebugController(client, redisClient, cfg)
	}

	routes.SetupRoutes(e, ctrl, middleware.JWTMiddleware(cfg.Auth.JWTSecret), wsHub, cfg.Auth.JWTSecret)

	// Start server
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if closer, ok := events.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close event publisher")
		}
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("MongoDB disconnect failed")
	}
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(http.StatusMovedPermanently, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
