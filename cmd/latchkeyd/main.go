package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/latchkeyhq/latchkey"
	"github.com/latchkeyhq/latchkey/api"
	"github.com/latchkeyhq/latchkey/config"
	"github.com/latchkeyhq/latchkey/delivery"
	"github.com/latchkeyhq/latchkey/flow"
	"github.com/latchkeyhq/latchkey/identity"
	"github.com/latchkeyhq/latchkey/lgorm"
	"github.com/latchkeyhq/latchkey/logger"
	"github.com/latchkeyhq/latchkey/telemetry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger.InitLogger(cfg.LogLevel)
	defer logger.Log.Sync()

	logger.Log.Info("Starting Latchkey Authentication Service",
		zap.Int("port", cfg.Port),
		zap.String("db", cfg.DBType),
	)

	if cfg.SessionSecret == "" {
		logger.Log.Fatal("SESSION_SECRET must be set")
	}

	// Storage
	repo, err := lgorm.NewStorage(cfg.DBType, cfg.DSN, nil)
	if err != nil {
		logger.Log.Fatal("failed to initialize storage", zap.Error(err))
	}
	db := repo.DB()

	users := identity.NewStore(db)
	if err := users.AutoMigrate(); err != nil {
		logger.Log.Fatal("failed to migrate user table", zap.Error(err))
	}

	// Delivery
	site := delivery.Site{
		Name:         cfg.SiteName,
		SupportEmail: cfg.SupportEmail,
		LoginURL:     cfg.LoginURL,
	}
	emails := delivery.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.FromEmail, site)
	sms := delivery.NewSMSClient(cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSFromNumber, site)
	if !cfg.SMSEnabled() {
		logger.Log.Warn("SMS delivery not configured, /auth/sms requests will fail")
	}

	// Flows
	generator := latchkey.NewDefaultGenerator(db, cfg)
	exchanger := latchkey.NewDefaultExchanger(db, users, cfg)
	sessions := latchkey.NewDefaultSessionManager(cfg)

	h := api.NewHandler(generator, exchanger, users, sessions, emails, sms)
	h.SetAdminManager(latchkey.NewDefaultAdminManager(db, emails, sms))
	if cfg.RequireAdminApproval {
		h.SetApprovalNotifier(emails)
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		h.SetRateLimiter(flow.NewRedisRateLimiter(client, ""), 5, time.Minute)
	} else {
		h.SetRateLimiter(flow.NewMemoryRateLimiter(), 5, time.Minute)
	}

	// Telemetry
	tel, err := telemetry.NewProvider(telemetry.DefaultConfig())
	if err != nil {
		logger.Log.Error("failed to initialize telemetry", zap.Error(err))
	} else {
		h.SetTelemetry(tel)
		defer tel.Shutdown(context.Background())
	}

	// Background sweep of expired tokens
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-cfg.TokenDuration())
			if err := repo.DeleteStaleTokens(context.Background(), cutoff); err != nil {
				logger.Log.Warn("stale token sweep failed", zap.Error(err))
			}
		}
	}()

	// Setup Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	g := e.Group("/api/v1")
	h.RegisterRoutes(g)
	h.RegisterAdminRoutes(e.Group("/api/v1/admin"))

	logger.Log.Info("Server is starting", zap.Int("port", cfg.Port))
	if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		logger.Log.Fatal("server failed to start", zap.Error(err))
	}
}
