// Package main is the entry point for the portfolio server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/tobyStaff/stafford.dev/internal/config"
	"github.com/tobyStaff/stafford.dev/internal/database"
	"github.com/tobyStaff/stafford.dev/internal/handlers"
	"github.com/tobyStaff/stafford.dev/internal/logger"
	"github.com/tobyStaff/stafford.dev/internal/metrics"
	"github.com/tobyStaff/stafford.dev/internal/models"
	"github.com/tobyStaff/stafford.dev/internal/repository"
	"github.com/tobyStaff/stafford.dev/internal/routes"
	"github.com/tobyStaff/stafford.dev/internal/service"
	"github.com/tobyStaff/stafford.dev/internal/session"
	"github.com/tobyStaff/stafford.dev/pkg/redis"
)

// @title Stafford.dev Portfolio Server API
// @version 1.0
// @description Authentication, sessions and page serving for the stafford.dev portfolio site
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(&models.User{}, &models.ActionLog{}); err != nil {
		log.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}

	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewActionLogRepository(db)

	// Services
	jwtService, err := service.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		log.Error("failed to create jwt service", "error", err)
		os.Exit(1)
	}
	authService := service.NewAuthService(userRepo, jwtService, cfg.BcryptCost, service.LockoutPolicy{
		Threshold: cfg.LockoutThreshold,
		Duration:  cfg.LockoutDuration,
	}, auditRepo, log)
	oauthService := service.NewOAuthService(userRepo)

	// Sessions
	sessions := session.NewStore(redisClient, cfg.SessionTTL)
	cookies := session.NewCookieHelper(session.CookieConfig{
		Domain:   cfg.CookieDomain,
		Path:     "/",
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite(),
		MaxAge:   cfg.SessionTTL,
	})

	m := metrics.New(prometheus.DefaultRegisterer)

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, sessions, cookies, auditRepo, m, log)
	oauthHandler := handlers.NewOAuthHandler(oauthService, sessions, cookies, oauthConfig, auditRepo, m, log)
	healthHandler := handlers.NewHealthHandler()
	pagesHandler, err := handlers.NewPagesHandler(cfg.AdminEmail, log)
	if err != nil {
		log.Error("failed to parse page templates", "error", err)
		os.Exit(1)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	routes.Setup(router, routes.Deps{
		Config:      cfg,
		Redis:       redisClient,
		Sessions:    sessions,
		Cookies:     cookies,
		JWTService:  jwtService,
		AuthHandler: authHandler,
		OAuth:       oauthHandler,
		Health:      healthHandler,
		Pages:       pagesHandler,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("starting portfolio server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
