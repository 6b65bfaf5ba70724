// Package routes defines HTTP routes for the portfolio server.
package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/tobyStaff/stafford.dev/docs"
	"github.com/tobyStaff/stafford.dev/internal/config"
	"github.com/tobyStaff/stafford.dev/internal/handlers"
	"github.com/tobyStaff/stafford.dev/internal/middleware"
	"github.com/tobyStaff/stafford.dev/internal/service"
	"github.com/tobyStaff/stafford.dev/internal/session"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Config      *config.Config
	Redis       *redis.Client
	Sessions    *session.Store
	Cookies     *session.CookieHelper
	JWTService  service.JWTService
	AuthHandler *handlers.AuthHandler
	OAuth       *handlers.OAuthHandler
	Health      *handlers.HealthHandler
	Pages       *handlers.PagesHandler
}

// Setup configures all HTTP routes for the application. Middleware order
// matters: CORS and headers first, then CSRF, then the authorization gate.
func Setup(router *gin.Engine, d Deps) {
	router.Use(middleware.SecurityHeaders(d.Config.IsProduction()))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	router.Use(middleware.CSRF(d.Config.AllowedOrigins))
	router.Use(middleware.Gate(d.Sessions, d.Cookies, d.JWTService, d.Config.AdminEmail))

	// Open endpoints
	router.GET("/health", d.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Local auth API, rate-limited like the rest of the auth surface
	authLimiter := middleware.RateLimit(d.Redis, "auth", d.Config.AuthRateLimit, d.Config.AuthRateWindow)
	api := router.Group("/api")
	{
		api.POST("/register", authLimiter, d.AuthHandler.Register)
		api.POST("/login", authLimiter, d.AuthHandler.Login)
		api.GET("/user", d.AuthHandler.CurrentUser)
	}

	// Google OAuth flow
	auth := router.Group("/auth")
	{
		auth.GET("/google", d.OAuth.Begin)
		auth.GET("/google/callback", d.OAuth.Callback)
	}
	router.GET("/logout", d.AuthHandler.Logout)

	// Views
	router.GET("/", d.Pages.Index)
	router.GET("/login", d.Pages.Login)
	router.GET("/dashboard", d.Pages.Dashboard)
	router.GET("/admin", d.Pages.Admin)
	router.NoRoute(d.Pages.NotFound)

	// Swagger documentation (only if SWAGGER_HOST is configured)
	if d.Config.SwaggerHost != "" {
		docs.SwaggerInfo.Host = d.Config.SwaggerHost
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}
