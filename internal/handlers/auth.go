// Package handlers contains HTTP request handlers for the portfolio server.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tobyStaff/stafford.dev/internal/metrics"
	"github.com/tobyStaff/stafford.dev/internal/middleware"
	"github.com/tobyStaff/stafford.dev/internal/models"
	"github.com/tobyStaff/stafford.dev/internal/repository"
	"github.com/tobyStaff/stafford.dev/internal/service"
	"github.com/tobyStaff/stafford.dev/internal/session"
)

// AuthHandler handles local authentication HTTP requests.
type AuthHandler struct {
	authService service.AuthService
	sessions    *session.Store
	cookies     *session.CookieHelper
	audit       repository.ActionLogRepository
	metrics     *metrics.Metrics
	log         *slog.Logger
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(
	authService service.AuthService,
	sessions *session.Store,
	cookies *session.CookieHelper,
	audit repository.ActionLogRepository,
	m *metrics.Metrics,
	log *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		cookies:     cookies,
		audit:       audit,
		metrics:     m,
		log:         log,
	}
}

// RegisterRequest represents the registration request payload.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
}

// LoginRequest represents the login request payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register godoc
// @Summary Register a local account
// @Description Create a user with email and password and return a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration payload"
// @Success 201 {object} service.LoginResult
// @Failure 400 {object} map[string]string
// @Router /api/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
		case errors.Is(err, service.ErrDuplicateUsername):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username is already taken"})
		case errors.Is(err, service.ErrPasswordPolicy):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters with upper and lower case letters, a digit and a symbol"})
		case errors.Is(err, service.ErrValidationFailed):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed"})
		default:
			h.log.Error("registration failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		}
		return
	}

	h.metrics.Registrations.Inc()
	h.recordAudit(c, models.ActionRegister, &result.User.ID, "")

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   result.Token,
		"user":    result.User,
	})
}

// Login godoc
// @Summary Local login
// @Description Verify email and password and return a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} service.LoginResult
// @Failure 401 {object} map[string]string
// @Failure 423 {object} map[string]string
// @Router /api/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.recordAudit(c, models.ActionLoginFailure, nil, models.NormalizeEmail(req.Email))
		switch {
		case errors.Is(err, service.ErrAccountLocked):
			h.metrics.LoginAttempts.WithLabelValues(metrics.ResultLocked).Inc()
			c.JSON(http.StatusLocked, gin.H{"error": "Account is temporarily locked due to too many failed attempts. Please try again later."})
		case errors.Is(err, service.ErrAccountDisabled):
			h.metrics.LoginAttempts.WithLabelValues(metrics.ResultDisabled).Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is disabled"})
		case errors.Is(err, service.ErrInvalidCredentials):
			h.metrics.LoginAttempts.WithLabelValues(metrics.ResultInvalid).Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		default:
			h.metrics.LoginAttempts.WithLabelValues(metrics.ResultError).Inc()
			h.log.Error("login failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		}
		return
	}

	h.metrics.LoginAttempts.WithLabelValues(metrics.ResultSuccess).Inc()
	h.recordAudit(c, models.ActionLoginSuccess, &result.User.ID, "")

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   result.Token,
		"user":    result.User,
	})
}

// CurrentUser godoc
// @Summary Current identity
// @Description Return the authenticated principal, from session or bearer token
// @Tags auth
// @Produce json
// @Success 200 {object} middleware.Principal
// @Failure 401 {object} map[string]string
// @Router /api/user [get]
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, principal)
}

// Logout godoc
// @Summary Logout
// @Description Destroy the server-side session and redirect to the login view
// @Tags auth
// @Success 302
// @Router /logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	if sid := h.cookies.GetSession(c); sid != "" {
		if err := h.sessions.Destroy(c.Request.Context(), sid); err != nil {
			h.log.Error("failed to destroy session", "error", err)
		}
	}
	h.cookies.ClearSession(c)

	if p := middleware.PrincipalFrom(c); p != nil {
		h.recordAudit(c, models.ActionLogout, &p.UserID, "")
	}

	c.Redirect(http.StatusFound, "/login")
}

// recordAudit writes an audit entry; failures are logged, never surfaced.
func (h *AuthHandler) recordAudit(c *gin.Context, action string, userID *string, detail string) {
	entry := &models.ActionLog{
		UserID: userID,
		Action: action,
		Source: "portfolio-server",
		Detail: detail,
	}
	if err := h.audit.Record(c.Request.Context(), entry); err != nil {
		h.log.Warn("failed to record audit entry", "action", action, "error", err)
	}
}
