package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/tobyStaff/stafford.dev/internal/metrics"
	"github.com/tobyStaff/stafford.dev/internal/models"
	"github.com/tobyStaff/stafford.dev/internal/repository"
	"github.com/tobyStaff/stafford.dev/internal/service"
	"github.com/tobyStaff/stafford.dev/internal/session"
)

const (
	stateCookieName    = "oauth_state"
	stateCookieMaxAge  = 600 // seconds
	defaultUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// OAuthHandler drives the Google sign-in flow: consent redirect, callback
// exchange, profile resolution, session establishment.
type OAuthHandler struct {
	oauthService service.OAuthService
	sessions     *session.Store
	cookies      *session.CookieHelper
	oauthConfig  *oauth2.Config
	userinfoURL  string
	audit        repository.ActionLogRepository
	metrics      *metrics.Metrics
	log          *slog.Logger
}

// NewOAuthHandler creates a new OAuthHandler instance.
func NewOAuthHandler(
	oauthService service.OAuthService,
	sessions *session.Store,
	cookies *session.CookieHelper,
	oauthConfig *oauth2.Config,
	audit repository.ActionLogRepository,
	m *metrics.Metrics,
	log *slog.Logger,
) *OAuthHandler {
	return &OAuthHandler{
		oauthService: oauthService,
		sessions:     sessions,
		cookies:      cookies,
		oauthConfig:  oauthConfig,
		userinfoURL:  defaultUserinfoURL,
		audit:        audit,
		metrics:      m,
		log:          log,
	}
}

// Begin godoc
// @Summary Start Google sign-in
// @Description Redirect to the Google consent screen
// @Tags auth
// @Success 302
// @Router /auth/google [get]
func (h *OAuthHandler) Begin(c *gin.Context) {
	if h.oauthConfig.ClientID == "" {
		h.log.Warn("google sign-in requested but no client id configured")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, state, stateCookieMaxAge, "/", "", c.Request.TLS != nil, true)

	c.Redirect(http.StatusFound, h.oauthConfig.AuthCodeURL(state))
}

// Callback godoc
// @Summary Google sign-in callback
// @Description Exchange the authorization code, resolve the account, establish a session
// @Tags auth
// @Success 302
// @Router /auth/google/callback [get]
func (h *OAuthHandler) Callback(c *gin.Context) {
	state, err := c.Cookie(stateCookieName)
	c.SetCookie(stateCookieName, "", -1, "/", "", c.Request.TLS != nil, true)
	if err != nil || state == "" || c.Query("state") != state {
		h.log.Warn("oauth callback state mismatch")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	ctx := c.Request.Context()
	token, err := h.oauthConfig.Exchange(ctx, code)
	if err != nil {
		h.log.Error("oauth code exchange failed", "error", err)
		c.Redirect(http.StatusFound, "/login")
		return
	}

	profile, err := h.fetchProfile(ctx, token)
	if err != nil {
		h.log.Error("failed to fetch google profile", "error", err)
		c.Redirect(http.StatusFound, "/login")
		return
	}

	user, outcome, err := h.oauthService.Resolve(ctx, *profile)
	if err != nil {
		h.log.Error("failed to resolve google profile", "error", err)
		c.Redirect(http.StatusFound, "/login")
		return
	}

	sid, err := h.sessions.Create(ctx, *user)
	if err != nil {
		h.log.Error("failed to create session", "error", err)
		c.Redirect(http.StatusFound, "/login")
		return
	}
	h.cookies.SetSession(c, sid)
	h.metrics.SessionsCreated.Inc()
	h.metrics.OAuthSignIns.WithLabelValues(outcomeLabel(outcome)).Inc()

	action := models.ActionOAuthLogin
	if outcome == service.OutcomeProvisioned {
		action = models.ActionOAuthProvision
	}
	_ = h.audit.Record(ctx, &models.ActionLog{
		UserID: &user.ID,
		Action: action,
		Source: "portfolio-server",
	})

	c.Redirect(http.StatusFound, "/dashboard")
}

type googleUserinfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (h *OAuthHandler) fetchProfile(ctx context.Context, token *oauth2.Token) (*service.GoogleProfile, error) {
	client := h.oauthConfig.Client(ctx, token)
	resp, err := client.Get(h.userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request returned status %d", resp.StatusCode)
	}

	var info googleUserinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	return &service.GoogleProfile{
		ID:          info.ID,
		Email:       info.Email,
		DisplayName: info.Name,
		PhotoURL:    info.Picture,
	}, nil
}

func outcomeLabel(outcome service.OAuthOutcome) string {
	switch outcome {
	case service.OutcomeLinked:
		return "linked"
	case service.OutcomeProvisioned:
		return "provisioned"
	default:
		return "existing"
	}
}
