// Package middleware provides HTTP middleware for the portfolio server.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tobyStaff/stafford.dev/internal/models"
	"github.com/tobyStaff/stafford.dev/internal/service"
	"github.com/tobyStaff/stafford.dev/internal/session"
)

// Principal is the authenticated identity attached to a request once the
// gate passes. Both the session adapter and the token adapter produce this
// same shape, so handlers never care which credential carried it.
type Principal struct {
	UserID      string  `json:"user_id"`
	Email       string  `json:"email"`
	Username    *string `json:"username,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	PhotoURL    *string `json:"profile_photo_url,omitempty"`
	Source      string  `json:"source"` // "session" or "token"
}

// IsAdmin reports whether the principal is the configured administrator.
func (p *Principal) IsAdmin(adminEmail string) bool {
	return p != nil && adminEmail != "" && models.NormalizeEmail(p.Email) == adminEmail
}

// Decision is the outcome of the authorization gate for one request.
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionRedirectLogin
	DecisionReject401
	DecisionReject403
	DecisionRedirectHome
)

// Open paths pass the gate with or without a principal. The auth endpoints
// themselves must stay reachable for anonymous users, and /api/user answers
// its own 401 so clients can probe login state.
var openExact = map[string]bool{
	"/login":        true,
	"/health":       true,
	"/metrics":      true,
	"/favicon.ico":  true,
	"/api/login":    true,
	"/api/register": true,
	"/api/user":     true,
}

var openPrefixes = []string{"/auth/", "/assets/", "/swagger/"}

func isOpenPath(path string) bool {
	if openExact[path] {
		return true
	}
	for _, prefix := range openPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

func isAdminPath(path string) bool {
	return path == "/admin" || strings.HasPrefix(path, "/admin/") ||
		path == "/api/admin" || strings.HasPrefix(path, "/api/admin/")
}

// Decide is the authorization gate as a pure function. It is evaluated in
// full on every request; there is no cached intermediate state.
func Decide(path string, principal *Principal, adminEmail string) Decision {
	if isOpenPath(path) {
		return DecisionAllow
	}

	if principal == nil {
		if isAPIPath(path) {
			return DecisionReject401
		}
		return DecisionRedirectLogin
	}

	if isAdminPath(path) && !principal.IsAdmin(adminEmail) {
		if isAPIPath(path) {
			return DecisionReject403
		}
		return DecisionRedirectHome
	}

	return DecisionAllow
}

const principalKey = "principal"

// PrincipalFrom returns the request's principal, if the gate attached one.
func PrincipalFrom(c *gin.Context) *Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, ok := v.(*Principal)
	if !ok {
		return nil
	}
	return p
}

// Gate resolves the request's principal from the session cookie or a bearer
// token, then enforces Decide. The principal is attached to the context even
// on open paths so handlers like /api/user can see it.
func Gate(store *session.Store, cookies *session.CookieHelper, jwtSvc service.JWTService, adminEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := resolvePrincipal(c, store, cookies, jwtSvc)
		if principal != nil {
			c.Set(principalKey, principal)
		}

		switch Decide(c.Request.URL.Path, principal, adminEmail) {
		case DecisionAllow:
			c.Next()
		case DecisionRedirectLogin:
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
		case DecisionReject401:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		case DecisionReject403:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		case DecisionRedirectHome:
			c.Redirect(http.StatusFound, "/")
			c.Abort()
		}
	}
}

// resolvePrincipal tries the session adapter first, then the token adapter.
func resolvePrincipal(c *gin.Context, store *session.Store, cookies *session.CookieHelper, jwtSvc service.JWTService) *Principal {
	if sid := cookies.GetSession(c); sid != "" {
		if user, err := store.Get(c.Request.Context(), sid); err == nil {
			return fromSession(user)
		}
	}

	if token := bearerToken(c); token != "" {
		if claims, err := jwtSvc.ValidateToken(token); err == nil {
			return fromClaims(claims)
		}
	}

	return nil
}

func fromSession(user *models.SafeUser) *Principal {
	return &Principal{
		UserID:      user.ID,
		Email:       user.Email,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		PhotoURL:    user.ProfilePhotoURL,
		Source:      "session",
	}
}

func fromClaims(claims *service.Claims) *Principal {
	p := &Principal{
		UserID: claims.UserID,
		Email:  claims.Email,
		Source: "token",
	}
	if claims.Username != "" {
		username := claims.Username
		p.Username = &username
	}
	return p
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.Split(header, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
