package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieName is the session cookie name, stable across requests.
const CookieName = "stafford_sid"

// CookieConfig holds session cookie attributes.
type CookieConfig struct {
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// CookieHelper reads and writes the session cookie.
type CookieHelper struct {
	config CookieConfig
}

// NewCookieHelper creates a cookie helper with the given configuration.
func NewCookieHelper(config CookieConfig) *CookieHelper {
	if config.Path == "" {
		config.Path = "/"
	}
	return &CookieHelper{config: config}
}

// SetSession writes the session id cookie. HttpOnly is always on.
func (h *CookieHelper) SetSession(c *gin.Context, sessionID string) {
	h.set(c, sessionID, int(h.config.MaxAge.Seconds()))
}

// ClearSession removes the session cookie.
func (h *CookieHelper) ClearSession(c *gin.Context) {
	h.set(c, "", -1)
}

// GetSession returns the session id carried by the request, if any.
func (h *CookieHelper) GetSession(c *gin.Context) string {
	id, err := c.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return id
}

func (h *CookieHelper) set(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(h.config.SameSite)
	c.SetCookie(
		CookieName,
		value,
		maxAge,
		h.config.Path,
		h.config.Domain,
		h.config.Secure,
		true, // httpOnly - always true for the session cookie
	)
}
