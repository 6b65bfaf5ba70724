package handlers

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tobyStaff/stafford.dev/internal/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

// PagesHandler serves the HTML views. Protected views additionally carry a
// client-side guard that mirrors the server gate: it probes /api/user and
// redirects to /login on any failure. The gate stays authoritative; the
// guard only spares users a flash of protected content.
type PagesHandler struct {
	templates  *template.Template
	adminEmail string
	log        *slog.Logger
}

// NewPagesHandler parses the embedded templates.
func NewPagesHandler(adminEmail string, log *slog.Logger) (*PagesHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &PagesHandler{templates: tmpl, adminEmail: adminEmail, log: log}, nil
}

// Index serves the home view and the catch-all for client-side routes.
func (h *PagesHandler) Index(c *gin.Context) {
	h.render(c, "index.html", gin.H{
		"Principal": middleware.PrincipalFrom(c),
	})
}

// Login serves the login view.
func (h *PagesHandler) Login(c *gin.Context) {
	h.render(c, "login.html", nil)
}

// Dashboard serves the post-login landing view.
func (h *PagesHandler) Dashboard(c *gin.Context) {
	h.render(c, "dashboard.html", gin.H{
		"Principal": middleware.PrincipalFrom(c),
	})
}

// Admin serves the admin view. The embedded guard renders an access-denied
// panel in place when the identity is not the administrator.
func (h *PagesHandler) Admin(c *gin.Context) {
	h.render(c, "admin.html", gin.H{
		"Principal":  middleware.PrincipalFrom(c),
		"AdminEmail": h.adminEmail,
	})
}

// NotFound is the catch-all: unknown API paths get a JSON 404, anything
// else falls through to the index view so client-side routes resolve.
func (h *PagesHandler) NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	h.Index(c)
}

func (h *PagesHandler) render(c *gin.Context, name string, data gin.H) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := h.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		h.log.Error("failed to render template", "template", name, "error", err)
	}
}
