package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupCSRF(t *testing.T, allowedOrigins []string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(CSRF(allowedOrigins))
	router.GET("/api/user", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.POST("/api/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestCSRF(t *testing.T) {
	allowed := []string{"https://stafford.dev", "http://localhost:3000"}

	tests := []struct {
		name       string
		method     string
		path       string
		origin     string
		referer    string
		wantStatus int
	}{
		{"GET passes without origin", http.MethodGet, "/api/user", "", "", http.StatusOK},
		{"POST with allowed origin", http.MethodPost, "/api/login", "https://stafford.dev", "", http.StatusOK},
		{"POST with allowed origin case insensitive", http.MethodPost, "/api/login", "HTTPS://Stafford.DEV", "", http.StatusOK},
		{"POST with localhost origin", http.MethodPost, "/api/login", "http://localhost:3000", "", http.StatusOK},
		{"POST with disallowed origin", http.MethodPost, "/api/login", "https://evil.example.com", "", http.StatusForbidden},
		{"POST without origin or referer", http.MethodPost, "/api/login", "", "", http.StatusForbidden},
		{"POST with allowed referer only", http.MethodPost, "/api/login", "", "https://stafford.dev/login", http.StatusOK},
		{"POST with disallowed referer only", http.MethodPost, "/api/login", "", "https://evil.example.com/login", http.StatusForbidden},
		{"POST with malformed referer", http.MethodPost, "/api/login", "", "not-a-url", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupCSRF(t, allowed)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}
