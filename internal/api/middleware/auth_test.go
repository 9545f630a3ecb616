package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/xbcsmith/xzepr/internal/auth"
	"github.com/xbcsmith/xzepr/internal/domain"
)

func testAuthConfig() auth.Config {
	return auth.Config{
		HMACSecret:      []byte("test-signing-secret-at-least-32-bytes-long"),
		Issuer:          "xzepr",
		Audience:        "xzepr-api",
		AccessTokenTTL:  1000000000000, // 1000s, avoids flakiness
		RefreshTokenTTL: 2000000000000,
	}
}

func TestRequireAuth_RejectsMissingHeader(t *testing.T) {
	router := gin.New()
	router.Use(RequireAuth(testAuthConfig()))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuth_AllowsValidTokenAndPopulatesContext(t *testing.T) {
	cfg := testAuthConfig()
	pair, err := auth.Issue(cfg, domain.UserID("U1"), []domain.Role{domain.RoleAdmin}, []string{"receiver:create"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	router := gin.New()
	router.Use(RequireAuth(cfg))
	router.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "U1" {
		t.Errorf("user id in context = %q, want U1", w.Body.String())
	}
}

func TestRequireAuth_RejectsMalformedBearerScheme(t *testing.T) {
	router := gin.New()
	router.Use(RequireAuth(testAuthConfig()))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Basic deadbeef")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
