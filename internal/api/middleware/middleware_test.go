package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xbcsmith/xzepr/internal/authz"
	"github.com/xbcsmith/xzepr/internal/domain"
)

func TestSecurityHeaders_SetsHardeningHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeaders())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", w.Header().Get("X-Frame-Options"))
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("X-Content-Type-Options missing")
	}
}

func TestRequestID_GeneratesAndEchoesCorrelationHeader(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	header := w.Header().Get(RequestIDHeader)
	if header == "" {
		t.Fatal("expected a generated X-Request-ID header")
	}
	if w.Body.String() != header {
		t.Errorf("context request id = %q, want %q", w.Body.String(), header)
	}
}

func TestRequestID_PreservesCallerSuppliedID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied-id")
	router.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "caller-supplied-id" {
		t.Errorf("X-Request-ID = %q, want caller-supplied-id", got)
	}
}

func TestBodyLimit_RejectsOversizedBody(t *testing.T) {
	router := gin.New()
	router.Use(BodyLimit(8))
	router.POST("/x", func(c *gin.Context) {
		buf := make([]byte, 64)
		_, err := c.Request.Body.Read(buf)
		if err == nil {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusRequestEntityTooLarge)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("this body is way over the eight byte cap"))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestRateLimiter_BlocksBeyondBurst(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Second)
	router := gin.New()
	router.Use(rl.Limit())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w1.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", w1.Code)
	}

	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", w2.Code)
	}
	if w2.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429")
	}
}

func TestRequirePolicyAuthorization_DeniesUnauthenticatedCaller(t *testing.T) {
	pipeline := authz.NewPipeline(authz.NewPolicyClient(authz.PolicyClientConfig{}), nil)
	router := gin.New()
	router.GET("/receivers/:id", RequirePolicyAuthorization(pipeline, "receiver", authz.ActionRead, "id"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/receivers/R1", nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for unauthenticated caller", w.Code)
	}
}

func TestRequirePolicyAuthorization_AllowsOwnerViaLegacyFallback(t *testing.T) {
	owner := domain.UserID("U1")
	pipeline := authz.NewPipeline(authz.NewPolicyClient(authz.PolicyClientConfig{}), nil)
	pipeline.RegisterResourceType("receiver", authz.ResourceContextBuilderFunc(
		func(_ context.Context, resourceID string) (authz.Resource, bool, error) {
			return authz.Resource{Type: "receiver", ID: resourceID, OwnerID: owner}, true, nil
		},
	))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(SetUserContext(c.Request.Context(), string(owner), nil, nil))
		c.Next()
	})
	router.GET("/receivers/:id", RequirePolicyAuthorization(pipeline, "receiver", authz.ActionRead, "id"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/receivers/R1", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for resource owner", w.Code)
	}
}
