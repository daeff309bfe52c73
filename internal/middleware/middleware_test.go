package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/harentsoaR/healthcare-portal/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func envelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestAuthMiddleware(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Hour)
	token, err := tokens.GenerateJWT("user-1", "patient")
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserID)+"/"+c.GetString(ContextUserRole))
	})

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"bearer header", "Bearer " + token, "", http.StatusOK},
		{"query token", "", "?token=" + token, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := perform(r, req)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
			if tt.status == http.StatusOK && w.Body.String() != "user-1/patient" {
				t.Errorf("unexpected context values %q", w.Body.String())
			}
			if tt.status != http.StatusOK && envelope(t, w)["success"] != false {
				t.Error("expected success=false envelope")
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	r := gin.New()
	r.GET("/admin", func(c *gin.Context) {
		c.Set(ContextUserRole, c.Query("role"))
	}, Authorize("admin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	if w := perform(r, httptest.NewRequest(http.MethodGet, "/admin?role=admin", nil)); w.Code != http.StatusNoContent {
		t.Errorf("admin: expected 204, got %d", w.Code)
	}
	if w := perform(r, httptest.NewRequest(http.MethodGet, "/admin?role=patient", nil)); w.Code != http.StatusForbidden {
		t.Errorf("patient: expected 403, got %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(2, zap.NewNop()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if w := perform(r, httptest.NewRequest(http.MethodGet, "/", nil)); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	w := perform(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if envelope(t, w)["success"] != false {
		t.Error("expected success=false envelope")
	}

	// Another client has its own budget.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	if w := perform(r, req); w.Code != http.StatusOK {
		t.Errorf("other IP: expected 200, got %d", w.Code)
	}
}

func TestRecoveryAndRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()), Recovery(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := perform(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
	if envelope(t, w)["message"] != "Server Error" {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestRateLimiterStore_SweepsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newRateLimiterStore(rate.Every(time.Second), 1)
	s.now = func() time.Time { return now }
	s.lastSweep = now

	s.getLimiter("10.0.0.1")
	now = now.Add(limiterIdleTTL / 2)
	s.getLimiter("10.0.0.2")
	if len(s.visitors) != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", len(s.visitors))
	}

	// The first client has been idle for a full ttl, the second only half.
	now = now.Add(limiterIdleTTL / 2)
	s.getLimiter("10.0.0.3")
	if _, ok := s.visitors["10.0.0.1"]; ok {
		t.Error("idle client was not evicted")
	}
	if _, ok := s.visitors["10.0.0.2"]; !ok {
		t.Error("recent client was evicted")
	}
	if len(s.visitors) != 2 {
		t.Errorf("expected 2 tracked clients after sweep, got %d", len(s.visitors))
	}
}
