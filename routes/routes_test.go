package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lunarspired/portfolio-chat/app"
	"github.com/lunarspired/portfolio-chat/config"
	"github.com/lunarspired/portfolio-chat/middleware"
	"github.com/lunarspired/portfolio-chat/services"
	"github.com/lunarspired/portfolio-chat/services/prompt"
	"github.com/lunarspired/portfolio-chat/services/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T, mutate func(*config.Config)) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{Port: 8080, RequestTimeout: 10 * time.Second},
		CORS:        config.CORSConfig{AllowedOrigins: []string{"https://erin.design"}},
		Observability: config.ObservabilityConfig{
			LogLevel:       "info",
			MetricsEnabled: true,
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	deps, err := app.NewDependencies(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close(context.Background()) })

	return SetupRoutes(deps)
}

func serve(h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestChatRoutes_Fallback(t *testing.T) {
	router := newTestRouter(t, nil)

	for _, path := range []string{"/chat", "/api/chat"} {
		w := serve(router, http.MethodPost, path, `{"message":"Who is Erin?"}`, nil)

		require.Equal(t, http.StatusOK, w.Code, path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, prompt.FallbackReply, body["response"])
		assert.Equal(t, "fallback", body["source"])
		assert.NotContains(t, body, "chunks")
	}
}

func TestChatRoutes_RateLimited(t *testing.T) {
	router := newTestRouter(t, nil)
	headers := map[string]string{"X-Forwarded-For": "198.51.100.23"}

	for i := 0; i < ratelimit.DefaultLimit; i++ {
		require.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/chat", `{"message":"hi"}`, headers).Code)
	}

	w := serve(router, http.MethodPost, "/api/chat", `{"message":"hi"}`, headers)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1200", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), services.ErrRateLimitExceeded.Message)

	other := serve(router, http.MethodPost, "/chat", `{"message":"hi"}`, map[string]string{"X-Forwarded-For": "198.51.100.24"})
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestChatRoutes_BadRequest(t *testing.T) {
	router := newTestRouter(t, nil)

	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPost, "/chat", `{"message":"  "}`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPost, "/chat", `{`, nil).Code)
}

func TestHistoryRoutes(t *testing.T) {
	t.Run("unconfigured store", func(t *testing.T) {
		router := newTestRouter(t, nil)

		for _, path := range []string{"/chat-history", "/api/chat-history?limit=5", "/chat-history?session_id=not-a-uuid"} {
			w := serve(router, http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
			assert.Contains(t, w.Body.String(), "Chat history not configured")
		}
	})

	t.Run("admin token required when secret is set", func(t *testing.T) {
		secret := "admin-secret"
		router := newTestRouter(t, func(c *config.Config) { c.Admin.JWTSecret = secret })

		unauthorized := serve(router, http.MethodGet, "/chat-history", "", nil)
		assert.Equal(t, http.StatusUnauthorized, unauthorized.Code)
		assert.Contains(t, unauthorized.Body.String(), services.ErrUnauthorized.Message)

		sign := func(role string) string {
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &middleware.Claims{
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
				Role:             role,
			}).SignedString([]byte(secret))
			require.NoError(t, err)
			return "Bearer " + token
		}

		w := serve(router, http.MethodGet, "/chat-history", "", map[string]string{"Authorization": sign("viewer")})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), services.ErrForbidden.Message)

		w = serve(router, http.MethodGet, "/chat-history", "", map[string]string{"Authorization": sign(middleware.AdminRole)})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestOperationalRoutes(t *testing.T) {
	router := newTestRouter(t, nil)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/healthz", "", nil).Code)

	ready := serve(router, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, ready.Code)
	assert.Contains(t, ready.Body.String(), `"mode":"fallback"`)

	serve(router, http.MethodPost, "/chat", `{"message":"hi"}`, nil)
	metrics := serve(router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), `portfolio_chat_requests_total{source="fallback"} 1`)

	notFound := serve(router, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, notFound.Code)
	assert.Contains(t, notFound.Body.String(), "not_found")

	assert.Equal(t, http.StatusMethodNotAllowed, serve(router, http.MethodGet, "/chat", "", nil).Code)
}

func TestMetricsRouteDisabled(t *testing.T) {
	router := newTestRouter(t, func(c *config.Config) { c.Observability.MetricsEnabled = false })

	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/metrics", "", nil).Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, nil)

	w := serve(router, http.MethodOptions, "/chat", "", map[string]string{
		"Origin":                        "https://erin.design",
		"Access-Control-Request-Method": "POST",
	})

	assert.Equal(t, "https://erin.design", w.Header().Get("Access-Control-Allow-Origin"))
}
