package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenantEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tid, _ := TenantIDFromContext(r.Context())
		_, _ = w.Write([]byte(tid))
	})
}

func TestAuthenticatorRoundTrip(t *testing.T) {
	auth := NewAuthenticator([]byte("test-secret"))
	tok, err := auth.SignToken("u1", "t1", "a@example.com", time.Hour)
	require.NoError(t, err)

	h := auth.WithAuth(RequireAuth(tenantEcho()))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t1", rec.Body.String())
}

func TestAuthenticatorRejects(t *testing.T) {
	auth := NewAuthenticator([]byte("test-secret"))
	other := NewAuthenticator([]byte("other-secret"))
	forged, err := other.SignToken("u1", "t1", "a@example.com", time.Hour)
	require.NoError(t, err)
	expired, err := auth.SignToken("u1", "t1", "a@example.com", -time.Hour)
	require.NoError(t, err)

	h := LocaleMiddleware(auth.WithAuth(RequireAuth(tenantEcho())))
	for name, header := range map[string]string{
		"missing": "",
		"garbage": "Bearer not-a-token",
		"forged":  "Bearer " + forged,
		"expired": "Bearer " + expired,
	} {
		req := httptest.NewRequest(http.MethodGet, "/?lang=zh", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
		assert.Contains(t, rec.Body.String(), "需要登录", name)
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://obe.example/"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://obe.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://obe.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLocaleMiddleware(t *testing.T) {
	h := LocaleMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(LocaleFromContext(r.Context())))
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "zh", rec.Body.String())
	assert.Equal(t, "zh", rec.Header().Get("Content-Language"))
}

func TestHeaders(t *testing.T) {
	h := SecureHeaders(NoStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Cache-Control"), "no-store"))
}

func TestHTTPMetricsUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/surveys/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/surveys/"+id, nil))
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/surveys/{id}", "GET", "202")))
}
