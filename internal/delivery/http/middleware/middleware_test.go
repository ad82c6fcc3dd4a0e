package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"portfolio-backend/pkg/apperror"
	"portfolio-backend/pkg/logger"
	"portfolio-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Hit(context.Context, string, int, time.Duration) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis: connection refused")
}

func (failingStore) Close() error { return nil }

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	return r
}

func doRequest(r http.Handler, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("Should reject the sixth request within the window", func(t *testing.T) {
		store := ratelimit.NewMemoryStore(time.Hour)
		defer store.Close()

		r := newEngine(RateLimitMiddleware(ContactRateLimitConfig(store, 5, time.Hour)))
		r.POST("/submit-form", func(c *gin.Context) { c.Status(http.StatusOK) })

		for i := 1; i <= 5; i++ {
			w := doRequest(r, http.MethodPost, "/submit-form", nil, nil)
			require.Equal(t, http.StatusOK, w.Code, "request %d", i)
			assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		}

		w := doRequest(r, http.MethodPost, "/submit-form", nil, nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.JSONEq(t, `{"error":"Too many requests, please try again later."}`, w.Body.String())
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("Should count clients separately", func(t *testing.T) {
		store := ratelimit.NewMemoryStore(time.Hour)
		defer store.Close()

		cfg := ContactRateLimitConfig(store, 1, time.Hour)
		cfg.KeyFunc = func(c *gin.Context) string { return c.GetHeader("X-Client") }
		r := newEngine(RateLimitMiddleware(cfg))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/", nil, map[string]string{"X-Client": "a"}).Code)
		assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/", nil, map[string]string{"X-Client": "b"}).Code)
		assert.Equal(t, http.StatusTooManyRequests, doRequest(r, http.MethodGet, "/", nil, map[string]string{"X-Client": "a"}).Code)
	})

	t.Run("Should fail closed when configured", func(t *testing.T) {
		r := newEngine(RateLimitMiddleware(ContactRateLimitConfig(failingStore{}, 5, time.Hour)))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := doRequest(r, http.MethodGet, "/", nil, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("Should fall back to memory when failing open", func(t *testing.T) {
		fallback := ratelimit.NewMemoryStore(time.Hour)
		defer fallback.Close()

		r := newEngine(RateLimitMiddleware(GlobalRateLimitConfig(failingStore{}, fallback, 1, time.Minute)))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/", nil, nil).Code)
		assert.Equal(t, http.StatusTooManyRequests, doRequest(r, http.MethodGet, "/", nil, nil).Code)
	})
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	t.Run("Should generate an ID", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/", nil, nil)
		assert.Len(t, w.Body.String(), 36)
		assert.Equal(t, w.Body.String(), w.Header().Get(HeaderRequestID))
	})

	t.Run("Should keep a well-formed incoming ID", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/", nil, map[string]string{HeaderRequestID: "abc-123"})
		assert.Equal(t, "abc-123", w.Body.String())
	})

	t.Run("Should replace a malformed incoming ID", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/", nil, map[string]string{HeaderRequestID: "bad id\n"})
		assert.NotEqual(t, "bad id\n", w.Body.String())
		assert.Len(t, w.Body.String(), 36)
	})
}

func TestSecurityHeaders(t *testing.T) {
	t.Run("Should omit CSP in development", func(t *testing.T) {
		r := newEngine(SecurityHeadersMiddleware(SecurityHeadersConfig{}))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := doRequest(r, http.MethodGet, "/", nil, nil)
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
		assert.Empty(t, w.Header().Get("Content-Security-Policy"))
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("Should send CSP and HSTS in production", func(t *testing.T) {
		r := newEngine(SecurityHeadersMiddleware(SecurityHeadersConfig{EnableCSP: true, HSTS: true}))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := doRequest(r, http.MethodGet, "/", nil, nil)
		assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'self'")
		assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=63072000")
	})
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("Should allow any origin when unconfigured", func(t *testing.T) {
		r := newEngine(CORSMiddleware(nil))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := doRequest(r, http.MethodGet, "/", nil, map[string]string{"Origin": "https://anywhere.example"})
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Should answer preflight for allowed origins only", func(t *testing.T) {
		r := newEngine(CORSMiddleware([]string{"https://me.example"}))
		r.POST("/submit-form", func(c *gin.Context) { c.Status(http.StatusOK) })

		preflight := map[string]string{"Access-Control-Request-Method": "POST"}

		preflight["Origin"] = "https://me.example"
		w := doRequest(r, http.MethodOptions, "/submit-form", nil, preflight)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://me.example", w.Header().Get("Access-Control-Allow-Origin"))

		preflight["Origin"] = "https://evil.example"
		w = doRequest(r, http.MethodOptions, "/submit-form", nil, preflight)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestBodyLimit(t *testing.T) {
	r := newEngine(BodyLimit(16))
	r.POST("/", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodPost, "/", strings.NewReader("small"), nil).Code)

	w := doRequest(r, http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"error":"Request body too large"}`, w.Body.String())

	// Unknown length bypasses the up-front check and hits the reader cap.
	req := httptest.NewRequest(http.MethodPost, "/", io.MultiReader(bytes.NewReader(make([]byte, 64))))
	req.ContentLength = -1
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestErrorHandlerAndRecovery(t *testing.T) {
	r := newEngine(Recovery(nil), ErrorHandler(nil))
	r.GET("/app", func(c *gin.Context) { _ = c.Error(apperror.BadRequest("All fields are required")) })
	r.GET("/internal", func(c *gin.Context) { _ = c.Error(errors.New("pq: relation missing")) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := doRequest(r, http.MethodGet, "/app", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"All fields are required"}`, w.Body.String())

	w = doRequest(r, http.MethodGet, "/internal", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Something went wrong!"}`, w.Body.String())

	w = doRequest(r, http.MethodGet, "/panic", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Something went wrong!"}`, w.Body.String())
}

func TestErrorHandlerLogsInternalAppErrorOnce(t *testing.T) {
	var logs bytes.Buffer
	prev := logger.Log
	logger.Log = logger.New(&logs, "debug")
	t.Cleanup(func() { logger.Log = prev })

	r := newEngine(ErrorHandler(nil))
	r.GET("/hook", func(c *gin.Context) {
		_ = c.Error(apperror.Internal("Error submitting form. Please try again later.", errors.New("smtp down")))
	})

	w := doRequest(r, http.MethodGet, "/hook", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Error submitting form. Please try again later."}`, w.Body.String())

	assert.Equal(t, 1, strings.Count(logs.String(), "\n"))
	assert.Contains(t, logs.String(), "Request failed")
	assert.Contains(t, logs.String(), "smtp down")
}
