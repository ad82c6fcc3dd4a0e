package v1_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"portfolio-backend/config"
	v1 "portfolio-backend/internal/delivery/http/v1"
	"portfolio-backend/internal/usecase"
	"portfolio-backend/pkg/ratelimit"
	"portfolio-backend/pkg/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validJSON = `{"name":"Ada","email":"ada@example.com","subject":"Hi","message":"Hello"}`

func newTestRouter(t *testing.T, mutate func(cfg *config.Config)) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	publicDir := t.TempDir()
	for name, body := range map[string]string{
		"index.html":     "<h1>home</h1>",
		"about.html":     "<h1>about</h1>",
		"portfolio.html": "<h1>portfolio</h1>",
		"blog.html":      "<h1>blog</h1>",
		"contact.html":   "<h1>contact</h1>",
		"404.html":       "<h1>missing</h1>",
		"css/site.css":   "body{}",
		".env":           "SECRET=1",
	} {
		full := filepath.Join(publicDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
	}

	cfg := &config.Config{
		Port:                   "3000",
		Env:                    config.EnvDevelopment,
		PublicDir:              publicDir,
		RateLimitGlobalMax:     100,
		RateLimitGlobalWindow:  15 * time.Minute,
		ContactRateLimitMax:    5,
		ContactRateLimitWindow: time.Hour,
	}
	if mutate != nil {
		mutate(cfg)
	}

	globalStore := ratelimit.NewMemoryStore(time.Hour)
	contactStore := ratelimit.NewMemoryStore(time.Hour)
	t.Cleanup(func() {
		_ = globalStore.Close()
		_ = contactStore.Close()
	})

	r := v1.NewRouter(v1.RouterDeps{
		ContactUC:    usecase.NewContactUsecase(nil, usecase.DelayHook(0), nil),
		HealthUC:     usecase.NewHealthUsecase(time.Now(), nil),
		Sessions:     session.NewManager(session.NewMemoryStore(), []byte("test"), session.Options{TTL: time.Hour}),
		GlobalStore:  globalStore,
		ContactStore: contactStore,
		Config:       cfg,
	})
	return r, publicDir
}

func postJSON(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/submit-form", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSubmitForm(t *testing.T) {
	t.Run("Should accept a valid JSON submission", func(t *testing.T) {
		r, _ := newTestRouter(t, nil)

		w := postJSON(r, validJSON)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Form submitted successfully","data":{"name":"Ada","email":"ada@example.com","subject":"Hi"}}`, w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("Should accept a urlencoded submission", func(t *testing.T) {
		r, _ := newTestRouter(t, nil)

		form := url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "subject": {"Hi"}, "message": {"Hello"}}
		req := httptest.NewRequest(http.MethodPost, "/submit-form", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should report validation failures", func(t *testing.T) {
		r, _ := newTestRouter(t, nil)

		w := postJSON(r, `{"name":"Ada","email":"ada@example.com","subject":"Hi"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"All fields are required"}`, w.Body.String())

		w = postJSON(r, `{"name":"Ada","email":"a@b","subject":"Hi","message":"Hello"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Invalid email format"}`, w.Body.String())

		w = postJSON(r, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"All fields are required"}`, w.Body.String())
	})

	t.Run("Should reject undecodable and oversize bodies", func(t *testing.T) {
		r, _ := newTestRouter(t, nil)

		w := postJSON(r, `{"name":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Invalid request body"}`, w.Body.String())

		big := `{"name":"Ada","email":"ada@example.com","subject":"Hi","message":"` + strings.Repeat("x", 200<<10) + `"}`
		w = postJSON(r, big)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.JSONEq(t, `{"error":"Request body too large"}`, w.Body.String())
	})

	t.Run("Should reject the sixth submission regardless of payload", func(t *testing.T) {
		r, _ := newTestRouter(t, nil)

		for i := 1; i <= 4; i++ {
			w := postJSON(r, `{}`)
			require.Equal(t, http.StatusBadRequest, w.Code, "submission %d", i)
		}
		w := postJSON(r, validJSON)
		require.Equal(t, http.StatusOK, w.Code, "fifth submission is processed")

		w = postJSON(r, validJSON)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.JSONEq(t, `{"error":"Too many requests, please try again later."}`, w.Body.String())
		assert.Equal(t, "3600", w.Header().Get("Retry-After"))

		// Other routes are unaffected by the contact limiter.
		assert.Equal(t, http.StatusOK, get(r, "/api/health").Code)
	})
}

func postFrom(r http.Handler, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/submit-form", strings.NewReader(validJSON))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestContactLimitKeysOnPeerAddress(t *testing.T) {
	t.Run("Should ignore X-Forwarded-For from untrusted peers", func(t *testing.T) {
		r, _ := newTestRouter(t, nil)

		var codes []int
		for i := 1; i <= 6; i++ {
			codes = append(codes, postFrom(r, "203.0.113.7:5555", fmt.Sprintf("10.9.9.%d", i)))
		}
		assert.Equal(t, []int{200, 200, 200, 200, 200, 429}, codes)

		assert.Equal(t, http.StatusOK, postFrom(r, "203.0.113.8:5555", ""), "another peer has its own bucket")
	})

	t.Run("Should honour X-Forwarded-For from a trusted proxy", func(t *testing.T) {
		r, _ := newTestRouter(t, func(cfg *config.Config) {
			cfg.TrustedProxies = []string{"10.0.0.0/8"}
		})

		for i := 1; i <= 5; i++ {
			require.Equal(t, http.StatusOK, postFrom(r, "10.0.0.2:80", "198.51.100.1"))
		}
		assert.Equal(t, http.StatusTooManyRequests, postFrom(r, "10.0.0.2:80", "198.51.100.1"))
		assert.Equal(t, http.StatusOK, postFrom(r, "10.0.0.2:80", "198.51.100.2"))
	})
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := get(r, "/api/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
		Uptime    float64   `json:"uptime"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.False(t, body.Timestamp.IsZero())
	assert.GreaterOrEqual(t, body.Uptime, 0.0)
}

func TestPages(t *testing.T) {
	r, publicDir := newTestRouter(t, nil)

	for path, want := range map[string]string{
		"/":          "home",
		"/about":     "about",
		"/portfolio": "portfolio",
		"/blog":      "blog",
		"/contact":   "contact",
	} {
		w := get(r, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), want, path)
		assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"), path)
	}

	for _, path := range []string{"/", "/about", "/portfolio", "/blog", "/contact", "/css/site.css"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodHead, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, "HEAD %s", path)
		assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"), "HEAD %s", path)
	}

	w := get(r, "/css/site.css")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"))
	assert.Equal(t, "body{}", w.Body.String())

	w = get(r, "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "missing")

	w = get(r, "/.env")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "SECRET")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/about", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, os.Remove(filepath.Join(publicDir, "404.html")))
	w = get(r, "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "404 Not Found", w.Body.String())
}

func TestGlobalRateLimit(t *testing.T) {
	r, _ := newTestRouter(t, func(cfg *config.Config) {
		cfg.RateLimitGlobalMax = 2
	})

	assert.Equal(t, http.StatusOK, get(r, "/").Code)
	assert.Equal(t, http.StatusOK, get(r, "/about").Code)

	w := get(r, "/blog")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestDocsDisabledInProduction(t *testing.T) {
	r, _ := newTestRouter(t, func(cfg *config.Config) {
		cfg.Env = config.EnvProduction
	})

	w := get(r, "/api/docs/index.html")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}
