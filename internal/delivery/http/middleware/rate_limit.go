package middleware

import (
	"net/http"
	"strconv"
	"time"

	"portfolio-backend/internal/delivery/http/response"
	"portfolio-backend/pkg/logger"
	"portfolio-backend/pkg/ratelimit"
	"portfolio-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

const (
	MsgTooManyRequests    = "Too many requests, please try again later."
	MsgServiceUnavailable = "Service temporarily unavailable. Please try again."
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Rolling window length
	Window time.Duration
	// Custom key extractor (default: client IP)
	KeyFunc func(*gin.Context) string
	// Prepended to every key so limiters can share a store
	KeyPrefix string
	// Primary counter store
	Store ratelimit.Store
	// Used when Store fails and FailClosed is false. Nil lets the request through.
	Fallback ratelimit.Store
	// Reject with 503 when Store fails
	FailClosed bool
	// Optional; nil discards events
	SecurityLogger *security.SecurityLogger
	// Defaults to time.Now
	Now func() time.Time
}

// GlobalRateLimitConfig limits every route per client IP and stays available when the store is down.
func GlobalRateLimitConfig(store, fallback ratelimit.Store, limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		Limit:      limit,
		Window:     window,
		KeyPrefix:  "rl:global:",
		Store:      store,
		Fallback:   fallback,
		FailClosed: false,
	}
}

// ContactRateLimitConfig limits form submissions per client IP and rejects when the store is down.
func ContactRateLimitConfig(store ratelimit.Store, limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		Limit:      limit,
		Window:     window,
		KeyPrefix:  "rl:contact:",
		Store:      store,
		FailClosed: true,
	}
}

// RateLimitMiddleware admits at most Limit requests per key in any rolling Window.
// Rejected requests never reach later handlers.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string {
			return c.ClientIP()
		}
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := config.KeyPrefix + config.KeyFunc(c)

		decision, err := config.Store.Hit(ctx, key, config.Limit, config.Window)
		if err != nil {
			config.SecurityLogger.LogRateLimitStoreDown(ctx, c.ClientIP(), GetRequestID(c), err)

			if config.FailClosed {
				logger.Log.Error("Rate limit store unavailable, rejecting", "error", err, "key_prefix", config.KeyPrefix)
				response.Error(c, http.StatusServiceUnavailable, MsgServiceUnavailable)
				c.Abort()
				return
			}
			if config.Fallback == nil {
				logger.Log.Warn("Rate limit store unavailable, allowing", "error", err, "key_prefix", config.KeyPrefix)
				c.Next()
				return
			}
			decision, err = config.Fallback.Hit(ctx, key, config.Limit, config.Window)
			if err != nil {
				logger.Log.Warn("Rate limit fallback unavailable, allowing", "error", err, "key_prefix", config.KeyPrefix)
				c.Next()
				return
			}
		}

		setRateLimitHeaders(c, decision)

		if !decision.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(decision.RetryAfter(config.Now()).Seconds())))

			config.SecurityLogger.LogRateLimitTriggered(
				ctx,
				c.ClientIP(),
				c.GetHeader("User-Agent"),
				GetRequestID(c),
				c.Request.URL.Path,
				config.Limit,
			)

			response.Error(c, http.StatusTooManyRequests, MsgTooManyRequests)
			c.Abort()
			return
		}

		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, d ratelimit.Decision) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}
