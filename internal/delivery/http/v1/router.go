package v1

import (
	"portfolio-backend/config"
	"portfolio-backend/internal/delivery/http/middleware"
	"portfolio-backend/internal/domain"
	"portfolio-backend/pkg/logger"
	"portfolio-backend/pkg/ratelimit"
	"portfolio-backend/pkg/security"
	"portfolio-backend/pkg/session"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	ContactUC domain.ContactUsecase
	HealthUC  domain.HealthUsecase
	Sessions  *session.Manager
	// Global limiter store and its fail-open fallback
	GlobalStore    ratelimit.Store
	GlobalFallback ratelimit.Store
	// Contact limiter store; failures reject the submission
	ContactStore   ratelimit.Store
	SecurityLogger *security.SecurityLogger
	Config         *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	r := gin.New()

	// Forwarded headers are honoured only from TRUSTED_PROXIES; gin trusts all by default.
	if err := r.SetTrustedProxies(trustedProxies(cfg.TrustedProxies)); err != nil {
		logger.Log.Error("Invalid TRUSTED_PROXIES, ignoring forwarded headers", "error", err)
		_ = r.SetTrustedProxies(nil)
	}

	if !publicDirExists(cfg.PublicDir) {
		logger.Log.Warn("Public directory not found, pages will 404", "public_dir", cfg.PublicDir)
	}

	globalLimit := middleware.GlobalRateLimitConfig(deps.GlobalStore, deps.GlobalFallback, cfg.RateLimitGlobalMax, cfg.RateLimitGlobalWindow)
	globalLimit.SecurityLogger = deps.SecurityLogger

	contactLimit := middleware.ContactRateLimitConfig(deps.ContactStore, cfg.ContactRateLimitMax, cfg.ContactRateLimitWindow)
	contactLimit.SecurityLogger = deps.SecurityLogger

	// Global Middlewares, outermost first
	r.Use(middleware.Recovery(deps.SecurityLogger))
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(logger.Log))
	r.Use(middleware.SecurityHeadersMiddleware(middleware.SecurityHeadersConfig{
		EnableCSP: cfg.IsProduction(),
		HSTS:      cfg.IsProduction(),
	}))
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middleware.RateLimitMiddleware(globalLimit))
	r.Use(middleware.BodyLimit(middleware.DefaultBodyLimit))
	r.Use(session.Middleware(deps.Sessions))
	r.Use(middleware.ErrorHandler(deps.SecurityLogger))

	NewHealthHandler(r, deps.HealthUC)
	NewContactHandler(r, deps.ContactUC, middleware.RateLimitMiddleware(contactLimit))

	// Swagger
	if !cfg.IsProduction() {
		r.GET("/api/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	NewPagesHandler(r, cfg.PublicDir)

	return r
}

func trustedProxies(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	return list
}
