package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-backend/config"
	_ "portfolio-backend/docs" // Important for Swagger
	v1 "portfolio-backend/internal/delivery/http/v1"
	"portfolio-backend/internal/domain"
	"portfolio-backend/internal/repository/postgres"
	"portfolio-backend/internal/usecase"
	"portfolio-backend/pkg/database"
	"portfolio-backend/pkg/email"
	"portfolio-backend/pkg/logger"
	"portfolio-backend/pkg/ratelimit"
	"portfolio-backend/pkg/redis"
	"portfolio-backend/pkg/security"
	"portfolio-backend/pkg/session"
	"portfolio-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/compress/gzhttp"
	goredis "github.com/redis/go-redis/v9"
)

const (
	serviceName     = "portfolio-backend"
	shutdownTimeout = 10 * time.Second
	sweepInterval   = 10 * time.Minute
)

// @title           Portfolio API
// @version         1.0
// @description     Contact form and health endpoints of the portfolio site.
// @host            localhost:3000
// @BasePath        /
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logFile := logger.Init(cfg.LogLevel, cfg.LogFile)
	defer logFile.Close()
	logger.Log.Info("Starting portfolio backend", "port", cfg.Port, "env", cfg.Env)
	for _, w := range cfg.Warnings() {
		logger.Log.Warn(w)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	zapLogger := security.NewZapLogger()
	secLogger := security.NewSecurityLogger(zapLogger, serviceName, cfg.Env)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStart()

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// 3. Setup Database (optional)
	var dbPool *pgxpool.Pool
	if cfg.DBUrl != "" {
		dbPool, err = database.NewPostgresConnection(startCtx, cfg.DBUrl)
		if err != nil {
			logger.Log.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()

		if cfg.SecurityLogToDB {
			eventRepo := security.NewSecurityEventRepository(dbPool)
			if err := eventRepo.EnsureSchema(startCtx); err != nil {
				logger.Log.Error("Failed to prepare security_events", "error", err)
				os.Exit(1)
			}
			secLogger.SetPersistFunc(eventRepo.CreatePersistFunc())
		}
	}

	// 4. Setup Redis (optional)
	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(startCtx, redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword})
		if err != nil {
			logger.Log.Error("Failed to connect to redis", "error", err)
			os.Exit(1)
		}
	}

	// 5. Setup Rate Limit Stores
	memoryLimits := ratelimit.NewMemoryStore(time.Minute)
	var globalStore, contactStore ratelimit.Store = memoryLimits, memoryLimits
	if redisClient != nil {
		redisLimits := ratelimit.NewRedisStore(redisClient)
		globalStore, contactStore = redisLimits, redisLimits
	}

	// 6. Setup Sessions
	var sessionStore session.Store
	if dbPool != nil {
		pgSessions := session.NewPostgresStore(dbPool)
		if err := pgSessions.EnsureSchema(startCtx); err != nil {
			logger.Log.Error("Failed to prepare sessions table", "error", err)
			os.Exit(1)
		}
		go session.RunSweeper(bgCtx, pgSessions, sweepInterval)
		sessionStore = pgSessions
	} else {
		memSessions := session.NewMemoryStore()
		go session.RunSweeper(bgCtx, memSessions, sweepInterval)
		sessionStore = memSessions
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = session.RandomSecret()
	}
	sessions := session.NewManager(sessionStore, secret, session.Options{
		TTL:    cfg.SessionTTL,
		Secure: cfg.IsProduction(),
	})

	// 7. Setup Accept Hooks
	hooks := []domain.AcceptHook{usecase.DelayHook(cfg.ContactSubmitDelay)}
	if cfg.ContactPersist {
		submissionRepo := postgres.NewSubmissionRepository(dbPool)
		if err := submissionRepo.EnsureSchema(startCtx); err != nil {
			logger.Log.Error("Failed to prepare contact_submissions", "error", err)
			os.Exit(1)
		}
		hooks = append(hooks, usecase.PersistHook(submissionRepo))
	}
	if cfg.SMTPConfigured() {
		hooks = append(hooks, usecase.NotifyHook(email.NewMailer(cfg)))
	} else {
		logger.Log.Info("SMTP not configured, contact notifications disabled")
	}

	// 8. Setup UseCases
	contactUC := usecase.NewContactUsecase(validation.New(), usecase.ChainHooks(hooks...), secLogger)
	healthUC := usecase.NewHealthUsecase(time.Now(), nil)

	// 9. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ContactUC:      contactUC,
		HealthUC:       healthUC,
		Sessions:       sessions,
		GlobalStore:    globalStore,
		GlobalFallback: memoryLimits,
		ContactStore:   contactStore,
		SecurityLogger: secLogger,
		Config:         cfg,
	})

	// 10. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           gzhttp.GzipHandler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server running", "addr", "http://localhost:"+cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Log.Info("Shutting down server...", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	stopBackground()
	if err := sessions.Close(); err != nil {
		logger.Log.Warn("Session store close failed", "error", err)
	}
	if err := globalStore.Close(); err != nil {
		logger.Log.Warn("Rate limit store close failed", "error", err)
	}
	_ = memoryLimits.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Log.Warn("Redis close failed", "error", err)
		}
	}
	_ = secLogger.Sync()

	logger.Log.Info("Server exiting")
}
