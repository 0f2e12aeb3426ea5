package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yukikurage/timecard-api/internal/config"
	"github.com/yukikurage/timecard-api/internal/database"
	"github.com/yukikurage/timecard-api/internal/lock"
	"github.com/yukikurage/timecard-api/internal/logger"
	"github.com/yukikurage/timecard-api/internal/ratelimit"
	"github.com/yukikurage/timecard-api/internal/timezone"
)

const (
	sessionMaxAge   = 86400 * 7
	clockLockTTL    = 10 * time.Second
	clockLockWait   = 3 * time.Second
	rateLimitWindow = time.Minute
	shutdownTimeout = 10 * time.Second
)

// bootstrap loads configuration and opens the database.
func bootstrap(configFile string) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Init(cfg)
	timezone.SetBusiness(cfg.Timezone)

	if err := database.Connect(cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, nil
}

func migrate(configFile string) error {
	if _, err := bootstrap(configFile); err != nil {
		return err
	}
	defer database.Close()

	return database.Migrate()
}

func serve(configFile string) error {
	cfg, err := bootstrap(configFile)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := database.ConnectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	gin.SetMode(cfg.GinMode)

	store, err := sessionStore(cfg, rdb)
	if err != nil {
		return err
	}

	var locker lock.Locker = lock.NewLocalLocker()
	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter(cfg.AuthRateLimit, rateLimitWindow)
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb, "timecard:clock:", clockLockTTL, clockLockWait)
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.AuthRateLimit, rateLimitWindow)
	}

	r := newRouter(cfg, database.GetDB(), store, locker, limiter)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "timezone", cfg.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sessionStore keeps sessions in Redis when available and in signed cookies otherwise.
func sessionStore(cfg *config.Config, rdb *redis.Client) (sessions.Store, error) {
	var store sessions.Store
	if rdb != nil {
		rs, err := redisStore.NewStore(
			10,
			"tcp",
			cfg.RedisAddr(),
			"",
			cfg.RedisPassword,
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis session store: %w", err)
		}
		store = rs
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}
