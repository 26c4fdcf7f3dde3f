package app

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/heartthread-backend/internal/http"
	httpH "github.com/yungbote/heartthread-backend/internal/http/handlers"
	httpMW "github.com/yungbote/heartthread-backend/internal/http/middleware"
	"github.com/yungbote/heartthread-backend/internal/observability"
	"github.com/yungbote/heartthread-backend/internal/platform/logger"
)

type Middleware struct {
	Auth      *httpMW.AuthMiddleware
	RateLimit *httpMW.RateLimiter
}

type Handlers struct {
	Health *httpH.HealthHandler
	Chat   *httpH.ChatHandler
	User   *httpH.UserHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, clients Clients, usecases Usecases) Handlers {
	log.Info("Wiring handlers...")
	checks := []httpH.HealthCheck{{
		Name: "database",
		Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if clients.Redis != nil {
		checks = append(checks, httpH.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return clients.Redis.Ping(ctx).Err() },
		})
	}
	return Handlers{
		Health: httpH.NewHealthHandler(checks...),
		Chat:   httpH.NewChatHandler(usecases.Chat),
		User:   httpH.NewUserHandler(usecases.Chat),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	var mw Middleware
	if secret := strings.TrimSpace(cfg.HTTP.JWTSecretKey); secret != "" {
		mw.Auth = httpMW.NewAuthMiddleware(log, secret)
	} else {
		log.Warn("JWT_SECRET_KEY unset; API is unauthenticated")
	}
	if cfg.HTTP.RateLimitRPS > 0 {
		mw.RateLimit = httpMW.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
	}
	return mw
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		ServiceName:    cfg.Otel.ServiceName,
		Tracing:        cfg.Otel.Enabled,
		Metrics:        metrics,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RateLimiter:    middleware.RateLimit,
		AuthMiddleware: middleware.Auth,
		ChatHandler:    handlers.Chat,
		UserHandler:    handlers.User,
		HealthHandler:  handlers.Health,
	})
}
