package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/heartthread-backend/internal/http/handlers"
	httpMW "github.com/yungbote/heartthread-backend/internal/http/middleware"
	"github.com/yungbote/heartthread-backend/internal/observability"
	"github.com/yungbote/heartthread-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	// Tracing adds the otelgin middleware.
	Tracing     bool
	Metrics     *observability.Metrics
	CORSOrigins []string
	RateLimiter *httpMW.RateLimiter

	// Optional: when nil the API is open.
	AuthMiddleware *httpMW.AuthMiddleware

	ChatHandler   *httpH.ChatHandler
	UserHandler   *httpH.UserHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		name := cfg.ServiceName
		if name == "" {
			name = "heartthread-backend"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	protected := r.Group("/")
	protected.Use(cfg.RateLimiter.Middleware())
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Chat
	if cfg.ChatHandler != nil {
		protected.POST("/chat", cfg.ChatHandler.SendMessage)
		protected.POST("/api/chat", cfg.ChatHandler.SendMessage)
	}

	// User
	if cfg.UserHandler != nil {
		users := protected.Group("/api/users/:user_id")
		users.GET("/memory", cfg.UserHandler.GetMemory)
		users.GET("/conversation", cfg.UserHandler.GetConversation)
		users.DELETE("/conversation", cfg.UserHandler.ForgetConversation)
		users.GET("/credits", cfg.UserHandler.GetCredits)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(nethttp.StatusNotFound, gin.H{"error": gin.H{"message": "route not found", "code": "not_found"}})
	})
	return r
}
