package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"privateinbox/backend/internal/config"
	"privateinbox/backend/internal/health"
	"privateinbox/backend/internal/middleware"
	"privateinbox/backend/internal/monitoring"
	"privateinbox/backend/internal/service"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config         *config.Config
	AddressService *service.AddressService
	Metrics        *monitoring.Metrics // 可选，nil 时不挂载 /metrics
	Health         *health.Checker     // 可选，nil 时不挂载 /live 与 /ready
	Logger         *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	// 日志与指标位于 Recovery 外层，panic 恢复后的 500 同样会被记录
	router.Use(middleware.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		router.Use(middleware.HTTPMetrics(deps.Metrics))
	}
	router.Use(middleware.RecoveryHandler(deps.Logger, deps.Metrics))
	router.Use(middleware.SecurityHeaders())
	router.Use(gincors.New(corsConfig(deps.Config.CORS.AllowedOrigins)))

	handler := NewHandler(deps.AddressService)

	api := router.Group("/api")
	{
		api.POST("/generate-email", handler.generateEmail)
		api.GET("/emails/:emailAddress", handler.listEmails)
		api.GET("/health", handler.health)
	}

	if deps.Metrics != nil && deps.Config.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	if deps.Health != nil {
		router.GET("/live", gin.WrapF(deps.Health.LiveHandler()))
		router.GET("/ready", gin.WrapF(deps.Health.ReadyHandler()))
	}

	router.NoRoute(NotFound)

	return router
}

// corsConfig 构造 CORS 配置；包含 "*" 时允许所有来源且不携带凭证
func corsConfig(origins []string) gincors.Config {
	cfg := gincors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowOrigins = nil
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			break
		}
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}

	return cfg
}
