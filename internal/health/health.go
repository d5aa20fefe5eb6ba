package health

import (
	"context"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"privateinbox/backend/internal/storage"
)

const (
	// DefaultPingTimeout 单次存储连通性检查超时
	DefaultPingTimeout = 5 * time.Second
	// DefaultGoroutineThreshold goroutine 数量告警阈值
	DefaultGoroutineThreshold = 10000
)

// Checker 存活与就绪检查器，暴露 /live 与 /ready
type Checker struct {
	health healthcheck.Handler
	logger *zap.Logger
}

// NewChecker 创建检查器
//
// 存活检查只关注进程自身；就绪检查对每个实现了 storage.Pinger 的依赖做连通性检查。
func NewChecker(logger *zap.Logger) *Checker {
	c := &Checker{
		health: healthcheck.NewHandler(),
		logger: logger,
	}
	c.health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(DefaultGoroutineThreshold))
	return c
}

// AddPinger 注册一个就绪依赖；不支持 Ping 的依赖被忽略
func (c *Checker) AddPinger(name string, dep interface{}) {
	pinger, ok := dep.(storage.Pinger)
	if !ok {
		c.logger.Debug("Dependency has no ping support, skipping readiness check", zap.String("dependency", name))
		return
	}
	c.health.AddReadinessCheck(name, PingCheck(pinger, DefaultPingTimeout))
}

// LiveHandler 存活检查处理器
func (c *Checker) LiveHandler() http.HandlerFunc {
	return c.health.LiveEndpoint
}

// ReadyHandler 就绪检查处理器
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return c.health.ReadyEndpoint
}

// PingCheck 将 storage.Pinger 包装为带超时的健康检查
func PingCheck(pinger storage.Pinger, timeout time.Duration) healthcheck.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return pinger.Ping(ctx)
	}
}
