package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"privateinbox/backend/internal/domain"
	"privateinbox/backend/internal/monitoring"
	"privateinbox/backend/internal/storage"
)

// CleanupLeaseKey 多实例部署时清理租约使用的键名
const CleanupLeaseKey = "privateinbox:cleanup:lease"

// DefaultLeaseTTL 清理租约有效期，略短于清理周期，保证同一周期内只有一个实例执行
const DefaultLeaseTTL = domain.CleanupInterval - domain.CleanupInterval/10

// ErrCleanupSkipped 另一个实例持有清理租约，本次跳过
var ErrCleanupSkipped = errors.New("cleanup lease held by another instance")

// Locker 跨实例互斥，redis.Lease 实现了该接口
type Locker interface {
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context) error
}

// CleanupService 定期将过期地址标记为不可用。
type CleanupService struct {
	store    storage.Client
	locker   Locker
	leaseTTL time.Duration
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewCleanupService 创建清理服务。
func NewCleanupService(store storage.Client, logger *zap.Logger) *CleanupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupService{
		store:    store,
		leaseTTL: DefaultLeaseTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// SetLocker 设置跨实例租约，ttl 应略短于清理周期；ttl<=0 时使用 DefaultLeaseTTL
func (s *CleanupService) SetLocker(locker Locker, ttl time.Duration) {
	s.locker = locker
	if ttl > 0 {
		s.leaseTTL = ttl
	}
}

// SetMetrics 设置监控指标（可选）
func (s *CleanupService) SetMetrics(metrics *monitoring.Metrics) {
	s.metrics = metrics
}

// SetClock 替换时钟
func (s *CleanupService) SetClock(now func() time.Time) {
	s.now = now
}

// RunOnce 执行一次清理：is_active=false where expires_at < now。
//
// 不看当前 is_active，已失效的行会被重复写入同样的值。
// 返回影响行数，存储未报告时为 -1。
func (s *CleanupService) RunOnce(ctx context.Context) (int64, error) {
	leased := false
	if s.locker != nil {
		acquired, err := s.locker.Acquire(ctx, s.leaseTTL)
		switch {
		case err != nil:
			// 租约服务不可用时照常执行，清理本身是幂等的
			s.logger.Warn("Failed to acquire cleanup lease, running anyway", zap.Error(err))
		case !acquired:
			s.record(monitoring.CleanupSkipped, 0, 0)
			return 0, ErrCleanupSkipped
		default:
			leased = true
		}
	}

	start := time.Now()
	cutoff := s.now().UTC()

	count, err := s.store.Update(ctx, domain.TableTempEmails,
		storage.Record{domain.FieldIsActive: false},
		[]storage.Filter{storage.Lt(domain.FieldExpiresAt, cutoff)},
	)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordStoreError("update")
		}
		s.record(monitoring.CleanupFailed, 0, time.Since(start))
		// 失败时释放租约，让其他实例在本周期内重试；成功时租约保留到 TTL 到期
		if leased {
			s.releaseLease(ctx)
		}
		return 0, err
	}

	s.record(monitoring.CleanupSucceeded, count, time.Since(start))
	return count, nil
}

// Run 每隔 interval 执行一次 RunOnce，直到 ctx 结束。
//
// 首次执行发生在启动后一个周期；失败只记录日志，不影响后续周期。
func (s *CleanupService) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Starting expired address cleanup task", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Cleanup task stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *CleanupService) releaseLease(ctx context.Context) {
	if err := s.locker.Release(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("Failed to release cleanup lease", zap.Error(err))
	}
}

func (s *CleanupService) tick(ctx context.Context) {
	count, err := s.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrCleanupSkipped):
		s.logger.Debug("Cleanup skipped, lease held elsewhere")
	case err != nil:
		s.logger.Error("Failed to deactivate expired addresses", zap.Error(err))
	case count > 0:
		s.logger.Info("Expired addresses deactivated", zap.Int64("count", count))
	default:
		s.logger.Debug("Cleanup finished", zap.Int64("count", count))
	}
}

func (s *CleanupService) record(result string, count int64, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordCleanup(result, count, elapsed)
	}
}
