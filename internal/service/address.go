package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"privateinbox/backend/internal/domain"
	"privateinbox/backend/internal/monitoring"
	"privateinbox/backend/internal/storage"
)

// AddressGenerator 生成候选邮箱地址
type AddressGenerator interface {
	Generate() string
}

// CreatedAddress 新签发地址的结果
type CreatedAddress struct {
	ID        string
	Email     string
	ExpiresAt time.Time
}

// AddressService 封装临时地址的签发与收件箱查询。
//
// 存储错误原样返回，不做包装，调用方可直接把错误信息交给客户端。
type AddressService struct {
	store     storage.Client
	generator AddressGenerator
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewAddressService 创建地址业务服务。
func NewAddressService(store storage.Client, generator AddressGenerator, logger *zap.Logger) *AddressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AddressService{
		store:     store,
		generator: generator,
		logger:    logger,
		now:       time.Now,
	}
}

// SetMetrics 设置监控指标（可选）
func (s *AddressService) SetMetrics(metrics *monitoring.Metrics) {
	s.metrics = metrics
}

// SetClock 替换时钟，测试中用于固定过期时间
func (s *AddressService) SetClock(now func() time.Time) {
	s.now = now
}

// Create 生成一个地址并写入 temp_emails，有效期 24 小时。
//
// 不检查地址是否已存在，也不重试。
func (s *AddressService) Create(ctx context.Context) (*CreatedAddress, error) {
	email := s.generator.Generate()
	// 存储与响应均为毫秒精度，截断后两者一致
	expiresAt := s.now().UTC().Add(domain.AddressTTL).Truncate(time.Millisecond)

	row, err := s.store.Insert(ctx, domain.TableTempEmails, storage.Record{
		domain.FieldEmailAddress: email,
		domain.FieldExpiresAt:    expiresAt,
		domain.FieldIsActive:     true,
		domain.FieldPlanType:     domain.PlanFree,
	})
	if err != nil {
		s.recordStoreError("insert")
		s.logger.Error("Failed to create temp email",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, err
	}

	created := &CreatedAddress{
		ID:        storage.StringValue(row[domain.FieldID]),
		Email:     email,
		ExpiresAt: expiresAt,
	}

	if s.metrics != nil {
		s.metrics.RecordAddressCreated()
	}
	s.logger.Info("Temp email created",
		zap.String("id", created.ID),
		zap.String("email", created.Email),
		zap.Time("expires_at", created.ExpiresAt),
	)

	return created, nil
}

// ListMessages 返回发往 address 的全部邮件，按 created_at 倒序。
//
// 地址原样作为过滤值，不校验格式，也不要求地址曾经签发过。结果从不为 nil。
func (s *AddressService) ListMessages(ctx context.Context, address string) ([]domain.ReceivedEmail, error) {
	rows, err := s.store.Select(ctx, domain.TableReceivedEmails,
		[]storage.Filter{storage.Eq(domain.FieldRecipientEmail, address)},
		&storage.Order{Column: domain.FieldCreatedAt, Descending: true},
	)
	if err != nil {
		s.recordStoreError("select")
		s.logger.Error("Failed to list received emails",
			zap.String("recipient", address),
			zap.Error(err),
		)
		return nil, err
	}

	emails := make([]domain.ReceivedEmail, 0, len(rows))
	for _, row := range rows {
		emails = append(emails, domain.ReceivedEmail(row))
	}

	if s.metrics != nil {
		s.metrics.RecordMessageLookup()
	}
	s.logger.Debug("Received emails listed",
		zap.String("recipient", address),
		zap.Int("count", len(emails)),
	)

	return emails, nil
}

func (s *AddressService) recordStoreError(operation string) {
	if s.metrics != nil {
		s.metrics.RecordStoreError(operation)
	}
}
