package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"privateinbox/backend/internal/config"
	"privateinbox/backend/internal/storage"
	sqlstore "privateinbox/backend/internal/storage/sql"
)

// Client 封装 PostgreSQL 连接池，直接实现通用行操作
type Client struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// New 创建新的 PostgreSQL 客户端
func New(cfg *config.DatabaseConfig, log *zap.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// 测试连接
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("connected to PostgreSQL",
		zap.Int("max_conns", cfg.MaxOpenConns),
		zap.Int("min_conns", cfg.MaxIdleConns),
	)

	return &Client{
		pool: pool,
		log:  log,
	}, nil
}

// Insert 插入一行并通过 RETURNING 取回整行
func (c *Client) Insert(ctx context.Context, table string, record storage.Record) (storage.Record, error) {
	query, args, err := sqlstore.BuildInsert(sqlstore.Postgres, table, record)
	if err != nil {
		return nil, err
	}

	out, err := c.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("insert into %s returned no rows", table)
	}
	return out[0], nil
}

// Select 查询行
func (c *Client) Select(ctx context.Context, table string, filters []storage.Filter, order *storage.Order) ([]storage.Record, error) {
	query, args, err := sqlstore.BuildSelect(sqlstore.Postgres, table, filters, order)
	if err != nil {
		return nil, err
	}
	return c.query(ctx, query, args)
}

// Update 批量更新，返回影响行数
func (c *Client) Update(ctx context.Context, table string, patch storage.Record, filters []storage.Filter) (int64, error) {
	query, args, err := sqlstore.BuildUpdate(sqlstore.Postgres, table, patch, filters)
	if err != nil {
		return 0, err
	}

	tag, err := c.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (c *Client) query(ctx context.Context, query string, args []interface{}) ([]storage.Record, error) {
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}

	out := make([]storage.Record, len(maps))
	for i, m := range maps {
		out[i] = normalize(m)
	}
	return out, nil
}

// normalize 将 pgx 的原生类型转换为可直接 JSON 序列化的值
func normalize(m map[string]interface{}) storage.Record {
	rec := make(storage.Record, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case [16]byte:
			rec[k] = uuid.UUID(val).String()
		case []byte:
			rec[k] = string(val)
		default:
			rec[k] = v
		}
	}
	return rec
}

// Close 关闭数据库连接池
func (c *Client) Close() error {
	c.pool.Close()
	c.log.Info("PostgreSQL connection closed")
	return nil
}

// Ping 测试数据库连接
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}
