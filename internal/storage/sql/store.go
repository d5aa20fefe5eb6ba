package sql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver

	"privateinbox/backend/internal/storage"
)

// Store SQL 数据库存储实现（支持 MySQL 5.7+ 和 PostgreSQL）
//
// MySQL 的 DSN 需要带 parseTime=true，时间列才能按 time.Time 返回。
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// NewStore 创建SQL数据库存储
func NewStore(
	driverName string,
	dsn string,
	maxOpenConns int,
	maxIdleConns int,
	connMaxLifetime time.Duration,
) (*Store, error) {
	// 验证驱动类型
	if driverName != string(MySQL) && driverName != string(Postgres) {
		return nil, fmt.Errorf("unsupported database driver: %s (supported: mysql, postgres)", driverName)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewStoreWithDB(db, Dialect(driverName)), nil
}

// NewStoreWithDB 使用已打开的连接创建存储
func NewStoreWithDB(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Insert 插入一行。PostgreSQL 使用 RETURNING 取回整行；
// MySQL 没有 RETURNING，由本地生成 UUID 作为 id 后再查询回来。
func (s *Store) Insert(ctx context.Context, table string, record storage.Record) (storage.Record, error) {
	row := make(storage.Record, len(record)+1)
	for k, v := range record {
		row[k] = v
	}
	if !s.dialect.SupportsReturning() {
		if _, ok := row["id"]; !ok {
			row["id"] = uuid.NewString()
		}
	}

	query, args, err := BuildInsert(s.dialect, table, row)
	if err != nil {
		return nil, err
	}

	if s.dialect.SupportsReturning() {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		out, err := scanRecords(rows)
		if err != nil {
			return nil, err
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("insert into %s returned no rows", table)
		}
		return out[0], nil
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}

	out, err := s.Select(ctx, table, []storage.Filter{storage.Eq("id", row["id"])}, nil)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return row, nil
	}
	return out[0], nil
}

// Select 查询行
func (s *Store) Select(ctx context.Context, table string, filters []storage.Filter, order *storage.Order) ([]storage.Record, error) {
	query, args, err := BuildSelect(s.dialect, table, filters, order)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Update 批量更新，返回影响行数
func (s *Store) Update(ctx context.Context, table string, patch storage.Record, filters []storage.Filter) (int64, error) {
	query, args, err := BuildUpdate(s.dialect, table, patch, filters)
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return -1, nil
	}
	return affected, nil
}

// Ping 检查数据库连通性
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.PingContext(ctx)
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// scanRecords 将结果集按列名转换为 Record，[]byte 统一转为 string
func scanRecords(rows *sql.Rows) ([]storage.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]storage.Record, 0)
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(storage.Record, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
				continue
			}
			rec[col] = values[i]
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
