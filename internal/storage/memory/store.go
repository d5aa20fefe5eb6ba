package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"privateinbox/backend/internal/storage"
)

// Store 使用内存保存数据行，主要用于开发验证与测试。
//
// 行为上模拟托管存储的默认值：缺少 id 时分配 UUID，缺少 created_at 时写入当前时间。
type Store struct {
	mu     sync.RWMutex
	tables map[string][]storage.Record
	now    func() time.Time
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		tables: make(map[string][]storage.Record),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Insert 插入一行并返回副本
func (s *Store) Insert(ctx context.Context, table string, record storage.Record) (storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := storage.ValidIdentifier(table); err != nil {
		return nil, err
	}

	row := clone(record)
	if _, ok := row["id"]; !ok {
		row["id"] = uuid.NewString()
	}
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = s.now()
	}

	s.mu.Lock()
	s.tables[table] = append(s.tables[table], row)
	s.mu.Unlock()

	return clone(row), nil
}

// Select 返回满足条件的行副本
func (s *Store) Select(ctx context.Context, table string, filters []storage.Filter, order *storage.Order) ([]storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := storage.ValidateFilters(filters); err != nil {
		return nil, err
	}

	s.mu.RLock()
	rows := make([]storage.Record, 0)
	for _, row := range s.tables[table] {
		if storage.Match(row, filters) {
			rows = append(rows, clone(row))
		}
	}
	s.mu.RUnlock()

	if order != nil {
		sort.SliceStable(rows, func(i, j int) bool {
			c, ok := storage.Compare(rows[i][order.Column], rows[j][order.Column])
			if !ok {
				return false
			}
			if order.Descending {
				return c > 0
			}
			return c < 0
		})
	}

	return rows, nil
}

// Update 对满足条件的行应用 patch
func (s *Store) Update(ctx context.Context, table string, patch storage.Record, filters []storage.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(patch) == 0 {
		return 0, storage.ErrEmptyPatch
	}
	if err := storage.ValidateFilters(filters); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, row := range s.tables[table] {
		if !storage.Match(row, filters) {
			continue
		}
		for k, v := range patch {
			row[k] = v
		}
		count++
	}
	return count, nil
}

// Ping 内存存储总是可用
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len 返回表中的行数
func (s *Store) Len(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[table])
}

func clone(r storage.Record) storage.Record {
	out := make(storage.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
