package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnsupportedOperator 过滤条件使用了不支持的运算符
	ErrUnsupportedOperator = errors.New("unsupported filter operator")
	// ErrEmptyPatch 更新内容为空
	ErrEmptyPatch = errors.New("update patch is empty")
	// ErrInvalidIdentifier 表名或列名不合法
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// Record 表示一行数据，键为列名。
type Record map[string]interface{}

// Operator 过滤运算符
type Operator string

const (
	OpEq Operator = "eq" // 等于
	OpLt Operator = "lt" // 严格小于
)

// Filter 单列过滤条件，多个条件之间为 AND 关系。
type Filter struct {
	Column   string
	Operator Operator
	Value    interface{}
}

// Eq 构造等值过滤条件
func Eq(column string, value interface{}) Filter {
	return Filter{Column: column, Operator: OpEq, Value: value}
}

// Lt 构造小于过滤条件
func Lt(column string, value interface{}) Filter {
	return Filter{Column: column, Operator: OpLt, Value: value}
}

// Order 排序规则
type Order struct {
	Column     string
	Descending bool
}

// Client 定义外部数据存储的通用行操作。
//
// 实现必须可被多个 goroutine 同时调用，每次调用都是独立的一次往返。
type Client interface {
	// Insert 插入一行并返回存储后的完整记录（包含存储分配的 id）
	Insert(ctx context.Context, table string, record Record) (Record, error)
	// Select 查询满足全部过滤条件的行，order 为 nil 时不保证顺序
	Select(ctx context.Context, table string, filters []Filter, order *Order) ([]Record, error)
	// Update 对满足过滤条件的行应用 patch，返回影响行数；无法获知时返回 -1
	Update(ctx context.Context, table string, patch Record, filters []Filter) (int64, error)
}

// Pinger 可选接口：支持连通性检查的存储实现
type Pinger interface {
	Ping(ctx context.Context) error
}

// Closer 可选接口：持有连接资源的存储实现
type Closer interface {
	Close() error
}

// FormatTime 将时间格式化为存储层统一使用的 UTC RFC3339 字符串
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
