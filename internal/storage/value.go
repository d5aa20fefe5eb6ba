package storage

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier 校验表名/列名，仅允许字母、数字和下划线
func ValidIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// ValidateFilters 校验过滤条件的列名与运算符
func ValidateFilters(filters []Filter) error {
	for _, f := range filters {
		if err := ValidIdentifier(f.Column); err != nil {
			return err
		}
		if f.Operator != OpEq && f.Operator != OpLt {
			return fmt.Errorf("%w: %q", ErrUnsupportedOperator, f.Operator)
		}
	}
	return nil
}

// SortedColumns 返回记录的列名（按字典序），用于生成稳定的 SQL
func SortedColumns(r Record) []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Compare 比较两个列值：a<b 返回 -1，相等返回 0，a>b 返回 1。
// 支持时间（含 RFC3339 字符串）、数值、字符串与布尔值；类型无法比较时 ok 为 false。
func Compare(a, b interface{}) (result int, ok bool) {
	if ta, okA := asTime(a); okA {
		if tb, okB := asTime(b); okB {
			return cmpTime(ta, tb), true
		}
	}
	if fa, okA := asFloat(a); okA {
		if fb, okB := asFloat(b); okB {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			}
			return 0, true
		}
	}
	if ba, okA := a.(bool); okA {
		if bb, okB := b.(bool); okB {
			switch {
			case ba == bb:
				return 0, true
			case !ba:
				return -1, true
			}
			return 1, true
		}
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

// Match 判断记录是否满足全部过滤条件
func Match(r Record, filters []Filter) bool {
	for _, f := range filters {
		v, exists := r[f.Column]
		if !exists {
			return false
		}
		c, ok := Compare(v, f.Value)
		if !ok {
			return false
		}
		switch f.Operator {
		case OpEq:
			if c != 0 {
				return false
			}
		case OpLt:
			if c >= 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func cmpTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// StringValue 将存储返回的 id 等标量值转为字符串
func StringValue(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
