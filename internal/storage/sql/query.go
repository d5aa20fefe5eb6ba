package sql

import (
	"fmt"
	"strings"

	"privateinbox/backend/internal/storage"
)

// Dialect 描述 SQL 方言差异（占位符、标识符引用、RETURNING 支持）
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// Placeholder 返回第 n 个参数的占位符（从 1 开始）
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Quote 引用标识符，调用前须已通过 storage.ValidIdentifier 校验
func (d Dialect) Quote(name string) string {
	if d == MySQL {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

// SupportsReturning 是否支持 INSERT ... RETURNING
func (d Dialect) SupportsReturning() bool {
	return d == Postgres
}

var operatorSQL = map[storage.Operator]string{
	storage.OpEq: "=",
	storage.OpLt: "<",
}

// BuildInsert 生成单行插入语句，列按字典序排列
func BuildInsert(d Dialect, table string, record storage.Record) (string, []interface{}, error) {
	if err := storage.ValidIdentifier(table); err != nil {
		return "", nil, err
	}
	if len(record) == 0 {
		return "", nil, fmt.Errorf("insert into %s: empty record", table)
	}

	cols := storage.SortedColumns(record)
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, col := range cols {
		if err := storage.ValidIdentifier(col); err != nil {
			return "", nil, err
		}
		quoted[i] = d.Quote(col)
		marks[i] = d.Placeholder(i + 1)
		args[i] = record[col]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
	if d.SupportsReturning() {
		query += " RETURNING *"
	}
	return query, args, nil
}

// BuildSelect 生成带过滤与排序的查询语句
func BuildSelect(d Dialect, table string, filters []storage.Filter, order *storage.Order) (string, []interface{}, error) {
	if err := storage.ValidIdentifier(table); err != nil {
		return "", nil, err
	}
	where, args, err := buildWhere(d, filters, 1)
	if err != nil {
		return "", nil, err
	}

	query := "SELECT * FROM " + d.Quote(table) + where
	if order != nil {
		if err := storage.ValidIdentifier(order.Column); err != nil {
			return "", nil, err
		}
		dir := "ASC"
		if order.Descending {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s", d.Quote(order.Column), dir)
	}
	return query, args, nil
}

// BuildUpdate 生成批量更新语句
func BuildUpdate(d Dialect, table string, patch storage.Record, filters []storage.Filter) (string, []interface{}, error) {
	if err := storage.ValidIdentifier(table); err != nil {
		return "", nil, err
	}
	if len(patch) == 0 {
		return "", nil, storage.ErrEmptyPatch
	}

	cols := storage.SortedColumns(patch)
	sets := make([]string, len(cols))
	args := make([]interface{}, 0, len(cols)+len(filters))
	for i, col := range cols {
		if err := storage.ValidIdentifier(col); err != nil {
			return "", nil, err
		}
		sets[i] = fmt.Sprintf("%s = %s", d.Quote(col), d.Placeholder(i+1))
		args = append(args, patch[col])
	}

	where, whereArgs, err := buildWhere(d, filters, len(cols)+1)
	if err != nil {
		return "", nil, err
	}
	args = append(args, whereArgs...)

	return fmt.Sprintf("UPDATE %s SET %s%s", d.Quote(table), strings.Join(sets, ", "), where), args, nil
}

func buildWhere(d Dialect, filters []storage.Filter, start int) (string, []interface{}, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	if err := storage.ValidateFilters(filters); err != nil {
		return "", nil, err
	}

	conds := make([]string, len(filters))
	args := make([]interface{}, len(filters))
	for i, f := range filters {
		conds[i] = fmt.Sprintf("%s %s %s", d.Quote(f.Column), operatorSQL[f.Operator], d.Placeholder(start+i))
		args[i] = f.Value
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}
