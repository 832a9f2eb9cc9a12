// Package filter turns the list endpoints' `filter`/`op` JSON query
// parameters into typed conditions that repositories bind as SQL arguments.
package filter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cast"
)

var ErrInvalidFilter = errors.New("invalid filter")

const (
	DefaultPage  = 1
	DefaultLimit = 15
	MaxLimit     = 1000
)

type Operator string

const (
	OpEqual    Operator = "="
	OpContains Operator = "%*%"
	OpPrefix   Operator = "*%"
	OpSuffix   Operator = "%*"
	OpRange    Operator = "range"
	OpIn       Operator = "in"
)

var fieldPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Condition 单个查询条件
type Condition struct {
	Field  string
	Op     Operator
	Values []any
}

// Clause 生成 WHERE 片段，参数全部走占位符
func (c Condition) Clause() (string, []any) {
	switch c.Op {
	case OpEqual:
		return c.Field + " = ?", c.Values
	case OpContains, OpPrefix, OpSuffix:
		return c.Field + " LIKE ?", c.Values
	case OpRange:
		return c.Field + " >= ? AND " + c.Field + " <= ?", c.Values
	case OpIn:
		return c.Field + " IN ?", []any{c.Values}
	}
	return "1 = 0", nil
}

// Query 分页 + 条件
type Query struct {
	Page       int
	Limit      int
	Conditions []Condition
	// Excluded 调用方声明的特殊字段，不参与条件构造，原样返回
	Excluded map[string]string
}

func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Params 列表接口的原始查询参数
type Params struct {
	Page   int    `form:"page" json:"page"`
	Limit  int    `form:"limit" json:"limit"`
	Filter string `form:"filter" json:"filter"`
	Op     string `form:"op" json:"op"`
}

// Parse 解析 filter/op，exclude 中的字段放入 Query.Excluded
func Parse(p Params, exclude ...string) (Query, error) {
	return ParseIn(p, time.Local, exclude...)
}

// ParseIn 同 Parse，range 里的日期按 loc 解析
func ParseIn(p Params, loc *time.Location, exclude ...string) (Query, error) {
	q := Query{
		Page:     p.Page,
		Limit:    p.Limit,
		Excluded: map[string]string{},
	}
	if q.Page <= 0 {
		q.Page = DefaultPage
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	q.Limit = min(q.Limit, MaxLimit)

	filters, err := decodeObject(p.Filter)
	if err != nil {
		return q, fmt.Errorf("%w: filter: %v", ErrInvalidFilter, err)
	}
	ops, err := decodeObject(p.Op)
	if err != nil {
		return q, fmt.Errorf("%w: op: %v", ErrInvalidFilter, err)
	}

	// map iteration order is random, keep the generated SQL stable
	keys := lo.Keys(filters)
	sort.Strings(keys)

	for _, key := range keys {
		val := filters[key]
		if lo.Contains(exclude, key) {
			q.Excluded[key] = cast.ToString(val)
			continue
		}
		if !fieldPattern.MatchString(key) {
			return q, fmt.Errorf("%w: field %q", ErrInvalidFilter, key)
		}

		op := OpContains
		if raw, ok := ops[key]; ok && cast.ToString(raw) != "" {
			op = Operator(strings.ToLower(cast.ToString(raw)))
		}

		cond, err := build(key, op, val, loc)
		if err != nil {
			return q, err
		}
		q.Conditions = append(q.Conditions, cond)
	}
	return q, nil
}

func build(field string, op Operator, val any, loc *time.Location) (Condition, error) {
	c := Condition{Field: field, Op: op}
	switch op {
	case OpEqual:
		c.Values = []any{scalar(val)}
	case OpContains:
		c.Values = []any{"%" + cast.ToString(val) + "%"}
	case OpPrefix:
		c.Values = []any{cast.ToString(val) + "%"}
	case OpSuffix:
		c.Values = []any{"%" + cast.ToString(val)}
	case OpRange:
		parts := strings.Split(cast.ToString(val), " - ")
		if len(parts) != 2 {
			return c, fmt.Errorf("%w: range for %q must look like \"start - end\"", ErrInvalidFilter, field)
		}
		begin, err := epoch(parts[0], loc)
		if err != nil {
			return c, fmt.Errorf("%w: range start for %q: %v", ErrInvalidFilter, field, err)
		}
		end, err := epoch(parts[1], loc)
		if err != nil {
			return c, fmt.Errorf("%w: range end for %q: %v", ErrInvalidFilter, field, err)
		}
		c.Values = []any{begin, end}
	case OpIn:
		items := lo.Filter(lo.Map(list(val), func(s string, _ int) string {
			return strings.TrimSpace(s)
		}), func(s string, _ int) bool { return s != "" })
		if len(items) == 0 {
			return c, fmt.Errorf("%w: empty in-list for %q", ErrInvalidFilter, field)
		}
		c.Values = lo.Map(items, func(s string, _ int) any { return scalar(s) })
	default:
		return c, fmt.Errorf("%w: unknown operator %q for %q", ErrInvalidFilter, op, field)
	}
	return c, nil
}

func decodeObject(raw string) (map[string]any, error) {
	out := map[string]any{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewBufferString(raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// scalar 尽量把数字字符串还原成整数，其余保持字符串
func scalar(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		return x.String()
	case string:
		if i, err := cast.ToInt64E(x); err == nil && cast.ToString(i) == x {
			return i
		}
		return x
	default:
		return cast.ToString(v)
	}
}

func list(v any) []string {
	if s, ok := v.(string); ok {
		return strings.Split(s, ",")
	}
	return lo.Map(cast.ToSlice(v), func(item any, _ int) string {
		return cast.ToString(item)
	})
}

// epoch accepts unix seconds or a date/time string in loc.
func epoch(s string, loc *time.Location) (int64, error) {
	s = strings.TrimSpace(s)
	if i, err := cast.ToInt64E(s); err == nil && cast.ToString(i) == s {
		return i, nil
	}
	t, err := cast.ToTimeInDefaultLocationE(s, loc)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}
