package commonrepo

import (
	"fmt"

	"github.com/jobs/crontab/internal/biz/filter"
	"gorm.io/gorm"
)

// Columns 允许出现在查询条件中的列
type Columns map[string]struct{}

func NewColumns(names ...string) Columns {
	c := make(Columns, len(names))
	for _, n := range names {
		c[n] = struct{}{}
	}
	return c
}

// Where 把过滤条件挂到查询上，列名必须在白名单内
func Where(tx *gorm.DB, conds []filter.Condition, allowed Columns) (*gorm.DB, error) {
	for _, c := range conds {
		if _, ok := allowed[c.Field]; !ok {
			return nil, fmt.Errorf("%w: unknown field %q", filter.ErrInvalidFilter, c.Field)
		}
		sql, args := c.Clause()
		tx = tx.Where(sql, args...)
	}
	return tx, nil
}

func Paginate(q filter.Query) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Offset(q.Offset()).Limit(q.Limit)
	}
}
