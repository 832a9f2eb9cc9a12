package tasklogrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	domain "github.com/jobs/crontab/internal/biz/tasklog"
)

// EnsurePartition 当前月份的分表已确认存在时只读缓存，否则检查并建表
func (r *RepositoryImpl) EnsurePartition(ctx context.Context, now time.Time) (bool, error) {
	suffix := domain.Suffix(now.In(r.loc))

	r.mu.RLock()
	cached := r.current
	r.mu.RUnlock()
	if cached == suffix {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == suffix {
		return false, nil
	}

	created, err := r.createPartition(ctx, suffix)
	if err != nil {
		return false, err
	}
	r.current = suffix
	return created, nil
}

func (r *RepositoryImpl) createPartition(ctx context.Context, suffix string) (bool, error) {
	name := tableName(suffix)
	db := r.Db(ctx)
	if db.Migrator().HasTable(name) {
		return false, nil
	}
	if err := db.Table(name).AutoMigrate(&TaskLogPo{}); err != nil {
		return false, fmt.Errorf("create log table %s: %w", name, err)
	}
	return true, nil
}

func (r *RepositoryImpl) Partitions(ctx context.Context) ([]string, error) {
	tables, err := r.Db(ctx).Migrator().GetTables()
	if err != nil {
		return nil, err
	}

	var out []string
	for _, t := range tables {
		raw, ok := strings.CutPrefix(t, tablePrefix)
		if !ok || len(raw) != 6 {
			continue
		}
		if suffix, err := domain.ParseMonth(raw); err == nil {
			out = append(out, suffix)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *RepositoryImpl) Cleanup(ctx context.Context, days int, now time.Time) (*domain.CleanupResult, error) {
	result := &domain.CleanupResult{}
	if days <= 0 {
		return result, nil
	}

	cutoff := now.In(r.loc).AddDate(0, 0, -days)
	partitions, err := r.Partitions(ctx)
	if err != nil {
		return nil, err
	}

	for _, suffix := range partitions {
		start, end, err := domain.MonthRange(suffix, r.loc)
		if err != nil {
			return result, err
		}
		name := tableName(suffix)

		switch {
		case !end.After(cutoff):
			if err := r.Db(ctx).Migrator().DropTable(name); err != nil {
				return result, fmt.Errorf("drop log table %s: %w", name, err)
			}
			result.DroppedTables = append(result.DroppedTables, name)
			r.forget(suffix)
		case start.Before(cutoff):
			tx := r.Db(ctx).Table(name).Where("create_time < ?", cutoff.Unix()).Delete(&TaskLogPo{})
			if tx.Error != nil {
				return result, fmt.Errorf("delete expired rows from %s: %w", name, tx.Error)
			}
			result.DeletedRows += tx.RowsAffected
		}
	}
	return result, nil
}

func (r *RepositoryImpl) forget(suffix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == suffix {
		r.current = ""
	}
}
