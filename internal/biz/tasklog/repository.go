package tasklog

import (
	"context"
	"time"

	"github.com/jobs/crontab/internal/biz/filter"
	"github.com/samber/mo"
)

type ListQuery struct {
	// Month 分表后缀，缺省为当前月
	Month mo.Option[string]
	SID   mo.Option[uint64]
	filter.Query
}

type Repo interface {
	// EnsurePartition 确保 now 所在月份的分表存在，返回是否新建
	EnsurePartition(ctx context.Context, now time.Time) (bool, error)

	// Insert 写入 CreateTime 所在月份的分表
	Insert(ctx context.Context, log *TaskLog) error

	// List 按 id 倒序分页，分表不存在时返回空列表
	List(ctx context.Context, query ListQuery) ([]*TaskLog, int64, error)

	// Partitions 已存在的分表后缀，升序
	Partitions(ctx context.Context) ([]string, error)

	// Cleanup 删除早于 now - days 的日志：整月过期的分表直接删除，跨越截止点的分表按行删除
	Cleanup(ctx context.Context, days int, now time.Time) (*CleanupResult, error)
}
