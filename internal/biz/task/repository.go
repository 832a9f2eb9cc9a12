package task

import (
	"context"

	"github.com/jobs/crontab/internal/biz/filter"
)

type Repo interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id uint64) (*Task, error)
	Update(ctx context.Context, id uint64, patch *TaskPatch) error
	// Delete 删除任务及其锁记录
	Delete(ctx context.Context, ids []uint64) error
	// List 按 sort 倒序分页
	List(ctx context.Context, query filter.Query) ([]*Task, int64, error)

	// EnabledIDs 启用中的任务，按 sort 倒序、id 正序
	EnabledIDs(ctx context.Context) ([]uint64, error)

	// IncrementRunningTimes 在库里原子地 +1 并记录最后执行时间
	IncrementRunningTimes(ctx context.Context, id uint64, lastRunningTime int64) error
}
