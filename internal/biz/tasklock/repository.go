package tasklock

import "context"

type Repo interface {
	// Check 返回任务是否处于锁定状态，记录不存在时先创建一条未锁定的记录
	Check(ctx context.Context, sid uint64) (bool, error)

	// TryLock 仅当当前未锁定时加锁，返回是否抢到
	TryLock(ctx context.Context, sid uint64) (bool, error)
	Unlock(ctx context.Context, sid uint64) error

	// ResetAll 把所有锁置为未锁定，返回受影响行数
	ResetAll(ctx context.Context) (int64, error)

	Get(ctx context.Context, sid uint64) (*TaskLock, error)
}
