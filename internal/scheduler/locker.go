package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jobs/crontab/internal/biz/tasklock"
	"go.uber.org/zap"
)

const unlockTimeout = 5 * time.Second

// Locker 基于 crontab_task_lock 表的任务级互斥
type Locker struct {
	repo   tasklock.Repo
	logger *zap.Logger
}

func NewLocker(repo tasklock.Repo, logger *zap.Logger) *Locker {
	return &Locker{repo: repo, logger: logger}
}

// WithLock 抢到任务锁才执行 fn，返回 fn 是否被执行。
// 无论 fn 正常返回、出错还是 panic，锁都会被释放。
func (l *Locker) WithLock(ctx context.Context, sid uint64, fn func(ctx context.Context) error) (bool, error) {
	locked, err := l.repo.Check(ctx, sid)
	if err != nil {
		return false, fmt.Errorf("failed to check lock: %w", err)
	}
	if locked {
		return false, nil
	}

	acquired, err := l.repo.TryLock(ctx, sid)
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return false, nil
	}

	defer func() {
		// 调用方的 ctx 可能已经取消，解锁用独立的 ctx
		unlockCtx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()
		if err := l.repo.Unlock(unlockCtx, sid); err != nil {
			l.logger.Error("failed to release task lock",
				zap.Uint64("task_id", sid),
				zap.Error(err))
		}
	}()

	return true, fn(ctx)
}

// Reset 启动时清理上次异常退出遗留的锁
func (l *Locker) Reset(ctx context.Context) (int64, error) {
	return l.repo.ResetAll(ctx)
}
