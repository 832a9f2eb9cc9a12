package api

import (
	"context"

	"github.com/jobs/crontab/internal/scheduler"
)

// IEmitter 控制接口对调度器的全部写操作
type IEmitter interface {
	Schedule(ctx context.Context, taskID uint64) error
	Unschedule(ctx context.Context, taskID uint64) error
}

// IPool 只读的定时器池快照
type IPool interface {
	Pool() []scheduler.PoolEntry
}

var (
	_ IEmitter = (*scheduler.EventBus)(nil)
	_ IPool    = (*scheduler.EventBus)(nil)
)
