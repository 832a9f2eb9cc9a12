package scheduler

import (
	"context"

	"github.com/google/wire"
	"github.com/jobs/crontab/internal/executor"
)

var Provider = wire.NewSet(
	New,
	NewTaskRunner,
	NewLocker,
	NewEventBus,
	wire.Bind(new(Runner), new(*executor.Shell)),
)

// Runner 执行一条命令
type Runner interface {
	Run(ctx context.Context, command string) executor.Result
}
