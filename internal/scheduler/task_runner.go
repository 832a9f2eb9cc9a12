package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jobs/crontab/internal/biz/task"
	"github.com/jobs/crontab/internal/biz/tasklog"
	"github.com/jobs/crontab/pkg/config"
	"go.uber.org/zap"
)

// TaskRunner 单次触发的完整流程：加锁、执行、记录、解锁
type TaskRunner struct {
	runner   Runner
	locker   *Locker
	taskRepo task.Repo
	logRepo  tasklog.Repo
	logger   *zap.Logger
	debug    bool
	now      func() time.Time
}

// NewTaskRunner 创建任务执行器
func NewTaskRunner(
	cfg config.Config,
	runner Runner,
	locker *Locker,
	taskRepo task.Repo,
	logRepo tasklog.Repo,
	logger *zap.Logger,
) *TaskRunner {
	return &TaskRunner{
		runner:   runner,
		locker:   locker,
		taskRepo: taskRepo,
		logRepo:  logRepo,
		logger:   logger,
		debug:    cfg.Server.Debug,
		now:      time.Now,
	}
}

// Fire 执行一次任务。任务正被其他实例或上一次触发占用时直接跳过，返回 false
func (r *TaskRunner) Fire(ctx context.Context, entry PoolEntry) bool {
	ran, err := r.locker.WithLock(ctx, entry.ID, func(ctx context.Context) error {
		return r.execute(ctx, entry)
	})
	if err != nil {
		r.logger.Error("task execution failed",
			zap.Uint64("task_id", entry.ID),
			zap.Error(err))
	}
	if !ran && err == nil {
		r.logger.Debug("task is locked, skipped",
			zap.Uint64("task_id", entry.ID))
	}
	return ran
}

func (r *TaskRunner) execute(ctx context.Context, entry PoolEntry) error {
	startedAt := r.now()
	if r.debug {
		r.logger.Info(fmt.Sprintf("执行定时器任务#%d %s", entry.ID, entry.Frequency),
			zap.String("shell", entry.Shell))
	}

	res := r.runner.Run(ctx, entry.Shell)
	if res.Err != nil {
		r.logger.Warn("command did not finish normally",
			zap.Uint64("task_id", entry.ID),
			zap.Int("exit_code", res.ExitCode),
			zap.Error(res.Err))
	}

	var errs error
	if err := r.taskRepo.IncrementRunningTimes(ctx, entry.ID, startedAt.Unix()); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to update running times: %w", err))
	}

	record := &tasklog.TaskLog{
		SID:         entry.ID,
		Command:     entry.Shell,
		Output:      res.JoinedOutput(),
		ReturnVar:   res.ExitCode,
		RunningTime: res.Seconds(),
		CreateTime:  startedAt.Unix(),
		UpdateTime:  startedAt.Unix(),
	}
	if err := r.logRepo.Insert(ctx, record); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to write task log: %w", err))
	}

	if r.debug {
		r.logger.Info(fmt.Sprintf("任务#%d 执行完成", entry.ID),
			zap.Int("exit_code", res.ExitCode),
			zap.Float64("running_time", record.RunningTime))
	}
	return errs
}
