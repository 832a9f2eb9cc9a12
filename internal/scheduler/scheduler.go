package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jobs/crontab/internal/biz/task"
	"github.com/jobs/crontab/internal/biz/tasklog"
	"github.com/jobs/crontab/internal/cronexpr"
	"github.com/jobs/crontab/pkg/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PoolEntry 已注册到定时器的任务
type PoolEntry struct {
	ID          uint64
	Shell       string
	Frequency   string
	Remark      string
	CreateTime  int64
	NextRunTime time.Time
	PrevRunTime time.Time

	entryID cron.EntryID
}

// Scheduler 任务调度器，维护任务 id 到 cron 条目的映射
type Scheduler struct {
	config config.SchedulerConfig
	logger *zap.Logger
	loc    *time.Location
	cron   *cron.Cron
	runner *TaskRunner

	taskRepo task.Repo
	logRepo  tasklog.Repo

	instanceID    string
	retentionDays int

	mu      sync.RWMutex
	pool    map[uint64]*PoolEntry
	started bool

	// 同一任务的注册和移除串行执行
	idLocks sync.Map

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New 创建调度器
func New(
	cfg config.Config,
	logger *zap.Logger,
	runner *TaskRunner,
	taskRepo task.Repo,
	logRepo tasklog.Repo,
) (*Scheduler, error) {
	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	cl := newCronLogger(logger)
	s := &Scheduler{
		config:        cfg.Scheduler,
		logger:        logger,
		loc:           loc,
		runner:        runner,
		taskRepo:      taskRepo,
		logRepo:       logRepo,
		instanceID:    cfg.Scheduler.InstanceID,
		retentionDays: cfg.Log.RetentionDays,
		pool:          make(map[uint64]*PoolEntry),
		stopCh:        make(chan struct{}),
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithParser(cronexpr.Parser()),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
	return s, nil
}

func (s *Scheduler) InstanceID() string {
	return s.instanceID
}

// Start 启动调度器：重置锁、准备日志分表、注册所有启用的任务
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info("starting scheduler",
		zap.String("instance_id", s.instanceID))

	if s.config.ResetLocksOnStart {
		n, err := s.runner.locker.Reset(ctx)
		if err != nil {
			return fmt.Errorf("failed to reset task locks: %w", err)
		}
		if n > 0 {
			s.logger.Warn("released stale task locks", zap.Int64("count", n))
		}
	}

	if _, err := s.logRepo.EnsurePartition(ctx, time.Now().In(s.loc)); err != nil {
		return fmt.Errorf("failed to prepare log table: %w", err)
	}

	ids, err := s.taskRepo.EnabledIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}
	for _, id := range ids {
		if err := s.Schedule(ctx, id); err != nil {
			s.logger.Error("failed to schedule task",
				zap.Uint64("task_id", id),
				zap.Error(err))
		}
	}

	if err := s.startMaintenance(); err != nil {
		return err
	}
	s.cron.Start()

	s.logger.Info("loaded and scheduled tasks",
		zap.Int("count", s.Len()))
	return nil
}

// Stop 停止调度，等待正在执行的任务结束
func (s *Scheduler) Stop() error {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping scheduler",
			zap.String("instance_id", s.instanceID))

		close(s.stopCh)
		<-s.cron.Stop().Done()
		s.wg.Wait()

		s.logger.Info("scheduler stopped",
			zap.String("instance_id", s.instanceID))
	})
	return nil
}

// Schedule 为启用的任务注册定时器，已注册时先移除旧的再注册。
// 任务不存在或已禁用时什么都不做。
func (s *Scheduler) Schedule(ctx context.Context, id uint64) error {
	defer s.lockID(id)()
	return s.schedule(ctx, id)
}

func (s *Scheduler) schedule(ctx context.Context, id uint64) error {
	t, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load task %d: %w", id, err)
	}
	if t == nil || !t.Status.Enabled() {
		return nil
	}

	expr, err := cronexpr.Parse(t.Frequency)
	if err != nil {
		s.logger.Error("invalid task frequency",
			zap.Uint64("task_id", id),
			zap.String("frequency", t.Frequency),
			zap.Error(err))
		return err
	}

	entry := &PoolEntry{
		ID:         t.ID,
		Shell:      t.Shell,
		Frequency:  t.Frequency,
		Remark:     t.Remark,
		CreateTime: time.Now().Unix(),
	}
	snapshot := *entry

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.pool[id]; ok {
		s.cron.Remove(old.entryID)
	}
	entry.entryID = s.cron.Schedule(expr, cron.FuncJob(func() {
		s.runner.Fire(context.Background(), snapshot)
	}))
	s.pool[id] = entry

	s.logger.Info("scheduled task",
		zap.Uint64("task_id", id),
		zap.String("frequency", t.Frequency),
		zap.Int("entry_id", int(entry.entryID)))
	return nil
}

// Unschedule 移除任务的定时器，不会中断正在执行的命令
func (s *Scheduler) Unschedule(id uint64) {
	defer s.lockID(id)()
	s.unschedule(id)
}

func (s *Scheduler) unschedule(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pool[id]
	if !ok {
		return
	}
	s.cron.Remove(entry.entryID)
	delete(s.pool, id)

	s.logger.Info("unscheduled task", zap.Uint64("task_id", id))
}

// Reload 先移除再重新注册
func (s *Scheduler) Reload(ctx context.Context, id uint64) error {
	defer s.lockID(id)()
	s.unschedule(id)
	return s.schedule(ctx, id)
}

func (s *Scheduler) lockID(id uint64) func() {
	v, _ := s.idLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Pool 当前已注册任务的快照，按 id 升序
func (s *Scheduler) Pool() []PoolEntry {
	entries := make(map[cron.EntryID]cron.Entry)
	for _, e := range s.cron.Entries() {
		entries[e.ID] = e
	}

	s.mu.RLock()
	out := make([]PoolEntry, 0, len(s.pool))
	for _, p := range s.pool {
		item := *p
		if e, ok := entries[p.entryID]; ok {
			item.NextRunTime = e.Next
			item.PrevRunTime = e.Prev
		}
		item.entryID = 0
		out = append(out, item)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Has 任务是否已注册
func (s *Scheduler) Has(id uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pool[id]
	return ok
}

func (s *Scheduler) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pool)
}
