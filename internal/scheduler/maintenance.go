package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jobs/crontab/internal/biz/tasklog"
	"go.uber.org/zap"
)

const defaultPartitionCheckInterval = time.Second

// startMaintenance 启动日志分表巡检，并按配置注册日志清理任务
func (s *Scheduler) startMaintenance() error {
	s.wg.Add(1)
	go s.watchPartition()

	if s.retentionDays <= 0 {
		s.logger.Info("task log retention is disabled")
		return nil
	}

	spec := s.config.RetentionCron
	if spec == "" {
		spec = "@daily"
	}
	if _, err := s.cron.AddFunc(spec, func() {
		if _, err := s.CleanupLogs(context.Background()); err != nil {
			s.logger.Error("failed to clean up task logs", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", spec, err)
	}

	s.logger.Info("task log retention enabled",
		zap.Int("days", s.retentionDays),
		zap.String("schedule", spec))
	return nil
}

// watchPartition 跨月时及时创建新的日志分表
func (s *Scheduler) watchPartition() {
	defer s.wg.Done()

	interval := s.config.PartitionCheckInterval
	if interval <= 0 {
		interval = defaultPartitionCheckInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkPartition()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) checkPartition() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	created, err := s.logRepo.EnsurePartition(ctx, time.Now().In(s.loc))
	if err != nil {
		s.logger.Error("failed to check task log table", zap.Error(err))
		return
	}
	if created {
		s.logger.Info("created task log table",
			zap.String("suffix", tasklog.Suffix(time.Now().In(s.loc))))
	}
}

// CleanupLogs 按保留天数清理执行日志
func (s *Scheduler) CleanupLogs(ctx context.Context) (*tasklog.CleanupResult, error) {
	res, err := s.logRepo.Cleanup(ctx, s.retentionDays, time.Now().In(s.loc))
	if err != nil {
		return res, err
	}
	s.logger.Info("cleaned up task logs",
		zap.Int("days", s.retentionDays),
		zap.Strings("dropped_tables", res.DroppedTables),
		zap.Int64("deleted_rows", res.DeletedRows))
	return res, nil
}
