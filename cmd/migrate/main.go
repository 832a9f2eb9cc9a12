package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/jobs/crontab/internal/infra/persistence/tasklogrepo"
	"github.com/jobs/crontab/internal/orm"
	"github.com/jobs/crontab/pkg/config"
	"github.com/jobs/crontab/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath  string
		cleanupDays int
	)
	flag.StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
	flag.IntVar(&cleanupDays, "cleanup-days", 0, "delete task logs older than N days (0 skips cleanup)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		zapLogger.Fatal("Invalid timezone", zap.Error(err))
	}

	// orm.New 会建好任务表和锁表
	storage, err := orm.New(orm.FromDatabaseConfig(cfg.Database))
	if err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}
	defer storage.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	logRepo := tasklogrepo.NewRepositoryWithLocation(storage.DB(), loc)
	now := time.Now().In(loc)
	created, err := logRepo.EnsurePartition(ctx, now)
	if err != nil {
		zapLogger.Fatal("Failed to create log table", zap.Error(err))
	}
	zapLogger.Info("Log table ready", zap.Bool("created", created))

	if cleanupDays > 0 {
		res, err := logRepo.Cleanup(ctx, cleanupDays, now)
		if err != nil {
			zapLogger.Fatal("Failed to clean up task logs", zap.Error(err))
		}
		zapLogger.Info("Cleaned up task logs",
			zap.Int("days", cleanupDays),
			zap.Strings("dropped_tables", res.DroppedTables),
			zap.Int64("deleted_rows", res.DeletedRows))
	}

	partitions, err := logRepo.Partitions(ctx)
	if err != nil {
		zapLogger.Fatal("Failed to list log tables", zap.Error(err))
	}
	zapLogger.Info("Migration completed successfully", zap.Strings("log_tables", partitions))
}
