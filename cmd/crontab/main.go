package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jobs/crontab/internal/orm"
	"github.com/jobs/crontab/pkg/config"
	"github.com/jobs/crontab/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// 解析命令行参数
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 创建日志器
	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting crontab",
		zap.String("instance_id", cfg.Scheduler.InstanceID),
		zap.String("driver", cfg.Database.Driver))

	// 创建存储
	storage, err := orm.New(orm.FromDatabaseConfig(cfg.Database))
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer storage.Close()

	app, err := InitializeApp(zapLogger, *cfg, storage.DB())
	if err != nil {
		zapLogger.Fatal("Failed to initialize app", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		zapLogger.Error("Crontab exited with error", zap.Error(err))
		os.Exit(1)
	}
	zapLogger.Info("Shutdown complete")
}
