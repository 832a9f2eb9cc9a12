package main

import (
	"context"
	"time"

	"github.com/jobs/crontab/internal/api"
	"github.com/jobs/crontab/internal/scheduler"
	"github.com/jobs/crontab/pkg/config"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	cfg       config.Config
	logger    *zap.Logger
	scheduler *scheduler.Scheduler
	bus       *scheduler.EventBus
	server    *api.Server
}

func NewApp(
	cfg config.Config,
	logger *zap.Logger,
	scheduler *scheduler.Scheduler,
	bus *scheduler.EventBus,
	server *api.Server,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		scheduler: scheduler,
		bus:       bus,
		server:    server,
	}
}

// Run 启动调度器和 HTTP 服务，ctx 结束后依次关闭
func (a *App) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}

	go func() {
		if err := a.bus.Listen(ctx); err != nil {
			a.logger.Error("pool event listener stopped", zap.Error(err))
		}
	}()

	errCh := make(chan error, 1)
	if a.cfg.Server.EnableHTTP {
		go func() { errCh <- a.server.Run() }()
	} else {
		a.logger.Info("http server disabled")
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		if runErr != nil {
			a.logger.Error("http server failed", zap.Error(runErr))
		}
	}

	a.logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if a.cfg.Server.EnableHTTP {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to shutdown http server", zap.Error(err))
		}
	}
	if err := a.scheduler.Stop(); err != nil {
		a.logger.Error("failed to stop scheduler", zap.Error(err))
	}
	return runErr
}
