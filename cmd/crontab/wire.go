//go:build wireinject
// +build wireinject

package main

//go:generate go run -mod=mod github.com/google/wire/cmd/wire

import (
	"github.com/google/wire"
	"github.com/jobs/crontab/internal/api"
	"github.com/jobs/crontab/internal/biz/task"
	"github.com/jobs/crontab/internal/executor"
	"github.com/jobs/crontab/internal/infra/persistence/commonrepo"
	"github.com/jobs/crontab/internal/infra/persistence/tasklockrepo"
	"github.com/jobs/crontab/internal/infra/persistence/tasklogrepo"
	"github.com/jobs/crontab/internal/infra/persistence/taskrepo"
	"github.com/jobs/crontab/internal/scheduler"
	"github.com/jobs/crontab/pkg/config"
	"go.uber.org/zap"
)

func InitializeApp(logger *zap.Logger, cfg config.Config, db commonrepo.DB) (*App, error) {
	wire.Build(
		NewApp,

		ProvideExecutorConfig,
		ProvideLocation,
		ProvideRedisClient,

		// other
		scheduler.Provider,
		executor.Provider,

		// http api providers
		api.Provider,

		// biz providers
		task.Provider,

		// infra providers
		taskrepo.Provider,
		tasklockrepo.Provider,
		tasklogrepo.Provider,
	)
	return nil, nil
}
