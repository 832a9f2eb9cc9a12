package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/jobs/crontab/internal/api/middleware"
	"github.com/jobs/crontab/internal/biz/task"
	"github.com/jobs/crontab/internal/scheduler"
)

var Provider = wire.NewSet(
	NewTaskAPI,
	NewFlowAPI,
	NewServer,
	wire.Bind(new(IEmitter), new(*scheduler.EventBus)),
	wire.Bind(new(IPool), new(*scheduler.EventBus)),
)

func onGinBind(c *gin.Context, val any, typ string) bool {
	var err error
	switch typ {
	case "JSON":
		err = c.ShouldBindJSON(val)
	case "QUERY":
		err = c.ShouldBindQuery(val)
	default:
		err = c.ShouldBind(val)
	}
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", task.ErrInvalidInput, err))
		return false
	}
	return true
}

// onGinResponse 出错时交给 ErrorHandlingMiddleware 统一输出
func onGinResponse[T any](c *gin.Context, data T, err error) {
	if err != nil {
		_ = c.Error(err)
		return
	}
	middleware.OK(c, data)
}
