package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jobs/crontab/internal/biz/filter"
	"github.com/jobs/crontab/internal/biz/task"
	"github.com/jobs/crontab/pkg/config"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

type ITaskAPI interface {
	// Index 任务列表
	// 支持 page/limit/filter/op
	// @GET(crontab/index)
	Index(ctx *gin.Context, req filter.Params) (ListResp[TaskResp], error)

	// Add 创建任务
	// 启用状态的任务会立即注册定时器
	// @POST(crontab/add)
	Add(ctx *gin.Context, req AddTaskReq) (TaskResp, error)

	// Read 任务详情
	// @GET(crontab/read)
	Read(ctx *gin.Context, req IDReq) (TaskResp, error)

	// Edit 修改任务
	// 频率或命令变化时重新注册定时器
	// @POST(crontab/edit)
	Edit(ctx *gin.Context, req EditTaskReq) (TaskResp, error)

	// Modify 修改 status 或 sort
	// @POST(crontab/modify)
	Modify(ctx *gin.Context, req ModifyTaskReq) (TaskResp, error)

	// Delete 删除任务，id 逗号分隔
	// @POST(crontab/delete)
	Delete(ctx *gin.Context, req IDsReq) (bool, error)

	// Reload 重启任务定时器，id 逗号分隔
	// @POST(crontab/reload)
	Reload(ctx *gin.Context, req IDsReq) (bool, error)
}

type TaskAPI struct {
	usecase *task.Usecase
	emitter IEmitter
	logger  *zap.Logger
	loc     *time.Location
}

func NewTaskAPI(cfg config.Config, usecase *task.Usecase, emitter IEmitter, logger *zap.Logger) ITaskAPI {
	loc, err := cfg.Scheduler.Location()
	if err != nil {
		loc = time.Local
	}
	return &TaskAPI{
		usecase: usecase,
		emitter: emitter,
		logger:  logger,
		loc:     loc,
	}
}

func (t *TaskAPI) Index(ctx *gin.Context, req filter.Params) (ListResp[TaskResp], error) {
	query, err := filter.ParseIn(req, t.loc)
	if err != nil {
		return ListResp[TaskResp]{}, err
	}
	tasks, total, err := t.usecase.List(ctx, query)
	if err != nil {
		return ListResp[TaskResp]{}, err
	}
	return ListResp[TaskResp]{
		List:  lo.Map(tasks, func(item *task.Task, _ int) TaskResp { return toTaskResp(item) }),
		Count: total,
	}, nil
}

func (t *TaskAPI) Add(ctx *gin.Context, req AddTaskReq) (TaskResp, error) {
	tk := req.toDomain()
	if err := t.usecase.Create(ctx, tk); err != nil {
		return TaskResp{}, err
	}
	if tk.Status.Enabled() {
		// 任务已经入库，注册失败只记录，可以通过 reload 重试
		if err := t.emitter.Schedule(ctx, tk.ID); err != nil {
			t.logger.Error("failed to schedule new task",
				zap.Uint64("task_id", tk.ID),
				zap.Error(err))
		}
	}
	return toTaskResp(tk), nil
}

func (t *TaskAPI) Read(ctx *gin.Context, req IDReq) (TaskResp, error) {
	tk, err := t.usecase.Get(ctx, req.ID)
	if err != nil {
		return TaskResp{}, err
	}
	return toTaskResp(tk), nil
}

func (t *TaskAPI) Edit(ctx *gin.Context, req EditTaskReq) (TaskResp, error) {
	if req.ID == 0 {
		req.ID = cast.ToUint64(ctx.Query("id"))
	}
	if req.ID == 0 {
		return TaskResp{}, fmt.Errorf("%w: id is required", task.ErrInvalidInput)
	}

	before, after, err := t.usecase.Update(ctx, req.ID, req.toUpdate())
	if err != nil {
		return TaskResp{}, err
	}
	if err := t.syncSchedule(ctx, before, after); err != nil {
		return TaskResp{}, err
	}
	return toTaskResp(after), nil
}

func (t *TaskAPI) Modify(ctx *gin.Context, req ModifyTaskReq) (TaskResp, error) {
	_, after, err := t.usecase.Modify(ctx, req.ID, req.Field, req.Value.String())
	if err != nil {
		return TaskResp{}, err
	}
	if req.Field == task.FieldStatus {
		if after.Status.Enabled() {
			err = t.emitter.Schedule(ctx, after.ID)
		} else {
			err = t.emitter.Unschedule(ctx, after.ID)
		}
		if err != nil {
			return TaskResp{}, err
		}
	}
	return toTaskResp(after), nil
}

func (t *TaskAPI) Delete(ctx *gin.Context, req IDsReq) (bool, error) {
	ids, err := req.ID.Parse()
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if err := t.emitter.Unschedule(ctx, id); err != nil {
			return false, err
		}
	}
	if err := t.usecase.Delete(ctx, ids); err != nil {
		return false, err
	}
	return true, nil
}

func (t *TaskAPI) Reload(ctx *gin.Context, req IDsReq) (bool, error) {
	ids, err := req.ID.Parse()
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		tk, err := t.usecase.Get(ctx, id)
		if errors.Is(err, task.ErrTaskNotFound) {
			continue
		} else if err != nil {
			return false, err
		}
		if !tk.Status.Enabled() {
			continue
		}
		if err := t.emitter.Unschedule(ctx, id); err != nil {
			return false, err
		}
		if err := t.emitter.Schedule(ctx, id); err != nil {
			return false, err
		}
	}
	return true, nil
}

// syncSchedule 根据修改前后的状态调整定时器
func (t *TaskAPI) syncSchedule(ctx context.Context, before, after *task.Task) error {
	switch {
	case !after.Status.Enabled():
		return t.emitter.Unschedule(ctx, after.ID)
	case !before.Status.Enabled(), before.ScheduleChanged(after):
		return t.emitter.Schedule(ctx, after.ID)
	}
	return nil
}
