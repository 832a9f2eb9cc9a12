package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jobs/crontab/internal/biz/filter"
	"github.com/jobs/crontab/internal/biz/tasklog"
	"github.com/jobs/crontab/internal/scheduler"
	"github.com/jobs/crontab/pkg/config"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// 日志列表里 filter.month 用来选分表，不作为查询条件
const monthField = "month"

type IFlowAPI interface {
	// Flow 执行日志
	// filter.month 指定月份分表，sid 指定任务
	// @GET(crontab/flow)
	Flow(ctx *gin.Context, req FlowReq) (ListResp[TaskLogResp], error)

	// Pool 当前已注册的定时器
	// @GET(crontab/pool)
	Pool(ctx *gin.Context) ([]PoolEntryResp, error)

	// Ping 心跳
	// @GET(crontab/ping)
	Ping(ctx *gin.Context) (string, error)
}

type FlowAPI struct {
	logRepo tasklog.Repo
	pool    IPool
	loc     *time.Location
}

func NewFlowAPI(cfg config.Config, logRepo tasklog.Repo, pool IPool) IFlowAPI {
	loc, err := cfg.Scheduler.Location()
	if err != nil {
		loc = time.Local
	}
	return &FlowAPI{logRepo: logRepo, pool: pool, loc: loc}
}

func (f *FlowAPI) Flow(ctx *gin.Context, req FlowReq) (ListResp[TaskLogResp], error) {
	query, err := filter.ParseIn(req.Params, f.loc, monthField)
	if err != nil {
		return ListResp[TaskLogResp]{}, err
	}

	lq := tasklog.ListQuery{Query: query}
	if month := query.Excluded[monthField]; month != "" {
		lq.Month = mo.Some(month)
	}
	if req.SID > 0 {
		lq.SID = mo.Some(req.SID)
	}

	logs, total, err := f.logRepo.List(ctx, lq)
	if err != nil {
		return ListResp[TaskLogResp]{}, err
	}
	return ListResp[TaskLogResp]{
		List:  lo.Map(logs, func(item *tasklog.TaskLog, _ int) TaskLogResp { return toTaskLogResp(item) }),
		Count: total,
	}, nil
}

func (f *FlowAPI) Pool(ctx *gin.Context) ([]PoolEntryResp, error) {
	return lo.Map(f.pool.Pool(), func(item scheduler.PoolEntry, _ int) PoolEntryResp {
		return toPoolEntryResp(item, f.loc)
	}), nil
}

func (f *FlowAPI) Ping(ctx *gin.Context) (string, error) {
	return "pong", nil
}
