package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jobs/crontab/internal/biz/filter"
)

type TaskAPIWrap struct {
	inner ITaskAPI
}

func NewTaskAPIWrap(inner ITaskAPI) *TaskAPIWrap {
	return &TaskAPIWrap{inner: inner}
}

func (a *TaskAPIWrap) Index(ctx *gin.Context) {
	var req filter.Params
	if !onGinBind(ctx, &req, "QUERY") {
		return
	}
	resp, err := a.inner.Index(ctx, req)
	onGinResponse(ctx, resp, err)
}

func (a *TaskAPIWrap) Add(ctx *gin.Context) {
	var req AddTaskReq
	if !onGinBind(ctx, &req, "FORM") {
		return
	}
	resp, err := a.inner.Add(ctx, req)
	onGinResponse(ctx, resp, err)
}

func (a *TaskAPIWrap) Read(ctx *gin.Context) {
	var req IDReq
	if !onGinBind(ctx, &req, "QUERY") {
		return
	}
	resp, err := a.inner.Read(ctx, req)
	onGinResponse(ctx, resp, err)
}

func (a *TaskAPIWrap) Edit(ctx *gin.Context) {
	var req EditTaskReq
	if !onGinBind(ctx, &req, "FORM") {
		return
	}
	resp, err := a.inner.Edit(ctx, req)
	onGinResponse(ctx, resp, err)
}

func (a *TaskAPIWrap) Modify(ctx *gin.Context) {
	var req ModifyTaskReq
	if !onGinBind(ctx, &req, "FORM") {
		return
	}
	resp, err := a.inner.Modify(ctx, req)
	onGinResponse(ctx, resp, err)
}

func (a *TaskAPIWrap) Delete(ctx *gin.Context) {
	var req IDsReq
	if !onGinBind(ctx, &req, "FORM") {
		return
	}
	resp, err := a.inner.Delete(ctx, req)
	onGinResponse(ctx, resp, err)
}

func (a *TaskAPIWrap) Reload(ctx *gin.Context) {
	var req IDsReq
	if !onGinBind(ctx, &req, "FORM") {
		return
	}
	resp, err := a.inner.Reload(ctx, req)
	onGinResponse(ctx, resp, err)
}

func (a *TaskAPIWrap) BindAll(router gin.IRouter) {
	router.GET("/crontab/index", a.Index)
	router.POST("/crontab/add", a.Add)
	router.GET("/crontab/read", a.Read)
	router.POST("/crontab/edit", a.Edit)
	router.POST("/crontab/modify", a.Modify)
	router.POST("/crontab/delete", a.Delete)
	router.POST("/crontab/reload", a.Reload)
}

type FlowAPIWrap struct {
	inner IFlowAPI
}

func NewFlowAPIWrap(inner IFlowAPI) *FlowAPIWrap {
	return &FlowAPIWrap{inner: inner}
}

func (a *FlowAPIWrap) Flow(ctx *gin.Context) {
	var req FlowReq
	if !onGinBind(ctx, &req, "QUERY") {
		return
	}
	resp, err := a.inner.Flow(ctx, req)
	onGinResponse(ctx, resp, err)
}

func (a *FlowAPIWrap) Pool(ctx *gin.Context) {
	resp, err := a.inner.Pool(ctx)
	onGinResponse(ctx, resp, err)
}

func (a *FlowAPIWrap) Ping(ctx *gin.Context) {
	resp, err := a.inner.Ping(ctx)
	onGinResponse(ctx, resp, err)
}

func (a *FlowAPIWrap) BindAll(router gin.IRouter) {
	router.GET("/crontab/flow", a.Flow)
	router.GET("/crontab/pool", a.Pool)
	router.GET("/crontab/ping", a.Ping)
}
