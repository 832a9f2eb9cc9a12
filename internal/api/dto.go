package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jobs/crontab/internal/biz/filter"
	"github.com/jobs/crontab/internal/biz/task"
	"github.com/jobs/crontab/internal/biz/tasklog"
	"github.com/jobs/crontab/internal/scheduler"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cast"
)

const timeLayout = "2006-01-02 15:04:05"

type ListResp[T any] struct {
	List  []T   `json:"list"`
	Count int64 `json:"count"`
}

type IDReq struct {
	ID uint64 `form:"id" json:"id" binding:"required"`
}

// IDList 逗号分隔的任务 id，JSON 里也可以是数字或数组
type IDList string

func (l *IDList) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case []any:
		*l = IDList(strings.Join(lo.Map(v, func(item any, _ int) string {
			return cast.ToString(item)
		}), ","))
	case nil:
		*l = ""
	default:
		*l = IDList(cast.ToString(v))
	}
	return nil
}

func (l IDList) Parse() ([]uint64, error) {
	parts := lo.Compact(lo.Map(strings.Split(string(l), ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: id is required", task.ErrInvalidInput)
	}
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		id, err := cast.ToUint64E(p)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("%w: invalid id %q", task.ErrInvalidInput, p)
		}
		ids = append(ids, id)
	}
	return lo.Uniq(ids), nil
}

type IDsReq struct {
	ID IDList `form:"id" json:"id"`
}

type AddTaskReq struct {
	Title     string `form:"title" json:"title"`
	Type      int    `form:"type" json:"type"`
	Frequency string `form:"frequency" json:"frequency"`
	Shell     string `form:"shell" json:"shell"`
	Remark    string `form:"remark" json:"remark"`
	Sort      int    `form:"sort" json:"sort"`
	Status    int    `form:"status" json:"status"`
}

func (r AddTaskReq) toDomain() *task.Task {
	return &task.Task{
		Title:     strings.TrimSpace(r.Title),
		Type:      task.TaskType(r.Type),
		Frequency: strings.TrimSpace(r.Frequency),
		Shell:     strings.TrimSpace(r.Shell),
		Remark:    r.Remark,
		Sort:      r.Sort,
		Status:    task.TaskStatus(r.Status),
	}
}

// EditTaskReq 只修改提交了的字段；id 可以放在 query 或 body 里
type EditTaskReq struct {
	ID        uint64  `form:"id" json:"id"`
	Title     *string `form:"title" json:"title"`
	Type      *int    `form:"type" json:"type"`
	Frequency *string `form:"frequency" json:"frequency"`
	Shell     *string `form:"shell" json:"shell"`
	Remark    *string `form:"remark" json:"remark"`
	Sort      *int    `form:"sort" json:"sort"`
	Status    *int    `form:"status" json:"status"`
}

func (r EditTaskReq) toUpdate() *task.UpdateRequest {
	trim := strings.TrimSpace
	same := func(v string) string { return v }
	return &task.UpdateRequest{
		Title:     optionMap(r.Title, trim),
		Type:      optionMap(r.Type, func(v int) task.TaskType { return task.TaskType(v) }),
		Frequency: optionMap(r.Frequency, trim),
		Shell:     optionMap(r.Shell, trim),
		Remark:    optionMap(r.Remark, same),
		Sort:      optionMap(r.Sort, func(v int) int { return v }),
		Status:    optionMap(r.Status, func(v int) task.TaskStatus { return task.TaskStatus(v) }),
	}
}

func optionMap[T, R any](p *T, fn func(T) R) mo.Option[R] {
	if p == nil {
		return mo.None[R]()
	}
	return mo.Some(fn(*p))
}

type ModifyTaskReq struct {
	ID    uint64      `form:"id" json:"id" binding:"required"`
	Field string      `form:"field" json:"field" binding:"required"`
	Value json.Number `form:"value" json:"value"`
}

type FlowReq struct {
	filter.Params
	SID uint64 `form:"sid" json:"sid"`
}

type TaskResp struct {
	ID              uint64 `json:"id"`
	Title           string `json:"title"`
	Type            int    `json:"type"`
	Frequency       string `json:"frequency"`
	Shell           string `json:"shell"`
	RunningTimes    int64  `json:"running_times"`
	LastRunningTime int64  `json:"last_running_time"`
	Remark          string `json:"remark"`
	Sort            int    `json:"sort"`
	Status          int    `json:"status"`
	CreateTime      int64  `json:"create_time"`
	UpdateTime      int64  `json:"update_time"`
}

func toTaskResp(t *task.Task) TaskResp {
	return TaskResp{
		ID:              t.ID,
		Title:           t.Title,
		Type:            int(t.Type),
		Frequency:       t.Frequency,
		Shell:           t.Shell,
		RunningTimes:    t.RunningTimes,
		LastRunningTime: t.LastRunningTime,
		Remark:          t.Remark,
		Sort:            t.Sort,
		Status:          int(t.Status),
		CreateTime:      t.CreateTime,
		UpdateTime:      t.UpdateTime,
	}
}

type TaskLogResp struct {
	ID          uint64  `json:"id"`
	SID         uint64  `json:"sid"`
	Command     string  `json:"command"`
	Output      string  `json:"output"`
	ReturnVar   int     `json:"return_var"`
	RunningTime float64 `json:"running_time"`
	CreateTime  int64   `json:"create_time"`
	UpdateTime  int64   `json:"update_time"`
}

func toTaskLogResp(l *tasklog.TaskLog) TaskLogResp {
	return TaskLogResp{
		ID:          l.ID,
		SID:         l.SID,
		Command:     l.Command,
		Output:      l.Output,
		ReturnVar:   l.ReturnVar,
		RunningTime: l.RunningTime,
		CreateTime:  l.CreateTime,
		UpdateTime:  l.UpdateTime,
	}
}

type PoolEntryResp struct {
	ID          uint64 `json:"id"`
	Shell       string `json:"shell"`
	Frequency   string `json:"frequency"`
	Remark      string `json:"remark"`
	CreateTime  string `json:"create_time"`
	NextRunTime string `json:"next_run_time,omitempty"`
	PrevRunTime string `json:"prev_run_time,omitempty"`
}

func toPoolEntryResp(e scheduler.PoolEntry, loc *time.Location) PoolEntryResp {
	format := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.In(loc).Format(timeLayout)
	}
	return PoolEntryResp{
		ID:          e.ID,
		Shell:       e.Shell,
		Frequency:   e.Frequency,
		Remark:      e.Remark,
		CreateTime:  format(time.Unix(e.CreateTime, 0)),
		NextRunTime: format(e.NextRunTime),
		PrevRunTime: format(e.PrevRunTime),
	}
}
