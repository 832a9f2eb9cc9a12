package task

import (
	"fmt"
	"strings"

	"github.com/jobs/crontab/internal/cronexpr"
)

type Task struct {
	ID              uint64
	Title           string
	Type            TaskType
	Frequency       string
	Shell           string
	RunningTimes    int64
	LastRunningTime int64
	Remark          string
	Sort            int
	Status          TaskStatus
	CreateTime      int64
	UpdateTime      int64
}

// Validate 校验新建任务
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(t.Shell) == "" {
		return fmt.Errorf("%w: shell is required", ErrInvalidInput)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: unknown type %d", ErrInvalidInput, t.Type)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown status %d", ErrInvalidInput, t.Status)
	}
	return cronexpr.Validate(t.Frequency)
}

// ScheduleChanged 判断 next 相对 t 是否需要重新注册定时器
func (t *Task) ScheduleChanged(next *Task) bool {
	return t.Frequency != next.Frequency || t.Shell != next.Shell
}

type TaskPatch struct {
	Title     *string
	Type      *TaskType
	Frequency *string
	Shell     *string
	Remark    *string
	Sort      *int
	Status    *TaskStatus
}

func NewTaskPatch() *TaskPatch {
	return &TaskPatch{}
}

func (p *TaskPatch) IsEmpty() bool {
	return *p == TaskPatch{}
}

func (p *TaskPatch) WithTitle(title string) *TaskPatch {
	p.Title = &title
	return p
}

func (p *TaskPatch) WithType(typ TaskType) *TaskPatch {
	p.Type = &typ
	return p
}

func (p *TaskPatch) WithFrequency(frequency string) *TaskPatch {
	p.Frequency = &frequency
	return p
}

func (p *TaskPatch) WithShell(shell string) *TaskPatch {
	p.Shell = &shell
	return p
}

func (p *TaskPatch) WithRemark(remark string) *TaskPatch {
	p.Remark = &remark
	return p
}

func (p *TaskPatch) WithSort(sort int) *TaskPatch {
	p.Sort = &sort
	return p
}

func (p *TaskPatch) WithStatus(status TaskStatus) *TaskPatch {
	p.Status = &status
	return p
}
