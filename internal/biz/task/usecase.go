package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/wire"
	"github.com/jobs/crontab/internal/biz/filter"
	"github.com/jobs/crontab/internal/cronexpr"
	"github.com/samber/mo"
	"github.com/spf13/cast"
)

var Provider = wire.NewSet(NewUsecase)

type Usecase struct {
	repo Repo
}

func NewUsecase(repo Repo) *Usecase {
	return &Usecase{repo: repo}
}

func (u *Usecase) Create(ctx context.Context, task *Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	return u.repo.Create(ctx, task)
}

func (u *Usecase) Get(ctx context.Context, id uint64) (*Task, error) {
	task, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	} else if task == nil {
		return nil, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	return task, nil
}

func (u *Usecase) List(ctx context.Context, query filter.Query) ([]*Task, int64, error) {
	return u.repo.List(ctx, query)
}

type UpdateRequest struct {
	Title     mo.Option[string]
	Type      mo.Option[TaskType]
	Frequency mo.Option[string]
	Shell     mo.Option[string]
	Remark    mo.Option[string]
	Sort      mo.Option[int]
	Status    mo.Option[TaskStatus]
}

func (r *UpdateRequest) validate() error {
	if v, ok := r.Title.Get(); ok && strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}
	if v, ok := r.Shell.Get(); ok && strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: shell must not be empty", ErrInvalidInput)
	}
	if v, ok := r.Type.Get(); ok && !v.Valid() {
		return fmt.Errorf("%w: unknown type %d", ErrInvalidInput, v)
	}
	if v, ok := r.Status.Get(); ok && !v.Valid() {
		return fmt.Errorf("%w: unknown status %d", ErrInvalidInput, v)
	}
	if v, ok := r.Frequency.Get(); ok {
		return cronexpr.Validate(v)
	}
	return nil
}

// Update 修改任务，返回修改前后的快照，调用方据此决定如何调整定时器
func (u *Usecase) Update(ctx context.Context, id uint64, req *UpdateRequest) (before *Task, after *Task, err error) {
	before, err = u.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := req.validate(); err != nil {
		return nil, nil, err
	}

	return u.apply(ctx, before, req.patch())
}

func (r *UpdateRequest) patch() *TaskPatch {
	patch := NewTaskPatch()
	if v, ok := r.Title.Get(); ok {
		patch.WithTitle(v)
	}
	if v, ok := r.Type.Get(); ok {
		patch.WithType(v)
	}
	if v, ok := r.Frequency.Get(); ok {
		patch.WithFrequency(v)
	}
	if v, ok := r.Shell.Get(); ok {
		patch.WithShell(v)
	}
	if v, ok := r.Remark.Get(); ok {
		patch.WithRemark(v)
	}
	if v, ok := r.Sort.Get(); ok {
		patch.WithSort(v)
	}
	if v, ok := r.Status.Get(); ok {
		patch.WithStatus(v)
	}
	return patch
}

// Modify 单字段修改，只允许 status 与 sort
func (u *Usecase) Modify(ctx context.Context, id uint64, field string, value any) (before *Task, after *Task, err error) {
	n, err := cast.ToIntE(value)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: value %v is not a number", ErrInvalidInput, value)
	}

	patch := NewTaskPatch()
	switch field {
	case FieldStatus:
		status := TaskStatus(n)
		if !status.Valid() {
			return nil, nil, fmt.Errorf("%w: unknown status %d", ErrInvalidInput, n)
		}
		patch.WithStatus(status)
	case FieldSort:
		patch.WithSort(n)
	default:
		return nil, nil, fmt.Errorf("%w: field %q cannot be modified", ErrInvalidInput, field)
	}

	before, err = u.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return u.apply(ctx, before, patch)
}

func (u *Usecase) apply(ctx context.Context, before *Task, patch *TaskPatch) (*Task, *Task, error) {
	if patch.IsEmpty() {
		return before, before, nil
	}
	if err := u.repo.Update(ctx, before.ID, patch); err != nil {
		return nil, nil, err
	}
	after, err := u.Get(ctx, before.ID)
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

func (u *Usecase) Delete(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: no ids", ErrInvalidInput)
	}
	return u.repo.Delete(ctx, ids)
}
