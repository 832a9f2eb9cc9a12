package taskrepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/wire"
	"github.com/jobs/crontab/internal/biz/filter"
	domain "github.com/jobs/crontab/internal/biz/task"
	"github.com/jobs/crontab/internal/infra/persistence/commonrepo"
	"github.com/jobs/crontab/internal/infra/persistence/tasklockrepo"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

var Provider = wire.NewSet(NewRepositoryImpl)

type RepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewRepositoryImpl(db commonrepo.DB) domain.Repo {
	return &RepositoryImpl{DefaultRepo: commonrepo.NewDefaultRepo(db)}
}

func (r *RepositoryImpl) Create(ctx context.Context, task *domain.Task) error {
	po := new(TaskPo).FromDomain(task)
	po.Touch(time.Now())
	err := r.Db(ctx).Create(po).Error
	if err != nil {
		return err
	}
	task.ID = po.ID
	task.CreateTime = po.CreateTime
	task.UpdateTime = po.UpdateTime
	return nil
}

func (r *RepositoryImpl) GetByID(ctx context.Context, id uint64) (*domain.Task, error) {
	var po TaskPo
	if err := r.Db(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *RepositoryImpl) Update(ctx context.Context, id uint64, patch *domain.TaskPatch) error {
	values := patchToMap(patch)
	if len(values) == 0 {
		return nil
	}
	return r.Db(ctx).Model(&TaskPo{}).Where("id = ?", id).Updates(values).Error
}

// Delete 同一事务内删除任务和对应的锁记录
func (r *RepositoryImpl) Delete(ctx context.Context, ids []uint64) error {
	return r.Execute(ctx, func(ctx context.Context) error {
		if err := r.Db(ctx).Where("id IN ?", ids).Delete(&TaskPo{}).Error; err != nil {
			return err
		}
		return r.Db(ctx).Where("sid IN ?", ids).Delete(&tasklockrepo.TaskLockPo{}).Error
	})
}

func (r *RepositoryImpl) List(ctx context.Context, query filter.Query) ([]*domain.Task, int64, error) {
	base := func() (*gorm.DB, error) {
		return commonrepo.Where(r.Db(ctx).Model(&TaskPo{}), query.Conditions, listColumns)
	}

	tx, err := base()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	tx, _ = base()
	var pos []TaskPo
	if err := tx.Order("sort DESC").Order("id DESC").Scopes(commonrepo.Paginate(query)).Find(&pos).Error; err != nil {
		return nil, 0, err
	}
	return lo.Map(pos, func(po TaskPo, _ int) *domain.Task {
		return po.ToDomain()
	}), total, nil
}

func (r *RepositoryImpl) EnabledIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := r.Db(ctx).Model(&TaskPo{}).
		Where("status = ?", int(domain.TaskStatusEnabled)).
		Order("sort DESC").Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *RepositoryImpl) IncrementRunningTimes(ctx context.Context, id uint64, lastRunningTime int64) error {
	return r.Db(ctx).Model(&TaskPo{}).Where("id = ?", id).Updates(map[string]any{
		"running_times":     gorm.Expr("running_times + ?", 1),
		"last_running_time": lastRunningTime,
	}).Error
}
