package tasklockrepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/wire"
	domain "github.com/jobs/crontab/internal/biz/tasklock"
	"github.com/jobs/crontab/internal/infra/persistence/commonrepo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var Provider = wire.NewSet(NewRepositoryImpl)

type RepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewRepositoryImpl(db commonrepo.DB) domain.Repo {
	return &RepositoryImpl{DefaultRepo: commonrepo.NewDefaultRepo(db)}
}

func (r *RepositoryImpl) Check(ctx context.Context, sid uint64) (bool, error) {
	po := TaskLockPo{SID: sid}
	po.Touch(time.Now())
	err := r.Db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sid"}},
		DoNothing: true,
	}).Create(&po).Error
	if err != nil {
		return false, err
	}

	lock, err := r.Get(ctx, sid)
	if err != nil {
		return false, err
	} else if lock == nil {
		return false, errors.New("task lock row disappeared")
	}
	return lock.IsLock, nil
}

// TryLock 比较并设置：只有 is_lock=0 的行会被更新
func (r *RepositoryImpl) TryLock(ctx context.Context, sid uint64) (bool, error) {
	tx := r.Db(ctx).Model(&TaskLockPo{}).
		Where("sid = ? AND is_lock = ?", sid, 0).
		Updates(map[string]any{"is_lock": 1})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *RepositoryImpl) Unlock(ctx context.Context, sid uint64) error {
	return r.Db(ctx).Model(&TaskLockPo{}).
		Where("sid = ?", sid).
		Updates(map[string]any{"is_lock": 0}).Error
}

func (r *RepositoryImpl) ResetAll(ctx context.Context) (int64, error) {
	tx := r.Db(ctx).Model(&TaskLockPo{}).
		Where("is_lock = ?", 1).
		Updates(map[string]any{"is_lock": 0})
	return tx.RowsAffected, tx.Error
}

func (r *RepositoryImpl) Get(ctx context.Context, sid uint64) (*domain.TaskLock, error) {
	var po TaskLockPo
	if err := r.Db(ctx).Where("sid = ?", sid).First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}
