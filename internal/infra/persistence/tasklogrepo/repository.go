package tasklogrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/wire"
	domain "github.com/jobs/crontab/internal/biz/tasklog"
	"github.com/jobs/crontab/internal/infra/persistence/commonrepo"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

var Provider = wire.NewSet(NewRepositoryImpl)

type RepositoryImpl struct {
	commonrepo.DefaultRepo
	loc *time.Location

	mu      sync.RWMutex
	current string // 已确认存在的当前分表后缀
}

// NewRepositoryImpl 分表月份按调度时区计算
func NewRepositoryImpl(db commonrepo.DB, loc *time.Location) domain.Repo {
	return NewRepositoryWithLocation(db, loc)
}

func NewRepositoryWithLocation(db commonrepo.DB, loc *time.Location) *RepositoryImpl {
	return &RepositoryImpl{DefaultRepo: commonrepo.NewDefaultRepo(db), loc: loc}
}

func (r *RepositoryImpl) Insert(ctx context.Context, log *domain.TaskLog) error {
	at := time.Now()
	if log.CreateTime > 0 {
		at = time.Unix(log.CreateTime, 0)
	}
	if _, err := r.EnsurePartition(ctx, at); err != nil {
		return err
	}

	po := new(TaskLogPo).FromDomain(log)
	po.Touch(at)
	if err := r.Db(ctx).Table(tableName(domain.Suffix(at.In(r.loc)))).Create(po).Error; err != nil {
		return err
	}
	log.ID = po.ID
	log.CreateTime = po.CreateTime
	log.UpdateTime = po.UpdateTime
	return nil
}

func (r *RepositoryImpl) List(ctx context.Context, query domain.ListQuery) ([]*domain.TaskLog, int64, error) {
	suffix := query.Month.OrElse(domain.Suffix(time.Now().In(r.loc)))
	suffix, err := domain.ParseMonth(suffix)
	if err != nil {
		return nil, 0, err
	}
	name := tableName(suffix)
	if !r.Db(ctx).Migrator().HasTable(name) {
		return []*domain.TaskLog{}, 0, nil
	}

	base := func() (*gorm.DB, error) {
		tx := r.Db(ctx).Table(name)
		if sid, ok := query.SID.Get(); ok {
			tx = tx.Where("sid = ?", sid)
		}
		return commonrepo.Where(tx, query.Conditions, listColumns)
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
	var pos []TaskLogPo
	if err := tx.Order("id DESC").Scopes(commonrepo.Paginate(query.Query)).Find(&pos).Error; err != nil {
		return nil, 0, err
	}
	return lo.Map(pos, func(po TaskLogPo, _ int) *domain.TaskLog {
		return po.ToDomain()
	}), total, nil
}
