package tasklockrepo

import (
	domain "github.com/jobs/crontab/internal/biz/tasklock"
	"github.com/jobs/crontab/internal/infra/persistence/commonrepo"
)

type TaskLockPo struct {
	commonrepo.Mode
	SID    uint64 `gorm:"column:sid;not null;uniqueIndex"`
	IsLock int    `gorm:"column:is_lock;not null;default:0"`
}

func (TaskLockPo) TableName() string {
	return "crontab_task_lock"
}

func (po *TaskLockPo) ToDomain() *domain.TaskLock {
	return &domain.TaskLock{
		ID:         po.ID,
		SID:        po.SID,
		IsLock:     po.IsLock == 1,
		CreateTime: po.CreateTime,
		UpdateTime: po.UpdateTime,
	}
}
