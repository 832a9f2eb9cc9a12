package taskrepo

import (
	"github.com/jobs/crontab/internal/infra/persistence/commonrepo"
)

type TaskPo struct {
	commonrepo.Mode
	Title           string `gorm:"column:title;size:100;not null"`
	Type            int    `gorm:"column:type;not null;default:0"`
	Frequency       string `gorm:"column:frequency;size:100;not null"`
	Shell           string `gorm:"column:shell;type:text;not null"`
	RunningTimes    int64  `gorm:"column:running_times;not null;default:0"`
	LastRunningTime int64  `gorm:"column:last_running_time;not null;default:0"`
	Remark          string `gorm:"column:remark;size:255;not null;default:''"`
	Sort            int    `gorm:"column:sort;not null;default:0;index"`
	Status          int    `gorm:"column:status;not null;default:0;index"`
}

func (TaskPo) TableName() string {
	return "crontab_task"
}

// 允许用于列表过滤的列
var listColumns = commonrepo.NewColumns(
	"id", "title", "type", "frequency", "shell", "running_times",
	"last_running_time", "remark", "sort", "status", "create_time", "update_time",
)
