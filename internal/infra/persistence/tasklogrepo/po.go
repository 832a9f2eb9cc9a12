package tasklogrepo

import (
	domain "github.com/jobs/crontab/internal/biz/tasklog"
	"github.com/jobs/crontab/internal/infra/persistence/commonrepo"
)

const tablePrefix = "crontab_task_log_"

// TaskLogPo 按月分表，表名为 crontab_task_log_YYYYMM，没有固定的 TableName
type TaskLogPo struct {
	commonrepo.Mode
	SID         uint64  `gorm:"column:sid;not null;index"`
	Command     string  `gorm:"column:command;type:text;not null"`
	Output      string  `gorm:"column:output;type:longtext;not null"`
	ReturnVar   int     `gorm:"column:return_var;not null;default:0"`
	RunningTime float64 `gorm:"column:running_time;not null;default:0"`
}

func tableName(suffix string) string {
	return tablePrefix + suffix
}

var listColumns = commonrepo.NewColumns(
	"id", "sid", "command", "output", "return_var", "running_time", "create_time", "update_time",
)

func (po *TaskLogPo) FromDomain(in *domain.TaskLog) *TaskLogPo {
	return &TaskLogPo{
		Mode: commonrepo.Mode{
			ID:         in.ID,
			CreateTime: in.CreateTime,
			UpdateTime: in.UpdateTime,
		},
		SID:         in.SID,
		Command:     in.Command,
		Output:      in.Output,
		ReturnVar:   in.ReturnVar,
		RunningTime: in.RunningTime,
	}
}

func (po *TaskLogPo) ToDomain() *domain.TaskLog {
	return &domain.TaskLog{
		ID:          po.ID,
		SID:         po.SID,
		Command:     po.Command,
		Output:      po.Output,
		ReturnVar:   po.ReturnVar,
		RunningTime: po.RunningTime,
		CreateTime:  po.CreateTime,
		UpdateTime:  po.UpdateTime,
	}
}
