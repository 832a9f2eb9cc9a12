package taskrepo

import (
	domain "github.com/jobs/crontab/internal/biz/task"
	"github.com/jobs/crontab/internal/infra/persistence/commonrepo"
)

func (po *TaskPo) FromDomain(in *domain.Task) *TaskPo {
	return &TaskPo{
		Mode: commonrepo.Mode{
			ID:         in.ID,
			CreateTime: in.CreateTime,
			UpdateTime: in.UpdateTime,
		},
		Title:           in.Title,
		Type:            int(in.Type),
		Frequency:       in.Frequency,
		Shell:           in.Shell,
		RunningTimes:    in.RunningTimes,
		LastRunningTime: in.LastRunningTime,
		Remark:          in.Remark,
		Sort:            in.Sort,
		Status:          int(in.Status),
	}
}

func (po *TaskPo) ToDomain() *domain.Task {
	return &domain.Task{
		ID:              po.ID,
		CreateTime:      po.CreateTime,
		UpdateTime:      po.UpdateTime,
		Title:           po.Title,
		Type:            domain.TaskType(po.Type),
		Frequency:       po.Frequency,
		Shell:           po.Shell,
		RunningTimes:    po.RunningTimes,
		LastRunningTime: po.LastRunningTime,
		Remark:          po.Remark,
		Sort:            po.Sort,
		Status:          domain.TaskStatus(po.Status),
	}
}

func patchToMap(input *domain.TaskPatch) map[string]any {
	var values = make(map[string]any)

	if input.Title != nil {
		values["title"] = *input.Title
	}

	if input.Type != nil {
		values["type"] = int(*input.Type)
	}

	if input.Frequency != nil {
		values["frequency"] = *input.Frequency
	}

	if input.Shell != nil {
		values["shell"] = *input.Shell
	}

	if input.Remark != nil {
		values["remark"] = *input.Remark
	}

	if input.Sort != nil {
		values["sort"] = *input.Sort
	}

	if input.Status != nil {
		values["status"] = int(*input.Status)
	}

	return values
}
