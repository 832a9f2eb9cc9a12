package task

type TaskStatus int

const (
	TaskStatusDisabled TaskStatus = 0
	TaskStatusEnabled  TaskStatus = 1
)

func (s TaskStatus) Valid() bool {
	return s == TaskStatusDisabled || s == TaskStatusEnabled
}

func (s TaskStatus) Enabled() bool {
	return s == TaskStatusEnabled
}

// TaskType 仅作为标签保存，执行时统一把 Shell 字段交给执行器
type TaskType int

const (
	TaskTypeURL   TaskType = 0
	TaskTypeSQL   TaskType = 1
	TaskTypeShell TaskType = 2
)

func (t TaskType) Valid() bool {
	return t >= TaskTypeURL && t <= TaskTypeShell
}

// 可以通过 modify 接口单独修改的字段
const (
	FieldStatus = "status"
	FieldSort   = "sort"
)
