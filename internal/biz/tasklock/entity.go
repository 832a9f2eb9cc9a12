package tasklock

// TaskLock 每个任务一条，标记任务是否正在执行
type TaskLock struct {
	ID         uint64
	SID        uint64
	IsLock     bool
	CreateTime int64
	UpdateTime int64
}
