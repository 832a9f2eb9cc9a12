package scheduler

// EventType 定时器池变更事件
type EventType string

const (
	EventSchedule   EventType = "schedule"
	EventUnschedule EventType = "unschedule"
)

// PoolEvent 通过 Redis 发布给其他调度进程的消息
type PoolEvent struct {
	Type      EventType `json:"type"`
	TaskID    uint64    `json:"task_id"`
	Source    string    `json:"source,omitempty"`
	Timestamp int64     `json:"ts,omitempty"`
}

const defaultRedisChannel = "crontab:pool-events"
