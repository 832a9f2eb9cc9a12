package scheduler

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/go-redis/redis/v8"
	"github.com/jobs/crontab/pkg/config"
	"go.uber.org/zap"
)

// EventBus 先在本进程生效，再通过 Redis pub/sub 通知其他调度进程。
// rdb 为 nil 时只在本进程生效。
type EventBus struct {
	scheduler *Scheduler
	rdb       *redis.Client
	channel   string
	logger    *zap.Logger
}

func NewEventBus(cfg config.Config, scheduler *Scheduler, rdb *redis.Client, logger *zap.Logger) *EventBus {
	channel := cfg.Redis.Channel
	if channel == "" {
		channel = defaultRedisChannel
	}
	return &EventBus{scheduler: scheduler, rdb: rdb, channel: channel, logger: logger}
}

func (e *EventBus) Schedule(ctx context.Context, taskID uint64) error {
	if err := e.scheduler.Schedule(ctx, taskID); err != nil {
		return err
	}
	e.publish(ctx, EventSchedule, taskID)
	return nil
}

func (e *EventBus) Unschedule(ctx context.Context, taskID uint64) error {
	e.scheduler.Unschedule(taskID)
	e.publish(ctx, EventUnschedule, taskID)
	return nil
}

func (e *EventBus) Pool() []PoolEntry {
	return e.scheduler.Pool()
}

// publish 广播失败只记日志，本进程的状态已经是正确的
func (e *EventBus) publish(ctx context.Context, typ EventType, taskID uint64) {
	if e.rdb == nil {
		return
	}
	payload, err := json.Marshal(PoolEvent{
		Type:      typ,
		TaskID:    taskID,
		Source:    e.scheduler.InstanceID(),
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		e.logger.Error("failed to encode pool event", zap.Error(err))
		return
	}
	if err := e.rdb.Publish(ctx, e.channel, payload).Err(); err != nil {
		e.logger.Warn("failed to publish pool event",
			zap.String("type", string(typ)),
			zap.Uint64("task_id", taskID),
			zap.Error(err))
	}
}

// Listen 订阅其他进程的变更，直到 ctx 结束
func (e *EventBus) Listen(ctx context.Context) error {
	if e.rdb == nil {
		<-ctx.Done()
		return nil
	}

	sub := e.rdb.Subscribe(ctx, e.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	e.logger.Info("listening for pool events", zap.String("channel", e.channel))
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			e.handle(ctx, []byte(msg.Payload))
		}
	}
}

func (e *EventBus) handle(ctx context.Context, payload []byte) {
	var ev PoolEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		e.logger.Warn("dropping malformed pool event", zap.Error(err))
		return
	}
	if ev.Source == e.scheduler.InstanceID() {
		return
	}

	switch ev.Type {
	case EventSchedule:
		if err := e.scheduler.Reload(ctx, ev.TaskID); err != nil {
			e.logger.Error("failed to apply remote schedule",
				zap.Uint64("task_id", ev.TaskID),
				zap.Error(err))
		}
	case EventUnschedule:
		e.scheduler.Unschedule(ev.TaskID)
	default:
		e.logger.Warn("unknown pool event", zap.String("type", string(ev.Type)))
	}
}
