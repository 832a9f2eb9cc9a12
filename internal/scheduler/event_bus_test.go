package scheduler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jobs/crontab/internal/biz/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func encodeEvent(t *testing.T, ev PoolEvent) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return b
}

func TestEventBusLocalOnly(t *testing.T) {
	env := newTestEnv(t)
	bus := NewEventBus(env.cfg, env.s, nil, zap.NewNop())
	ctx := context.Background()
	tk := env.createTask(t, "* * * * *", task.TaskStatusEnabled)

	require.NoError(t, bus.Schedule(ctx, tk.ID))
	assert.Len(t, bus.Pool(), 1)

	require.NoError(t, bus.Unschedule(ctx, tk.ID))
	assert.Empty(t, bus.Pool())
}

func TestEventBusHandle(t *testing.T) {
	env := newTestEnv(t)
	bus := NewEventBus(env.cfg, env.s, nil, zap.NewNop())
	ctx := context.Background()
	tk := env.createTask(t, "* * * * *", task.TaskStatusEnabled)

	// 自己发出的消息忽略
	bus.handle(ctx, encodeEvent(t, PoolEvent{Type: EventSchedule, TaskID: tk.ID, Source: env.s.InstanceID()}))
	assert.False(t, env.s.Has(tk.ID))

	bus.handle(ctx, encodeEvent(t, PoolEvent{Type: EventSchedule, TaskID: tk.ID, Source: "other"}))
	assert.True(t, env.s.Has(tk.ID))

	bus.handle(ctx, []byte("{not json"))
	bus.handle(ctx, encodeEvent(t, PoolEvent{Type: "bogus", TaskID: tk.ID, Source: "other"}))
	assert.True(t, env.s.Has(tk.ID))

	bus.handle(ctx, encodeEvent(t, PoolEvent{Type: EventUnschedule, TaskID: tk.ID, Source: "other"}))
	assert.False(t, env.s.Has(tk.ID))
}

func TestEventBusListenWithoutRedis(t *testing.T) {
	env := newTestEnv(t)
	bus := NewEventBus(env.cfg, env.s, nil, zap.NewNop())
	assert.Equal(t, defaultRedisChannel, bus.channel)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, bus.Listen(ctx))
}
