package taskrepo_test

import (
	"context"
	"testing"

	"github.com/jobs/crontab/internal/biz/filter"
	"github.com/jobs/crontab/internal/biz/task"
	"github.com/jobs/crontab/internal/infra/persistence/tasklockrepo"
	"github.com/jobs/crontab/internal/infra/persistence/taskrepo"
	"github.com/jobs/crontab/internal/orm/ormtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(title string, sort int, status task.TaskStatus) *task.Task {
	return &task.Task{
		Title:     title,
		Type:      task.TaskTypeShell,
		Frequency: "* * * * *",
		Shell:     "echo " + title,
		Sort:      sort,
		Status:    status,
	}
}

func TestCreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	repo := taskrepo.NewRepositoryImpl(ormtest.New(t))

	tk := newTask("backup", 0, task.TaskStatusEnabled)
	require.NoError(t, repo.Create(ctx, tk))
	assert.NotZero(t, tk.ID)
	assert.NotZero(t, tk.CreateTime)
	assert.NotZero(t, tk.UpdateTime)

	got, err := repo.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, tk.CreateTime, got.CreateTime)
	assert.NotZero(t, got.UpdateTime)
	assert.Equal(t, "backup", got.Title)
	assert.Equal(t, task.TaskTypeShell, got.Type)
	assert.Equal(t, task.TaskStatusEnabled, got.Status)

	require.NoError(t, repo.Update(ctx, tk.ID, task.NewTaskPatch().WithFrequency("*/5 * * * *").WithStatus(task.TaskStatusDisabled)))
	got, err = repo.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "*/5 * * * *", got.Frequency)
	assert.Equal(t, task.TaskStatusDisabled, got.Status)

	missing, err := repo.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	repo := taskrepo.NewRepositoryImpl(ormtest.New(t))

	require.NoError(t, repo.Create(ctx, newTask("alpha", 1, task.TaskStatusEnabled)))
	require.NoError(t, repo.Create(ctx, newTask("beta", 5, task.TaskStatusDisabled)))
	require.NoError(t, repo.Create(ctx, newTask("alphabet", 3, task.TaskStatusEnabled)))

	q, err := filter.Parse(filter.Params{})
	require.NoError(t, err)
	list, total, err := repo.List(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"beta", "alphabet", "alpha"}, []string{list[0].Title, list[1].Title, list[2].Title})

	q, err = filter.Parse(filter.Params{Filter: `{"title":"alpha","status":1}`, Op: `{"status":"="}`, Limit: 1})
	require.NoError(t, err)
	list, total, err = repo.List(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 1)
	assert.Equal(t, "alphabet", list[0].Title)

	q, err = filter.Parse(filter.Params{Filter: `{"secret":"x"}`})
	require.NoError(t, err)
	_, _, err = repo.List(ctx, q)
	assert.ErrorIs(t, err, filter.ErrInvalidFilter)
}

func TestListIn(t *testing.T) {
	ctx := context.Background()
	repo := taskrepo.NewRepositoryImpl(ormtest.New(t))

	var ids []uint64
	for _, title := range []string{"a", "b", "c"} {
		tk := newTask(title, 0, task.TaskStatusEnabled)
		require.NoError(t, repo.Create(ctx, tk))
		ids = append(ids, tk.ID)
	}

	q, err := filter.Parse(filter.Params{Filter: `{"id":"1,3"}`, Op: `{"id":"in"}`})
	require.NoError(t, err)
	list, total, err := repo.List(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.ElementsMatch(t, []uint64{ids[0], ids[2]}, []uint64{list[0].ID, list[1].ID})
}

func TestEnabledIDsOrder(t *testing.T) {
	ctx := context.Background()
	repo := taskrepo.NewRepositoryImpl(ormtest.New(t))

	low := newTask("low", 1, task.TaskStatusEnabled)
	off := newTask("off", 9, task.TaskStatusDisabled)
	high := newTask("high", 7, task.TaskStatusEnabled)
	tie := newTask("tie", 1, task.TaskStatusEnabled)
	for _, tk := range []*task.Task{low, off, high, tie} {
		require.NoError(t, repo.Create(ctx, tk))
	}

	ids, err := repo.EnabledIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{high.ID, low.ID, tie.ID}, ids)
}

func TestIncrementRunningTimes(t *testing.T) {
	ctx := context.Background()
	repo := taskrepo.NewRepositoryImpl(ormtest.New(t))

	tk := newTask("count", 0, task.TaskStatusEnabled)
	require.NoError(t, repo.Create(ctx, tk))

	require.NoError(t, repo.IncrementRunningTimes(ctx, tk.ID, 1700000000))
	require.NoError(t, repo.IncrementRunningTimes(ctx, tk.ID, 1700000060))

	got, err := repo.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.RunningTimes)
	assert.EqualValues(t, 1700000060, got.LastRunningTime)
}

func TestDeleteRemovesLockRows(t *testing.T) {
	ctx := context.Background()
	db := ormtest.New(t)
	repo := taskrepo.NewRepositoryImpl(db)
	locks := tasklockrepo.NewRepositoryImpl(db)

	a := newTask("a", 0, task.TaskStatusEnabled)
	b := newTask("b", 0, task.TaskStatusEnabled)
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))
	_, err := locks.Check(ctx, a.ID)
	require.NoError(t, err)
	_, err = locks.Check(ctx, b.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, []uint64{a.ID}))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	lock, err := locks.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, lock)

	lock, err = locks.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.NotNil(t, lock)
}
