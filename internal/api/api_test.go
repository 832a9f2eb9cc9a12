package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jobs/crontab/internal/biz/filter"
	"github.com/jobs/crontab/internal/biz/task"
	"github.com/jobs/crontab/internal/biz/tasklog"
	"github.com/jobs/crontab/internal/infra/persistence/tasklogrepo"
	"github.com/jobs/crontab/internal/infra/persistence/taskrepo"
	"github.com/jobs/crontab/internal/orm/ormtest"
	"github.com/jobs/crontab/internal/scheduler"
	"github.com/jobs/crontab/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEmitter struct {
	mu    sync.Mutex
	calls []string
	err   error
	pool  []scheduler.PoolEntry
}

func (f *fakeEmitter) record(op string, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op+":"+idStr(id))
	return f.err
}

func idStr(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func taskListAll() filter.Query {
	return filter.Query{Page: 1, Limit: filter.MaxLimit}
}

func (f *fakeEmitter) Schedule(ctx context.Context, id uint64) error   { return f.record("schedule", id) }
func (f *fakeEmitter) Unschedule(ctx context.Context, id uint64) error { return f.record("unschedule", id) }
func (f *fakeEmitter) Pool() []scheduler.PoolEntry                     { return f.pool }

func (f *fakeEmitter) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.calls
	f.calls = nil
	return out
}

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
	Msg  string          `json:"msg"`
}

type testServer struct {
	router   *gin.Engine
	emitter  *fakeEmitter
	taskRepo task.Repo
	logRepo  tasklog.Repo
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{}
	cfg.Scheduler.Timezone = "UTC"
	for _, fn := range mutate {
		fn(&cfg)
	}

	db := ormtest.New(t)
	ts := &testServer{
		emitter:  &fakeEmitter{},
		taskRepo: taskrepo.NewRepositoryImpl(db),
		logRepo:  tasklogrepo.NewRepositoryWithLocation(db, time.UTC),
	}
	logger := zap.NewNop()
	srv := NewServer(cfg,
		NewTaskAPI(cfg, task.NewUsecase(ts.taskRepo), ts.emitter, logger),
		NewFlowAPI(cfg, ts.logRepo, ts.emitter),
		logger)
	ts.router = srv.Router()
	return ts
}

func (ts *testServer) do(t *testing.T, method, target string, body any, header ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, target, nil)
	case url.Values:
		req = httptest.NewRequest(method, target, strings.NewReader(b.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		req = httptest.NewRequest(method, target, strings.NewReader(string(raw)))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (ts *testServer) add(t *testing.T, body map[string]any) TaskResp {
	t.Helper()
	w, env := ts.do(t, http.MethodPost, "/crontab/add", body)
	require.Equal(t, http.StatusOK, w.Code, env.Msg)
	var resp TaskResp
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	return resp
}

func TestPing(t *testing.T) {
	ts := newTestServer(t)
	w, env := ts.do(t, http.MethodGet, "/crontab/ping", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 200, env.Code)
	assert.Equal(t, `"pong"`, string(env.Data))
	assert.Equal(t, "信息调用成功！", env.Msg)
}

func TestSafeKey(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Server.SafeKey = "s3cret" })

	w, env := ts.do(t, http.MethodGet, "/crontab/ping", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 403, env.Code)
	assert.Equal(t, "Connection Not Allowed", env.Msg)

	w, _ = ts.do(t, http.MethodGet, "/crontab/ping", nil, "key", "wrong")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = ts.do(t, http.MethodGet, "/crontab/ping", nil, "key", "s3cret")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = ts.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	w, env := ts.do(t, http.MethodGet, "/crontab/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 404, env.Code)

	w, env = ts.do(t, http.MethodGet, "/crontab/add", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, 405, env.Code)
}

func TestAdd(t *testing.T) {
	ts := newTestServer(t)

	enabled := ts.add(t, map[string]any{
		"title": "hello", "type": 2, "frequency": "*/1 * * * *", "shell": "echo hi", "status": 1,
	})
	assert.NotZero(t, enabled.ID)
	assert.Equal(t, "hello", enabled.Title)
	assert.Equal(t, []string{"schedule:" + idStr(enabled.ID)}, ts.emitter.Calls())

	disabled := ts.add(t, map[string]any{
		"title": "later", "frequency": "0 0 * * *", "shell": "true",
	})
	assert.Equal(t, 0, disabled.Status)
	assert.Empty(t, ts.emitter.Calls())

	// form bodies work too
	w, env := ts.do(t, http.MethodPost, "/crontab/add", url.Values{
		"title": {"form"}, "frequency": {"* * * * *"}, "shell": {"date"}, "status": {"1"},
	})
	assert.Equal(t, http.StatusOK, w.Code, env.Msg)
	assert.Len(t, ts.emitter.Calls(), 1)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	ts := newTestServer(t)

	w, env := ts.do(t, http.MethodPost, "/crontab/add", map[string]any{
		"title": "bad", "frequency": "61 * * * *", "shell": "true", "status": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Msg, "invalid schedule expression")

	w, _ = ts.do(t, http.MethodPost, "/crontab/add", map[string]any{
		"title": "", "frequency": "* * * * *", "shell": "true",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, ts.emitter.Calls())
	_, total, err := ts.taskRepo.List(context.Background(), taskListAll())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRead(t *testing.T) {
	ts := newTestServer(t)
	created := ts.add(t, map[string]any{"title": "a", "frequency": "* * * * *", "shell": "true"})

	w, env := ts.do(t, http.MethodGet, "/crontab/read?id="+idStr(created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got TaskResp
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, created.ID, got.ID)

	w, env = ts.do(t, http.MethodGet, "/crontab/read?id=9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 404, env.Code)
}

func TestEdit(t *testing.T) {
	ts := newTestServer(t)
	created := ts.add(t, map[string]any{"title": "a", "frequency": "*/1 * * * *", "shell": "echo hi", "status": 1})
	ts.emitter.Calls()
	id := idStr(created.ID)

	// 只改备注不需要重新注册
	w, _ := ts.do(t, http.MethodPost, "/crontab/edit?id="+id, map[string]any{"remark": "note"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ts.emitter.Calls())

	w, env := ts.do(t, http.MethodPost, "/crontab/edit?id="+id, map[string]any{"frequency": "*/5 * * * *"})
	require.Equal(t, http.StatusOK, w.Code)
	var got TaskResp
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "*/5 * * * *", got.Frequency)
	assert.Equal(t, "note", got.Remark)
	assert.Equal(t, []string{"schedule:" + id}, ts.emitter.Calls())

	w, _ = ts.do(t, http.MethodPost, "/crontab/edit", map[string]any{"id": created.ID, "status": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"unschedule:" + id}, ts.emitter.Calls())

	w, _ = ts.do(t, http.MethodPost, "/crontab/edit?id="+id, map[string]any{"frequency": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/crontab/edit?id=9999", map[string]any{"remark": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestModify(t *testing.T) {
	ts := newTestServer(t)
	created := ts.add(t, map[string]any{"title": "a", "frequency": "* * * * *", "shell": "true", "status": 1})
	ts.emitter.Calls()
	id := idStr(created.ID)

	w, _ := ts.do(t, http.MethodPost, "/crontab/modify", map[string]any{"id": created.ID, "field": "status", "value": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"unschedule:" + id}, ts.emitter.Calls())

	w, _ = ts.do(t, http.MethodPost, "/crontab/modify", url.Values{"id": {id}, "field": {"status"}, "value": {"1"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"schedule:" + id}, ts.emitter.Calls())

	w, env := ts.do(t, http.MethodPost, "/crontab/modify", map[string]any{"id": created.ID, "field": "sort", "value": "7"})
	require.Equal(t, http.StatusOK, w.Code)
	var got TaskResp
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 7, got.Sort)
	assert.Empty(t, ts.emitter.Calls())

	w, _ = ts.do(t, http.MethodPost, "/crontab/modify", map[string]any{"id": created.ID, "field": "title", "value": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDelete(t *testing.T) {
	ts := newTestServer(t)
	a := ts.add(t, map[string]any{"title": "a", "frequency": "* * * * *", "shell": "true", "status": 1})
	b := ts.add(t, map[string]any{"title": "b", "frequency": "* * * * *", "shell": "true", "status": 1})
	ts.emitter.Calls()

	w, _ := ts.do(t, http.MethodPost, "/crontab/delete", url.Values{"id": {idStr(a.ID) + "," + idStr(b.ID)}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []string{"unschedule:" + idStr(a.ID), "unschedule:" + idStr(b.ID)}, ts.emitter.Calls())

	w, _ = ts.do(t, http.MethodGet, "/crontab/read?id="+idStr(a.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/crontab/delete", map[string]any{"id": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReload(t *testing.T) {
	ts := newTestServer(t)
	on := ts.add(t, map[string]any{"title": "on", "frequency": "* * * * *", "shell": "true", "status": 1})
	off := ts.add(t, map[string]any{"title": "off", "frequency": "* * * * *", "shell": "true"})
	ts.emitter.Calls()

	w, env := ts.do(t, http.MethodPost, "/crontab/reload", map[string]any{"id": []uint64{on.ID, off.ID, 9999}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", string(env.Data))
	assert.Equal(t, []string{"unschedule:" + idStr(on.ID), "schedule:" + idStr(on.ID)}, ts.emitter.Calls())
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t)
	ts.add(t, map[string]any{"title": "backup db", "frequency": "* * * * *", "shell": "true", "sort": 1})
	ts.add(t, map[string]any{"title": "backup files", "frequency": "* * * * *", "shell": "true", "sort": 5})
	ts.add(t, map[string]any{"title": "rotate", "frequency": "* * * * *", "shell": "true", "status": 1})

	query := url.Values{
		"filter": {`{"title":"backup"}`},
		"page":   {"1"},
		"limit":  {"10"},
	}
	w, env := ts.do(t, http.MethodGet, "/crontab/index?"+query.Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code, env.Msg)

	var list ListResp[TaskResp]
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 2, list.Count)
	require.Len(t, list.List, 2)
	assert.Equal(t, "backup files", list.List[0].Title)

	query = url.Values{"filter": {`{"status":1}`}, "op": {`{"status":"="}`}}
	_, env = ts.do(t, http.MethodGet, "/crontab/index?"+query.Encode(), nil)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 1, list.Count)

	query = url.Values{"filter": {`{"title":"x"}`}, "op": {`{"title":"regexp"}`}}
	w, _ = ts.do(t, http.MethodGet, "/crontab/index?"+query.Encode(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	query = url.Values{"filter": {`{"secret":"x"}`}}
	w, _ = ts.do(t, http.MethodGet, "/crontab/index?"+query.Encode(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFlow(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	now := time.Now().Unix()
	for _, sid := range []uint64{1, 1, 2} {
		require.NoError(t, ts.logRepo.Insert(ctx, &tasklog.TaskLog{
			SID: sid, Command: "echo hi", Output: "hi", CreateTime: now,
		}))
	}

	w, env := ts.do(t, http.MethodGet, "/crontab/flow?sid=1", nil)
	require.Equal(t, http.StatusOK, w.Code, env.Msg)
	var list ListResp[TaskLogResp]
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 2, list.Count)
	assert.Equal(t, "hi", list.List[0].Output)

	query := url.Values{"filter": {`{"month":"200001"}`}}
	_, env = ts.do(t, http.MethodGet, "/crontab/flow?"+query.Encode(), nil)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Zero(t, list.Count)
	assert.Empty(t, list.List)

	query = url.Values{"filter": {`{"month":"2000"}`}}
	w, _ = ts.do(t, http.MethodGet, "/crontab/flow?"+query.Encode(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPool(t *testing.T) {
	ts := newTestServer(t)
	registered := time.Date(2026, 10, 17, 8, 30, 0, 0, time.UTC)
	ts.emitter.pool = []scheduler.PoolEntry{{
		ID:          3,
		Shell:       "echo hi",
		Frequency:   "* * * * *",
		CreateTime:  registered.Unix(),
		NextRunTime: registered.Add(time.Minute),
	}}

	w, env := ts.do(t, http.MethodGet, "/crontab/pool", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pool []PoolEntryResp
	require.NoError(t, json.Unmarshal(env.Data, &pool))
	require.Len(t, pool, 1)
	assert.Equal(t, "2026-10-17 08:30:00", pool[0].CreateTime)
	assert.Equal(t, "2026-10-17 08:31:00", pool[0].NextRunTime)
	assert.Empty(t, pool[0].PrevRunTime)
}

func TestInternalErrorHidesDetail(t *testing.T) {
	for _, debug := range []bool{false, true} {
		ts := newTestServer(t, func(c *config.Config) { c.Server.Debug = debug })
		created := ts.add(t, map[string]any{"title": "a", "frequency": "* * * * *", "shell": "true"})
		ts.emitter.err = errors.New("redis down")

		w, env := ts.do(t, http.MethodPost, "/crontab/modify", map[string]any{"id": created.ID, "field": "status", "value": 1})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		if debug {
			assert.Equal(t, "redis down", env.Msg)
		} else {
			assert.Equal(t, "Internal Server Error", env.Msg)
		}
	}
}
