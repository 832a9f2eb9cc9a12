package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	q, err := Parse(Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 15, q.Limit)
	assert.Equal(t, 0, q.Offset())
	assert.Empty(t, q.Conditions)

	q, err = Parse(Params{Page: 3, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 40, q.Offset())
}

func TestParseDefaultOperatorIsContains(t *testing.T) {
	q, err := Parse(Params{Filter: `{"title":"backup"}`})
	require.NoError(t, err)
	require.Len(t, q.Conditions, 1)

	sql, args := q.Conditions[0].Clause()
	assert.Equal(t, "title LIKE ?", sql)
	assert.Equal(t, []any{"%backup%"}, args)
}

func TestParseOperators(t *testing.T) {
	q, err := Parse(Params{
		Filter: `{"status":1,"title":"db","shell":"sh","remark":"x","sid":"1,2, 3"}`,
		Op:     `{"status":"=","title":"*%","shell":"%*","remark":"%*%","sid":"IN"}`,
	})
	require.NoError(t, err)
	require.Len(t, q.Conditions, 5)

	got := map[string][]any{}
	sqls := map[string]string{}
	for _, c := range q.Conditions {
		sql, args := c.Clause()
		sqls[c.Field] = sql
		got[c.Field] = args
	}

	assert.Equal(t, "status = ?", sqls["status"])
	assert.Equal(t, []any{int64(1)}, got["status"])
	assert.Equal(t, []any{"db%"}, got["title"])
	assert.Equal(t, []any{"%sh"}, got["shell"])
	assert.Equal(t, []any{"%x%"}, got["remark"])
	assert.Equal(t, "sid IN ?", sqls["sid"])
	assert.Equal(t, []any{[]any{int64(1), int64(2), int64(3)}}, got["sid"])
}

func TestParseRange(t *testing.T) {
	q, err := Parse(Params{
		Filter: `{"create_time":"2026-10-01 00:00:00 - 2026-10-17 23:59:59"}`,
		Op:     `{"create_time":"range"}`,
	})
	require.NoError(t, err)
	require.Len(t, q.Conditions, 1)

	sql, args := q.Conditions[0].Clause()
	assert.Equal(t, "create_time >= ? AND create_time <= ?", sql)
	begin := time.Date(2026, 10, 1, 0, 0, 0, 0, time.Local).Unix()
	end := time.Date(2026, 10, 17, 23, 59, 59, 0, time.Local).Unix()
	assert.Equal(t, []any{begin, end}, args)

	q, err = Parse(Params{Filter: `{"create_time":"100 - 200"}`, Op: `{"create_time":"range"}`})
	require.NoError(t, err)
	_, args = q.Conditions[0].Clause()
	assert.Equal(t, []any{int64(100), int64(200)}, args)
}

func TestParseRangeInLocation(t *testing.T) {
	cst := time.FixedZone("CST", 8*3600)
	q, err := ParseIn(Params{
		Filter: `{"create_time":"2026-10-01 00:00:00 - 2026-10-01 08:00:00"}`,
		Op:     `{"create_time":"range"}`,
	}, cst)
	require.NoError(t, err)
	require.Len(t, q.Conditions, 1)

	_, args := q.Conditions[0].Clause()
	begin := time.Date(2026, 9, 30, 16, 0, 0, 0, time.UTC).Unix()
	assert.Equal(t, []any{begin, begin + 8*3600}, args)

	// unix seconds ignore the zone
	q, err = ParseIn(Params{Filter: `{"create_time":"100 - 200"}`, Op: `{"create_time":"range"}`}, cst)
	require.NoError(t, err)
	_, args = q.Conditions[0].Clause()
	assert.Equal(t, []any{int64(100), int64(200)}, args)
}

func TestParseExcluded(t *testing.T) {
	q, err := Parse(Params{Filter: `{"month":"2026-10","sid":"5"}`, Op: `{"sid":"="}`}, "month")
	require.NoError(t, err)
	assert.Equal(t, "2026-10", q.Excluded["month"])
	require.Len(t, q.Conditions, 1)
	assert.Equal(t, "sid", q.Conditions[0].Field)
}

func TestParseErrors(t *testing.T) {
	cases := []Params{
		{Filter: `{"title":`},
		{Filter: `{"title":"x"}`, Op: `{"title":"regexp"}`},
		{Filter: `{"title; drop table x":"x"}`},
		{Filter: `{"create_time":"yesterday"}`, Op: `{"create_time":"range"}`},
		{Filter: `{"create_time":"soon - later"}`, Op: `{"create_time":"range"}`},
		{Filter: `{"id":" , "}`, Op: `{"id":"in"}`},
	}
	for _, p := range cases {
		_, err := Parse(p)
		assert.ErrorIs(t, err, ErrInvalidFilter, "params %+v", p)
	}
}
