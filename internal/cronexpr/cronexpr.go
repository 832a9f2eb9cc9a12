// Package cronexpr parses 5 and 6 field cron expressions and answers
// "does this instant fire" and "when is the next firing".
//
// Fields are, in order, [second] minute hour day-of-month month day-of-week.
// A 5-field expression fires only at second 0 of each matching minute.
package cronexpr

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidScheduleExpression 表达式无法解析
var ErrInvalidScheduleExpression = errors.New("invalid schedule expression")

const fieldOptions = cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow

var (
	taskParser    = cron.NewParser(fieldOptions)
	runtimeParser = cron.NewParser(fieldOptions | cron.Descriptor)
)

// Expression 已解析的 cron 表达式
type Expression struct {
	raw      string
	seconds  bool
	schedule cron.Schedule
}

var _ cron.Schedule = (*Expression)(nil)

// Parse 解析任务的执行频率
func Parse(expr string) (*Expression, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidScheduleExpression)
	}
	if strings.HasPrefix(expr, "@") {
		return nil, fmt.Errorf("%w: descriptor %q is not supported", ErrInvalidScheduleExpression, expr)
	}

	fields := strings.Fields(expr)
	if len(fields) != 5 && len(fields) != 6 {
		return nil, fmt.Errorf("%w: expected 5 or 6 fields, found %d", ErrInvalidScheduleExpression, len(fields))
	}

	schedule, err := taskParser.Parse(strings.Join(fields, " "))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScheduleExpression, err)
	}
	return &Expression{raw: expr, seconds: len(fields) == 6, schedule: schedule}, nil
}

// MustParse panics on invalid input. Intended for constants and tests.
func MustParse(expr string) *Expression {
	e, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return e
}

// Validate 校验表达式
func Validate(expr string) error {
	_, err := Parse(expr)
	return err
}

// Next 返回 t 之后（不含 t）的第一次触发时间，没有则返回零值
func (e *Expression) Next(t time.Time) time.Time {
	return e.schedule.Next(t)
}

// Match reports whether t, truncated to the second, is a firing instant.
func (e *Expression) Match(t time.Time) bool {
	at := t.Truncate(time.Second)
	return e.schedule.Next(at.Add(-time.Second)).Equal(at)
}

// HasSeconds 是否为 6 段表达式
func (e *Expression) HasSeconds() bool {
	return e.seconds
}

func (e *Expression) String() string {
	return e.raw
}

type parser struct{}

func (parser) Parse(spec string) (cron.Schedule, error) {
	if strings.HasPrefix(strings.TrimSpace(spec), "@") {
		return runtimeParser.Parse(spec)
	}
	return Parse(spec)
}

// Parser 返回给 cron.WithParser 使用的解析器，额外支持 @daily、@every 等描述符
func Parser() cron.ScheduleParser {
	return parser{}
}
