package tasklog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var ErrInvalidMonth = errors.New("invalid month")

// TaskLog 单次执行记录，写入后不再修改
type TaskLog struct {
	ID          uint64
	SID         uint64
	Command     string
	Output      string
	ReturnVar   int
	RunningTime float64
	CreateTime  int64
	UpdateTime  int64
}

// CleanupResult 一次保留期清理的结果
type CleanupResult struct {
	DroppedTables []string
	DeletedRows   int64
}

const suffixLayout = "200601"

var monthPattern = regexp.MustCompile(`^(\d{4})-?(0[1-9]|1[0-2])$`)

// Suffix 返回 t 所在月份的分表后缀
func Suffix(t time.Time) string {
	return t.Format(suffixLayout)
}

// ParseMonth 接受 YYYYMM 或 YYYY-MM，返回分表后缀
func ParseMonth(s string) (string, error) {
	m := monthPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return m[1] + m[2], nil
}

// MonthRange 返回后缀对应月份的 [start, end)
func MonthRange(suffix string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(suffixLayout, suffix, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, suffix)
	}
	return start, start.AddDate(0, 1, 0), nil
}
