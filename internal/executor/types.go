package executor

import (
	"math"
	"runtime"
	"strings"
	"time"
)

// SpawnFailedExitCode 命令没能启动时记录的返回值
const SpawnFailedExitCode = -1

// LineSeparator 输出行之间的分隔符
var LineSeparator = func() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}()

// Result 一次命令执行的结果，非零退出码只是数据，不是错误
type Result struct {
	Command  string
	Output   []string
	Stderr   string
	ExitCode int
	Duration time.Duration
	// Err 启动失败或被超时终止时的原因，仅用于记录日志
	Err error
}

// JoinedOutput 按行拼接的标准输出
func (r Result) JoinedOutput() string {
	return strings.Join(r.Output, LineSeparator)
}

// Seconds 耗时秒数，保留 6 位小数
func (r Result) Seconds() float64 {
	return math.Round(r.Duration.Seconds()*1e6) / 1e6
}
