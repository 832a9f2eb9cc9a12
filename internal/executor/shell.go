package executor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/google/wire"
	"github.com/jobs/crontab/pkg/config"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(NewShell)

// Shell 通过系统 shell 执行任务命令
type Shell struct {
	shell   string
	timeout time.Duration
	dir     string
	env     []string
	logger  *zap.Logger
}

func NewShell(cfg config.ExecutorConfig, logger *zap.Logger) *Shell {
	shell := cfg.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	return &Shell{
		shell:   shell,
		timeout: cfg.Timeout,
		dir:     cfg.Dir,
		env:     cfg.Env,
		logger:  logger,
	}
}

func (s *Shell) command(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, s.shell, "-c", command)
}

// Run 执行命令并等待结束。没有配置超时时不会主动中断
func (s *Shell) Run(ctx context.Context, command string) Result {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := s.command(ctx, command)
	cmd.Dir = s.dir
	if len(s.env) > 0 {
		cmd.Env = append(os.Environ(), s.env...)
	}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// 被取消后最多再等这么久让子进程关闭输出管道
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Command:  command,
		Output:   splitLines(stdout.String()),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.Is(err, exec.ErrWaitDelay):
		res.ExitCode = cmd.ProcessState.ExitCode()
		res.Err = err
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		if ctxErr := ctx.Err(); ctxErr != nil {
			res.Err = ctxErr
		}
	default:
		res.ExitCode = SpawnFailedExitCode
		res.Output = []string{err.Error()}
		res.Err = err
	}

	if res.Stderr != "" {
		s.logger.Debug("command wrote to stderr",
			zap.String("command", command),
			zap.String("stderr", res.Stderr))
	}
	return res
}

// splitLines 去掉每行末尾的空白，以及输出末尾的空行
func splitLines(out string) []string {
	if out == "" {
		return []string{}
	}
	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r\v\f")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
