package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jobs/crontab/internal/biz/filter"
	"github.com/jobs/crontab/internal/biz/task"
	"github.com/jobs/crontab/internal/biz/tasklog"
	"github.com/jobs/crontab/internal/cronexpr"
	"go.uber.org/zap"
)

// SuccessMsg 成功响应的 msg
const SuccessMsg = "信息调用成功！"

// Response 统一响应格式
type Response struct {
	Code int    `json:"code"`
	Data any    `json:"data"`
	Msg  string `json:"msg"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Data: data, Msg: SuccessMsg})
}

func Fail(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, Response{Code: code, Data: "", Msg: msg})
}

// StatusOf 错误对应的 HTTP 状态码
func StatusOf(err error) int {
	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, task.ErrInvalidInput),
		errors.Is(err, filter.ErrInvalidFilter),
		errors.Is(err, cronexpr.ErrInvalidScheduleExpression),
		errors.Is(err, tasklog.ErrInvalidMonth):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandlingMiddleware 统一错误处理中间件。
// 500 只在 debug 模式下带上错误详情。
func ErrorHandlingMiddleware(logger *zap.Logger, debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("error", r),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.Stack("stack"))

				msg := http.StatusText(http.StatusInternalServerError)
				if debug {
					msg = fmt.Sprint(r)
				}
				Fail(c, http.StatusInternalServerError, msg)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		code := StatusOf(err)

		msg := err.Error()
		if code == http.StatusInternalServerError {
			logger.Error("request error",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			if !debug {
				msg = http.StatusText(code)
			}
		}
		Fail(c, code, msg)
	}
}
