package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jobs/crontab/internal/api/middleware"
	"github.com/jobs/crontab/pkg/config"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	logger *zap.Logger
}

func NewServer(
	cfg config.Config,
	taskAPI ITaskAPI,
	flowAPI IFlowAPI,
	logger *zap.Logger,
) *Server {
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{logger: logger}

	s.router = gin.New()
	s.router.HandleMethodNotAllowed = true
	s.router.Use(middleware.AccessLog(logger))
	s.router.Use(middleware.ErrorHandlingMiddleware(logger, cfg.Server.Debug))
	s.router.Use(middleware.Cors())

	s.router.NoRoute(func(c *gin.Context) {
		middleware.Fail(c, http.StatusNotFound, "Route Not Found")
	})
	s.router.NoMethod(func(c *gin.Context) {
		middleware.Fail(c, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	// 存活探测，不校验密钥
	s.router.GET("/", func(c *gin.Context) {
		middleware.OK(c, "ok")
	})

	gated := s.router.Group("/", middleware.SafeKey(cfg.Server.SafeKey))
	NewTaskAPIWrap(taskAPI).BindAll(gated)
	NewFlowAPIWrap(flowAPI).BindAll(gated)

	s.http = &http.Server{
		Addr:           cfg.Server.Addr(),
		Handler:        s.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run 阻塞直到 Shutdown 被调用
func (s *Server) Run() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
