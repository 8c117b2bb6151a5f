// Package api 状态查询 HTTP 接口
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Server API服务器
type Server struct {
	router *gin.Engine
	srv    *http.Server
	log    zerolog.Logger
}

// NewServer 创建新的API服务器
func NewServer(port string, log zerolog.Logger) *Server {
	router := gin.New()
	log = log.With().Str("component", "api").Logger()

	// 设置中间件
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		router: router,
		srv:    srv,
		log:    log,
	}
}

// SetupRoutes 设置路由
func (s *Server) SetupRoutes(handlers *Handlers) {
	// 健康检查
	s.router.GET("/health", handlers.HealthCheck)
	s.router.GET("/ready", handlers.ReadinessCheck)
	s.router.GET("/status", handlers.GetStatus)
	if handlers.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(handlers.metrics))
	}

	// API v1 路由组
	v1 := s.router.Group("/api/v1")
	{
		// 信号历史接口
		v1.GET("/signals", handlers.GetSignalHistory)

		// 当日统计接口
		v1.GET("/summary", handlers.GetSummary)
	}
}

// Handler 路由处理器
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 启动服务器，ctx 取消后优雅关闭
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("API服务器启动")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("正在关闭服务器...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info().Msg("服务器已关闭")
	return nil
}

// requestLogger 使用 zerolog 记录请求
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("HTTP请求")
	}
}
