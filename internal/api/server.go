package api

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"taskboard/internal/observability/alerting"
	"taskboard/internal/observability/metrics"
	"taskboard/internal/task"
	"taskboard/pkg/logger"
)

// Server 负责暴露任务管理的 REST 接口与首页。
type Server struct {
	addr            string
	svc             *task.Service
	metrics         *metrics.Collector
	alerts          alerting.Dispatcher
	staticDir       string
	title           string
	corsOrigins     []string
	shutdownTimeout time.Duration
	index           *template.Template
	log             *slog.Logger
}

// Option 用于定制 Server。
type Option func(*Server)

// WithMetrics 挂载 Prometheus 指标采集与 /metrics 端点。
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithAlerts 设置存储故障等严重错误的告警分发器。
func WithAlerts(d alerting.Dispatcher) Option {
	return func(s *Server) { s.alerts = d }
}

// WithStaticDir 在 /static/ 下提供前端静态资源。
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// WithTitle 设置首页标题。
func WithTitle(title string) Option {
	return func(s *Server) {
		if title != "" {
			s.title = title
		}
	}
}

// WithCORS 允许指定来源跨域访问 API。
func WithCORS(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithShutdownTimeout 设置优雅关闭的最长等待时间。
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// NewServer 构造 API 服务实例。
func NewServer(addr string, svc *task.Service, opts ...Option) *Server {
	s := &Server{
		addr:            addr,
		svc:             svc,
		title:           "Task Manager",
		shutdownTimeout: 5 * time.Second,
		index:           indexTemplate,
		log:             logger.Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler 返回挂载了全部路由与中间件的处理器。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	mux.HandleFunc("PUT /api/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("PATCH /api/tasks/{id}/toggle", s.handleToggleTask)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	if s.staticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))
	}

	var handler http.Handler = s.instrument(mux)
	handler = s.withCORS(handler)
	handler = withRequestID(handler)
	return handler
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	// 配置 HTTP 服务器。
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 启动服务器并监听关闭信号。
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.Info("HTTP 服务已启动", slog.String("addr", s.addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		s.log.Info("HTTP 服务已关闭")
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
