package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/textscore/api/handlers"
	"github.com/BaSui01/textscore/config"
	"github.com/BaSui01/textscore/internal/metrics"
	"github.com/BaSui01/textscore/internal/server"
	"github.com/BaSui01/textscore/internal/telemetry"
	"github.com/BaSui01/textscore/metric"
	"github.com/BaSui01/textscore/store"
)

// skipAuthPaths 不需要 API Key 的路径
var skipAuthPaths = []string{"/healthz", "/readyz", "/version", "/metrics"}

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 组装评测服务的全部组件，负责启动与优雅关闭
type Server struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	level  zap.AtomicLevel

	reloader  *config.Reloader
	telemetry *telemetry.Providers
	promReg   *prometheus.Registry
	collector *metrics.Collector
	scorers   *scorerSet
	store     store.Store

	healthHandler *handlers.HealthHandler
	scoreHandler  *handlers.ScoreHandler

	httpManager    *server.Manager
	metricsManager *server.Manager
}

// NewServer 按初始配置创建全部组件，任何一步失败都会释放已创建的资源
func NewServer(ctx context.Context, loader *config.Loader, cfg *config.Config, logger *zap.Logger, level zap.AtomicLevel) (*Server, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &Server{
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
		level:    level,
		reloader: config.NewReloader(loader, cfg, config.WithReloadLogger(logger)),
		promReg:  prometheus.NewRegistry(),
	}
	if err := s.init(cfg); err != nil {
		_ = s.Shutdown()
		return nil, err
	}
	return s, nil
}

func (s *Server) init(cfg *config.Config) error {
	s.promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.collector = metrics.NewCollector("textscore", s.promReg, s.logger)

	providers, err := telemetry.Init(s.ctx, cfg.Telemetry, Version, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize telemetry, tracing disabled", zap.Error(err))
		providers = &telemetry.Providers{}
	}
	s.telemetry = providers

	s.scorers, err = buildScorers(cfg, s.logger, s.collector,
		metric.WithTracer(providers.Tracer("github.com/BaSui01/textscore/metric")))
	if err != nil {
		return err
	}

	s.store, err = store.Open(cfg.Database, s.logger)
	if err != nil {
		return fmt.Errorf("failed to open report store: %w", err)
	}

	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewPingCheck("store", s.store.Ping))
	if s.scorers.Cache != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingCheck("cache", s.scorers.Cache.Ping))
	}
	s.scoreHandler = handlers.NewScoreHandler(s.scorers.Registry, s.store, s.settings, s.logger)

	s.reloader.OnReload(s.onReload)
	s.logger.Info("Handlers initialized",
		zap.Int("metrics_available", len(s.scorers.Registry.Kinds())),
		zap.String("store", cfg.Database.Driver))
	return nil
}

// settings 每次请求读取当前配置，scoring 段热更新后立即生效
func (s *Server) settings() handlers.Settings {
	cfg := s.reloader.Current()
	return handlers.Settings{
		DefaultMetrics: cfg.Scoring.DefaultMetrics,
		Params:         cfg.Scoring.Params,
		MaxPairs:       cfg.Scoring.MaxPairs,
	}
}

func (s *Server) onReload(old, next *config.Config, changed []string) {
	if slices.Contains(changed, "log") {
		s.level.SetLevel(parseLevel(next.Log.Level))
		s.logger.Info("log level updated", zap.String("level", next.Log.Level))
	}
	for _, section := range changed {
		switch section {
		case "log", "scoring":
		default:
			s.logger.Warn("config section changed, restart required to apply",
				zap.String("section", section))
		}
	}
}

// =============================================================================
// 🚀 启动
// =============================================================================

// Start 启动配置监听、API 服务与指标服务
func (s *Server) Start() error {
	if err := s.reloader.Start(s.ctx); err != nil {
		return fmt.Errorf("failed to start config reloader: %w", err)
	}
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	cfg := s.reloader.Current()
	s.logger.Info("All servers started",
		zap.Int("http_port", cfg.Server.HTTPPort),
		zap.Int("metrics_port", cfg.Server.MetricsPort),
	)
	return nil
}

// Handler 返回带中间件的 API 路由
func (s *Server) Handler() http.Handler {
	cfg := s.reloader.Current()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("GET /readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	mux.HandleFunc("POST /api/v1/segment", s.scoreHandler.HandleSegment)
	mux.HandleFunc("POST /api/v1/score", s.scoreHandler.HandleScore)
	mux.HandleFunc("POST /api/v1/compare", s.scoreHandler.HandleCompare)
	mux.HandleFunc("GET /api/v1/metrics", s.scoreHandler.HandleListMetrics)
	mux.HandleFunc("GET /api/v1/reports", s.scoreHandler.HandleListReports)
	mux.HandleFunc("GET /api/v1/reports/{id}", s.scoreHandler.HandleGetReport)

	if cfg.Server.MetricsPort == 0 {
		mux.Handle("GET /metrics", s.metricsHandler())
	}

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		MetricsMiddleware(s.collector),
		RequestLogger(s.logger),
		MaxBody(cfg.Server.MaxBodyBytes),
	}
	if cfg.Server.RateLimitRPS > 0 {
		middlewares = append(middlewares,
			RateLimiter(s.ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, s.logger))
	}
	if len(cfg.Server.APIKeys) > 0 {
		middlewares = append(middlewares, APIKeyAuth(cfg.Server.APIKeys, skipAuthPaths, s.logger))
	}
	return Chain(mux, middlewares...)
}

func (s *Server) metricsHandler() http.Handler {
	return promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{Registry: s.promReg})
}

func (s *Server) startHTTPServer() error {
	cfg := s.reloader.Current()
	s.httpManager = server.NewManager("api", s.Handler(), server.Config{
		Addr:            fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, s.logger)
	return s.httpManager.Start()
}

func (s *Server) startMetricsServer() error {
	cfg := s.reloader.Current()
	if cfg.Server.MetricsPort == 0 {
		s.logger.Info("metrics served on API port")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metricsHandler())

	s.metricsManager = server.NewManager("metrics", mux, server.Config{
		Addr:            fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.ReadTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, s.logger)
	return s.metricsManager.Start()
}

// =============================================================================
// 🛑 关闭
// =============================================================================

// WaitForShutdown 阻塞直到收到退出信号、ctx 结束或任一服务异常退出
func (s *Server) WaitForShutdown(ctx context.Context) error {
	if s.httpManager == nil {
		return nil
	}
	if s.metricsManager == nil {
		return s.httpManager.Wait(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case err := <-s.metricsManager.Errors():
			s.logger.Error("metrics server exited unexpectedly", zap.Error(err))
			cancel()
		case <-ctx.Done():
		}
	}()
	return s.httpManager.Wait(ctx)
}

// Shutdown 按启动的逆序关闭组件，可重复调用
func (s *Server) Shutdown() error {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.WithoutCancel(s.ctx)
	var errs []error

	if err := s.reloader.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("config reloader: %w", err))
	}
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil && !errors.Is(err, server.ErrClosed) {
			errs = append(errs, fmt.Errorf("HTTP server: %w", err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil && !errors.Is(err, server.ErrClosed) {
			errs = append(errs, fmt.Errorf("metrics server: %w", err))
		}
	}
	s.cancel()

	if s.store != nil {
		if err := s.store.Close(); err != nil && !errors.Is(err, store.ErrClosed) {
			errs = append(errs, fmt.Errorf("report store: %w", err))
		}
	}
	if s.scorers != nil {
		if err := s.scorers.Close(); err != nil {
			errs = append(errs, fmt.Errorf("score cache: %w", err))
		}
	}
	if s.telemetry != nil {
		if err := s.telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.logger.Info("Graceful shutdown completed")
	return nil
}
