package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultCheckTimeout = 3 * time.Second

// HealthCheck 就绪检查依赖项，例如报告存储与结果缓存
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthReport 健康检查响应
type HealthReport struct {
	Status     string                 `json:"status"`
	CheckedAt  time.Time              `json:"checked_at"`
	Components map[string]CheckResult `json:"components,omitempty"`
}

// CheckResult 单个依赖项的检查结果
type CheckResult struct {
	OK       bool          `json:"ok"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// HealthHandler 存活、就绪与版本信息
type HealthHandler struct {
	mu      sync.RWMutex
	checks  []HealthCheck
	timeout time.Duration
	logger  *zap.Logger
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{
		timeout: defaultCheckTimeout,
		logger:  logger.With(zap.String("handler", "health")),
	}
}

// SetTimeout 设置每次就绪检查的总超时，d <= 0 时忽略
func (h *HealthHandler) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	h.mu.Lock()
	h.timeout = d
	h.mu.Unlock()
}

// RegisterCheck 注册就绪检查
func (h *HealthHandler) RegisterCheck(check HealthCheck) {
	h.mu.Lock()
	h.checks = append(h.checks, check)
	h.mu.Unlock()
}

// HandleHealthz 处理 GET /healthz，进程能响应即视为存活
func (h *HealthHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthReport{Status: "ok", CheckedAt: time.Now()})
}

// HandleReady 处理 GET /readyz，并发执行全部检查，任一失败返回 503
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := append([]HealthCheck(nil), h.checks...)
	timeout := h.timeout
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := c.Check(ctx)
			results[i] = CheckResult{OK: err == nil, Duration: time.Since(start)}
			if err != nil {
				results[i].Error = err.Error()
			}
		}()
	}
	wg.Wait()

	report := HealthReport{
		Status:     "ok",
		CheckedAt:  time.Now(),
		Components: make(map[string]CheckResult, len(checks)),
	}
	for i, c := range checks {
		report.Components[c.Name()] = results[i]
		if !results[i].OK {
			report.Status = "unavailable"
			h.logger.Warn("readiness check failed",
				zap.String("component", c.Name()),
				zap.String("error", results[i].Error))
		}
	}

	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, report)
}

// HandleVersion 返回构建信息
func (h *HealthHandler) HandleVersion(version, buildTime, gitCommit string) http.HandlerFunc {
	info := map[string]string{
		"version":    version,
		"build_time": buildTime,
		"git_commit": gitCommit,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		WriteSuccess(w, r, info)
	}
}

// PingCheck 把 Ping 方法包装成 HealthCheck
type PingCheck struct {
	name string
	ping func(ctx context.Context) error
}

// NewPingCheck 创建 ping 检查
func NewPingCheck(name string, ping func(ctx context.Context) error) *PingCheck {
	return &PingCheck{name: name, ping: ping}
}

func (c *PingCheck) Name() string                    { return c.name }
func (c *PingCheck) Check(ctx context.Context) error { return c.ping(ctx) }
