package main

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/textscore/api/handlers"
	"github.com/BaSui01/textscore/internal/ctxkeys"
	"github.com/BaSui01/textscore/internal/metrics"
	"github.com/BaSui01/textscore/types"
)

const (
	requestIDHeader = "X-Request-ID"
	apiKeyHeader    = "X-API-Key"
	maxRequestIDLen = 128
	reportsPrefix   = "/api/v1/reports/"

	visitorIdle   = 3 * time.Minute
	sweepInterval = time.Minute
)

type Middleware func(http.Handler) http.Handler

// Chain 第一个中间件位于最外层
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for _, mw := range slices.Backward(middlewares) {
		h = mw(h)
	}
	return h
}

// Recovery 把 handler 中的 panic 转为 500 响应。
// http.ErrAbortHandler 继续向上抛给 net/http 处理。
func Recovery(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := handlers.NewResponseWriter(w)
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}
				logger.Error("handler panicked",
					zap.Any("panic", v),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"))
				if rw.Written() {
					return
				}
				handlers.WriteErrorMessage(rw, r, http.StatusInternalServerError,
					types.ErrInternalError, "internal server error", nil)
			}()
			next.ServeHTTP(rw, r)
		})
	}
}

// RequestID 沿用客户端给出的 X-Request-ID，缺失或过长时生成 UUID
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" || len(id) > maxRequestIDLen {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(ctxkeys.WithRequestID(r.Context(), id)))
		})
	}
}

// RequestLogger 每个请求一条访问日志，5xx 记为 warn
func RequestLogger(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			began := time.Now()
			rw := handlers.NewResponseWriter(w)
			next.ServeHTTP(rw, r)

			id, _ := ctxkeys.RequestID(r.Context())
			log := logger.Info
			if rw.StatusCode >= http.StatusInternalServerError {
				log = logger.Warn
			}
			log("http request",
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.StatusCode),
				zap.Int64("bytes", rw.Bytes),
				zap.Duration("elapsed", time.Since(began)),
				zap.String("remote_addr", r.RemoteAddr))
		})
	}
}

// MetricsMiddleware 以归一化后的路由为标签记录 HTTP 指标
func MetricsMiddleware(collector *metrics.Collector) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			began := time.Now()
			rw := handlers.NewResponseWriter(w)
			next.ServeHTTP(rw, r)
			collector.RecordHTTPRequest(r.Method, normalizePath(r.URL.Path), rw.StatusCode,
				time.Since(began), max(r.ContentLength, 0), rw.Bytes)
		})
	}
}

var knownRoutes = map[string]bool{
	"/healthz":        true,
	"/readyz":         true,
	"/version":        true,
	"/metrics":        true,
	"/api/v1/segment": true,
	"/api/v1/score":   true,
	"/api/v1/compare": true,
	"/api/v1/metrics": true,
	"/api/v1/reports": true,
}

// normalizePath 报告 ID 折叠为 :id，未注册的路径统一记为 other，
// 防止扫描类流量撑大标签基数
func normalizePath(path string) string {
	if knownRoutes[path] {
		return path
	}
	if id, ok := strings.CutPrefix(path, reportsPrefix); ok && id != "" && !strings.Contains(id, "/") {
		return reportsPrefix + ":id"
	}
	return "other"
}

// OTelTracing 提取上游 trace 上下文并为每个请求开启 server span
func OTelTracing() Middleware {
	tracer := otel.Tracer("textscore/http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := normalizePath(r.URL.Path)
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRoute(route),
					semconv.URLPath(r.URL.Path),
				))
			defer span.End()

			rw := handlers.NewResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			span.SetAttributes(semconv.HTTPResponseStatusCode(rw.StatusCode))
			if rw.StatusCode >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rw.StatusCode))
			}
		})
	}
}

// MaxBody 限制请求体字节数，limit <= 0 时不做限制
func MaxBody(limit int64) Middleware {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				handlers.WriteErrorMessage(w, r, http.StatusRequestEntityTooLarge,
					types.ErrInvalidRequest, "request body too large", nil)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// APIKeyAuth 要求 X-API-Key 命中 keys 之一，skipPaths 中的路径放行。
// 只保存 key 的摘要，比较耗时与 key 长度无关。
func APIKeyAuth(keys []string, skipPaths []string, logger *zap.Logger) Middleware {
	digests := make([][sha256.Size]byte, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(skipPaths, r.URL.Path) || matchKey(r.Header.Get(apiKeyHeader), digests) {
				next.ServeHTTP(w, r)
				return
			}
			handlers.WriteErrorMessage(w, r, http.StatusUnauthorized,
				types.ErrUnauthorized, "invalid or missing API key", logger)
		})
	}
}

func matchKey(key string, digests [][sha256.Size]byte) bool {
	if key == "" {
		return false
	}
	sum := sha256.Sum256([]byte(key))
	matched := 0
	for _, d := range digests {
		matched |= subtle.ConstantTimeCompare(sum[:], d[:])
	}
	return matched == 1
}

// ipLimiter 每个客户端 IP 一个令牌桶
type ipLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*visitor
}

type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	return &ipLimiter{
		limit:    rate.Limit(rps),
		burst:    max(burst, 1),
		visitors: make(map[string]*visitor),
	}
}

func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	l.mu.Unlock()
	return v.bucket.AllowN(now, 1)
}

// sweep 丢弃空闲超过 visitorIdle 的客户端
func (l *ipLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorIdle {
			delete(l.visitors, ip)
		}
	}
}

// RateLimiter 按客户端 IP 限流，ctx 结束后清理协程退出
func RateLimiter(ctx context.Context, rps float64, burst int, logger *zap.Logger) Middleware {
	limiter := newIPLimiter(rps, burst)
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				limiter.sweep(now)
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !limiter.allow(ip, time.Now()) {
				logger.Debug("rate limited", zap.String("ip", ip), zap.String("path", r.URL.Path))
				handlers.WriteErrorMessage(w, r, http.StatusTooManyRequests,
					types.ErrRateLimited, "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var securityHeaders = [][2]string{
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Content-Security-Policy", "default-src 'none'"},
}

// SecurityHeaders 为纯 JSON API 设置的固定响应头
func SecurityHeaders() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range securityHeaders {
				h.Set(kv[0], kv[1])
			}
			next.ServeHTTP(w, r)
		})
	}
}
