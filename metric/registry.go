package metric

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/textscore/segment"
	"github.com/BaSui01/textscore/types"
)

const tracerName = "github.com/BaSui01/textscore/metric"

// Registry 把指标映射到协作方，并负责输入整理与调度。
type Registry struct {
	scorers     map[Kind]Scorer
	segmenter   *segment.Segmenter
	observer    Observer
	tracer      trace.Tracer
	concurrency int
	logger      *zap.Logger
	mu          sync.RWMutex
}

// RegistryOption 配置 Registry。
type RegistryOption func(*Registry)

// WithLogger 设置日志。
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver 设置观测回调。
func WithObserver(o Observer) RegistryOption {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithSegmenter 替换默认的 Segmenter。
func WithSegmenter(s *segment.Segmenter) RegistryOption {
	return func(r *Registry) {
		if s != nil {
			r.segmenter = s
		}
	}
}

// WithConcurrency 限制 Evaluate 同时调用的协作方数量，<= 0 表示不限制。
func WithConcurrency(n int) RegistryOption {
	return func(r *Registry) {
		r.concurrency = n
	}
}

// WithTracer 设置 tracer，默认使用全局 TracerProvider。
func WithTracer(t trace.Tracer) RegistryOption {
	return func(r *Registry) {
		if t != nil {
			r.tracer = t
		}
	}
}

// NewRegistry 创建指标注册表。
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		scorers:   make(map[Kind]Scorer),
		segmenter: segment.Default(),
		observer:  nopObserver{},
		tracer:    otel.Tracer(tracerName),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("component", "metric_registry"))
	return r
}

// Register 为指标注册协作方，重复注册会覆盖。
func (r *Registry) Register(kind Kind, scorer Scorer) error {
	if !kind.Valid() {
		return types.Errorf(types.ErrUnknownMetric, "no such metric like %s", kind)
	}
	if scorer == nil {
		return types.Errorf(types.ErrInvalidRequest, "nil scorer for metric %s", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scorers[kind] = scorer
	return nil
}

// Get 获取协作方。
func (r *Registry) Get(kind Kind) (Scorer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scorers[kind]
	return s, ok
}

// Kinds 按 AllKinds 顺序列出已注册的指标。
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.scorers))
	for _, k := range allKinds {
		if _, ok := r.scorers[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Segmenter 返回注册表使用的 Segmenter。
func (r *Registry) Segmenter() *segment.Segmenter {
	return r.segmenter
}

// Score 对一个批次计算单个指标。
func (r *Registry) Score(ctx context.Context, kind Kind, b segment.Batch, params Params) ([]PairScore, error) {
	scorer, in, err := r.prepare(kind, b, params)
	if err != nil {
		return nil, err
	}
	return r.invoke(ctx, scorer, in)
}

// prepare 完成调用协作方之前的全部检查：指标已知、已注册、参数合法、输入可整理。
func (r *Registry) prepare(kind Kind, b segment.Batch, params Params) (Scorer, *Input, error) {
	if !kind.Valid() {
		return nil, nil, types.Errorf(types.ErrUnknownMetric, "no such metric like %s", kind)
	}
	scorer, ok := r.Get(kind)
	if !ok {
		return nil, nil, fmt.Errorf("metric %s: %w", kind,
			types.Errorf(types.ErrScorerNotRegistered, "no scorer registered for metric %s", kind).
				WithMetric(string(kind)))
	}
	if err := params.Validate(kind); err != nil {
		return nil, nil, fmt.Errorf("metric %s: %w", kind, err)
	}
	in, err := Prepare(r.segmenter, kind, b, params)
	if err != nil {
		return nil, nil, fmt.Errorf("metric %s: %w", kind, err)
	}
	return scorer, in, nil
}

func (r *Registry) invoke(ctx context.Context, scorer Scorer, in *Input) ([]PairScore, error) {
	kind := in.Kind
	ctx, span := r.tracer.Start(ctx, "metric.Score", trace.WithAttributes(
		attribute.String("metric", string(kind)),
		attribute.Int("pairs", in.Len()),
	))
	defer span.End()

	r.observeLanguages(in.Languages)

	start := time.Now()
	scores, err := scorer.Score(ctx, in)
	elapsed := time.Since(start)
	if err == nil && len(scores) != in.Len() {
		err = types.Errorf(types.ErrInvalidResponse,
			"scorer returned %d scores for %d pairs", len(scores), in.Len()).WithMetric(string(kind))
	}
	r.observer.ObserveScore(string(kind), in.Len(), elapsed, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("scorer failed",
			zap.String("metric", string(kind)),
			zap.Int("pairs", in.Len()),
			zap.Error(err))
		return nil, fmt.Errorf("metric %s: %w", kind, err)
	}

	r.logger.Debug("metric scored",
		zap.String("metric", string(kind)),
		zap.Int("pairs", in.Len()),
		zap.Duration("duration", elapsed))
	return scores, nil
}

// Evaluate 按指标列表批量评测，重复的指标只计算一次。
// 所有指标先完成注册、参数与输入检查，之后才调用协作方；
// 第一个失败的协作方会取消其余调用并返回其错误。
func (r *Registry) Evaluate(ctx context.Context, kinds []Kind, b segment.Batch, params Params) (*Result, error) {
	if len(kinds) == 0 {
		return nil, types.NewError(types.ErrInvalidRequest, "no metrics requested")
	}

	type job struct {
		scorer Scorer
		in     *Input
	}
	unique := make([]Kind, 0, len(kinds))
	seen := make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		if !k.Valid() {
			return nil, types.Errorf(types.ErrUnknownMetric, "no such metric like %s", k)
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, k)
	}

	jobs := make([]job, len(unique))
	for i, k := range unique {
		scorer, in, err := r.prepare(k, b, params)
		if err != nil {
			return nil, err
		}
		jobs[i] = job{scorer: scorer, in: in}
	}

	start := time.Now()
	result := NewResult(len(b.References))
	scores := make([][]PairScore, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, j := range jobs {
		g.Go(func() error {
			s, err := r.invoke(gctx, j.scorer, j.in)
			if err != nil {
				return err
			}
			scores[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, j := range jobs {
		result.Scores[j.in.Kind] = scores[i]
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (r *Registry) observeLanguages(langs []segment.Language) {
	if len(langs) == 0 {
		return
	}
	counts := make(map[segment.Language]int, 2)
	for _, l := range langs {
		counts[l]++
	}
	for l, n := range counts {
		r.observer.ObserveSegment(string(l), n)
	}
}
