package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/BaSui01/textscore/api"
	"github.com/BaSui01/textscore/evaluation"
	"github.com/BaSui01/textscore/metric"
	"github.com/BaSui01/textscore/segment"
	"github.com/BaSui01/textscore/store"
	"github.com/BaSui01/textscore/types"
)

const (
	defaultReportListLimit = 20
	maxReportListLimit     = 100
)

// Settings 每个请求读取一次的评测配置，配置热更新后立即生效
type Settings struct {
	DefaultMetrics []string
	Params         metric.Params
	// MaxPairs 单次请求句对上限，0 表示不限制
	MaxPairs int
}

// SettingsFunc 返回当前评测配置
type SettingsFunc func() Settings

// =============================================================================
// 📐 评测 Handler
// =============================================================================

// ScoreHandler 处理分词、评测与报告查询
type ScoreHandler struct {
	registry *metric.Registry
	store    store.Store
	settings SettingsFunc
	logger   *zap.Logger
}

// NewScoreHandler 创建评测处理器，st 为 nil 时不保存报告
func NewScoreHandler(registry *metric.Registry, st store.Store, settings SettingsFunc, logger *zap.Logger) *ScoreHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings == nil {
		settings = func() Settings {
			return Settings{Params: metric.DefaultParams()}
		}
	}
	return &ScoreHandler{
		registry: registry,
		store:    st,
		settings: settings,
		logger:   logger.With(zap.String("handler", "score")),
	}
}

// HandleSegment 处理 POST /api/v1/segment
func (h *ScoreHandler) HandleSegment(w http.ResponseWriter, r *http.Request) {
	var req api.SegmentRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	batch := segment.Batch{References: req.References, Candidates: req.Candidates}
	if err := h.checkPairs(batch); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	seg, err := h.registry.Segmenter().SegmentBatch(batch, segment.Language(req.Language))
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	langs := make([]string, len(seg.Languages))
	for i, l := range seg.Languages {
		langs[i] = l.String()
	}
	WriteSuccess(w, r, api.SegmentResponse{
		References: seg.References,
		Candidates: seg.Candidates,
		Languages:  langs,
	})
}

// HandleScore 处理 POST /api/v1/score
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	var req api.ScoreRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	settings := h.settings()

	batch := segment.Batch{References: req.References, Candidates: req.Candidates}
	if err := h.checkPairs(batch); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	names := req.Metrics
	if len(names) == 0 {
		names = settings.DefaultMetrics
	}
	kinds, err := metric.ParseKinds(names)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	params, err := mergeParams(settings.Params, req.Params)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.registry.Evaluate(r.Context(), kinds, batch, params)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	resp := api.ScoreResponse{
		Pairs:     result.Pairs,
		Scores:    make(map[string][]metric.PairScore, len(result.Scores)),
		Summaries: evaluation.SummarizeResult(result),
		Duration:  result.Duration,
	}
	for k, s := range result.Scores {
		resp.Scores[k.String()] = s
	}

	if h.store != nil {
		report := store.NewReport(result, params, req.Labels)
		if err := h.store.Save(r.Context(), report); err != nil {
			WriteError(w, r, err, h.logger)
			return
		}
		resp.ReportID = report.ID
	}

	h.logger.Info("batch scored",
		zap.Strings("metrics", names),
		zap.Int("pairs", result.Pairs),
		zap.Duration("duration", result.Duration),
		zap.String("report_id", resp.ReportID))
	WriteSuccess(w, r, resp)
}

// HandleCompare 处理 POST /api/v1/compare，对单个句对逐指标打分。
// 单个指标失败只记入结果的 failures，不影响其余指标。
func (h *ScoreHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var req api.CompareRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	kinds := h.registry.Kinds()
	if len(req.Metrics) > 0 {
		var err error
		if kinds, err = metric.ParseKinds(req.Metrics); err != nil {
			WriteError(w, r, err, h.logger)
			return
		}
	}

	params, err := mergeParams(h.settings().Params, req.Params)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	metrics := evaluation.NewMetricRegistry()
	for _, kind := range kinds {
		metrics.Register(evaluation.NewReferenceMetric(kind, h.registry, params))
	}

	result, err := metrics.ComputeAll(r.Context(),
		evaluation.NewEvalInput(req.Reference),
		evaluation.NewEvalOutput(req.Candidate))
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	WriteSuccess(w, r, result)
}

// HandleListMetrics 处理 GET /api/v1/metrics
func (h *ScoreHandler) HandleListMetrics(w http.ResponseWriter, r *http.Request) {
	kinds := h.registry.Kinds()
	infos := make([]api.MetricInfo, 0, len(kinds))
	for _, k := range kinds {
		infos = append(infos, api.MetricInfo{Name: k.String(), Input: k.Shape().String()})
	}
	WriteSuccess(w, r, infos)
}

// HandleGetReport 处理 GET /api/v1/reports/{id}
func (h *ScoreHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		WriteErrorMessage(w, r, http.StatusNotFound, types.ErrNotFound, "report storage is not configured", h.logger)
		return
	}
	report, err := h.store.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	WriteSuccess(w, r, report)
}

// HandleListReports 处理 GET /api/v1/reports?limit=n
func (h *ScoreHandler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		WriteSuccess(w, r, api.ReportList{Reports: []*store.Report{}})
		return
	}

	limit := defaultReportListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			WriteErrorMessage(w, r, http.StatusBadRequest, types.ErrInvalidRequest, "limit must be a positive integer", h.logger)
			return
		}
		limit = min(n, maxReportListLimit)
	}

	reports, err := h.store.List(r.Context(), limit)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	WriteSuccess(w, r, api.ReportList{Reports: reports})
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

func (h *ScoreHandler) checkPairs(b segment.Batch) error {
	maxPairs := h.settings().MaxPairs
	if maxPairs > 0 && max(len(b.References), len(b.Candidates)) > maxPairs {
		return types.Errorf(types.ErrInvalidRequest, "batch has more than %d pairs", maxPairs).
			WithHTTPStatus(http.StatusRequestEntityTooLarge)
	}
	return nil
}

// mergeParams 把请求中出现的字段覆盖到默认参数副本上
func mergeParams(base metric.Params, raw json.RawMessage) (metric.Params, error) {
	params := base.Clone()
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return params, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&params); err != nil {
		return metric.Params{}, types.NewError(types.ErrInvalidParams, "invalid params: "+err.Error())
	}
	return params, nil
}
