package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/textscore/api"
	"github.com/BaSui01/textscore/metric"
	"github.com/BaSui01/textscore/metric/edit"
	"github.com/BaSui01/textscore/store"
	"github.com/BaSui01/textscore/testutil"
	"github.com/BaSui01/textscore/testutil/fixtures"
	"github.com/BaSui01/textscore/testutil/mocks"
	"github.com/BaSui01/textscore/types"
)

// lengthRatio 以候选文本与参考文本的字节长度比作为分数
func lengthRatio(ref, cand string) float64 {
	return float64(len(cand)) / float64(len(ref))
}

func newTestScoreHandler(t *testing.T, st store.Store, settings SettingsFunc) (*ScoreHandler, *http.ServeMux) {
	t.Helper()
	reg := metric.NewRegistry()
	require.NoError(t, reg.Register(metric.KindChrF, mocks.NewMockScorer().WithScoreFunc(lengthRatio)))
	require.NoError(t, reg.Register(metric.KindRouge, mocks.NewMockScorer().WithScoreFunc(lengthRatio)))
	require.NoError(t, reg.Register(metric.KindWER, edit.WER{}))

	h := NewScoreHandler(reg, st, settings, zap.NewNop())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/segment", h.HandleSegment)
	mux.HandleFunc("POST /api/v1/score", h.HandleScore)
	mux.HandleFunc("POST /api/v1/compare", h.HandleCompare)
	mux.HandleFunc("GET /api/v1/metrics", h.HandleListMetrics)
	mux.HandleFunc("GET /api/v1/reports", h.HandleListReports)
	mux.HandleFunc("GET /api/v1/reports/{id}", h.HandleGetReport)
	return h, mux
}

func doJSON(t *testing.T, mux http.Handler, method, path string, body any) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func decodeData(t *testing.T, resp Response, dst any) {
	t.Helper()
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, dst))
}

func TestScoreHandler_Segment(t *testing.T) {
	_, mux := newTestScoreHandler(t, nil, nil)

	w, resp := doJSON(t, mux, http.MethodPost, "/api/v1/segment", api.SegmentRequest{
		References: []string{"hello world", "你好"},
		Candidates: []string{"hello", "你们好"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, resp.Success)

	var out api.SegmentResponse
	decodeData(t, resp, &out)
	assert.Equal(t, [][]string{{"hello", "world"}, {"你", "好"}}, out.References)
	assert.Equal(t, [][]string{{"hello"}, {"你", "们", "好"}}, out.Candidates)
	assert.Equal(t, []string{"word", "char"}, out.Languages)
}

func TestScoreHandler_SegmentOverride(t *testing.T) {
	_, mux := newTestScoreHandler(t, nil, nil)

	_, resp := doJSON(t, mux, http.MethodPost, "/api/v1/segment", api.SegmentRequest{
		References: []string{"ab"},
		Candidates: []string{"a"},
		Language:   "zh",
	})
	var out api.SegmentResponse
	decodeData(t, resp, &out)
	assert.Equal(t, [][]string{{"a", "b"}}, out.References)

	w, resp := doJSON(t, mux, http.MethodPost, "/api/v1/segment", api.SegmentRequest{
		References: []string{"ab"},
		Candidates: []string{"a"},
		Language:   "fr",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(types.ErrInvalidLanguage), resp.Error.Code)
}

func TestScoreHandler_Score(t *testing.T) {
	st := store.NewMemoryStore()
	_, mux := newTestScoreHandler(t, st, nil)

	w, resp := doJSON(t, mux, http.MethodPost, "/api/v1/score", api.ScoreRequest{
		References: []string{"abcd", "a b c d"},
		Candidates: []string{"ab", "a x c"},
		Metrics:    []string{"chrf", "wer"},
		Labels:     map[string]string{"run": "1"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out api.ScoreResponse
	decodeData(t, resp, &out)
	assert.Equal(t, 2, out.Pairs)
	require.Len(t, out.Scores["chrf"], 2)
	assert.InDelta(t, 0.5, out.Scores["chrf"][0].Score, 1e-12)
	assert.InDelta(t, 0.5, out.Scores["wer"][1].Score, 1e-12)
	assert.Equal(t, 2, out.Summaries["wer"].Count)
	require.NotEmpty(t, out.ReportID)

	saved, err := st.Load(context.Background(), out.ReportID)
	require.NoError(t, err)
	assert.Equal(t, []string{"chrf", "wer"}, saved.Metrics)
	assert.Equal(t, "1", saved.Labels["run"])
}

func TestScoreHandler_ScoreDefaultsAndParams(t *testing.T) {
	scorer := mocks.NewMockScorer().WithScore(0)
	reg := metric.NewRegistry()
	require.NoError(t, reg.Register(metric.KindChrF, scorer))
	settings := func() Settings {
		return Settings{DefaultMetrics: []string{"chrf"}, Params: metric.DefaultParams()}
	}
	h := NewScoreHandler(reg, nil, settings, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/score", h.HandleScore)
	mux.HandleFunc("POST /api/v1/compare", h.HandleCompare)

	w, resp := doJSON(t, mux, http.MethodPost, "/api/v1/score", map[string]any{
		"references": []string{"abcdef"},
		"candidates": []string{"abcxyz"},
		"params":     map[string]any{"ngram": 4},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, 1, scorer.CallCount())
	assert.Equal(t, 4, scorer.LastInput().Params.NGram)
	assert.Equal(t, 2.0, scorer.LastInput().Params.Beta)

	var out api.ScoreResponse
	decodeData(t, resp, &out)
	assert.Empty(t, out.ReportID)
	assert.Contains(t, out.Scores, "chrf")
}

func TestScoreHandler_ScoreErrors(t *testing.T) {
	settings := func() Settings {
		return Settings{DefaultMetrics: []string{"chrf"}, Params: metric.DefaultParams(), MaxPairs: 2}
	}
	_, mux := newTestScoreHandler(t, nil, settings)
	oversized := fixtures.RepeatBatch("abc", "abc", 3)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   types.ErrorCode
	}{
		{
			name:       "length mismatch",
			body:       api.ScoreRequest{References: []string{"abc", "def"}, Candidates: []string{"abc"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.ErrLengthMismatch,
		},
		{
			name:       "empty",
			body:       api.ScoreRequest{},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.ErrEmptyInput,
		},
		{
			name:       "unknown metric",
			body:       api.ScoreRequest{References: []string{"abc"}, Candidates: []string{"abc"}, Metrics: []string{"cider"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.ErrUnknownMetric,
		},
		{
			name:       "not registered",
			body:       api.ScoreRequest{References: []string{"abc"}, Candidates: []string{"abc"}, Metrics: []string{"bleurt"}},
			wantStatus: http.StatusNotImplemented,
			wantCode:   types.ErrScorerNotRegistered,
		},
		{
			name:       "too short for chrf",
			body:       api.ScoreRequest{References: []string{"ab"}, Candidates: []string{"abc"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.ErrInputTooShort,
		},
		{
			name:       "unknown param",
			body:       map[string]any{"references": []string{"abc"}, "candidates": []string{"abc"}, "params": map[string]any{"temperature": 1}},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.ErrInvalidParams,
		},
		{
			name:       "invalid param value",
			body:       map[string]any{"references": []string{"abc"}, "candidates": []string{"abc"}, "params": map[string]any{"ngram": 0}},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.ErrInvalidParams,
		},
		{
			name:       "too many pairs",
			body:       api.ScoreRequest{References: oversized.References, Candidates: oversized.Candidates},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   types.ErrInvalidRequest,
		},
		{
			name:       "unknown field",
			body:       map[string]any{"refs": []string{"abc"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.ErrInvalidRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doJSON(t, mux, http.MethodPost, "/api/v1/score", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, string(tt.wantCode), resp.Error.Code)
		})
	}
}

func TestScoreHandler_WrappedErrorKeepsMetricPrefix(t *testing.T) {
	_, mux := newTestScoreHandler(t, nil, nil)
	_, resp := doJSON(t, mux, http.MethodPost, "/api/v1/score", api.ScoreRequest{
		References: []string{"ab"},
		Candidates: []string{"abc"},
		Metrics:    []string{"chrf"},
	})
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "metric chrf: ")
	assert.NotContains(t, resp.Error.Message, "[INPUT_TOO_SHORT]")
}

func TestScoreHandler_ListMetrics(t *testing.T) {
	_, mux := newTestScoreHandler(t, nil, nil)

	w, resp := doJSON(t, mux, http.MethodGet, "/api/v1/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var infos []api.MetricInfo
	decodeData(t, resp, &infos)
	assert.Equal(t, []api.MetricInfo{
		{Name: "rouge", Input: "space_joined"},
		{Name: "chrf", Input: "raw"},
		{Name: "wer", Input: "tokens"},
	}, infos)
}

func TestScoreHandler_Reports(t *testing.T) {
	st := store.NewMemoryStore()
	_, mux := newTestScoreHandler(t, st, nil)

	var ids []string
	for i := 0; i < 3; i++ {
		_, resp := doJSON(t, mux, http.MethodPost, "/api/v1/score", api.ScoreRequest{
			References: []string{"abcd"},
			Candidates: []string{"abc"},
			Metrics:    []string{"chrf"},
		})
		var out api.ScoreResponse
		decodeData(t, resp, &out)
		ids = append(ids, out.ReportID)
	}

	w, resp := doJSON(t, mux, http.MethodGet, "/api/v1/reports/"+ids[1], nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report store.Report
	decodeData(t, resp, &report)
	assert.Equal(t, ids[1], report.ID)
	assert.Equal(t, []float64{0.75}, report.Scores["chrf"])

	w, resp = doJSON(t, mux, http.MethodGet, "/api/v1/reports/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(types.ErrNotFound), resp.Error.Code)

	_, resp = doJSON(t, mux, http.MethodGet, "/api/v1/reports?limit=2", nil)
	var list api.ReportList
	decodeData(t, resp, &list)
	assert.Len(t, list.Reports, 2)

	w, _ = doJSON(t, mux, http.MethodGet, "/api/v1/reports?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScoreHandler_ReportsWithoutStore(t *testing.T) {
	_, mux := newTestScoreHandler(t, nil, nil)

	w, _ := doJSON(t, mux, http.MethodGet, "/api/v1/reports/abc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp := doJSON(t, mux, http.MethodGet, "/api/v1/reports", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var list api.ReportList
	decodeData(t, resp, &list)
	assert.Empty(t, list.Reports)
}

func TestMergeParams(t *testing.T) {
	base := metric.DefaultParams()

	p, err := mergeParams(base, nil)
	require.NoError(t, err)
	assert.Equal(t, base, p)

	p, err = mergeParams(base, json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Equal(t, base, p)

	p, err = mergeParams(base, json.RawMessage(`{"bleu_weights":[0.5,0.5],"language":"zh"}`))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, p.BleuWeights)
	assert.Equal(t, []float64{1}, base.BleuWeights)
	assert.Equal(t, 3, p.NGram)

	p, err = mergeParams(base, json.RawMessage(`{"chrf_orders":[1,2,3]}`))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, p.ChrFOrders)
	assert.Nil(t, base.ChrFOrders)

	_, err = mergeParams(base, json.RawMessage(`{"ngram":"x"}`))
	assert.True(t, types.IsCode(err, types.ErrInvalidParams))
}

func TestScoreHandler_Compare(t *testing.T) {
	_, mux := newTestScoreHandler(t, nil, nil)

	w, resp := doJSON(t, mux, http.MethodPost, "/api/v1/compare", api.CompareRequest{
		Reference: "the cat sat",
		Candidate: "the cat sit",
		Metrics:   []string{"wer", "chrf"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := testutil.DecodeJSON[struct {
		Scores map[string]float64 `json:"scores"`
		Passed bool               `json:"passed"`
	}](t, resp.Data)
	assert.True(t, got.Passed)
	assert.InDelta(t, 1.0/3.0, got.Scores["wer"], 1e-9)
	assert.InDelta(t, 1.0, got.Scores["chrf"], 1e-9)
}

func TestScoreHandler_ComparePartialFailure(t *testing.T) {
	_, mux := newTestScoreHandler(t, nil, nil)

	// 未指定指标时使用全部已注册指标；空候选文本让每个指标都失败
	w, resp := doJSON(t, mux, http.MethodPost, "/api/v1/compare", api.CompareRequest{
		Reference: "the cat sat",
	})
	require.Equal(t, http.StatusOK, w.Code)

	got := testutil.DecodeJSON[struct {
		Passed   bool              `json:"passed"`
		Failures map[string]string `json:"failures"`
	}](t, resp.Data)
	assert.False(t, got.Passed)
	assert.Len(t, got.Failures, 3)
	assert.Contains(t, got.Failures["wer"], "EMPTY_INPUT")

	w, _ = doJSON(t, mux, http.MethodPost, "/api/v1/compare", api.CompareRequest{
		Reference: "a", Candidate: "a", Metrics: []string{"nope"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
