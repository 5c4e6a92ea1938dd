package metric

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/textscore/segment"
)

func TestTokenPR(t *testing.T) {
	tests := []struct {
		name      string
		ref, cand []string
		wantP     float64
		wantR     float64
	}{
		{"identical", []string{"the", "cat"}, []string{"the", "cat"}, 1, 1},
		{"partial", []string{"the", "cat", "sat", "on"}, []string{"the", "dog"}, 0.5, 0.25},
		{"repeated candidate tokens count each time", []string{"the", "cat"}, []string{"the", "the", "the"}, 1, 1.5},
		{"disjoint", []string{"你", "好"}, []string{"再", "见"}, 0, 0},
		{"empty candidate", []string{"a"}, nil, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, r := TokenPR(tt.ref, tt.cand)
			assert.InDelta(t, tt.wantP, p, 1e-9)
			assert.InDelta(t, tt.wantR, r, 1e-9)
		})
	}
}

func TestCharNGramStats(t *testing.T) {
	// "你 好" 的 2-gram 为 "你 "、" 好"
	got := CharNGramStats("你 好", "你 好", 2, 2)
	assert.Equal(t, OrderScore{NGram: 2, Precision: 1, Recall: 1, FScore: 1, TP: 2}, got)

	got = CharNGramStats("abcd", "abxy", 2, 2)
	assert.Equal(t, 1, got.TP)
	assert.InDelta(t, 1.0/3, got.Precision, 1e-9)
	assert.InDelta(t, 1.0/3, got.Recall, 1e-9)
	assert.InDelta(t, 1.0/3, got.FScore, 1e-9)

	// 召回率权重 beta=2：p=1, r=0.5 -> 5*0.5/(4+0.5)
	got = CharNGramStats("abcd", "ab", 1, 2)
	assert.InDelta(t, 1.0, got.Precision, 1e-9)
	assert.InDelta(t, 0.5, got.Recall, 1e-9)
	assert.InDelta(t, 2.5/4.5, got.FScore, 1e-9)

	assert.Equal(t, OrderScore{NGram: 5}, CharNGramStats("abc", "abc", 5, 2))
	assert.Equal(t, OrderScore{NGram: 1}, CharNGramStats("abc", "xyz", 1, 2))
}

func TestCharNGramStats_Bounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ref := rapid.StringMatching(`[a-c你好 ]{0,12}`).Draw(t, "ref")
		cand := rapid.StringMatching(`[a-c你好 ]{0,12}`).Draw(t, "cand")
		n := rapid.IntRange(1, 4).Draw(t, "n")

		s := CharNGramStats(ref, cand, n, 2)
		for _, v := range []float64{s.Precision, s.Recall, s.FScore} {
			if v < 0 || v > 1 {
				t.Fatalf("stat out of [0,1]: %+v", s)
			}
		}
		if self := CharNGramStats(ref, ref, n, 2); len([]rune(ref)) >= n && self.FScore != 1 {
			t.Fatalf("self comparison should score 1: %+v", self)
		}
	})
}

func TestOverlapScorer_FillsTokenPR(t *testing.T) {
	inner := ScorerFunc(func(_ context.Context, in *Input) ([]PairScore, error) {
		return []PairScore{{Score: 0.4}, NewPRF(0.7, 0.1, 0.2, 0.3)}, nil
	})
	b := segment.Batch{
		References: []string{"the cat sat on", "你是一个男孩"},
		Candidates: []string{"the dog", "你是男孩"},
	}
	in, err := Prepare(nil, KindBLEU, b, DefaultParams())
	require.NoError(t, err)

	scores, err := NewOverlapScorer(inner).Score(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, scores, 2)

	require.NotNil(t, scores[0].Precision)
	assert.Equal(t, 0.4, scores[0].Score)
	assert.InDelta(t, 0.5, *scores[0].Precision, 1e-9)
	assert.InDelta(t, 0.25, *scores[0].Recall, 1e-9)
	assert.InDelta(t, 2*0.5*0.25/0.75, *scores[0].FScore, 1e-9)

	// 协作方已给出的精确率召回率保持不变
	assert.Equal(t, 0.1, *scores[1].Precision)
	assert.Equal(t, 0.3, *scores[1].FScore)
}

func TestOverlapScorer_ChrFOrders(t *testing.T) {
	inner := ScorerFunc(func(_ context.Context, in *Input) ([]PairScore, error) {
		return make([]PairScore, in.Len()), nil
	})
	params := DefaultParams()
	params.ChrFOrders = []int{1, 2}
	in, err := Prepare(nil, KindChrF, segment.Batch{
		References: []string{"你 好 吗"},
		Candidates: []string{"你 好 吗"},
	}, params)
	require.NoError(t, err)

	scores, err := NewOverlapScorer(inner).Score(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, scores[0].Orders, 2)
	assert.Equal(t, 1, scores[0].Orders[0].NGram)
	assert.Equal(t, 5, scores[0].Orders[0].TP)
	assert.Equal(t, 2, scores[0].Orders[1].NGram)
	assert.Equal(t, 1.0, scores[0].Orders[1].FScore)
	assert.Nil(t, scores[0].Precision)

	// 未请求逐阶统计时不附加
	in.Params.ChrFOrders = nil
	scores, err = NewOverlapScorer(inner).Score(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, scores[0].Orders)
}

func TestOverlapScorer_PassesThrough(t *testing.T) {
	boom := errors.New("boom")
	failing := ScorerFunc(func(context.Context, *Input) ([]PairScore, error) { return nil, boom })
	in, err := Prepare(nil, KindMETEOR, testBatch, DefaultParams())
	require.NoError(t, err)

	_, err = NewOverlapScorer(failing).Score(context.Background(), in)
	assert.ErrorIs(t, err, boom)

	raw, err := Prepare(nil, KindBLEURT, testBatch, DefaultParams())
	require.NoError(t, err)
	scores, err := NewOverlapScorer(&constScorer{value: 0.3}).Score(context.Background(), raw)
	require.NoError(t, err)
	assert.False(t, scores[0].Detailed())
}

func TestPairScore_Clone(t *testing.T) {
	orig := NewPRF(1, 0.5, 0.25, 0.3)
	orig.Orders = []OrderScore{{NGram: 1, TP: 2}}

	c := orig.Clone()
	*c.Precision = 9
	c.Orders[0].TP = 9

	assert.Equal(t, 0.5, *orig.Precision)
	assert.Equal(t, 2, orig.Orders[0].TP)
	assert.True(t, c.Detailed())
	assert.False(t, PairScore{Score: 1}.Detailed())
}

func TestParams_ChrFOrdersValidated(t *testing.T) {
	p := DefaultParams()
	p.ChrFOrders = []int{1, 0}
	assert.Error(t, p.Validate(KindChrF))
	assert.NoError(t, p.Validate(KindBLEU))

	c := p.Clone()
	c.ChrFOrders[0] = 7
	assert.Equal(t, 1, p.ChrFOrders[0])
}
