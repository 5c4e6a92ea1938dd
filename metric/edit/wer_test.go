package edit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/textscore/metric"
	"github.com/BaSui01/textscore/segment"
	"github.com/BaSui01/textscore/types"
)

func TestErrorRate(t *testing.T) {
	tests := []struct {
		name string
		ref  []string
		hyp  []string
		want float64
	}{
		{"identical", []string{"a", "b", "c"}, []string{"a", "b", "c"}, 0},
		{"substitution", []string{"the", "cat", "sat"}, []string{"the", "dog", "sat"}, 1.0 / 3},
		{"deletion", []string{"你", "是", "一", "个", "男", "孩"}, []string{"你", "是", "男", "孩"}, 2.0 / 6},
		{"insertion", []string{"a"}, []string{"a", "b"}, 1},
		{"both empty", nil, nil, 0},
		{"empty reference", nil, []string{"x"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ErrorRate(tt.ref, tt.hyp), 1e-9)
		})
	}
}

func TestDistance_TokensNotRunes(t *testing.T) {
	// 多字节 token 按整体比较
	assert.Equal(t, 1, Distance([]string{"hello", "world"}, []string{"hello", "word"}))
	assert.Equal(t, 0, Distance([]string{"", "a"}, []string{"", "a"}))
}

func TestWER_Score(t *testing.T) {
	in, err := metric.Prepare(nil, metric.KindWER, segment.Batch{
		References: []string{"the cat sat", "你是一个男孩"},
		Candidates: []string{"the cat sat", "你是男孩"},
	}, metric.DefaultParams())
	require.NoError(t, err)

	scores, err := WER{}.Score(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Zero(t, scores[0].Score)
	assert.InDelta(t, 2.0/6, scores[1].Score, 1e-9)
}

func TestWER_RequiresTokens(t *testing.T) {
	_, err := WER{}.Score(context.Background(), &metric.Input{
		Kind:       metric.KindWER,
		References: []string{"a"},
		Candidates: []string{"b"},
	})
	assert.True(t, types.IsCode(err, types.ErrInvalidRequest))
}

func TestWER_ThroughRegistry(t *testing.T) {
	r := metric.NewRegistry()
	require.NoError(t, r.Register(metric.KindWER, WER{}))

	res, err := r.Evaluate(context.Background(), []metric.Kind{metric.KindWER}, segment.Batch{
		References: []string{"a b c d"},
		Candidates: []string{"a x c"},
	}, metric.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5}, res.Values(metric.KindWER))
}

// 编辑距离满足对称性，且不超过两序列长度的较大值。
func TestProperty_DistanceBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tok := rapid.SampledFrom([]string{"a", "b", "c", "你", "好"})
		ref := rapid.SliceOfN(tok, 0, 12).Draw(rt, "ref")
		hyp := rapid.SliceOfN(tok, 0, 12).Draw(rt, "hyp")

		d := Distance(ref, hyp)
		assert.Equal(rt, d, Distance(hyp, ref))
		assert.LessOrEqual(rt, d, max(len(ref), len(hyp)))
		assert.GreaterOrEqual(rt, d, abs(len(ref)-len(hyp)))
		assert.Zero(rt, Distance(ref, ref))
	})
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
