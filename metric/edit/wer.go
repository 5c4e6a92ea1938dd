// Package edit 提供进程内的编辑距离指标（词错误率/字错误率）。
package edit

import (
	"context"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/BaSui01/textscore/metric"
	"github.com/BaSui01/textscore/types"
)

// 插入、删除、替换代价均为 1。
var unitCost = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// WER 计算 token 错误率：编辑距离 / 参考 token 数。
// 逐字符切分的文本得到的就是字错误率。
type WER struct{}

var _ metric.Scorer = WER{}

// Score implements metric.Scorer.
func (WER) Score(ctx context.Context, in *metric.Input) ([]metric.PairScore, error) {
	if len(in.ReferenceTokens) != in.Len() || len(in.CandidateTokens) != in.Len() {
		return nil, types.NewError(types.ErrInvalidRequest, "wer requires token sequences").
			WithMetric(string(metric.KindWER))
	}

	out := make([]metric.PairScore, in.Len())
	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = metric.PairScore{Score: ErrorRate(in.ReferenceTokens[i], in.CandidateTokens[i])}
	}
	return out, nil
}

// Distance 返回两个 token 序列之间的编辑距离。
func Distance(ref, hyp []string) int {
	src, tgt := intern(ref, hyp)
	return levenshtein.DistanceForStrings(src, tgt, unitCost)
}

// ErrorRate 返回 Distance(ref, hyp) / len(ref)，ref 为空时：hyp 也为空返回 0，否则返回 1。
func ErrorRate(ref, hyp []string) float64 {
	if len(ref) == 0 {
		if len(hyp) == 0 {
			return 0
		}
		return 1
	}
	return float64(Distance(ref, hyp)) / float64(len(ref))
}

// intern 把每个不同的 token 映射为唯一的 rune，使 token 序列可以按 rune 序列比较。
func intern(ref, hyp []string) ([]rune, []rune) {
	ids := make(map[string]rune, len(ref)+len(hyp))
	conv := func(tokens []string) []rune {
		out := make([]rune, len(tokens))
		for i, tok := range tokens {
			id, ok := ids[tok]
			if !ok {
				id = rune(len(ids))
				ids[tok] = id
			}
			out[i] = id
		}
		return out
	}
	return conv(ref), conv(hyp)
}
