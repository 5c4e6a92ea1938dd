package metric

import (
	"context"
	"slices"
)

// OrderScore 单一 n-gram 阶数下的字符 n-gram 统计，TP 为重合的 n-gram 个数。
type OrderScore struct {
	NGram     int     `json:"ngram"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	FScore    float64 `json:"fscore"`
	TP        int     `json:"tp"`
}

// TokenPR 计算 token 重合的精确率与召回率。
// 候选中每个出现在参考里的 token 记一次匹配，重复出现重复计数，
// 因此候选重复参考中的词时召回率可能大于 1。
func TokenPR(reference, candidate []string) (precision, recall float64) {
	if len(reference) == 0 || len(candidate) == 0 {
		return 0, 0
	}
	vocab := make(map[string]struct{}, len(reference))
	for _, tok := range reference {
		vocab[tok] = struct{}{}
	}
	matched := 0
	for _, tok := range candidate {
		if _, ok := vocab[tok]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(candidate)), float64(matched) / float64(len(reference))
}

// CharNGramStats 按字符（rune，含空格）统计 n 阶 n-gram 的 chrF 精确率、召回率与 F_beta。
// 任一侧没有 n-gram，或精确率与召回率同为 0 时三项均为 0。
func CharNGramStats(reference, candidate string, n int, beta float64) OrderScore {
	out := OrderScore{NGram: n}
	refGrams := charNGrams(reference, n)
	candGrams := charNGrams(candidate, n)

	var refTotal, candTotal int
	for _, c := range refGrams {
		refTotal += c
	}
	for g, c := range candGrams {
		candTotal += c
		out.TP += min(c, refGrams[g])
	}
	if refTotal == 0 || candTotal == 0 {
		return out
	}

	p := float64(out.TP) / float64(candTotal)
	r := float64(out.TP) / float64(refTotal)
	factor := beta * beta
	if denom := factor*p + r; denom > 0 {
		out.Precision, out.Recall = p, r
		out.FScore = (1 + factor) * p * r / denom
	}
	return out
}

func charNGrams(s string, n int) map[string]int {
	runes := []rune(s)
	if n < 1 || len(runes) < n {
		return nil
	}
	grams := make(map[string]int, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		grams[string(runes[i:i+n])]++
	}
	return grams
}

// OverlapScorer 在协作方结果上补充进程内统计：
// bleu/meteor 未返回精确率与召回率时按 TokenPR 填充（FScore 取两者调和平均），
// chrf 按 Params.ChrFOrders 逐阶附加 OrderScore。其余指标原样返回。
type OverlapScorer struct {
	inner Scorer
}

func NewOverlapScorer(inner Scorer) *OverlapScorer {
	return &OverlapScorer{inner: inner}
}

// Score implements Scorer.
func (s *OverlapScorer) Score(ctx context.Context, in *Input) ([]PairScore, error) {
	scores, err := s.inner.Score(ctx, in)
	if err != nil || len(scores) != in.Len() {
		return scores, err
	}

	out := slices.Clone(scores)
	switch in.Kind {
	case KindBLEU, KindMETEOR:
		if len(in.ReferenceTokens) != in.Len() || len(in.CandidateTokens) != in.Len() {
			break
		}
		for i := range out {
			if out[i].Precision != nil || out[i].Recall != nil {
				continue
			}
			p, r := TokenPR(in.ReferenceTokens[i], in.CandidateTokens[i])
			filled := NewPRF(out[i].Score, p, r, harmonicMean(p, r))
			if out[i].FScore != nil {
				filled.FScore = out[i].FScore
			}
			filled.Orders = out[i].Orders
			out[i] = filled
		}
	case KindChrF:
		if len(in.Params.ChrFOrders) == 0 {
			break
		}
		for i := range out {
			orders := make([]OrderScore, len(in.Params.ChrFOrders))
			for j, n := range in.Params.ChrFOrders {
				orders[j] = CharNGramStats(in.References[i], in.Candidates[i], n, in.Params.Beta)
			}
			out[i].Orders = orders
		}
	}
	return out, nil
}

func harmonicMean(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}
