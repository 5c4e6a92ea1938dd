package metric

import (
	"github.com/BaSui01/textscore/segment"
	"github.com/BaSui01/textscore/types"
)

// Params 是传给协作方的超参数，本包只做校验，不解释其含义。
type Params struct {
	// Language 分词语言覆盖，为空时按参考文本首字符判定
	Language segment.Language `json:"language,omitempty" yaml:"language" env:"LANGUAGE"`

	// NGram chrF 的字符 n-gram 阶数
	NGram int `json:"ngram,omitempty" yaml:"ngram" env:"NGRAM"`
	// Beta chrF 中召回率相对精确率的权重
	Beta float64 `json:"beta,omitempty" yaml:"beta" env:"BETA"`
	// ChrFOrders 额外输出逐阶统计的 n-gram 阶数，例如 [1, 2]；为空时不输出
	ChrFOrders []int `json:"chrf_orders,omitempty" yaml:"chrf_orders" env:"CHRF_ORDERS"`

	// RougeVariant 可选 "1"、"2"、"l"
	RougeVariant string `json:"rouge_variant,omitempty" yaml:"rouge_variant" env:"ROUGE_VARIANT"`
	// RougeStat 取 ROUGE 结果中的哪一项作为分数：p、r、f
	RougeStat string `json:"rouge_stat,omitempty" yaml:"rouge_stat" env:"ROUGE_STAT"`

	// BleuWeights 各阶 n-gram 权重，(1) 表示只用 1-gram
	BleuWeights []float64 `json:"bleu_weights,omitempty" yaml:"bleu_weights" env:"BLEU_WEIGHTS"`

	MeteorAlpha float64 `json:"meteor_alpha" yaml:"meteor_alpha" env:"METEOR_ALPHA"`
	MeteorBeta  float64 `json:"meteor_beta" yaml:"meteor_beta" env:"METEOR_BETA"`
	// MeteorGamma 为 0 时两个相同句子得分为 1
	MeteorGamma float64 `json:"meteor_gamma" yaml:"meteor_gamma" env:"METEOR_GAMMA"`

	// Model BERTScore/BLEURT 使用的模型或检查点，为空时由协作方决定
	Model string `json:"model,omitempty" yaml:"model" env:"MODEL"`
}

// DefaultParams 返回与评测脚本一致的默认超参数。
func DefaultParams() Params {
	return Params{
		NGram:        3,
		Beta:         2,
		RougeVariant: "l",
		RougeStat:    "p",
		BleuWeights:  []float64{1},
		MeteorAlpha:  0.9,
		MeteorBeta:   3.0,
		MeteorGamma:  0.5,
	}
}

// Clone 返回深拷贝。
func (p Params) Clone() Params {
	out := p
	if p.BleuWeights != nil {
		out.BleuWeights = append([]float64(nil), p.BleuWeights...)
	}
	if p.ChrFOrders != nil {
		out.ChrFOrders = append([]int(nil), p.ChrFOrders...)
	}
	return out
}

// Validate 只校验 kind 用到的字段。
func (p Params) Validate(kind Kind) error {
	if p.Language != "" {
		if _, err := segment.ParseLanguage(string(p.Language)); err != nil {
			return err
		}
	}

	switch kind {
	case KindChrF:
		if p.NGram < 1 {
			return invalidParams(kind, "ngram must be >= 1, got %d", p.NGram)
		}
		if p.Beta <= 0 {
			return invalidParams(kind, "beta must be positive, got %v", p.Beta)
		}
		for _, n := range p.ChrFOrders {
			if n < 1 {
				return invalidParams(kind, "chrf_orders must be >= 1, got %d", n)
			}
		}
	case KindRouge:
		switch p.RougeVariant {
		case "1", "2", "l":
		default:
			return invalidParams(kind, "rouge_variant must be one of 1, 2, l, got %q", p.RougeVariant)
		}
		switch p.RougeStat {
		case "p", "r", "f":
		default:
			return invalidParams(kind, "rouge_stat must be one of p, r, f, got %q", p.RougeStat)
		}
	case KindBLEU:
		if len(p.BleuWeights) == 0 {
			return invalidParams(kind, "bleu_weights must not be empty")
		}
		var sum float64
		for _, w := range p.BleuWeights {
			if w < 0 {
				return invalidParams(kind, "bleu_weights must be non-negative, got %v", w)
			}
			sum += w
		}
		if sum == 0 {
			return invalidParams(kind, "bleu_weights must not all be zero")
		}
	case KindMETEOR:
		if p.MeteorAlpha < 0 || p.MeteorAlpha > 1 {
			return invalidParams(kind, "meteor_alpha must be within [0, 1], got %v", p.MeteorAlpha)
		}
		if p.MeteorBeta < 0 {
			return invalidParams(kind, "meteor_beta must be non-negative, got %v", p.MeteorBeta)
		}
		if p.MeteorGamma < 0 || p.MeteorGamma > 1 {
			return invalidParams(kind, "meteor_gamma must be within [0, 1], got %v", p.MeteorGamma)
		}
	}
	return nil
}

func invalidParams(kind Kind, format string, args ...any) error {
	return types.Errorf(types.ErrInvalidParams, format, args...).WithMetric(string(kind))
}
