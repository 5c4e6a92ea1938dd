package metric

import (
	"strings"

	"github.com/BaSui01/textscore/types"
)

// Kind 标识一种评测指标。
type Kind string

const (
	// KindRouge ROUGE（n-gram / 最长公共子序列召回类指标）
	KindRouge Kind = "rouge"
	// KindChrF chrF（字符 n-gram F 值）
	KindChrF Kind = "chrf"
	// KindBERTScore BERTScore（上下文向量相似度）
	KindBERTScore Kind = "bertscore"
	// KindBLEU BLEU（n-gram 精确率）
	KindBLEU Kind = "bleu"
	// KindMETEOR METEOR（带词形/同义词对齐的 F 值）
	KindMETEOR Kind = "meteor"
	// KindBLEURT BLEURT（学习型回归指标）
	KindBLEURT Kind = "bleurt"
	// KindWER 词错误率，逐字符分词时即字错误率
	KindWER Kind = "wer"
)

var allKinds = []Kind{KindRouge, KindChrF, KindBERTScore, KindBLEU, KindMETEOR, KindBLEURT, KindWER}

// InputShape 描述协作方需要的输入形式。
type InputShape int

const (
	// ShapeRaw 原始字符串
	ShapeRaw InputShape = iota
	// ShapeTokens 分词后的 token 序列
	ShapeTokens
	// ShapeSpaceJoined 分词后再用空格拼接的字符串
	ShapeSpaceJoined
)

func (s InputShape) String() string {
	switch s {
	case ShapeTokens:
		return "tokens"
	case ShapeSpaceJoined:
		return "space_joined"
	default:
		return "raw"
	}
}

// AllKinds 按固定顺序返回全部指标。
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// ParseKind 解析指标名称，大小写不敏感。
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	if !k.Valid() {
		return "", types.Errorf(types.ErrUnknownMetric, "no such metric like %s", name)
	}
	return k, nil
}

// ParseKinds 解析一组指标名称，遇到第一个未知名称即返回错误。
func ParseKinds(names []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(names))
	for _, name := range names {
		k, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Valid 判断是否为已知指标。
func (k Kind) Valid() bool {
	switch k {
	case KindRouge, KindChrF, KindBERTScore, KindBLEU, KindMETEOR, KindBLEURT, KindWER:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// Shape 返回该指标协作方期望的输入形式。
func (k Kind) Shape() InputShape {
	switch k {
	case KindBLEU, KindMETEOR, KindWER:
		return ShapeTokens
	case KindRouge:
		return ShapeSpaceJoined
	default:
		return ShapeRaw
	}
}
