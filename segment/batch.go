package segment

import (
	"slices"

	"github.com/BaSui01/textscore/types"
)

// Batch 是按下标一一对应的参考文本与候选文本。
type Batch struct {
	References []string `json:"references" yaml:"references"`
	Candidates []string `json:"candidates" yaml:"candidates"`
}

// Len 返回句对数量。
func (b Batch) Len() int {
	return len(b.References)
}

// Validate 校验参考与候选数量一致。
func (b Batch) Validate() error {
	if len(b.References) != len(b.Candidates) {
		return types.Errorf(types.ErrLengthMismatch,
			"references has %d entries, candidates has %d", len(b.References), len(b.Candidates))
	}
	return nil
}

// Segmented 是 Batch 的分词结果，三个切片与输入按下标对齐。
type Segmented struct {
	References [][]string `json:"references"`
	Candidates [][]string `json:"candidates"`
	Languages  []Language `json:"languages"`
}

// SegmentBatch 使用默认 Segmenter 切分 Batch。
func SegmentBatch(b Batch, override Language) (*Segmented, error) {
	return defaultSegmenter.SegmentBatch(b, override)
}

// SegmentBatch 切分 Batch。
//
// override 为空时，每个下标 i 只对 References[i] 分类，得到的语言同时用于
// References[i] 和 Candidates[i]，候选文本的内容不参与判定。
// override 非空时必须能被 ParseLanguage 识别，否则返回 INVALID_LANGUAGE。
// 调用方传入的切片不会被修改。
func (s *Segmenter) SegmentBatch(b Batch, override Language) (*Segmented, error) {
	var fixed Language
	if override != "" {
		lang, err := ParseLanguage(string(override))
		if err != nil {
			return nil, err
		}
		fixed = lang
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}

	refs := slices.Clone(b.References)
	cands := slices.Clone(b.Candidates)

	out := &Segmented{
		References: make([][]string, len(refs)),
		Candidates: make([][]string, len(cands)),
		Languages:  make([]Language, len(refs)),
	}
	for i := range refs {
		lang := fixed
		if lang == "" {
			lang = s.classifier.Classify(refs[i])
		}
		out.Languages[i] = lang
		out.References[i] = Segment(refs[i], lang)
		out.Candidates[i] = Segment(cands[i], lang)
	}
	return out, nil
}

// Joined 把每个 token 序列用单个空格重新拼接。
// 以空格分词的句子还原为原文，逐字符分词的句子变为字符间插入空格的形式。
func (s *Segmented) Joined() (refs, cands []string) {
	refs = make([]string, len(s.References))
	cands = make([]string, len(s.Candidates))
	for i := range s.References {
		refs[i] = Join(s.References[i])
		cands[i] = Join(s.Candidates[i])
	}
	return refs, cands
}
