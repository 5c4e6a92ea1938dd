package metric

import (
	"unicode/utf8"

	"github.com/BaSui01/textscore/segment"
	"github.com/BaSui01/textscore/types"
)

// Input 是交给协作方的一次评测输入，已按指标要求整理好形式。
// ReferenceTokens/CandidateTokens 只在 ShapeTokens 指标上填充。
type Input struct {
	Kind            Kind               `json:"metric"`
	References      []string           `json:"references"`
	Candidates      []string           `json:"candidates"`
	ReferenceTokens [][]string         `json:"reference_tokens,omitempty"`
	CandidateTokens [][]string         `json:"candidate_tokens,omitempty"`
	Languages       []segment.Language `json:"languages,omitempty"`
	Params          Params             `json:"params"`
}

// Len 返回句对数量。
func (in *Input) Len() int {
	return len(in.References)
}

// ValidateBatch 检查评测调用的输入契约：
// 批次非空、两侧等长、任何一侧都不含空字符串。
func ValidateBatch(b segment.Batch) error {
	if len(b.References) == 0 || len(b.Candidates) == 0 {
		return types.NewError(types.ErrEmptyInput, "the sentences list is empty")
	}
	if err := b.Validate(); err != nil {
		return err
	}
	for i := range b.References {
		if b.References[i] == "" {
			return types.Errorf(types.ErrEmptyInput, "reference %d is empty", i)
		}
		if b.Candidates[i] == "" {
			return types.Errorf(types.ErrEmptyInput, "candidate %d is empty", i)
		}
	}
	return nil
}

// Prepare 校验 Batch 并按 kind 整理协作方输入。调用方的切片不会被修改。
func Prepare(seg *segment.Segmenter, kind Kind, b segment.Batch, params Params) (*Input, error) {
	if !kind.Valid() {
		return nil, types.Errorf(types.ErrUnknownMetric, "no such metric like %s", kind)
	}
	if err := ValidateBatch(b); err != nil {
		return nil, err
	}
	if seg == nil {
		seg = segment.Default()
	}

	in := &Input{
		Kind:   kind,
		Params: params.Clone(),
	}

	switch kind.Shape() {
	case ShapeTokens:
		out, err := seg.SegmentBatch(b, params.Language)
		if err != nil {
			return nil, err
		}
		in.References = append([]string(nil), b.References...)
		in.Candidates = append([]string(nil), b.Candidates...)
		in.ReferenceTokens = out.References
		in.CandidateTokens = out.Candidates
		in.Languages = out.Languages
	case ShapeSpaceJoined:
		out, err := seg.SegmentBatch(b, params.Language)
		if err != nil {
			return nil, err
		}
		in.References, in.Candidates = out.Joined()
		in.Languages = out.Languages
	default:
		in.References = append([]string(nil), b.References...)
		in.Candidates = append([]string(nil), b.Candidates...)
	}

	if kind == KindChrF {
		if err := checkMinLength(in, params.NGram); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// chrF 要求每个句子至少包含 n 个字符。
func checkMinLength(in *Input, n int) error {
	for i := range in.References {
		if utf8.RuneCountInString(in.References[i]) < n || utf8.RuneCountInString(in.Candidates[i]) < n {
			return types.Errorf(types.ErrInputTooShort,
				"pair %d: length of reference or candidate < ngram (%d)", i, n).WithMetric(string(KindChrF))
		}
	}
	return nil
}
