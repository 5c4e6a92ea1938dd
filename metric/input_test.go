package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/textscore/segment"
	"github.com/BaSui01/textscore/types"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"rouge", KindRouge, false},
		{" CHRF ", KindChrF, false},
		{"BERTScore", KindBERTScore, false},
		{"wer", KindWER, false},
		{"cider", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, types.IsCode(err, types.ErrUnknownMetric))
				assert.Contains(t, err.Error(), "no such metric like")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKinds_StopsAtUnknown(t *testing.T) {
	_, err := ParseKinds([]string{"bleu", "nope", "rouge"})
	assert.True(t, types.IsCode(err, types.ErrUnknownMetric))

	kinds, err := ParseKinds([]string{"bleu", "rouge"})
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindBLEU, KindRouge}, kinds)
}

func TestKind_Shape(t *testing.T) {
	assert.Equal(t, ShapeTokens, KindBLEU.Shape())
	assert.Equal(t, ShapeTokens, KindMETEOR.Shape())
	assert.Equal(t, ShapeTokens, KindWER.Shape())
	assert.Equal(t, ShapeSpaceJoined, KindRouge.Shape())
	assert.Equal(t, ShapeRaw, KindChrF.Shape())
	assert.Equal(t, ShapeRaw, KindBERTScore.Shape())
	assert.Equal(t, ShapeRaw, KindBLEURT.Shape())
}

func TestValidateBatch(t *testing.T) {
	tests := []struct {
		name  string
		batch segment.Batch
		code  types.ErrorCode
	}{
		{"empty", segment.Batch{}, types.ErrEmptyInput},
		{"empty candidates", segment.Batch{References: []string{"a"}}, types.ErrEmptyInput},
		{"mismatch", segment.Batch{References: []string{"a", "b"}, Candidates: []string{"a"}}, types.ErrLengthMismatch},
		{"empty reference", segment.Batch{References: []string{""}, Candidates: []string{"a"}}, types.ErrEmptyInput},
		{"empty candidate", segment.Batch{References: []string{"a"}, Candidates: []string{""}}, types.ErrEmptyInput},
		{"ok", segment.Batch{References: []string{"a"}, Candidates: []string{"b"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBatch(tt.batch)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.code, types.GetErrorCode(err))
		})
	}
}

func TestPrepare_Shapes(t *testing.T) {
	b := segment.Batch{
		References: []string{"the cat sat", "你是一个男孩"},
		Candidates: []string{"the cat", "你是男孩"},
	}
	params := DefaultParams()

	in, err := Prepare(nil, KindBLEU, b, params)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"the", "cat", "sat"}, {"你", "是", "一", "个", "男", "孩"}}, in.ReferenceTokens)
	assert.Equal(t, [][]string{{"the", "cat"}, {"你", "是", "男", "孩"}}, in.CandidateTokens)
	assert.Equal(t, []segment.Language{segment.LanguageWord, segment.LanguageChar}, in.Languages)
	assert.Equal(t, b.References, in.References)

	in, err = Prepare(nil, KindRouge, b, params)
	require.NoError(t, err)
	assert.Equal(t, []string{"the cat sat", "你 是 一 个 男 孩"}, in.References)
	assert.Equal(t, []string{"the cat", "你 是 男 孩"}, in.Candidates)
	assert.Nil(t, in.ReferenceTokens)

	in, err = Prepare(nil, KindBERTScore, b, params)
	require.NoError(t, err)
	assert.Equal(t, b.References, in.References)
	assert.Equal(t, b.Candidates, in.Candidates)
	assert.Nil(t, in.Languages)
}

func TestPrepare_ReferenceDecidesLanguage(t *testing.T) {
	b := segment.Batch{References: []string{"hello world"}, Candidates: []string{"你好 世界"}}

	in, err := Prepare(nil, KindWER, b, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"你好", "世界"}}, in.CandidateTokens)
}

func TestPrepare_LanguageOverride(t *testing.T) {
	b := segment.Batch{References: []string{"ab cd"}, Candidates: []string{"ab"}}
	params := DefaultParams()
	params.Language = "zh"

	in, err := Prepare(nil, KindWER, b, params)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b", " ", "c", "d"}}, in.ReferenceTokens)
}

func TestPrepare_ChrFMinLength(t *testing.T) {
	params := DefaultParams()

	_, err := Prepare(nil, KindChrF, segment.Batch{References: []string{"abc"}, Candidates: []string{"ab"}}, params)
	assert.True(t, types.IsCode(err, types.ErrInputTooShort))

	_, err = Prepare(nil, KindChrF, segment.Batch{References: []string{"你好吗"}, Candidates: []string{"我很好"}}, params)
	assert.NoError(t, err)

	_, err = Prepare(nil, KindBLEU, segment.Batch{References: []string{"a"}, Candidates: []string{"b"}}, params)
	assert.NoError(t, err)
}

func TestPrepare_DoesNotMutateInput(t *testing.T) {
	refs := []string{"你是一个男孩"}
	cands := []string{"你是男孩"}
	in, err := Prepare(nil, KindRouge, segment.Batch{References: refs, Candidates: cands}, DefaultParams())
	require.NoError(t, err)

	in.References[0] = "changed"
	assert.Equal(t, "你是一个男孩", refs[0])
	assert.Equal(t, "你是男孩", cands[0])
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		mutate func(*Params)
		code   types.ErrorCode
	}{
		{"defaults chrf", KindChrF, func(*Params) {}, ""},
		{"ngram zero", KindChrF, func(p *Params) { p.NGram = 0 }, types.ErrInvalidParams},
		{"beta zero", KindChrF, func(p *Params) { p.Beta = 0 }, types.ErrInvalidParams},
		{"ngram ignored for bleu", KindBLEU, func(p *Params) { p.NGram = 0 }, ""},
		{"rouge variant", KindRouge, func(p *Params) { p.RougeVariant = "3" }, types.ErrInvalidParams},
		{"rouge stat", KindRouge, func(p *Params) { p.RougeStat = "x" }, types.ErrInvalidParams},
		{"bleu empty weights", KindBLEU, func(p *Params) { p.BleuWeights = nil }, types.ErrInvalidParams},
		{"bleu zero weights", KindBLEU, func(p *Params) { p.BleuWeights = []float64{0, 0} }, types.ErrInvalidParams},
		{"bleu negative weight", KindBLEU, func(p *Params) { p.BleuWeights = []float64{1, -1} }, types.ErrInvalidParams},
		{"meteor gamma zero", KindMETEOR, func(p *Params) { p.MeteorGamma = 0 }, ""},
		{"meteor alpha", KindMETEOR, func(p *Params) { p.MeteorAlpha = 1.5 }, types.ErrInvalidParams},
		{"bad language", KindWER, func(p *Params) { p.Language = "fr" }, types.ErrInvalidLanguage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate(tt.kind)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.code, types.GetErrorCode(err))
		})
	}
}

func TestParams_Clone(t *testing.T) {
	p := DefaultParams()
	c := p.Clone()
	c.BleuWeights[0] = 0.5
	assert.Equal(t, 1.0, p.BleuWeights[0])
}
