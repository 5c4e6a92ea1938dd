package segment

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/textscore/types"
)

// 以空格分词后再用单个空格拼接，结果与原串相同。
func TestProperty_WordSegmentJoinRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.StringMatching(`[a-zA-Z][a-zA-Z ,.]{0,60}`).Draw(rt, "text")

		tokens := Segment(text, LanguageWord)
		assert.Equal(rt, text, Join(tokens))
		assert.Equal(rt, strings.Count(text, " ")+1, len(tokens))
	})
}

// 逐字符分词的 token 数等于 rune 数，拼接后与原串相同。
func TestProperty_CharSegmentPreservesRunes(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.String().Draw(rt, "text")

		tokens := Segment(text, LanguageChar)
		require.Equal(rt, utf8.RuneCountInString(text), len(tokens))
		assert.Equal(rt, text, strings.Join(tokens, ""))
		for _, tok := range tokens {
			assert.Equal(rt, 1, utf8.RuneCountInString(tok))
		}
	})
}

// 长度不一致的 Batch 总是返回 LENGTH_MISMATCH。
func TestProperty_MismatchedBatchRejected(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		refs := rapid.SliceOfN(rapid.String(), 0, 8).Draw(rt, "refs")
		cands := rapid.SliceOfN(rapid.String(), 0, 8).Draw(rt, "cands")
		if len(refs) == len(cands) {
			cands = append(cands, "extra")
		}

		_, err := SegmentBatch(Batch{References: refs, Candidates: cands}, "")
		require.Error(rt, err)
		assert.True(rt, types.IsCode(err, types.ErrLengthMismatch))
	})
}

func TestProperty_ClassifierAndBatchAlignment(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("classification is deterministic", prop.ForAll(
		func(text string) bool {
			c := LeadingCharClassifier{}
			return c.Classify(text) == c.Classify(text)
		},
		gen.AnyString(),
	))

	properties.Property("ascii letter prefix is word delimited", prop.ForAll(
		func(text string) bool {
			return LeadingCharClassifier{}.Classify("w"+text) == LanguageWord
		},
		gen.AnyString(),
	))

	properties.Property("han prefix is character delimited", prop.ForAll(
		func(text string) bool {
			return LeadingCharClassifier{}.Classify("字"+text) == LanguageChar
		},
		gen.UnicodeString(unicode.Han),
	))

	properties.Property("batch output stays index aligned", prop.ForAll(
		func(refs []string) bool {
			cands := make([]string, len(refs))
			for i := range refs {
				cands[i] = strings.ToUpper(refs[i])
			}

			out, err := SegmentBatch(Batch{References: refs, Candidates: cands}, "")
			if err != nil {
				t.Logf("SegmentBatch failed: %v", err)
				return false
			}
			if len(out.References) != len(refs) || len(out.Candidates) != len(refs) || len(out.Languages) != len(refs) {
				return false
			}
			for i := range refs {
				if out.Languages[i] != Default().Classify(refs[i]) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
