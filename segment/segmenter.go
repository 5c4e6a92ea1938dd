package segment

import (
	"strings"
	"unicode/utf8"
)

// Segmenter 按语言标签把字符串切分为有序 token 序列。
// 零值不可用，使用 New 创建。Segmenter 不持有可变状态，可并发使用。
type Segmenter struct {
	classifier Classifier
}

// Option 配置 Segmenter。
type Option func(*Segmenter)

// WithClassifier 替换默认的首字符分类器。
func WithClassifier(c Classifier) Option {
	return func(s *Segmenter) {
		if c != nil {
			s.classifier = c
		}
	}
}

// New 创建 Segmenter，默认使用 LeadingCharClassifier。
func New(opts ...Option) *Segmenter {
	s := &Segmenter{classifier: LeadingCharClassifier{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSegmenter = New()

// Default 返回使用默认分类器的共享 Segmenter。
func Default() *Segmenter {
	return defaultSegmenter
}

// Classify 使用配置的分类器判定语言。
func (s *Segmenter) Classify(text string) Language {
	return s.classifier.Classify(text)
}

// Segment 按给定语言切分 text，详见包级 Segment。
func (s *Segmenter) Segment(text string, lang Language) []string {
	return Segment(text, lang)
}

// SegmentAuto 先分类再切分。
func (s *Segmenter) SegmentAuto(text string) ([]string, Language) {
	lang := s.Classify(text)
	return Segment(text, lang), lang
}

// Segment 按给定语言切分 text。
//
//   - LanguageWord：按单个空格切分，连续空格产生的空 token 原样保留。
//   - LanguageChar：每个字符（rune）一个 token，非法 UTF-8 字节各自成为一个 token。
//
// 空字符串返回空序列。未识别的语言标签返回 nil，调用方应先用 ParseLanguage 校验。
func Segment(text string, lang Language) []string {
	switch lang {
	case LanguageWord:
		if text == "" {
			return []string{}
		}
		return strings.Split(text, " ")
	case LanguageChar:
		return splitChars(text)
	default:
		return nil
	}
}

// Join 用单个空格拼接 token，是 LanguageWord 切分的逆操作。
func Join(tokens []string) string {
	return strings.Join(tokens, " ")
}

// splitChars 返回原串的子串切片，拼接后与原串逐字节相同。
func splitChars(text string) []string {
	tokens := make([]string, 0, utf8.RuneCountInString(text))
	for i := 0; i < len(text); {
		_, size := utf8.DecodeRuneInString(text[i:])
		tokens = append(tokens, text[i:i+size])
		i += size
	}
	return tokens
}
