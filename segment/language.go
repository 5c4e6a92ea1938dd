package segment

import (
	"strings"

	"github.com/BaSui01/textscore/types"
)

// Language 描述字符串的分词方式。
type Language string

const (
	// LanguageWord 以空格分词的语言（英文等）。
	LanguageWord Language = "word"
	// LanguageChar 逐字符分词的语言（中文等）。
	LanguageChar Language = "char"
)

// 兼容旧脚本的语言别名。
var languageAliases = map[string]Language{
	"word": LanguageWord,
	"en":   LanguageWord,
	"char": LanguageChar,
	"zh":   LanguageChar,
}

// Valid 判断是否为已识别的语言标签。
func (l Language) Valid() bool {
	return l == LanguageWord || l == LanguageChar
}

func (l Language) String() string {
	return string(l)
}

// ParseLanguage 将外部输入解析为 Language，支持 en/zh 别名。
func ParseLanguage(s string) (Language, error) {
	if l, ok := languageAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l, nil
	}
	return "", types.Errorf(types.ErrInvalidLanguage, "unsupported language %q, want word|char", s)
}
