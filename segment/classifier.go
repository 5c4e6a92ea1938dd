package segment

// Classifier 决定字符串的分词方式。
type Classifier interface {
	Classify(text string) Language
}

// ClassifierFunc 允许普通函数作为 Classifier 使用。
type ClassifierFunc func(text string) Language

// Classify implements Classifier.
func (f ClassifierFunc) Classify(text string) Language {
	return f(text)
}

// LeadingCharClassifier 只检查首字符：首字符是 ASCII 字母时判定为 LanguageWord，
// 否则为 LanguageChar。
//
// 这是从评测脚本继承的启发式规则，首字符为数字、标点、空格或非 ASCII 字母
// （包括带重音的拉丁字母）的英文句子会被误判为 LanguageChar。
// 空字符串没有首字符，同样归为 LanguageChar。
type LeadingCharClassifier struct{}

// Classify implements Classifier.
func (LeadingCharClassifier) Classify(text string) Language {
	if text == "" {
		return LanguageChar
	}
	// 多字节 UTF-8 序列的首字节都 >= 0x80，不会落在 ASCII 字母区间内。
	if isASCIILetter(text[0]) {
		return LanguageWord
	}
	return LanguageChar
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
