// =============================================================================
// 📦 测试数据工厂 - 句对批次
// =============================================================================
package fixtures

import "github.com/BaSui01/textscore/segment"

// EnglishBatch 以空格分词的句对
func EnglishBatch() segment.Batch {
	return segment.Batch{
		References: []string{"the cat sat on the mat", "hello world"},
		Candidates: []string{"the cat sat on a mat", "hello there world"},
	}
}

// ChineseBatch 逐字符分词的句对
func ChineseBatch() segment.Batch {
	return segment.Batch{
		References: []string{"今天天气很好", "你好世界"},
		Candidates: []string{"今天天气不错", "你好"},
	}
}

// MixedBatch 同一批次中混合两种语言，按参考文本首字符逐对判定
func MixedBatch() segment.Batch {
	return segment.Batch{
		References: []string{"the cat sat", "你好世界", "good morning"},
		Candidates: []string{"a cat sat", "你们好", "morning"},
	}
}

// RepeatBatch 把 ref/cand 重复 n 次，用于句对上限等场景
func RepeatBatch(ref, cand string, n int) segment.Batch {
	b := segment.Batch{
		References: make([]string, n),
		Candidates: make([]string, n),
	}
	for i := range n {
		b.References[i] = ref
		b.Candidates[i] = cand
	}
	return b
}
