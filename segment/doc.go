// Package segment 提供参考/候选句对的语言判定与分词，
// 为 BLEU、METEOR、ROUGE 等需要 token 序列的评测指标准备输入。
//
// 语言判定只看首字符（见 LeadingCharClassifier），可通过 WithClassifier 替换；
// 分词本身不依赖判定方式。所有函数都是纯内存操作，可并发调用。
package segment
