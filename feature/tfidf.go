package feature

import (
	"math"
	"strings"
	"unicode"
)

// SparseVector 是稀疏特征向量：词表下标 → 权重。
type SparseVector map[int]float64

// Dot 计算两个稀疏向量的点积。
func (v SparseVector) Dot(other SparseVector) float64 {
	// 遍历较小的一侧
	if len(other) < len(v) {
		v, other = other, v
	}
	var sum float64
	for idx, val := range v {
		if ov, ok := other[idx]; ok {
			sum += val * ov
		}
	}
	return sum
}

// Norm 返回向量的 L2 范数。
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, val := range v {
		sum += val * val
	}
	return math.Sqrt(sum)
}

// TFIDFVectorizer 将文本集合编码为 TF-IDF 稀疏向量。
//
// 处理流程：小写化 → 按非字母数字切词 → 去停用词 → 词频统计 →
// 平滑 idf 加权 → L2 归一化。归一化后向量间的余弦相似度等于点积。
//
// Vectorizer 一次 Fit 终身使用：词表和 idf 在 Fit 时固定，之后只读，
// 可并发调用 Transform。
type TFIDFVectorizer struct {
	vocab []string       // 下标 → 词
	index map[string]int // 词 → 下标
	idf   []float64
}

// NewTFIDFVectorizer 创建一个未拟合的向量化器。
func NewTFIDFVectorizer() *TFIDFVectorizer {
	return &TFIDFVectorizer{index: make(map[string]int)}
}

// VocabSize 返回词表大小（Fit 之前为 0）。
func (t *TFIDFVectorizer) VocabSize() int { return len(t.vocab) }

// FitTransform 在文档集合上拟合词表与 idf，并返回每篇文档的
// L2 归一化 TF-IDF 向量（与 docs 下标对齐）。空文档得到空向量。
func (t *TFIDFVectorizer) FitTransform(docs []string) []SparseVector {
	tokenized := make([][]string, len(docs))
	docFreq := make(map[string]int)
	for i, doc := range docs {
		tokens := Tokenize(doc)
		tokenized[i] = tokens
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			docFreq[tok]++
		}
	}

	// 固定词表顺序无关紧要，这里按首次出现顺序建立下标
	for _, tokens := range tokenized {
		for _, tok := range tokens {
			if _, ok := t.index[tok]; !ok {
				t.index[tok] = len(t.vocab)
				t.vocab = append(t.vocab, tok)
			}
		}
	}

	// 平滑 idf：ln((1+n)/(1+df)) + 1，保证全量出现的词权重也不为 0
	n := float64(len(docs))
	t.idf = make([]float64, len(t.vocab))
	for tok, idx := range t.index {
		t.idf[idx] = math.Log((1+n)/(1+float64(docFreq[tok]))) + 1
	}

	out := make([]SparseVector, len(docs))
	for i, tokens := range tokenized {
		out[i] = t.vectorize(tokens)
	}
	return out
}

// Transform 用已拟合的词表编码一篇新文档，词表外的词被忽略。
func (t *TFIDFVectorizer) Transform(doc string) SparseVector {
	return t.vectorize(Tokenize(doc))
}

func (t *TFIDFVectorizer) vectorize(tokens []string) SparseVector {
	vec := make(SparseVector)
	for _, tok := range tokens {
		if idx, ok := t.index[tok]; ok {
			vec[idx]++
		}
	}
	for idx := range vec {
		vec[idx] *= t.idf[idx]
	}
	if norm := vec.Norm(); norm > 0 {
		for idx := range vec {
			vec[idx] /= norm
		}
	}
	return vec
}

// Tokenize 切词：小写化、按非字母数字分割、去英文停用词。
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}
