// Package classifier 提供查询分类器：TF-IDF 向量化 + 多分类逻辑回归
package classifier

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/bbalet/stopwords"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Vectorizer TF-IDF 向量化器
// 词表按语料词频截断到 MaxFeatures，IDF 采用平滑公式 ln((1+n)/(1+df))+1，
// 输出按行做 l2 归一化
type Vectorizer struct {
	MaxFeatures int            `json:"max_features"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
}

// NewVectorizer 创建向量化器
func NewVectorizer(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = 1000
	}
	return &Vectorizer{MaxFeatures: maxFeatures}
}

// tokenize 分词：小写、去标点、去英文停用词
func tokenize(text string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	cleaned := stopwords.CleanString(b.String(), "en", false)
	return strings.Fields(cleaned)
}

// Fit 在语料上构建词表和 IDF
func (v *Vectorizer) Fit(docs []string) error {
	if len(docs) == 0 {
		return fmt.Errorf("vectorizer: empty corpus")
	}

	// 词频和文档频率
	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range tokenize(doc) {
			termFreq[tok]++
			if !seen[tok] {
				docFreq[tok]++
				seen[tok] = true
			}
		}
	}
	if len(termFreq) == 0 {
		return fmt.Errorf("vectorizer: corpus contains no usable terms")
	}

	// 按词频选取前 MaxFeatures 个词；并列时按字典序保证确定性
	terms := make([]string, 0, len(termFreq))
	for term := range termFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if termFreq[terms[i]] != termFreq[terms[j]] {
			return termFreq[terms[i]] > termFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > v.MaxFeatures {
		terms = terms[:v.MaxFeatures]
	}
	// 词表本身按字典序编号，与 sklearn 一致
	sort.Strings(terms)

	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	n := float64(len(docs))
	for i, term := range terms {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	return nil
}

// NumFeatures 特征维度
func (v *Vectorizer) NumFeatures() int {
	return len(v.IDF)
}

// TransformOne 将单条文本变换为 TF-IDF 向量
func (v *Vectorizer) TransformOne(doc string) []float64 {
	vec := make([]float64, len(v.IDF))
	for _, tok := range tokenize(doc) {
		if idx, ok := v.Vocabulary[tok]; ok {
			vec[idx]++
		}
	}
	for i := range vec {
		vec[i] *= v.IDF[i]
	}
	if norm := floats.Norm(vec, 2); norm > 0 {
		floats.Scale(1/norm, vec)
	}
	return vec
}

// Transform 批量变换，返回 len(docs) x NumFeatures 矩阵
func (v *Vectorizer) Transform(docs []string) *mat.Dense {
	rows := len(docs)
	cols := v.NumFeatures()
	X := mat.NewDense(rows, cols, nil)
	for i, doc := range docs {
		X.SetRow(i, v.TransformOne(doc))
	}
	return X
}
