package classifier

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LogisticRegression 多分类逻辑回归（softmax + 全批量梯度下降）
type LogisticRegression struct {
	Classes      []string    `json:"classes"`
	Weights      [][]float64 `json:"weights"` // numClasses x numFeatures
	Bias         []float64   `json:"bias"`
	LearningRate float64     `json:"learning_rate"`
	Epochs       int         `json:"epochs"`
}

// NewLogisticRegression 创建逻辑回归模型
func NewLogisticRegression(learningRate float64, epochs int) *LogisticRegression {
	if learningRate <= 0 {
		learningRate = 0.5
	}
	if epochs <= 0 {
		epochs = 400
	}
	return &LogisticRegression{
		LearningRate: learningRate,
		Epochs:       epochs,
	}
}

// Fit 训练模型
// 权重从零初始化，全批量更新，给定同样的输入输出完全确定
func (m *LogisticRegression) Fit(X *mat.Dense, labels []string) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("logistic: empty training matrix")
	}
	if rows != len(labels) {
		return fmt.Errorf("logistic: %d rows but %d labels", rows, len(labels))
	}

	// 收集类别并排序，保证类别编号稳定
	classSet := make(map[string]bool)
	for _, l := range labels {
		classSet[l] = true
	}
	m.Classes = make([]string, 0, len(classSet))
	for c := range classSet {
		m.Classes = append(m.Classes, c)
	}
	sort.Strings(m.Classes)
	if len(m.Classes) < 2 {
		return fmt.Errorf("logistic: need at least 2 classes, got %d", len(m.Classes))
	}

	classIdx := make(map[string]int, len(m.Classes))
	for i, c := range m.Classes {
		classIdx[c] = i
	}
	y := make([]int, rows)
	for i, l := range labels {
		y[i] = classIdx[l]
	}

	numClasses := len(m.Classes)
	m.Weights = make([][]float64, numClasses)
	for k := range m.Weights {
		m.Weights[k] = make([]float64, cols)
	}
	m.Bias = make([]float64, numClasses)

	gradW := make([][]float64, numClasses)
	for k := range gradW {
		gradW[k] = make([]float64, cols)
	}
	gradB := make([]float64, numClasses)
	row := make([]float64, cols)

	for epoch := 0; epoch < m.Epochs; epoch++ {
		for k := range gradW {
			for j := range gradW[k] {
				gradW[k][j] = 0
			}
			gradB[k] = 0
		}

		for i := 0; i < rows; i++ {
			mat.Row(row, i, X)
			probs := m.probabilities(row)
			for k := 0; k < numClasses; k++ {
				diff := probs[k]
				if k == y[i] {
					diff -= 1
				}
				floats.AddScaled(gradW[k], diff, row)
				gradB[k] += diff
			}
		}

		scale := m.LearningRate / float64(rows)
		for k := 0; k < numClasses; k++ {
			floats.AddScaled(m.Weights[k], -scale, gradW[k])
			m.Bias[k] -= scale * gradB[k]
		}
	}

	return nil
}

// probabilities 计算 softmax 概率分布
func (m *LogisticRegression) probabilities(x []float64) []float64 {
	scores := make([]float64, len(m.Classes))
	for k := range m.Weights {
		scores[k] = floats.Dot(m.Weights[k], x) + m.Bias[k]
	}

	// 减最大值避免上溢
	maxScore := floats.Max(scores)
	sum := 0.0
	for k := range scores {
		scores[k] = math.Exp(scores[k] - maxScore)
		sum += scores[k]
	}
	floats.Scale(1/sum, scores)
	return scores
}

// Predict 预测类别及其概率
func (m *LogisticRegression) Predict(x []float64) (string, float64) {
	probs := m.probabilities(x)
	best := floats.MaxIdx(probs)
	return m.Classes[best], probs[best]
}

// NumFeatures 模型的特征维度
func (m *LogisticRegression) NumFeatures() int {
	if len(m.Weights) == 0 {
		return 0
	}
	return len(m.Weights[0])
}
