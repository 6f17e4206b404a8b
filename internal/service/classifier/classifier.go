package classifier

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

const (
	vectorizerFile = "vectorizer.json"
	modelFile      = "query_classifier.json"

	// 有意义的训练/验证切分至少需要的样本数
	minSamplesForSplit = 8
)

// Classifier 查询分类器：向量化器 + 逻辑回归模型
type Classifier struct {
	vectorizer *Vectorizer
	model      *LogisticRegression
}

// TrainOptions 训练参数
type TrainOptions struct {
	MaxFeatures  int
	TestSplit    float64
	Epochs       int
	LearningRate float64
	Seed         int64
}

// ClassReport 单个类别的评估指标
type ClassReport struct {
	Class     string  `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report 训练报告
type Report struct {
	Samples       int            `json:"samples"`
	TrainSamples  int            `json:"train_samples"`
	TestSamples   int            `json:"test_samples"`
	Classes       []string       `json:"classes"`
	CategoryCount map[string]int `json:"category_count"`
	Accuracy      float64        `json:"accuracy"` // 无验证集时为 -1
	PerClass      []ClassReport  `json:"per_class,omitempty"`
}

// Train 训练分类器
// 样本充足时按 TestSplit 留出验证集并计算准确率，否则全量训练
func Train(questions, categories []string, opts TrainOptions) (*Classifier, *Report, error) {
	if len(questions) != len(categories) {
		return nil, nil, fmt.Errorf("classifier: %d questions but %d categories", len(questions), len(categories))
	}
	if len(questions) == 0 {
		return nil, nil, fmt.Errorf("classifier: no training samples")
	}
	if opts.TestSplit <= 0 || opts.TestSplit >= 1 {
		opts.TestSplit = 0.3
	}

	report := &Report{
		Samples:       len(questions),
		CategoryCount: make(map[string]int),
		Accuracy:      -1,
	}
	for _, c := range categories {
		report.CategoryCount[c]++
	}

	trainQ, trainC := questions, categories
	var testQ, testC []string
	if len(questions) >= minSamplesForSplit {
		trainQ, trainC, testQ, testC = split(questions, categories, opts.TestSplit, opts.Seed)
	}
	report.TrainSamples = len(trainQ)
	report.TestSamples = len(testQ)

	vec := NewVectorizer(opts.MaxFeatures)
	if err := vec.Fit(trainQ); err != nil {
		return nil, nil, err
	}

	model := NewLogisticRegression(opts.LearningRate, opts.Epochs)
	if err := model.Fit(vec.Transform(trainQ), trainC); err != nil {
		return nil, nil, err
	}
	report.Classes = model.Classes

	c := &Classifier{vectorizer: vec, model: model}
	if len(testQ) > 0 {
		evaluate(c, testQ, testC, report)
	}

	return c, report, nil
}

// split 随机打乱后按比例切分
func split(questions, categories []string, testRatio float64, seed int64) (trainQ, trainC, testQ, testC []string) {
	n := len(questions)
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	testSize := int(float64(n) * testRatio)
	if testSize < 1 {
		testSize = 1
	}

	for i, p := range perm {
		if i < testSize {
			testQ = append(testQ, questions[p])
			testC = append(testC, categories[p])
		} else {
			trainQ = append(trainQ, questions[p])
			trainC = append(trainC, categories[p])
		}
	}
	return trainQ, trainC, testQ, testC
}

// evaluate 在验证集上计算准确率和各类别指标
func evaluate(c *Classifier, testQ, testC []string, report *Report) {
	type counts struct{ tp, fp, fn, support int }
	perClass := make(map[string]*counts)
	for _, class := range report.Classes {
		perClass[class] = &counts{}
	}

	correct := 0
	for i, q := range testQ {
		pred, _, err := c.Predict(q)
		if err != nil {
			continue
		}
		actual := testC[i]
		if cc, ok := perClass[actual]; ok {
			cc.support++
		}
		if pred == actual {
			correct++
			perClass[actual].tp++
		} else {
			if cc, ok := perClass[pred]; ok {
				cc.fp++
			}
			if cc, ok := perClass[actual]; ok {
				cc.fn++
			}
		}
	}
	report.Accuracy = float64(correct) / float64(len(testQ))

	for _, class := range report.Classes {
		cc := perClass[class]
		cr := ClassReport{Class: class, Support: cc.support}
		if cc.tp+cc.fp > 0 {
			cr.Precision = float64(cc.tp) / float64(cc.tp+cc.fp)
		}
		if cc.tp+cc.fn > 0 {
			cr.Recall = float64(cc.tp) / float64(cc.tp+cc.fn)
		}
		if cr.Precision+cr.Recall > 0 {
			cr.F1 = 2 * cr.Precision * cr.Recall / (cr.Precision + cr.Recall)
		}
		report.PerClass = append(report.PerClass, cr)
	}
}

// Predict 对单条问题预测类别和置信度
func (c *Classifier) Predict(question string) (category string, confidence float64, err error) {
	if c.vectorizer == nil || c.model == nil {
		return "", 0, fmt.Errorf("classifier: not trained")
	}
	vec := c.vectorizer.TransformOne(question)
	category, confidence = c.model.Predict(vec)
	return category, confidence, nil
}

// Classes 分类器的标签集合
func (c *Classifier) Classes() []string {
	if c.model == nil {
		return nil
	}
	return c.model.Classes
}

// Save 将向量化器状态和模型权重持久化为两个 JSON 工件
func (c *Classifier) Save(modelDir string) error {
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return fmt.Errorf("failed to create model dir: %w", err)
	}
	if err := writeJSON(filepath.Join(modelDir, vectorizerFile), c.vectorizer); err != nil {
		return err
	}
	return writeJSON(filepath.Join(modelDir, modelFile), c.model)
}

// Load 从模型目录加载分类器
// 向量化器维度与模型权重维度不一致时报错
func Load(modelDir string) (*Classifier, error) {
	var vec Vectorizer
	if err := readJSON(filepath.Join(modelDir, vectorizerFile), &vec); err != nil {
		return nil, err
	}
	var model LogisticRegression
	if err := readJSON(filepath.Join(modelDir, modelFile), &model); err != nil {
		return nil, err
	}

	if vec.NumFeatures() != model.NumFeatures() {
		return nil, fmt.Errorf("classifier: vectorizer has %d features but model expects %d",
			vec.NumFeatures(), model.NumFeatures())
	}

	return &Classifier{vectorizer: &vec, model: &model}, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filepath.Base(path), err)
	}
	return nil
}
