// Package dataset 加载训练用的问答 CSV 并落库
package dataset

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ashwinyue/insure-ai/internal/model"
	"github.com/ashwinyue/insure-ai/internal/repository"
)

var (
	ErrEmptyDataset   = errors.New("dataset contains no usable rows")
	ErrMissingColumns = errors.New("dataset is missing required columns")
)

// Row 问答 CSV 的一行
type Row struct {
	Question string `csv:"question"`
	Answer   string `csv:"answer"`
	Category string `csv:"category"`
}

// Dataset 加载后的数据集
type Dataset struct {
	Rows    []Row
	Skipped int
}

// Load 读取并校验问答 CSV
// 缺字段的行跳过并计数，全部无效时报错
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	var rows []Row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		if strings.Contains(err.Error(), "no such field") || strings.Contains(err.Error(), "mismatch") {
			return nil, fmt.Errorf("%w: %v", ErrMissingColumns, err)
		}
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}

	valid := make([]Row, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		row.Question = strings.TrimSpace(row.Question)
		row.Answer = strings.TrimSpace(row.Answer)
		row.Category = strings.TrimSpace(row.Category)
		if row.Question == "" || row.Answer == "" || row.Category == "" {
			skipped++
			continue
		}
		valid = append(valid, row)
	}
	if len(valid) == 0 {
		return nil, ErrEmptyDataset
	}

	return &Dataset{Rows: valid, Skipped: skipped}, nil
}

// Questions 返回全部问题文本
func (d *Dataset) Questions() []string {
	out := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = row.Question
	}
	return out
}

// Categories 返回与问题对齐的类别标签
func (d *Dataset) Categories() []string {
	out := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = row.Category
	}
	return out
}

// Distribution 统计各类别的样本数
func (d *Dataset) Distribution() map[string]int {
	dist := make(map[string]int)
	for _, row := range d.Rows {
		dist[row.Category]++
	}
	return dist
}

// Seeder 把数据集写入 FAQ 库
type Seeder struct {
	faqRepo *repository.FAQRepository
	log     *zap.Logger
}

// NewSeeder 创建数据集导入器
func NewSeeder(faqRepo *repository.FAQRepository, log *zap.Logger) *Seeder {
	return &Seeder{faqRepo: faqRepo, log: log}
}

// Seed 按问题去重导入 FAQ，已存在的行更新答案和类别
func (s *Seeder) Seed(ds *Dataset) (int, error) {
	seeded := 0
	for _, row := range ds.Rows {
		faq := &model.FAQ{
			ID:       uuid.NewString(),
			Question: row.Question,
			Answer:   row.Answer,
			Category: row.Category,
			IsActive: true,
			Source:   "csv",
		}
		if err := s.faqRepo.Upsert(faq); err != nil {
			return seeded, fmt.Errorf("failed to seed FAQ %q: %w", row.Question, err)
		}
		seeded++
	}
	s.log.Info("dataset seeded into FAQ store",
		zap.Int("rows", seeded),
		zap.Int("skipped", ds.Skipped))
	return seeded, nil
}
