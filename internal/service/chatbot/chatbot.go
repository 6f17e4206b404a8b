// Package chatbot 实现保险问答流水线：精确匹配 -> 分类器 -> LLM -> 兜底
package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	ecomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"

	"github.com/ashwinyue/insure-ai/internal/model"
	"github.com/ashwinyue/insure-ai/internal/repository"
	"github.com/ashwinyue/insure-ai/internal/service/classifier"
	"github.com/ashwinyue/insure-ai/internal/service/security"
)

// FallbackAnswer 置信度不足或无可用模型时的兜底回答
const FallbackAnswer = "I don't have enough information to answer that question accurately. Please contact your insurance provider for specific details."

// insuranceContext LLM 回答的领域背景知识
const insuranceContext = `Health insurance plans include HMOs (Health Maintenance Organizations) which require you to choose a primary care physician and get referrals for specialists.
PPOs (Preferred Provider Organizations) offer more flexibility with in-network and out-of-network coverage.
EPOs (Exclusive Provider Organizations) are similar to PPOs but don't cover out-of-network care except in emergencies.
A deductible is the amount you pay for covered health care services before your insurance plan starts to pay. For example, if your deductible is $1,000, you pay the first $1,000 of covered services yourself.
A copay is a fixed amount you pay for a covered health care service, usually when you receive the service.
A premium is the amount you pay for your health insurance every month.
Enrollment typically happens during open enrollment periods or through special enrollment periods for qualifying life events.
The Affordable Care Act (ACA) provides marketplace plans with subsidies based on income.`

// categoryContext 按分类追加的补充背景
var categoryContext = map[string]string{
	"Enrollment": " For enrollment questions, visit HealthCare.gov or contact a licensed insurance broker.",
	"Plan Type":  " Plan types differ in cost, flexibility, and provider networks.",
}

// Result 问答结果
type Result struct {
	Answer     string  `json:"answer"`
	Source     string  `json:"source"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Service 问答服务
// classifier 和 chatModel 都允许为 nil：没有分类器时跳过分类，
// 没有 LLM 时直接走兜底回答，服务完全离线可用
type Service struct {
	faqRepo    *repository.FAQRepository
	queryLog   *repository.QueryLogRepository
	secMgr     *security.Manager
	classifier *classifier.Classifier
	chatModel  ecomodel.ChatModel
	threshold  float64
	log        *zap.Logger
}

// NewService 创建问答服务
func NewService(repo *repository.Repositories, secMgr *security.Manager, clf *classifier.Classifier, chatModel ecomodel.ChatModel, threshold float64, log *zap.Logger) *Service {
	return &Service{
		faqRepo:    repo.FAQ,
		queryLog:   repo.QueryLog,
		secMgr:     secMgr,
		classifier: clf,
		chatModel:  chatModel,
		threshold:  threshold,
		log:        log,
	}
}

// Meta 一次问答的请求方信息
type Meta struct {
	UserID    string
	SessionID string
	IPAddress string
	UserAgent string
}

// Record 把问答加密落库
// 明文不落盘，问题和回答都以 Fernet 密文存储
func (s *Service) Record(question string, res *Result, meta Meta) error {
	cipher := s.secMgr.Cipher()
	if cipher == nil {
		return security.ErrNoActiveKey
	}

	encQuery, err := cipher.Encrypt(question)
	if err != nil {
		return fmt.Errorf("failed to encrypt query: %w", err)
	}
	encAnswer, err := cipher.Encrypt(res.Answer)
	if err != nil {
		return fmt.Errorf("failed to encrypt answer: %w", err)
	}

	entry := &model.QueryLog{
		Query:      encQuery,
		Answer:     encAnswer,
		Category:   res.Category,
		Confidence: res.Confidence,
		Source:     res.Source,
		UserID:     meta.UserID,
		SessionID:  meta.SessionID,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	}
	if err := s.queryLog.Create(entry); err != nil {
		return fmt.Errorf("failed to store query log: %w", err)
	}
	return nil
}

// Answer 回答一个保险问题
// 流水线：FAQ 精确匹配 -> 分类器定类 -> 带类别上下文的 LLM -> 置信度兜底
func (s *Service) Answer(ctx context.Context, question string) (*Result, error) {
	// 第一步：FAQ 库精确匹配（问题文本包含用户输入即命中）
	if res, err := s.matchFAQ(question); err != nil {
		return nil, err
	} else if res != nil {
		return res, nil
	}

	// 第二步：分类器定类
	category, confidence := s.classify(question)

	// 第三步：LLM 生成回答
	if s.chatModel != nil {
		if res := s.generate(ctx, question, category); res != nil {
			res.Category = category
			return res, nil
		}
	}

	// 第四步：兜底
	return &Result{
		Answer:     FallbackAnswer,
		Source:     model.AnswerSourceFallback,
		Category:   category,
		Confidence: confidence,
	}, nil
}

// matchFAQ 在启用的 FAQ 中找包含用户问题的条目，命中则累加命中数
func (s *Service) matchFAQ(question string) (*Result, error) {
	faqs, err := s.faqRepo.ListActive("")
	if err != nil {
		return nil, fmt.Errorf("failed to list FAQs: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(question))
	for _, faq := range faqs {
		if strings.Contains(strings.ToLower(faq.Question), needle) {
			if err := s.faqRepo.IncrementHitCount(faq.ID); err != nil {
				s.log.Warn("failed to increment FAQ hit count",
					zap.String("faq_id", faq.ID), zap.Error(err))
			}
			return &Result{
				Answer:     faq.Answer,
				Source:     model.AnswerSourceFAQ,
				Category:   faq.Category,
				Confidence: 1.0,
			}, nil
		}
	}
	return nil, nil
}

// classify 用分类器给问题定类，分类器缺失或失败时返回空类别
func (s *Service) classify(question string) (string, float64) {
	if s.classifier == nil {
		return "", 0
	}
	category, confidence, err := s.classifier.Predict(question)
	if err != nil {
		s.log.Warn("classifier prediction failed", zap.Error(err))
		return "", 0
	}
	s.log.Debug("question classified",
		zap.String("category", category),
		zap.Float64("confidence", confidence))
	return category, confidence
}

// llmResponse LLM 约定输出的 JSON 结构
type llmResponse struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

// generate 调用 LLM 生成回答，失败或低于置信度阈值时返回 nil 走兜底
func (s *Service) generate(ctx context.Context, question, category string) *Result {
	background := insuranceContext
	if extra, ok := categoryContext[category]; ok {
		background += extra
	}

	prompt := fmt.Sprintf(`Answer the question using only the context below. Respond with a JSON object of the form {"answer": "...", "confidence": 0.0} where confidence is your estimate between 0 and 1 of how well the context supports the answer.

Context:
%s

Question: %s`, background, question)

	messages := []*schema.Message{
		{Role: schema.System, Content: "You are a health insurance assistant. Always respond with a single JSON object."},
		{Role: schema.User, Content: prompt},
	}

	resp, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		s.log.Warn("chat model generation failed", zap.Error(err))
		return nil
	}

	parsed, err := parseLLMResponse(resp.Content)
	if err != nil {
		s.log.Warn("failed to parse chat model output", zap.Error(err))
		return nil
	}
	if parsed.Confidence <= s.threshold || strings.TrimSpace(parsed.Answer) == "" {
		return nil
	}

	return &Result{
		Answer:     parsed.Answer,
		Source:     model.AnswerSourceModel,
		Confidence: parsed.Confidence,
	}
}

// parseLLMResponse 解析 LLM 输出的 JSON，必要时修复残缺的 JSON
func parseLLMResponse(content string) (*llmResponse, error) {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	// 提取 JSON 对象区域
	if i := strings.IndexByte(s, '{'); i >= 0 {
		if j := strings.LastIndexByte(s, '}'); j >= i {
			s = s[i : j+1]
		}
	}

	if !json.Valid([]byte(s)) {
		repaired, err := jsonrepair.JSONRepair(s)
		if err != nil {
			return nil, fmt.Errorf("unparseable model output: %w", err)
		}
		s = repaired
	}

	var out llmResponse
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("failed to decode model output: %w", err)
	}
	return &out, nil
}
