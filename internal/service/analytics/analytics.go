// Package analytics 汇总查询日志：解密、脱敏、分类、统计与图表
package analytics

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ashwinyue/insure-ai/internal/repository"
	"github.com/ashwinyue/insure-ai/internal/service/classifier"
	"github.com/ashwinyue/insure-ai/internal/service/security"
)

// DecryptionErrorText 无法解密的记录在统计中的占位文本
const DecryptionErrorText = "[DECRYPTION_ERROR]"

// DashboardFileName 仪表盘图片文件名
const DashboardFileName = "analytics_dashboard.png"

// record 解密并脱敏后的一条查询记录
type record struct {
	Query     string
	Answer    string
	Category  string
	Timestamp time.Time
	UserID    string
}

// RecentQuery 最近查询摘要
type RecentQuery struct {
	Query     string `json:"query"`
	Answer    string `json:"answer"`
	Timestamp string `json:"timestamp"`
	Category  string `json:"category"`
}

// DateRange 数据时间范围
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Insights 聚合统计结果
type Insights struct {
	TotalQueries       int            `json:"total_queries"`
	UniqueUsers        int            `json:"unique_users"`
	DecryptionFailures int            `json:"decryption_failures"`
	DateRange          DateRange      `json:"date_range"`
	Categories         map[string]int `json:"categories"`
	RecentQueries      []RecentQuery  `json:"recent_queries"`
	HourlyDistribution map[string]int `json:"hourly_distribution"`
	DailyDistribution  map[string]int `json:"daily_distribution"`
}

// Service 分析服务
// 分类器缺失时退化为关键词分类，图表渲染失败不影响统计结果
type Service struct {
	queryLog    *repository.QueryLogRepository
	secMgr      *security.Manager
	classifier  *classifier.Classifier
	staticDir   string
	recentLimit int
	log         *zap.Logger
}

// NewService 创建分析服务
func NewService(queryLog *repository.QueryLogRepository, secMgr *security.Manager, clf *classifier.Classifier, staticDir string, recentLimit int, log *zap.Logger) *Service {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	return &Service{
		queryLog:    queryLog,
		secMgr:      secMgr,
		classifier:  clf,
		staticDir:   staticDir,
		recentLimit: recentLimit,
		log:         log,
	}
}

// GenerateInsights 生成完整的统计结果并刷新仪表盘图片
func (s *Service) GenerateInsights() (*Insights, error) {
	records, failures, err := s.loadRecords()
	if err != nil {
		return nil, err
	}

	insights := s.aggregate(records)
	insights.DecryptionFailures = failures

	// 图表失败只告警，统计结果照常返回
	if len(records) > 0 {
		path := filepath.Join(s.staticDir, DashboardFileName)
		if err := renderDashboard(records, path); err != nil {
			s.log.Warn("failed to render analytics dashboard", zap.Error(err))
		}
	}

	return insights, nil
}

// loadRecords 加载全部查询日志：解密、脱敏、分类
// 单条解密失败计入失败数并以占位文本参与统计，不中断整批
func (s *Service) loadRecords() ([]record, int, error) {
	logs, err := s.queryLog.ListAll()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load query logs: %w", err)
	}

	cipher := s.secMgr.Cipher()
	if cipher == nil {
		return nil, 0, security.ErrNoActiveKey
	}
	records := make([]record, 0, len(logs))
	failures := 0
	for _, ql := range logs {
		rec := record{Timestamp: ql.CreatedAt, UserID: ql.UserID}

		query, qErr := cipher.Decrypt(ql.Query)
		answer, aErr := cipher.Decrypt(ql.Answer)
		if qErr != nil || aErr != nil {
			failures++
			rec.Query = DecryptionErrorText
			rec.Answer = DecryptionErrorText
		} else {
			rec.Query = security.Anonymize(query)
			rec.Answer = security.Anonymize(answer)
		}

		rec.Category = s.categorize(rec.Query)
		records = append(records, rec)
	}
	return records, failures, nil
}

// categorize 给查询定类：优先分类器，失败时退化为关键词匹配
func (s *Service) categorize(query string) string {
	if query == DecryptionErrorText {
		return "Unknown"
	}
	if s.classifier != nil {
		if category, _, err := s.classifier.Predict(query); err == nil {
			return category
		}
	}
	return simpleCategorize(query)
}

var (
	planTypeKeywords   = []string{"hmo", "ppo", "epo", "plan", "deductible", "copay", "premium"}
	enrollmentKeywords = []string{"enroll", "sign up", "deadline", "open enrollment"}
)

// simpleCategorize 关键词分类兜底
func simpleCategorize(query string) string {
	lower := strings.ToLower(query)
	for _, kw := range planTypeKeywords {
		if strings.Contains(lower, kw) {
			return "Plan Type"
		}
	}
	for _, kw := range enrollmentKeywords {
		if strings.Contains(lower, kw) {
			return "Enrollment"
		}
	}
	return "Other"
}

// aggregate 把记录聚合成统计结果
func (s *Service) aggregate(records []record) *Insights {
	insights := &Insights{
		Categories:         make(map[string]int),
		RecentQueries:      []RecentQuery{},
		HourlyDistribution: make(map[string]int),
		DailyDistribution:  make(map[string]int),
		DateRange:          DateRange{Start: "No data", End: "No data"},
	}
	if len(records) == 0 {
		return insights
	}

	// 按时间倒序，最近的排前面
	sorted := make([]record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	users := make(map[string]struct{})
	minTS, maxTS := sorted[0].Timestamp, sorted[0].Timestamp
	for _, rec := range sorted {
		insights.Categories[rec.Category]++
		insights.HourlyDistribution[strconv.Itoa(rec.Timestamp.Hour())]++
		insights.DailyDistribution[rec.Timestamp.Format("2006-01-02")]++
		if rec.UserID != "" {
			users[rec.UserID] = struct{}{}
		}
		if rec.Timestamp.Before(minTS) {
			minTS = rec.Timestamp
		}
		if rec.Timestamp.After(maxTS) {
			maxTS = rec.Timestamp
		}
	}

	limit := s.recentLimit
	if limit > len(sorted) {
		limit = len(sorted)
	}
	for _, rec := range sorted[:limit] {
		insights.RecentQueries = append(insights.RecentQueries, RecentQuery{
			Query:     rec.Query,
			Answer:    rec.Answer,
			Timestamp: rec.Timestamp.Format("2006-01-02 15:04:05"),
			Category:  rec.Category,
		})
	}

	insights.TotalQueries = len(records)
	insights.UniqueUsers = len(users)
	insights.DateRange = DateRange{
		Start: minTS.Format("2006-01-02 15:04"),
		End:   maxTS.Format("2006-01-02 15:04"),
	}
	return insights
}
