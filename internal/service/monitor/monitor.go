// Package monitor 错误追踪与性能指标：记录、模式归并、阈值告警
package monitor

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ashwinyue/insure-ai/internal/model"
	"github.com/ashwinyue/insure-ai/internal/repository"
)

// alertWindow 告警统计的时间窗口
const alertWindow = time.Hour

// alertThresholds 各严重级别在一个窗口内触发告警的错误数
var alertThresholds = map[string]int64{
	model.SeverityCritical: 1,
	model.SeverityHigh:     5,
	model.SeverityMedium:   20,
	model.SeverityLow:      100,
}

// Service 监控服务
type Service struct {
	repo *repository.MonitorRepository
	log  *zap.Logger
}

// NewService 创建监控服务
func NewService(repo *repository.MonitorRepository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ErrorContext 一次错误的请求上下文
type ErrorContext struct {
	UserID      string
	SessionID   string
	IPAddress   string
	RequestData string
}

// LogError 记录一次应用错误并返回错误 ID
// 同类错误按模式哈希归并；窗口内超过阈值时生成告警
func (s *Service) LogError(severity, category, component, errorType, message string, ectx *ErrorContext) (string, error) {
	errorID := uuid.NewString()
	entry := &model.AppError{
		ErrorID:      errorID,
		Severity:     severity,
		Category:     category,
		Component:    component,
		ErrorType:    errorType,
		ErrorMessage: message,
	}
	if ectx != nil {
		entry.UserID = ectx.UserID
		entry.SessionID = ectx.SessionID
		entry.IPAddress = ectx.IPAddress
		entry.RequestData = ectx.RequestData
	}
	if err := s.repo.CreateError(entry); err != nil {
		return "", fmt.Errorf("failed to record error: %w", err)
	}

	pattern := &model.ErrorPattern{
		PatternHash:   patternHash(errorType, component, message),
		ErrorType:     errorType,
		Component:     component,
		Severity:      severity,
		Category:      category,
		SampleMessage: message,
		LastSeen:      time.Now(),
	}
	if err := s.repo.UpsertPattern(pattern); err != nil {
		s.log.Warn("failed to update error pattern", zap.Error(err))
	}

	if err := s.checkAlertThreshold(severity, component); err != nil {
		s.log.Warn("failed to evaluate alert threshold", zap.Error(err))
	}

	s.log.Error("application error recorded",
		zap.String("error_id", errorID),
		zap.String("severity", severity),
		zap.String("category", category),
		zap.String("component", component),
		zap.String("message", message))
	return errorID, nil
}

// patternHash 相似错误的归并键：类型、组件、消息前 100 字符
func patternHash(errorType, component, message string) string {
	if len(message) > 100 {
		message = message[:100]
	}
	sum := md5.Sum([]byte(errorType + ":" + component + ":" + message))
	return hex.EncodeToString(sum[:])
}

// checkAlertThreshold 窗口内同级错误数达到阈值时生成告警
func (s *Service) checkAlertThreshold(severity, component string) error {
	threshold, ok := alertThresholds[severity]
	if !ok {
		return nil
	}

	since := time.Now().Add(-alertWindow)
	count, err := s.repo.CountBySeveritySince(severity, since)
	if err != nil {
		return err
	}
	if count < threshold {
		return nil
	}

	alert := &model.ErrorAlert{
		AlertType:  "threshold_exceeded",
		Severity:   severity,
		Message:    fmt.Sprintf("%d %s errors in the last hour (threshold %d)", count, severity, threshold),
		ErrorCount: int(count),
		Component:  component,
	}
	if err := s.repo.CreateAlert(alert); err != nil {
		return err
	}
	s.log.Warn("error alert raised",
		zap.String("severity", severity),
		zap.Int64("count", count),
		zap.Int64("threshold", threshold))
	return nil
}

// LogMetric 记录一条性能指标
func (s *Service) LogMetric(component, name string, value float64, unit string) error {
	m := &model.PerformanceMetric{
		Component:   component,
		MetricName:  name,
		MetricValue: value,
		MetricUnit:  unit,
	}
	if err := s.repo.CreateMetric(m); err != nil {
		return fmt.Errorf("failed to record metric: %w", err)
	}
	return nil
}

// ResolveError 标记错误已解决
func (s *Service) ResolveError(errorID, notes, by string) error {
	if err := s.repo.ResolveError(errorID, notes, by); err != nil {
		return fmt.Errorf("failed to resolve error: %w", err)
	}
	return nil
}

// AcknowledgeAlert 确认告警
func (s *Service) AcknowledgeAlert(id uint, by string) error {
	if err := s.repo.AcknowledgeAlert(id, by); err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	return nil
}

// ActiveAlerts 未确认的告警列表
func (s *Service) ActiveAlerts() ([]*model.ErrorAlert, error) {
	return s.repo.ListActiveAlerts()
}

// Summary 监控汇总报告
type Summary struct {
	WindowHours  int                        `json:"window_hours"`
	TotalErrors  int                        `json:"total_errors"`
	BySeverity   []repository.GroupCount    `json:"by_severity"`
	ByCategory   []repository.GroupCount    `json:"by_category"`
	ByComponent  []repository.GroupCount    `json:"by_component"`
	TopPatterns  []*model.ErrorPattern      `json:"top_patterns"`
	ActiveAlerts []*model.ErrorAlert        `json:"active_alerts"`
	Metrics      []repository.MetricSummary `json:"metrics"`
	RecentErrors []*model.AppError          `json:"recent_errors"`
	GeneratedAt  time.Time                  `json:"generated_at"`
}

// GetSummary 生成过去 N 小时的监控汇总
func (s *Service) GetSummary(hours int) (*Summary, error) {
	if hours <= 0 {
		hours = 24
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	bySeverity, err := s.repo.CountGroupedSince("severity", since)
	if err != nil {
		return nil, fmt.Errorf("failed to count errors by severity: %w", err)
	}
	byCategory, err := s.repo.CountGroupedSince("category", since)
	if err != nil {
		return nil, fmt.Errorf("failed to count errors by category: %w", err)
	}
	byComponent, err := s.repo.CountGroupedSince("component", since)
	if err != nil {
		return nil, fmt.Errorf("failed to count errors by component: %w", err)
	}

	total := 0
	for _, g := range bySeverity {
		total += int(g.Count)
	}

	patterns, err := s.repo.TopPatterns(10)
	if err != nil {
		return nil, fmt.Errorf("failed to load top patterns: %w", err)
	}
	alerts, err := s.repo.ListActiveAlerts()
	if err != nil {
		return nil, fmt.Errorf("failed to load active alerts: %w", err)
	}
	metrics, err := s.repo.SummarizeMetricsSince("", since)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize metrics: %w", err)
	}
	recent, err := s.repo.ListErrorsSince(since, 20)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent errors: %w", err)
	}

	return &Summary{
		WindowHours:  hours,
		TotalErrors:  total,
		BySeverity:   bySeverity,
		ByCategory:   byCategory,
		ByComponent:  byComponent,
		TopPatterns:  patterns,
		ActiveAlerts: alerts,
		Metrics:      metrics,
		RecentErrors: recent,
		GeneratedAt:  time.Now(),
	}, nil
}
