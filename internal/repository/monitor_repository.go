package repository

import (
	"errors"
	"time"

	"github.com/ashwinyue/insure-ai/internal/model"
	"gorm.io/gorm"
)

// MonitorRepository 错误监控数据访问
type MonitorRepository struct {
	db *gorm.DB
}

// NewMonitorRepository 创建监控仓库
func NewMonitorRepository(db *gorm.DB) *MonitorRepository {
	return &MonitorRepository{db: db}
}

// CreateError 写入一条错误记录
func (r *MonitorRepository) CreateError(e *model.AppError) error {
	return r.db.Create(e).Error
}

// UpsertPattern 按哈希聚合错误模式：已存在则计数+1，否则新建
func (r *MonitorRepository) UpsertPattern(p *model.ErrorPattern) error {
	var existing model.ErrorPattern
	err := r.db.Where("pattern_hash = ?", p.PatternHash).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p.LastSeen = time.Now()
		return r.db.Create(p).Error
	}
	if err != nil {
		return err
	}
	return r.db.Model(&model.ErrorPattern{}).Where("pattern_hash = ?", p.PatternHash).
		Updates(map[string]interface{}{
			"occurrence_count": gorm.Expr("occurrence_count + ?", 1),
			"last_seen":        time.Now(),
		}).Error
}

// CountBySeveritySince 统计某严重级别自某时刻以来的错误数
func (r *MonitorRepository) CountBySeveritySince(severity string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.AppError{}).
		Where("severity = ? AND created_at > ?", severity, since).Count(&count).Error
	return count, err
}

// CreateAlert 写入一条告警
func (r *MonitorRepository) CreateAlert(a *model.ErrorAlert) error {
	return r.db.Create(a).Error
}

// ListActiveAlerts 取未确认的告警
func (r *MonitorRepository) ListActiveAlerts() ([]*model.ErrorAlert, error) {
	var alerts []*model.ErrorAlert
	err := r.db.Where("acknowledged = ?", false).Order("created_at DESC").Find(&alerts).Error
	return alerts, err
}

// AcknowledgeAlert 确认告警
func (r *MonitorRepository) AcknowledgeAlert(id uint, by string) error {
	now := time.Now()
	return r.db.Model(&model.ErrorAlert{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"acknowledged":    true,
			"acknowledged_at": &now,
			"acknowledged_by": by,
		}).Error
}

// ResolveError 标记错误已解决
func (r *MonitorRepository) ResolveError(errorID, notes, by string) error {
	now := time.Now()
	return r.db.Model(&model.AppError{}).Where("error_id = ?", errorID).
		Updates(map[string]interface{}{
			"resolved":         true,
			"resolution_notes": notes,
			"resolved_at":      &now,
			"resolved_by":      by,
		}).Error
}

// CreateMetric 写入一条性能指标
func (r *MonitorRepository) CreateMetric(m *model.PerformanceMetric) error {
	return r.db.Create(m).Error
}

// ListErrorsSince 取自某时刻以来的错误记录
func (r *MonitorRepository) ListErrorsSince(since time.Time, limit int) ([]*model.AppError, error) {
	if limit <= 0 {
		limit = 50
	}
	var errs []*model.AppError
	err := r.db.Where("created_at > ?", since).
		Order("created_at DESC").Limit(limit).Find(&errs).Error
	return errs, err
}

// GroupCount 分组计数结果
type GroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// CountGroupedSince 按指定列分组统计自某时刻以来的错误数
// column 只接受代码内常量（severity/category/component），不接受用户输入
func (r *MonitorRepository) CountGroupedSince(column string, since time.Time) ([]GroupCount, error) {
	var rows []GroupCount
	err := r.db.Model(&model.AppError{}).
		Select(column+" AS key, COUNT(*) AS count").
		Where("created_at > ?", since).
		Group(column).
		Scan(&rows).Error
	return rows, err
}

// TopPatterns 取出现次数最多的错误模式
func (r *MonitorRepository) TopPatterns(limit int) ([]*model.ErrorPattern, error) {
	if limit <= 0 {
		limit = 10
	}
	var patterns []*model.ErrorPattern
	err := r.db.Order("occurrence_count DESC").Limit(limit).Find(&patterns).Error
	return patterns, err
}

// MetricSummary 性能指标汇总
type MetricSummary struct {
	Component   string  `json:"component"`
	MetricName  string  `json:"metric_name"`
	AvgValue    float64 `json:"avg_value"`
	MinValue    float64 `json:"min_value"`
	MaxValue    float64 `json:"max_value"`
	SampleCount int64   `json:"sample_count"`
}

// SummarizeMetricsSince 汇总自某时刻以来的性能指标
func (r *MonitorRepository) SummarizeMetricsSince(component string, since time.Time) ([]MetricSummary, error) {
	var rows []MetricSummary
	query := r.db.Model(&model.PerformanceMetric{}).
		Select("component, metric_name, AVG(metric_value) AS avg_value, MIN(metric_value) AS min_value, MAX(metric_value) AS max_value, COUNT(*) AS sample_count").
		Where("created_at > ?", since)
	if component != "" {
		query = query.Where("component = ?", component)
	}
	err := query.Group("component, metric_name").
		Order("component, metric_name").
		Scan(&rows).Error
	return rows, err
}
