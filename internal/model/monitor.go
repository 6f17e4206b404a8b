package model

import "time"

// 错误严重级别
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
)

// 错误分类
const (
	ErrCategorySecurity      = "security"
	ErrCategoryPerformance   = "performance"
	ErrCategoryData          = "data"
	ErrCategoryNetwork       = "network"
	ErrCategoryUserInput     = "user_input"
	ErrCategorySystem        = "system"
	ErrCategoryExternal      = "external"
	ErrCategoryBusinessLogic = "business_logic"
	ErrCategoryUnknown       = "unknown"
)

// AppError 应用错误记录
type AppError struct {
	ID              uint       `gorm:"primaryKey;autoIncrement"`
	ErrorID         string     `gorm:"size:36;uniqueIndex;not null"`
	Severity        string     `gorm:"size:20;index;not null"`
	Category        string     `gorm:"size:30;index;not null"`
	Component       string     `gorm:"size:50;index;not null"`
	ErrorType       string     `gorm:"size:100"`
	ErrorMessage    string     `gorm:"type:text;not null"`
	UserID          string     `gorm:"size:64"`
	SessionID       string     `gorm:"size:64"`
	IPAddress       string     `gorm:"size:45"`
	RequestData     string     `gorm:"type:text"`
	Resolved        bool       `gorm:"index;default:false"`
	ResolutionNotes string     `gorm:"type:text"`
	ResolvedAt      *time.Time
	ResolvedBy      string     `gorm:"size:64"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index"`
}

func (AppError) TableName() string {
	return "app_errors"
}

// ErrorPattern 错误模式聚合（相似错误按哈希归并）
type ErrorPattern struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	PatternHash     string    `gorm:"size:32;uniqueIndex;not null"`
	ErrorType       string    `gorm:"size:100"`
	Component       string    `gorm:"size:50"`
	Severity        string    `gorm:"size:20"`
	Category        string    `gorm:"size:30"`
	OccurrenceCount int       `gorm:"default:1"`
	SampleMessage   string    `gorm:"type:text"`
	FirstSeen       time.Time `gorm:"autoCreateTime"`
	LastSeen        time.Time `gorm:"index"`
}

func (ErrorPattern) TableName() string {
	return "error_patterns"
}

// ErrorAlert 错误告警
type ErrorAlert struct {
	ID             uint       `gorm:"primaryKey;autoIncrement"`
	AlertType      string     `gorm:"size:50;not null"`
	Severity       string     `gorm:"size:20;index"`
	Message        string     `gorm:"type:text"`
	ErrorCount     int        `gorm:"default:0"`
	Component      string     `gorm:"size:50"`
	Acknowledged   bool       `gorm:"index;default:false"`
	AcknowledgedAt *time.Time
	AcknowledgedBy string     `gorm:"size:64"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;index"`
}

func (ErrorAlert) TableName() string {
	return "error_alerts"
}

// PerformanceMetric 性能指标
type PerformanceMetric struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	Component   string    `gorm:"size:50;index;not null"`
	MetricName  string    `gorm:"size:50;index;not null"`
	MetricValue float64   `gorm:"not null"`
	MetricUnit  string    `gorm:"size:20"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
}

func (PerformanceMetric) TableName() string {
	return "performance_metrics"
}
