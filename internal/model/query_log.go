package model

import "time"

// 回答来源
const (
	AnswerSourceFAQ      = "faq"      // 命中 FAQ 精确匹配
	AnswerSourceModel    = "model"    // 大模型生成
	AnswerSourceFallback = "fallback" // 固定兜底回答
)

// QueryLog 查询日志（query/answer 字段为 Fernet 密文，只追加不更新；
// 仅密钥轮换重加密和匿名化会改写既有行）
type QueryLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	Query      string    `gorm:"type:text;not null"` // 加密后的问题
	Answer     string    `gorm:"type:text"`          // 加密后的回答
	Category   string    `gorm:"size:100;index"`
	Confidence float64   `gorm:"default:0"`
	Source     string    `gorm:"size:20"`
	UserID     string    `gorm:"size:64;index"`
	SessionID  string    `gorm:"size:64;index"`
	IPAddress  string    `gorm:"size:45"`
	UserAgent  string    `gorm:"size:255"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
}

func (QueryLog) TableName() string {
	return "query_logs"
}
