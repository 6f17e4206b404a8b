package model

import "time"

// UserConsent 用户数据处理同意记录
type UserConsent struct {
	ID                  uint       `gorm:"primaryKey;autoIncrement"`
	UserID              string     `gorm:"size:64;index;not null"`
	SessionID           string     `gorm:"size:64"`
	ConsentType         string     `gorm:"size:50;index;not null"` // data_processing, analytics
	ConsentGiven        bool       `gorm:"not null"`
	ConsentVersion      string     `gorm:"size:20"`
	Purposes            string     `gorm:"type:text"` // JSON 数组
	RetentionDays       int        `gorm:"default:0"`
	IPAddress           string     `gorm:"size:45"`
	UserAgent           string     `gorm:"size:255"`
	WithdrawnAt         *time.Time `gorm:"index"`
	WithdrawalReason    string     `gorm:"size:255"`
	CreatedAt           time.Time  `gorm:"autoCreateTime;index"`
}

func (UserConsent) TableName() string {
	return "user_consents"
}

// DataDeletionLog 数据删除日志（删除操作本身必须留痕）
type DataDeletionLog struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	UserID         string    `gorm:"size:64;index;not null"`
	DeletionType   string    `gorm:"size:20"` // full, anonymize
	DataCategories string    `gorm:"type:text"` // JSON 数组
	Reason         string    `gorm:"size:255"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (DataDeletionLog) TableName() string {
	return "data_deletion_logs"
}
