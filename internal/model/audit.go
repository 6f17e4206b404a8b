package model

import "time"

// AuditLog 审计日志
type AuditLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"size:64;index"`
	Action    string    `gorm:"size:100;index"`
	Resource  string    `gorm:"size:100"`
	Success   bool      `gorm:"index"`
	IPAddress string    `gorm:"size:45"`
	Details   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
