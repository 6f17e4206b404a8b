package repository

import "gorm.io/gorm"

// Repositories 仓库集合，用于统一管理所有仓库
type Repositories struct {
	DB       *gorm.DB // 直接访问数据库
	FAQ      *FAQRepository
	QueryLog *QueryLogRepository
	Audit    *AuditRepository
	Consent  *ConsentRepository
	Monitor  *MonitorRepository
}

// NewRepositories 创建所有仓库
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:       db,
		FAQ:      NewFAQRepository(db),
		QueryLog: NewQueryLogRepository(db),
		Audit:    NewAuditRepository(db),
		Consent:  NewConsentRepository(db),
		Monitor:  NewMonitorRepository(db),
	}
}
