package repository

import (
	"github.com/ashwinyue/insure-ai/internal/model"
	"gorm.io/gorm"
)

// AuditRepository 审计日志数据访问
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository 创建审计仓库
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create 追加一条审计记录
func (r *AuditRepository) Create(entry *model.AuditLog) error {
	return r.db.Create(entry).Error
}

// ListRecent 按时间倒序取最近的审计记录
func (r *AuditRepository) ListRecent(limit int) ([]*model.AuditLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var logs []*model.AuditLog
	err := r.db.Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
