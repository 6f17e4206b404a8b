package repository

import (
	"time"

	"github.com/ashwinyue/insure-ai/internal/model"
	"gorm.io/gorm"
)

// ConsentRepository 同意记录数据访问
type ConsentRepository struct {
	db *gorm.DB
}

// NewConsentRepository 创建同意记录仓库
func NewConsentRepository(db *gorm.DB) *ConsentRepository {
	return &ConsentRepository{db: db}
}

// Create 记录一次同意决定
func (r *ConsentRepository) Create(consent *model.UserConsent) error {
	return r.db.Create(consent).Error
}

// LatestByUser 取某用户某类同意的最新记录
func (r *ConsentRepository) LatestByUser(userID, consentType string) (*model.UserConsent, error) {
	var consent model.UserConsent
	err := r.db.Where("user_id = ? AND consent_type = ?", userID, consentType).
		Order("created_at DESC").First(&consent).Error
	if err != nil {
		return nil, err
	}
	return &consent, nil
}

// ListByUser 取某用户的全部同意记录
func (r *ConsentRepository) ListByUser(userID string) ([]*model.UserConsent, error) {
	var consents []*model.UserConsent
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&consents).Error
	return consents, err
}

// Withdraw 撤回某用户某类尚未撤回的同意
func (r *ConsentRepository) Withdraw(userID, consentType, reason string) error {
	now := time.Now()
	return r.db.Model(&model.UserConsent{}).
		Where("user_id = ? AND consent_type = ? AND withdrawn_at IS NULL", userID, consentType).
		Updates(map[string]interface{}{"withdrawn_at": &now, "withdrawal_reason": reason}).Error
}

// WithdrawAll 撤回某用户全部尚未撤回的同意（数据删除流程使用）
func (r *ConsentRepository) WithdrawAll(userID, reason string) error {
	now := time.Now()
	return r.db.Model(&model.UserConsent{}).
		Where("user_id = ? AND withdrawn_at IS NULL", userID).
		Updates(map[string]interface{}{"withdrawn_at": &now, "withdrawal_reason": reason}).Error
}

// CreateDeletionLog 记录一次数据删除
func (r *ConsentRepository) CreateDeletionLog(entry *model.DataDeletionLog) error {
	return r.db.Create(entry).Error
}

// ConsentStats 同意记录统计
type ConsentStats struct {
	Total     int64 `json:"total"`
	Given     int64 `json:"given"`
	Withdrawn int64 `json:"withdrawn"`
}

// Stats 统计同意情况
func (r *ConsentRepository) Stats() (*ConsentStats, error) {
	var stats ConsentStats
	if err := r.db.Model(&model.UserConsent{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.UserConsent{}).Where("consent_given = ?", true).Count(&stats.Given).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.UserConsent{}).Where("withdrawn_at IS NOT NULL").Count(&stats.Withdrawn).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// CountDeletions 统计删除日志数
func (r *ConsentRepository) CountDeletions() (int64, error) {
	var count int64
	err := r.db.Model(&model.DataDeletionLog{}).Count(&count).Error
	return count, err
}
