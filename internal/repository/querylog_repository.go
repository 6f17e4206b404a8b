package repository

import (
	"time"

	"github.com/ashwinyue/insure-ai/internal/model"
	"gorm.io/gorm"
)

// QueryLogRepository 查询日志数据访问
type QueryLogRepository struct {
	db *gorm.DB
}

// NewQueryLogRepository 创建查询日志仓库
func NewQueryLogRepository(db *gorm.DB) *QueryLogRepository {
	return &QueryLogRepository{db: db}
}

// Create 追加一条查询日志
func (r *QueryLogRepository) Create(entry *model.QueryLog) error {
	return r.db.Create(entry).Error
}

// ListAll 按时间倒序取全部日志
func (r *QueryLogRepository) ListAll() ([]*model.QueryLog, error) {
	var logs []*model.QueryLog
	err := r.db.Order("created_at DESC").Find(&logs).Error
	return logs, err
}

// ListByUser 取某用户的全部日志
func (r *QueryLogRepository) ListByUser(userID string) ([]*model.QueryLog, error) {
	var logs []*model.QueryLog
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&logs).Error
	return logs, err
}

// UpdateCiphertext 改写单行密文（仅密钥轮换和匿名化使用）
func (r *QueryLogRepository) UpdateCiphertext(id uint, query, answer string) error {
	return r.db.Model(&model.QueryLog{}).Where("id = ?", id).
		Updates(map[string]interface{}{"query": query, "answer": answer}).Error
}

// AnonymizeUser 将某用户的行标记为匿名
func (r *QueryLogRepository) AnonymizeUser(id uint, query, answer string) error {
	return r.db.Model(&model.QueryLog{}).Where("id = ?", id).
		Updates(map[string]interface{}{"query": query, "answer": answer, "user_id": "ANONYMIZED"}).Error
}

// DeleteOlderThan 删除早于截止时间的日志，返回删除的行数
func (r *QueryLogRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&model.QueryLog{})
	return result.RowsAffected, result.Error
}

// DeleteByUser 删除某用户的全部日志，返回删除的行数
func (r *QueryLogRepository) DeleteByUser(userID string) (int64, error) {
	result := r.db.Where("user_id = ?", userID).Delete(&model.QueryLog{})
	return result.RowsAffected, result.Error
}

// Count 统计日志总数
func (r *QueryLogRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.QueryLog{}).Count(&count).Error
	return count, err
}

// CountOlderThan 统计早于截止时间的日志数
func (r *QueryLogRepository) CountOlderThan(cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.QueryLog{}).Where("created_at < ?", cutoff).Count(&count).Error
	return count, err
}
