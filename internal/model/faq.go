package model

import "time"

// FAQ 常见问题（训练 CSV 的一行对应一条记录）
type FAQ struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Question  string    `gorm:"type:text;uniqueIndex;not null"`
	Answer    string    `gorm:"type:text;not null"`
	Category  string    `gorm:"size:100;index"`
	Priority  int       `gorm:"default:0"`
	HitCount  int       `gorm:"default:0"`
	IsActive  bool      `gorm:"index;default:true"`
	Source    string    `gorm:"size:100"` // csv, manual
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (FAQ) TableName() string {
	return "faqs"
}
