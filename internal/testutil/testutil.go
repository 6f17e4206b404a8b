// Package testutil 提供测试辅助工具
package testutil

import (
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ashwinyue/insure-ai/internal/model"
)

// NewTestDB 创建内存 SQLite 数据库并迁移全部模型
// 每个测试用例得到独立的数据库实例
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(model.AllModels...); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// NewTestLogger 返回测试用的静默 logger
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}
