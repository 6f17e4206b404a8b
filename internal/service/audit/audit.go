// Package audit 提供审计日志：zap JSON 文件 + 数据库双写
package audit

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ashwinyue/insure-ai/internal/model"
	"github.com/ashwinyue/insure-ai/internal/repository"
)

// Logger 审计日志记录器
type Logger struct {
	log  *zap.Logger
	repo *repository.AuditRepository
}

// NewLogger 创建审计日志记录器
// 文件日志写 JSON 行，数据库行供审计查询接口使用
func NewLogger(logPath string, repo *repository.AuditRepository) (*Logger, error) {
	if dir := filepath.Dir(logPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log dir: %w", err)
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{logPath}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build audit logger: %w", err)
	}

	return &Logger{log: log, repo: repo}, nil
}

// LogAccess 记录一次访问：成功记 info，失败记 warn
// 数据库写入失败不阻塞请求，只落文件日志
func (l *Logger) LogAccess(userID, action, resource string, success bool, details ...string) {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}

	fields := []zap.Field{
		zap.String("user_id", userID),
		zap.String("action", action),
		zap.String("resource", resource),
		zap.Bool("success", success),
	}
	if detail != "" {
		fields = append(fields, zap.String("details", detail))
	}

	if success {
		l.log.Info("access granted", fields...)
	} else {
		l.log.Warn("access denied", fields...)
	}

	if l.repo != nil {
		entry := &model.AuditLog{
			UserID:   userID,
			Action:   action,
			Resource: resource,
			Success:  success,
			Details:  detail,
		}
		if err := l.repo.Create(entry); err != nil {
			l.log.Error("failed to persist audit entry", zap.Error(err))
		}
	}
}

// LogAccessFrom 带客户端地址的访问记录
func (l *Logger) LogAccessFrom(userID, action, resource, ip string, success bool) {
	fields := []zap.Field{
		zap.String("user_id", userID),
		zap.String("action", action),
		zap.String("resource", resource),
		zap.String("ip_address", ip),
		zap.Bool("success", success),
	}
	if success {
		l.log.Info("access granted", fields...)
	} else {
		l.log.Warn("access denied", fields...)
	}

	if l.repo != nil {
		entry := &model.AuditLog{
			UserID:    userID,
			Action:    action,
			Resource:  resource,
			Success:   success,
			IPAddress: ip,
		}
		if err := l.repo.Create(entry); err != nil {
			l.log.Error("failed to persist audit entry", zap.Error(err))
		}
	}
}

// Recent 查询最近的审计记录
func (l *Logger) Recent(limit int) ([]*model.AuditLog, error) {
	if l.repo == nil {
		return nil, nil
	}
	return l.repo.ListRecent(limit)
}

// Sync 刷出缓冲的日志
func (l *Logger) Sync() error {
	return l.log.Sync()
}

// Zap 暴露底层 zap.Logger 给请求日志中间件复用
func (l *Logger) Zap() *zap.Logger {
	return l.log
}
