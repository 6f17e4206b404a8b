package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ashwinyue/insure-ai/internal/config"
	"github.com/ashwinyue/insure-ai/internal/repository"
)

// 输入校验错误
var (
	ErrEmptyInput   = errors.New("input must not be empty")
	ErrInputTooLong = errors.New("input exceeds maximum length")
	ErrUnsafeInput  = errors.New("input contains potentially dangerous characters")
	ErrInvalidToken = errors.New("invalid session token")
)

// 拦截的 SQL 元字符与存储过程前缀
var sqlMetaPatterns = []string{"'", "\"", ";", "--", "/*", "*/", "xp_", "sp_"}

var (
	ssnPattern   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	dobPattern   = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
	phonePattern = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
)

// Manager 安全管理器：密钥轮换、输入校验、脱敏、会话令牌、数据保留
type Manager struct {
	keys     *KeyManager
	queryLog *repository.QueryLogRepository
	log      *zap.Logger

	maxInputLength int
	retentionDays  int
}

// NewManager 创建安全管理器
func NewManager(cfg *config.SecurityConfig, keys *KeyManager, queryLog *repository.QueryLogRepository, log *zap.Logger) *Manager {
	return &Manager{
		keys:           keys,
		queryLog:       queryLog,
		log:            log,
		maxInputLength: cfg.MaxInputLength,
		retentionDays:  cfg.DataRetentionDays,
	}
}

// Cipher 返回当前加密组件
func (m *Manager) Cipher() *Cipher {
	return m.keys.Cipher()
}

// ValidateInput 校验用户输入：非空、长度上限、SQL 元字符
func (m *Manager) ValidateInput(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ErrEmptyInput
	}
	if n := utf8.RuneCountInString(input); n > m.maxInputLength {
		return fmt.Errorf("%w: %d > %d", ErrInputTooLong, n, m.maxInputLength)
	}
	lower := strings.ToLower(input)
	for _, p := range sqlMetaPatterns {
		if strings.Contains(lower, p) {
			return ErrUnsafeInput
		}
	}
	return nil
}

// Anonymize 脱敏：SSN、出生日期、电话号码
// 顺序固定，SSN 先于电话号码以免 XXX-XX-XXXX 被当作电话匹配
func Anonymize(text string) string {
	text = ssnPattern.ReplaceAllString(text, "[SSN_REDACTED]")
	text = dobPattern.ReplaceAllString(text, "[DOB_REDACTED]")
	text = phonePattern.ReplaceAllString(text, "[PHONE_REDACTED]")
	return text
}

// GenerateSessionToken 生成 32 字节随机会话令牌（URL 安全编码，43 字符）
func GenerateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ValidateSessionToken 校验令牌格式：43 字符 URL 安全 base64
func ValidateSessionToken(token string) error {
	if len(token) != 43 {
		return ErrInvalidToken
	}
	if _, err := base64.RawURLEncoding.DecodeString(token); err != nil {
		return ErrInvalidToken
	}
	return nil
}

// CheckDataRetention 删除超过保留期限的查询日志，返回删除条数
func (m *Manager) CheckDataRetention() (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -m.retentionDays)
	deleted, err := m.queryLog.DeleteOlderThan(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired query logs: %w", err)
	}
	if deleted > 0 {
		m.log.Info("purged expired query logs",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
	return deleted, nil
}

// RotateIfNeeded 密钥到期则轮换并重加密全部历史记录
func (m *Manager) RotateIfNeeded() (bool, error) {
	if !m.keys.RotationDue() {
		return false, nil
	}
	if err := m.RotateKey(); err != nil {
		return false, err
	}
	return true, nil
}

// RotateKey 强制轮换密钥并用新密钥重加密所有查询日志
// 单条解密失败只记日志跳过，不中断整批轮换
func (m *Manager) RotateKey() error {
	oldCipher, newCipher, err := m.keys.Rotate()
	if err != nil {
		return fmt.Errorf("failed to rotate key: %w", err)
	}

	logs, err := m.queryLog.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list query logs for re-encryption: %w", err)
	}

	reEncrypted, failed := 0, 0
	for _, ql := range logs {
		query, qErr := oldCipher.Decrypt(ql.Query)
		answer, aErr := oldCipher.Decrypt(ql.Answer)
		if qErr != nil || aErr != nil {
			failed++
			m.log.Warn("skipping undecryptable query log during rotation",
				zap.Uint("id", ql.ID))
			continue
		}

		newQuery, err := newCipher.Encrypt(query)
		if err != nil {
			return fmt.Errorf("failed to re-encrypt query log %d: %w", ql.ID, err)
		}
		newAnswer, err := newCipher.Encrypt(answer)
		if err != nil {
			return fmt.Errorf("failed to re-encrypt query log %d: %w", ql.ID, err)
		}
		if err := m.queryLog.UpdateCiphertext(ql.ID, newQuery, newAnswer); err != nil {
			return fmt.Errorf("failed to store re-encrypted query log %d: %w", ql.ID, err)
		}
		reEncrypted++
	}

	m.log.Info("encryption key rotated",
		zap.String("key_id", m.keys.CurrentKeyID()),
		zap.Int("re_encrypted", reEncrypted),
		zap.Int("skipped", failed))
	return nil
}

// Status 安全状态报告
type Status struct {
	EncryptionEnabled bool      `json:"encryption_enabled"`
	KeyID             string    `json:"key_id"`
	KeyExpiresAt      time.Time `json:"key_expires_at"`
	RotationDue       bool      `json:"rotation_due"`
	RetentionDays     int       `json:"retention_days"`
	MaxInputLength    int       `json:"max_input_length"`
	StoredQueries     int64     `json:"stored_queries"`
}

// GetStatus 返回当前安全状态
func (m *Manager) GetStatus() (*Status, error) {
	count, err := m.queryLog.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count query logs: %w", err)
	}
	return &Status{
		EncryptionEnabled: true,
		KeyID:             m.keys.CurrentKeyID(),
		KeyExpiresAt:      m.keys.ExpiresAt(),
		RotationDue:       m.keys.RotationDue(),
		RetentionDays:     m.retentionDays,
		MaxInputLength:    m.maxInputLength,
		StoredQueries:     count,
	}, nil
}
