// Package privacy 实现合规能力：同意管理、数据导出、删除与匿名化
package privacy

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ashwinyue/insure-ai/internal/model"
	"github.com/ashwinyue/insure-ai/internal/repository"
	"github.com/ashwinyue/insure-ai/internal/service/audit"
	"github.com/ashwinyue/insure-ai/internal/service/security"
)

// PolicyVersion 当前隐私政策版本
const PolicyVersion = "1.0"

// 默认的数据处理目的
var defaultPurposes = []string{"service_provision", "analytics", "security"}

// Service 合规服务
type Service struct {
	consents      *repository.ConsentRepository
	queryLog      *repository.QueryLogRepository
	secMgr        *security.Manager
	audit         *audit.Logger
	retentionDays int
	log           *zap.Logger
}

// NewService 创建合规服务
func NewService(consents *repository.ConsentRepository, queryLog *repository.QueryLogRepository, secMgr *security.Manager, auditLog *audit.Logger, retentionDays int, log *zap.Logger) *Service {
	return &Service{
		consents:      consents,
		queryLog:      queryLog,
		secMgr:        secMgr,
		audit:         auditLog,
		retentionDays: retentionDays,
		log:           log,
	}
}

// Policy 隐私政策内容
type Policy struct {
	Version          string            `json:"version"`
	LastUpdated      string            `json:"last_updated"`
	DataCollection   map[string]any    `json:"data_collection"`
	UserRights       map[string]string `json:"user_rights"`
	DataSharing      map[string]string `json:"data_sharing"`
	SecurityMeasures map[string]string `json:"security_measures"`
	ContactInfo      map[string]string `json:"contact_info"`
}

// GetPolicy 返回当前隐私政策
func (s *Service) GetPolicy() *Policy {
	return &Policy{
		Version:     PolicyVersion,
		LastUpdated: "2025-09-15",
		DataCollection: map[string]any{
			"types":            []string{"chat_queries", "responses", "session_data", "analytics_data"},
			"purposes":         []string{"service_provision", "analytics", "security", "compliance"},
			"legal_basis":      "legitimate_interest",
			"retention_period": "7_years",
		},
		UserRights: map[string]string{
			"access":        "Request copy of your data",
			"rectification": "Correct inaccurate data",
			"erasure":       "Request data deletion",
			"portability":   "Export your data",
			"objection":     "Object to data processing",
			"restriction":   "Limit data processing",
		},
		DataSharing: map[string]string{
			"third_parties":           "None - data stays local",
			"international_transfers": "None",
			"law_enforcement":         "Only with valid legal process",
		},
		SecurityMeasures: map[string]string{
			"encryption":        "AES-128-CBC with HMAC (Fernet) at rest",
			"access_controls":   "Audit logging on all data access",
			"data_minimization": "Only collect necessary data",
			"anonymization":     "Data anonymized for analytics",
		},
		ContactInfo: map[string]string{
			"dpo_email":     "privacy@insure-ai.local",
			"response_time": "30_days",
		},
	}
}

// ConsentRequest 发给用户的同意征询内容
type ConsentRequest struct {
	ConsentID      string            `json:"consent_id"`
	UserID         string            `json:"user_id"`
	SessionID      string            `json:"session_id"`
	ConsentType    string            `json:"consent_type"`
	Policy         *Policy           `json:"privacy_policy"`
	DataCollection map[string]string `json:"data_collection"`
	UserRights     []string          `json:"user_rights"`
	Timestamp      time.Time         `json:"timestamp"`
}

// RequestConsent 生成同意征询内容
func (s *Service) RequestConsent(userID, sessionID, consentType string) *ConsentRequest {
	s.audit.LogAccess(userID, "consent_request", "privacy", true)
	return &ConsentRequest{
		ConsentID:   uuid.NewString(),
		UserID:      userID,
		SessionID:   sessionID,
		ConsentType: consentType,
		Policy:      s.GetPolicy(),
		DataCollection: map[string]string{
			"what":     "Chat queries, responses, and usage analytics",
			"why":      "To provide insurance information and improve service",
			"how_long": "7 years",
			"who":      "Only our organization - no third parties",
		},
		UserRights: []string{
			"Access your data",
			"Correct errors",
			"Delete your data",
			"Export your data",
			"Withdraw consent anytime",
		},
		Timestamp: time.Now(),
	}
}

// RecordConsent 记录用户的同意决定
func (s *Service) RecordConsent(userID, sessionID, consentType string, given bool, ip, userAgent string, purposes []string) error {
	if len(purposes) == 0 {
		purposes = defaultPurposes
	}
	purposesJSON, err := json.Marshal(purposes)
	if err != nil {
		return fmt.Errorf("failed to encode purposes: %w", err)
	}

	consent := &model.UserConsent{
		UserID:         userID,
		SessionID:      sessionID,
		ConsentType:    consentType,
		ConsentGiven:   given,
		ConsentVersion: PolicyVersion,
		Purposes:       string(purposesJSON),
		RetentionDays:  s.retentionDays,
		IPAddress:      ip,
		UserAgent:      userAgent,
	}
	if err := s.consents.Create(consent); err != nil {
		s.audit.LogAccess(userID, "consent_error", "privacy", false)
		return fmt.Errorf("failed to record consent: %w", err)
	}

	action := "consent_granted"
	if !given {
		action = "consent_denied"
	}
	s.audit.LogAccess(userID, action, "privacy", true)
	return nil
}

// CheckConsent 检查用户是否有有效的同意记录
// 撤回过或超过保留期限的同意视为无效
func (s *Service) CheckConsent(userID, consentType string) bool {
	consent, err := s.consents.LatestByUser(userID, consentType)
	if err != nil || consent == nil {
		return false
	}
	if consent.WithdrawnAt != nil {
		return false
	}
	if time.Since(consent.CreatedAt) > time.Duration(s.retentionDays)*24*time.Hour {
		return false
	}
	return consent.ConsentGiven
}

// WithdrawConsent 撤回同意
func (s *Service) WithdrawConsent(userID, consentType, reason string) error {
	if reason == "" {
		reason = "User request"
	}
	if err := s.consents.Withdraw(userID, consentType, reason); err != nil {
		s.audit.LogAccess(userID, "consent_withdrawal_error", "privacy", false)
		return fmt.Errorf("failed to withdraw consent: %w", err)
	}
	s.audit.LogAccess(userID, "consent_withdrawn", "privacy", true)
	return nil
}

// ChatRecord 导出的单条问答记录
type ChatRecord struct {
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// ConsentRecord 导出的单条同意记录
type ConsentRecord struct {
	ConsentType  string     `json:"consent_type"`
	ConsentGiven bool       `json:"consent_given"`
	CreatedAt    time.Time  `json:"consent_timestamp"`
	WithdrawnAt  *time.Time `json:"withdrawal_timestamp,omitempty"`
	Purposes     []string   `json:"purposes"`
}

// Export 用户数据导出包
type Export struct {
	UserID         string            `json:"user_id"`
	ExportedAt     time.Time         `json:"export_timestamp"`
	ChatRecords    []ChatRecord      `json:"chat_interactions"`
	ConsentRecords []ConsentRecord   `json:"consent_records"`
	Policy         *Policy           `json:"privacy_policy"`
	DataRights     map[string]string `json:"data_rights"`
}

// ExportUserData 导出用户的全部数据（数据可携权）
// 解密失败的行以 [ENCRYPTED] 占位导出
func (s *Service) ExportUserData(userID string) (*Export, error) {
	logs, err := s.queryLog.ListByUser(userID)
	if err != nil {
		s.audit.LogAccess(userID, "data_export_error", "privacy", false)
		return nil, fmt.Errorf("failed to load user query logs: %w", err)
	}

	cipher := s.secMgr.Cipher()
	if cipher == nil {
		return nil, security.ErrNoActiveKey
	}
	chats := make([]ChatRecord, 0, len(logs))
	for _, ql := range logs {
		rec := ChatRecord{Category: ql.Category, Timestamp: ql.CreatedAt}
		query, qErr := cipher.Decrypt(ql.Query)
		answer, aErr := cipher.Decrypt(ql.Answer)
		if qErr != nil || aErr != nil {
			rec.Query = "[ENCRYPTED]"
			rec.Answer = "[ENCRYPTED]"
		} else {
			rec.Query = query
			rec.Answer = answer
		}
		chats = append(chats, rec)
	}

	consents, err := s.consents.ListByUser(userID)
	if err != nil {
		s.audit.LogAccess(userID, "data_export_error", "privacy", false)
		return nil, fmt.Errorf("failed to load user consents: %w", err)
	}
	consentRecords := make([]ConsentRecord, 0, len(consents))
	for _, c := range consents {
		var purposes []string
		if c.Purposes != "" {
			if err := json.Unmarshal([]byte(c.Purposes), &purposes); err != nil {
				purposes = nil
			}
		}
		consentRecords = append(consentRecords, ConsentRecord{
			ConsentType:  c.ConsentType,
			ConsentGiven: c.ConsentGiven,
			CreatedAt:    c.CreatedAt,
			WithdrawnAt:  c.WithdrawnAt,
			Purposes:     purposes,
		})
	}

	s.audit.LogAccess(userID, "data_export", "privacy", true)
	return &Export{
		UserID:         userID,
		ExportedAt:     time.Now(),
		ChatRecords:    chats,
		ConsentRecords: consentRecords,
		Policy:         s.GetPolicy(),
		DataRights: map[string]string{
			"access":        "You can request a copy of this data anytime",
			"rectification": "You can request corrections to this data",
			"erasure":       "You can request deletion of this data",
			"portability":   "This export provides your data in a portable format",
		},
	}, nil
}

// DeletionReport 数据删除结果
type DeletionReport struct {
	UserID              string    `json:"user_id"`
	DeletionType        string    `json:"deletion_type"`
	Timestamp           time.Time `json:"timestamp"`
	DataCategories      []string  `json:"data_categories"`
	RetentionExceptions []string  `json:"retention_exceptions"`
	Message             string    `json:"message"`
}

// DeleteUserData 删除用户数据（被遗忘权）
// 问答记录物理删除；同意记录出于合规留存，标记撤回；删除操作本身入删除日志
func (s *Service) DeleteUserData(userID, reason string) (*DeletionReport, error) {
	if reason == "" {
		reason = "User request"
	}

	report := &DeletionReport{
		UserID:       userID,
		DeletionType: "full",
		Timestamp:    time.Now(),
	}

	deleted, err := s.queryLog.DeleteByUser(userID)
	if err != nil {
		s.audit.LogAccess(userID, "data_deletion_error", "privacy", false)
		return nil, fmt.Errorf("failed to delete user query logs: %w", err)
	}
	if deleted > 0 {
		report.DataCategories = append(report.DataCategories, fmt.Sprintf("chat_data: %d records", deleted))
	}

	if err := s.consents.WithdrawAll(userID, "Data deletion: "+reason); err != nil {
		s.log.Warn("failed to withdraw consents during deletion",
			zap.String("user_id", userID), zap.Error(err))
	}
	report.RetentionExceptions = append(report.RetentionExceptions, "consent_records: retained for compliance")

	categoriesJSON, _ := json.Marshal(report.DataCategories)
	entry := &model.DataDeletionLog{
		UserID:         userID,
		DeletionType:   report.DeletionType,
		DataCategories: string(categoriesJSON),
		Reason:         reason,
	}
	if err := s.consents.CreateDeletionLog(entry); err != nil {
		return nil, fmt.Errorf("failed to record deletion log: %w", err)
	}

	s.audit.LogAccess(userID, "data_deletion", "privacy", true)
	report.Message = "User data deleted successfully (consent records retained for compliance)"
	return report, nil
}

// AnonymizeUserData 原地匿名化用户数据，保留统计价值
// 逐行解密、脱敏、重加密并解除用户绑定；单行失败跳过不中断
func (s *Service) AnonymizeUserData(userID string) (int, error) {
	cipher := s.secMgr.Cipher()
	if cipher == nil {
		return 0, security.ErrNoActiveKey
	}

	logs, err := s.queryLog.ListByUser(userID)
	if err != nil {
		s.audit.LogAccess(userID, "data_anonymization_error", "privacy", false)
		return 0, fmt.Errorf("failed to load user query logs: %w", err)
	}

	anonymized := 0
	for _, ql := range logs {
		query, qErr := cipher.Decrypt(ql.Query)
		answer, aErr := cipher.Decrypt(ql.Answer)
		if qErr != nil || aErr != nil {
			s.log.Warn("skipping undecryptable record during anonymization",
				zap.Uint("id", ql.ID))
			continue
		}

		newQuery, err := cipher.Encrypt(security.Anonymize(query))
		if err != nil {
			continue
		}
		newAnswer, err := cipher.Encrypt(security.Anonymize(answer))
		if err != nil {
			continue
		}
		if err := s.queryLog.AnonymizeUser(ql.ID, newQuery, newAnswer); err != nil {
			s.log.Warn("failed to anonymize record",
				zap.Uint("id", ql.ID), zap.Error(err))
			continue
		}
		anonymized++
	}

	s.audit.LogAccess(userID, "data_anonymization", "privacy", true)
	return anonymized, nil
}

// ComplianceStatus 合规状态
type ComplianceStatus struct {
	Status            string                   `json:"compliance_status"`
	PolicyVersion     string                   `json:"privacy_policy_version"`
	DataRetentionDays int                      `json:"data_retention_days"`
	ConsentStats      *repository.ConsentStats `json:"consent_statistics"`
	DeletionLogs      int64                    `json:"data_deletion_logs"`
	LastUpdated       time.Time                `json:"last_updated"`
}

// GetComplianceStatus 返回当前合规状态
func (s *Service) GetComplianceStatus() (*ComplianceStatus, error) {
	stats, err := s.consents.Stats()
	if err != nil {
		return nil, fmt.Errorf("failed to load consent stats: %w", err)
	}
	deletions, err := s.consents.CountDeletions()
	if err != nil {
		return nil, fmt.Errorf("failed to count deletion logs: %w", err)
	}
	return &ComplianceStatus{
		Status:            "ACTIVE",
		PolicyVersion:     PolicyVersion,
		DataRetentionDays: s.retentionDays,
		ConsentStats:      stats,
		DeletionLogs:      deletions,
		LastUpdated:       time.Now(),
	}, nil
}
