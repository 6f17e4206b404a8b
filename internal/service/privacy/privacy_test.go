// Package privacy 实现合规能力：同意管理、数据导出、删除与匿名化
package privacy

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ashwinyue/insure-ai/internal/config"
	"github.com/ashwinyue/insure-ai/internal/model"
	"github.com/ashwinyue/insure-ai/internal/repository"
	"github.com/ashwinyue/insure-ai/internal/service/audit"
	"github.com/ashwinyue/insure-ai/internal/service/security"
	"github.com/ashwinyue/insure-ai/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *repository.Repositories, *security.Manager) {
	t.Helper()
	db := testutil.NewTestDB(t)
	repos := repository.NewRepositories(db)

	keys := security.NewKeyManager(t.TempDir(), 90)
	if _, err := keys.LoadOrCreate(); err != nil {
		t.Fatalf("LoadOrCreate() error = %v", err)
	}
	secMgr := security.NewManager(&config.SecurityConfig{
		MaxInputLength:    1000,
		DataRetentionDays: 2555,
	}, keys, repos.QueryLog, testutil.NewTestLogger())

	auditLog, err := audit.NewLogger(filepath.Join(t.TempDir(), "audit.log"), repos.Audit)
	if err != nil {
		t.Fatalf("audit.NewLogger() error = %v", err)
	}

	svc := NewService(repos.Consent, repos.QueryLog, secMgr, auditLog, 2555, testutil.NewTestLogger())
	return svc, repos, secMgr
}

func storeUserQuery(t *testing.T, repos *repository.Repositories, secMgr *security.Manager, userID, query, answer string) uint {
	t.Helper()
	cipher := secMgr.Cipher()
	encQ, err := cipher.Encrypt(query)
	if err != nil {
		t.Fatal(err)
	}
	encA, err := cipher.Encrypt(answer)
	if err != nil {
		t.Fatal(err)
	}
	entry := &model.QueryLog{Query: encQ, Answer: encA, UserID: userID, Category: "Plan Type"}
	if err := repos.QueryLog.Create(entry); err != nil {
		t.Fatal(err)
	}
	return entry.ID
}

// ========== 隐私政策测试 ==========

func TestService_GetPolicy(t *testing.T) {
	svc, _, _ := newTestService(t)

	policy := svc.GetPolicy()
	if policy.Version != PolicyVersion {
		t.Errorf("Version = %q, want %q", policy.Version, PolicyVersion)
	}
	if policy.DataSharing["third_parties"] != "None - data stays local" {
		t.Errorf("DataSharing = %v", policy.DataSharing)
	}
	if policy.ContactInfo["dpo_email"] == "" {
		t.Error("ContactInfo missing dpo_email")
	}
}

func TestService_RequestConsent(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := svc.RequestConsent("u1", "sess-1", "data_processing")
	if req.ConsentID == "" {
		t.Error("ConsentID empty")
	}
	if req.UserID != "u1" || req.SessionID != "sess-1" || req.ConsentType != "data_processing" {
		t.Errorf("request fields mismatch: %+v", req)
	}
	if req.Policy == nil {
		t.Error("Policy missing from consent request")
	}
	if len(req.UserRights) == 0 {
		t.Error("UserRights empty")
	}
}

// ========== 同意管理测试 ==========

func TestService_ConsentLifecycle(t *testing.T) {
	svc, _, _ := newTestService(t)

	if svc.CheckConsent("u1", "data_processing") {
		t.Error("CheckConsent() = true with no consent recorded")
	}

	if err := svc.RecordConsent("u1", "sess-1", "data_processing", true, "127.0.0.1", "test-agent", nil); err != nil {
		t.Fatalf("RecordConsent() error = %v", err)
	}
	if !svc.CheckConsent("u1", "data_processing") {
		t.Error("CheckConsent() = false after consent granted")
	}
	// 类型不匹配不算有同意
	if svc.CheckConsent("u1", "marketing") {
		t.Error("CheckConsent() = true for a different consent type")
	}

	if err := svc.WithdrawConsent("u1", "data_processing", ""); err != nil {
		t.Fatalf("WithdrawConsent() error = %v", err)
	}
	if svc.CheckConsent("u1", "data_processing") {
		t.Error("CheckConsent() = true after withdrawal")
	}
}

func TestService_RecordConsent_Denied(t *testing.T) {
	svc, _, _ := newTestService(t)

	if err := svc.RecordConsent("u2", "sess-2", "data_processing", false, "", "", nil); err != nil {
		t.Fatalf("RecordConsent() error = %v", err)
	}
	if svc.CheckConsent("u2", "data_processing") {
		t.Error("CheckConsent() = true for denied consent")
	}
}

func TestService_RecordConsent_DefaultPurposes(t *testing.T) {
	svc, repos, _ := newTestService(t)

	if err := svc.RecordConsent("u3", "sess-3", "data_processing", true, "", "", nil); err != nil {
		t.Fatalf("RecordConsent() error = %v", err)
	}
	consent, err := repos.Consent.LatestByUser("u3", "data_processing")
	if err != nil {
		t.Fatal(err)
	}
	if consent.Purposes != `["service_provision","analytics","security"]` {
		t.Errorf("Purposes = %q, want default purposes", consent.Purposes)
	}
	if consent.ConsentVersion != PolicyVersion {
		t.Errorf("ConsentVersion = %q, want %q", consent.ConsentVersion, PolicyVersion)
	}
}

// ========== 数据导出测试 ==========

func TestService_ExportUserData(t *testing.T) {
	svc, repos, secMgr := newTestService(t)

	storeUserQuery(t, repos, secMgr, "u1", "what is a copay", "a fixed fee")
	storeUserQuery(t, repos, secMgr, "other-user", "not exported", "nope")
	if err := svc.RecordConsent("u1", "sess-1", "data_processing", true, "", "", []string{"analytics"}); err != nil {
		t.Fatal(err)
	}

	export, err := svc.ExportUserData("u1")
	if err != nil {
		t.Fatalf("ExportUserData() error = %v", err)
	}

	if export.UserID != "u1" {
		t.Errorf("UserID = %q", export.UserID)
	}
	if len(export.ChatRecords) != 1 {
		t.Fatalf("ChatRecords = %d, want 1", len(export.ChatRecords))
	}
	if export.ChatRecords[0].Query != "what is a copay" {
		t.Errorf("exported query = %q, want decrypted plaintext", export.ChatRecords[0].Query)
	}
	if len(export.ConsentRecords) != 1 {
		t.Fatalf("ConsentRecords = %d, want 1", len(export.ConsentRecords))
	}
	if len(export.ConsentRecords[0].Purposes) != 1 || export.ConsentRecords[0].Purposes[0] != "analytics" {
		t.Errorf("Purposes = %v, want [analytics]", export.ConsentRecords[0].Purposes)
	}
}

func TestService_ExportUserData_UndecryptableRow(t *testing.T) {
	svc, repos, _ := newTestService(t)

	if err := repos.QueryLog.Create(&model.QueryLog{Query: "bad", Answer: "bad", UserID: "u1"}); err != nil {
		t.Fatal(err)
	}

	export, err := svc.ExportUserData("u1")
	if err != nil {
		t.Fatalf("ExportUserData() error = %v", err)
	}
	if len(export.ChatRecords) != 1 {
		t.Fatalf("ChatRecords = %d, want 1", len(export.ChatRecords))
	}
	if export.ChatRecords[0].Query != "[ENCRYPTED]" {
		t.Errorf("undecryptable row exported as %q, want [ENCRYPTED]", export.ChatRecords[0].Query)
	}
}

func TestService_ExportUserData_NoActiveKey(t *testing.T) {
	db := testutil.NewTestDB(t)
	repos := repository.NewRepositories(db)

	// 密钥从未加载，Cipher 为 nil
	keys := security.NewKeyManager(t.TempDir(), 90)
	secMgr := security.NewManager(&config.SecurityConfig{
		MaxInputLength:    1000,
		DataRetentionDays: 2555,
	}, keys, repos.QueryLog, testutil.NewTestLogger())

	auditLog, err := audit.NewLogger(filepath.Join(t.TempDir(), "audit.log"), repos.Audit)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(repos.Consent, repos.QueryLog, secMgr, auditLog, 2555, testutil.NewTestLogger())

	if _, err := svc.ExportUserData("u1"); !errors.Is(err, security.ErrNoActiveKey) {
		t.Errorf("ExportUserData() error = %v, want %v", err, security.ErrNoActiveKey)
	}
}

// ========== 数据删除测试 ==========

func TestService_DeleteUserData(t *testing.T) {
	svc, repos, secMgr := newTestService(t)

	storeUserQuery(t, repos, secMgr, "u1", "delete me", "ok")
	storeUserQuery(t, repos, secMgr, "u2", "keep me", "ok")
	if err := svc.RecordConsent("u1", "sess-1", "data_processing", true, "", "", nil); err != nil {
		t.Fatal(err)
	}

	report, err := svc.DeleteUserData("u1", "account closure")
	if err != nil {
		t.Fatalf("DeleteUserData() error = %v", err)
	}
	if report.Message != "User data deleted successfully (consent records retained for compliance)" {
		t.Errorf("Message = %q", report.Message)
	}
	if len(report.DataCategories) != 1 {
		t.Errorf("DataCategories = %v, want one chat_data entry", report.DataCategories)
	}

	// u1 的问答记录已删除，u2 的保留
	u1Logs, _ := repos.QueryLog.ListByUser("u1")
	if len(u1Logs) != 0 {
		t.Errorf("u1 still has %d query logs", len(u1Logs))
	}
	u2Logs, _ := repos.QueryLog.ListByUser("u2")
	if len(u2Logs) != 1 {
		t.Errorf("u2 has %d query logs, want 1", len(u2Logs))
	}

	// 同意记录留存但标记撤回
	consents, err := repos.Consent.ListByUser("u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(consents) != 1 {
		t.Fatalf("consents = %d, want 1 retained record", len(consents))
	}
	if consents[0].WithdrawnAt == nil {
		t.Error("retained consent not marked withdrawn")
	}

	// 删除日志已记录
	deletions, err := repos.Consent.CountDeletions()
	if err != nil {
		t.Fatal(err)
	}
	if deletions != 1 {
		t.Errorf("CountDeletions() = %d, want 1", deletions)
	}
}

// ========== 匿名化测试 ==========

func TestService_AnonymizeUserData(t *testing.T) {
	svc, repos, secMgr := newTestService(t)

	id := storeUserQuery(t, repos, secMgr, "u1", "my ssn is 123-45-6789", "noted, call 555-123-4567")

	count, err := svc.AnonymizeUserData("u1")
	if err != nil {
		t.Fatalf("AnonymizeUserData() error = %v", err)
	}
	if count != 1 {
		t.Errorf("AnonymizeUserData() = %d, want 1", count)
	}

	logs, err := repos.QueryLog.ListAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].ID != id {
		t.Fatalf("unexpected query logs: %+v", logs)
	}
	if logs[0].UserID != "ANONYMIZED" {
		t.Errorf("UserID = %q, want ANONYMIZED", logs[0].UserID)
	}

	query, err := secMgr.Cipher().Decrypt(logs[0].Query)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if query != "my ssn is [SSN_REDACTED]" {
		t.Errorf("anonymized query = %q", query)
	}
	answer, err := secMgr.Cipher().Decrypt(logs[0].Answer)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if answer != "noted, call [PHONE_REDACTED]" {
		t.Errorf("anonymized answer = %q", answer)
	}
}

func TestService_AnonymizeUserData_SkipsBadRows(t *testing.T) {
	svc, repos, secMgr := newTestService(t)

	storeUserQuery(t, repos, secMgr, "u1", "good row", "fine")
	if err := repos.QueryLog.Create(&model.QueryLog{Query: "bad", Answer: "bad", UserID: "u1"}); err != nil {
		t.Fatal(err)
	}

	count, err := svc.AnonymizeUserData("u1")
	if err != nil {
		t.Fatalf("AnonymizeUserData() error = %v", err)
	}
	if count != 1 {
		t.Errorf("AnonymizeUserData() = %d, want 1 (bad row skipped)", count)
	}
}

// ========== 合规状态测试 ==========

func TestService_GetComplianceStatus(t *testing.T) {
	svc, _, _ := newTestService(t)

	if err := svc.RecordConsent("u1", "s1", "data_processing", true, "", "", nil); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordConsent("u2", "s2", "data_processing", false, "", "", nil); err != nil {
		t.Fatal(err)
	}

	status, err := svc.GetComplianceStatus()
	if err != nil {
		t.Fatalf("GetComplianceStatus() error = %v", err)
	}
	if status.Status != "ACTIVE" {
		t.Errorf("Status = %q, want ACTIVE", status.Status)
	}
	if status.ConsentStats.Total != 2 || status.ConsentStats.Given != 1 {
		t.Errorf("ConsentStats = %+v", status.ConsentStats)
	}
	if status.DataRetentionDays != 2555 {
		t.Errorf("DataRetentionDays = %d, want 2555", status.DataRetentionDays)
	}
}
