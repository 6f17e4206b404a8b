// Package analytics 汇总查询日志：解密、脱敏、分类、统计与图表
package analytics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashwinyue/insure-ai/internal/config"
	"github.com/ashwinyue/insure-ai/internal/model"
	"github.com/ashwinyue/insure-ai/internal/repository"
	"github.com/ashwinyue/insure-ai/internal/service/security"
	"github.com/ashwinyue/insure-ai/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *repository.QueryLogRepository, *security.Manager) {
	t.Helper()
	db := testutil.NewTestDB(t)
	queryLog := repository.NewQueryLogRepository(db)

	keys := security.NewKeyManager(t.TempDir(), 90)
	if _, err := keys.LoadOrCreate(); err != nil {
		t.Fatalf("LoadOrCreate() error = %v", err)
	}
	secMgr := security.NewManager(&config.SecurityConfig{
		MaxInputLength:    1000,
		DataRetentionDays: 2555,
	}, keys, queryLog, testutil.NewTestLogger())

	svc := NewService(queryLog, secMgr, nil, t.TempDir(), 10, testutil.NewTestLogger())
	return svc, queryLog, secMgr
}

func storeQuery(t *testing.T, queryLog *repository.QueryLogRepository, secMgr *security.Manager, query, answer, userID string) {
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
	if err := queryLog.Create(&model.QueryLog{Query: encQ, Answer: encA, UserID: userID}); err != nil {
		t.Fatal(err)
	}
}

// ========== 关键词分类测试 ==========

func TestSimpleCategorize(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{"hmo keyword", "is an HMO right for me", "Plan Type"},
		{"deductible keyword", "what is my deductible", "Plan Type"},
		{"premium keyword", "why did my premium go up", "Plan Type"},
		{"enroll keyword", "how do I enroll", "Enrollment"},
		{"sign up phrase", "where can I sign up", "Enrollment"},
		{"deadline keyword", "what is the deadline", "Enrollment"},
		{"plan wins over enroll", "how do I enroll in a plan", "Plan Type"},
		{"no keyword", "is therapy covered", "Other"},
		{"empty", "", "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := simpleCategorize(tt.query); got != tt.expected {
				t.Errorf("simpleCategorize(%q) = %q, want %q", tt.query, got, tt.expected)
			}
		})
	}
}

// ========== 聚合测试 ==========

func TestService_Aggregate(t *testing.T) {
	svc, _, _ := newTestService(t)

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	records := []record{
		{Query: "what is a deductible", Category: "Plan Type", Timestamp: base, UserID: "u1"},
		{Query: "how do I enroll", Category: "Enrollment", Timestamp: base.Add(2 * time.Hour), UserID: "u2"},
		{Query: "what is a copay", Category: "Plan Type", Timestamp: base.Add(26 * time.Hour), UserID: "u1"},
		{Query: DecryptionErrorText, Category: "Unknown", Timestamp: base.Add(time.Hour)},
	}

	insights := svc.aggregate(records)

	if insights.TotalQueries != 4 {
		t.Errorf("TotalQueries = %d, want 4", insights.TotalQueries)
	}
	if insights.UniqueUsers != 2 {
		t.Errorf("UniqueUsers = %d, want 2", insights.UniqueUsers)
	}
	if insights.Categories["Plan Type"] != 2 || insights.Categories["Enrollment"] != 1 || insights.Categories["Unknown"] != 1 {
		t.Errorf("Categories = %v", insights.Categories)
	}
	if insights.DateRange.Start != "2026-03-10 09:00" {
		t.Errorf("DateRange.Start = %q", insights.DateRange.Start)
	}
	if insights.DateRange.End != "2026-03-11 11:00" {
		t.Errorf("DateRange.End = %q", insights.DateRange.End)
	}
	if insights.DailyDistribution["2026-03-10"] != 3 || insights.DailyDistribution["2026-03-11"] != 1 {
		t.Errorf("DailyDistribution = %v", insights.DailyDistribution)
	}
	if insights.HourlyDistribution["9"] != 1 || insights.HourlyDistribution["11"] != 2 {
		t.Errorf("HourlyDistribution = %v", insights.HourlyDistribution)
	}

	// 最近的排最前
	if len(insights.RecentQueries) != 4 {
		t.Fatalf("RecentQueries = %d entries, want 4", len(insights.RecentQueries))
	}
	if insights.RecentQueries[0].Query != "what is a copay" {
		t.Errorf("RecentQueries[0].Query = %q, want most recent first", insights.RecentQueries[0].Query)
	}
}

func TestService_Aggregate_Empty(t *testing.T) {
	svc, _, _ := newTestService(t)

	insights := svc.aggregate(nil)
	if insights.TotalQueries != 0 {
		t.Errorf("TotalQueries = %d, want 0", insights.TotalQueries)
	}
	if insights.DateRange.Start != "No data" || insights.DateRange.End != "No data" {
		t.Errorf("DateRange = %+v, want No data", insights.DateRange)
	}
	if insights.RecentQueries == nil {
		t.Error("RecentQueries = nil, want empty slice")
	}
}

func TestService_Aggregate_RecentLimit(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.recentLimit = 2

	base := time.Now()
	var records []record
	for i := 0; i < 5; i++ {
		records = append(records, record{
			Query:     "q",
			Category:  "Other",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}

	insights := svc.aggregate(records)
	if len(insights.RecentQueries) != 2 {
		t.Errorf("RecentQueries = %d entries, want 2", len(insights.RecentQueries))
	}
}

// ========== 全量统计测试 ==========

func TestService_GenerateInsights(t *testing.T) {
	svc, queryLog, secMgr := newTestService(t)

	storeQuery(t, queryLog, secMgr, "what is a deductible", "you pay first", "u1")
	storeQuery(t, queryLog, secMgr, "my ssn is 123-45-6789", "noted", "u2")
	// 坏密文算一次解密失败
	if err := queryLog.Create(&model.QueryLog{Query: "garbage", Answer: "garbage", UserID: "u3"}); err != nil {
		t.Fatal(err)
	}

	insights, err := svc.GenerateInsights()
	if err != nil {
		t.Fatalf("GenerateInsights() error = %v", err)
	}

	if insights.TotalQueries != 3 {
		t.Errorf("TotalQueries = %d, want 3", insights.TotalQueries)
	}
	if insights.DecryptionFailures != 1 {
		t.Errorf("DecryptionFailures = %d, want 1", insights.DecryptionFailures)
	}
	if insights.Categories["Unknown"] != 1 {
		t.Errorf("Categories = %v, want 1 Unknown for the bad row", insights.Categories)
	}

	// 脱敏生效：最近查询中不出现原始 SSN
	for _, rq := range insights.RecentQueries {
		if rq.Query == "my ssn is 123-45-6789" {
			t.Error("RecentQueries contains unredacted SSN")
		}
	}

	// 仪表盘图片已生成
	if _, err := os.Stat(filepath.Join(svc.staticDir, DashboardFileName)); err != nil {
		t.Errorf("dashboard image not written: %v", err)
	}
}

func TestService_GenerateInsights_Empty(t *testing.T) {
	svc, _, _ := newTestService(t)

	insights, err := svc.GenerateInsights()
	if err != nil {
		t.Fatalf("GenerateInsights() error = %v", err)
	}
	if insights.TotalQueries != 0 {
		t.Errorf("TotalQueries = %d, want 0", insights.TotalQueries)
	}
	// 无数据时不生成图片
	if _, err := os.Stat(filepath.Join(svc.staticDir, DashboardFileName)); !os.IsNotExist(err) {
		t.Errorf("dashboard image unexpectedly present: %v", err)
	}
}
