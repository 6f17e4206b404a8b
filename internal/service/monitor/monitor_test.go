// Package monitor 错误追踪与性能指标：记录、模式归并、阈值告警
package monitor

import (
	"strings"
	"testing"

	"github.com/ashwinyue/insure-ai/internal/model"
	"github.com/ashwinyue/insure-ai/internal/repository"
	"github.com/ashwinyue/insure-ai/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *repository.MonitorRepository) {
	t.Helper()
	db := testutil.NewTestDB(t)
	repo := repository.NewMonitorRepository(db)
	return NewService(repo, testutil.NewTestLogger()), repo
}

// ========== 模式哈希测试 ==========

func TestPatternHash(t *testing.T) {
	h1 := patternHash("ValueError", "chat", "invalid input")
	h2 := patternHash("ValueError", "chat", "invalid input")
	if h1 != h2 {
		t.Error("patternHash not deterministic")
	}
	if len(h1) != 32 {
		t.Errorf("patternHash length = %d, want 32 hex chars", len(h1))
	}

	if patternHash("ValueError", "chat", "x") == patternHash("TypeError", "chat", "x") {
		t.Error("different error types share a hash")
	}
	if patternHash("ValueError", "chat", "x") == patternHash("ValueError", "analytics", "x") {
		t.Error("different components share a hash")
	}

	// 消息只取前 100 字符参与归并
	long := strings.Repeat("a", 100)
	if patternHash("E", "c", long+"tail one") != patternHash("E", "c", long+"other tail") {
		t.Error("messages identical in the first 100 chars should share a hash")
	}
}

// ========== 错误记录测试 ==========

func TestService_LogError(t *testing.T) {
	svc, repo := newTestService(t)

	errorID, err := svc.LogError(model.SeverityMedium, model.ErrCategoryData, "chatbot", "record_failed", "store failed", &ErrorContext{
		UserID:    "u1",
		SessionID: "s1",
		IPAddress: "127.0.0.1",
	})
	if err != nil {
		t.Fatalf("LogError() error = %v", err)
	}
	if errorID == "" {
		t.Fatal("LogError() returned empty error ID")
	}

	// 同类错误归并到同一模式
	if _, err := svc.LogError(model.SeverityMedium, model.ErrCategoryData, "chatbot", "record_failed", "store failed", nil); err != nil {
		t.Fatalf("LogError() second call error = %v", err)
	}

	patterns, err := repo.TopPatterns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(patterns) != 1 {
		t.Fatalf("TopPatterns() = %d patterns, want 1 merged pattern", len(patterns))
	}
	if patterns[0].OccurrenceCount != 2 {
		t.Errorf("OccurrenceCount = %d, want 2", patterns[0].OccurrenceCount)
	}
}

func TestService_LogError_CriticalRaisesAlert(t *testing.T) {
	svc, _ := newTestService(t)

	// critical 阈值为 1，单次错误即触发告警
	if _, err := svc.LogError(model.SeverityCritical, model.ErrCategorySystem, "http", "panic", "boom", nil); err != nil {
		t.Fatalf("LogError() error = %v", err)
	}

	alerts, err := svc.ActiveAlerts()
	if err != nil {
		t.Fatalf("ActiveAlerts() error = %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("ActiveAlerts() = %d, want 1", len(alerts))
	}
	if alerts[0].AlertType != "threshold_exceeded" {
		t.Errorf("AlertType = %q", alerts[0].AlertType)
	}
	if alerts[0].Severity != model.SeverityCritical {
		t.Errorf("Severity = %q", alerts[0].Severity)
	}
}

func TestService_LogError_HighBelowThresholdNoAlert(t *testing.T) {
	svc, _ := newTestService(t)

	// high 阈值为 5，4 次不触发
	for i := 0; i < 4; i++ {
		if _, err := svc.LogError(model.SeverityHigh, model.ErrCategoryData, "chatbot", "answer_failed", "fail", nil); err != nil {
			t.Fatalf("LogError() error = %v", err)
		}
	}
	alerts, err := svc.ActiveAlerts()
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 0 {
		t.Fatalf("ActiveAlerts() = %d below threshold, want 0", len(alerts))
	}

	// 第 5 次达到阈值
	if _, err := svc.LogError(model.SeverityHigh, model.ErrCategoryData, "chatbot", "answer_failed", "fail", nil); err != nil {
		t.Fatalf("LogError() error = %v", err)
	}
	alerts, err = svc.ActiveAlerts()
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 1 {
		t.Errorf("ActiveAlerts() = %d at threshold, want 1", len(alerts))
	}
}

// ========== 告警与解决流程测试 ==========

func TestService_AcknowledgeAlert(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.LogError(model.SeverityCritical, model.ErrCategorySystem, "http", "panic", "boom", nil); err != nil {
		t.Fatal(err)
	}
	alerts, _ := svc.ActiveAlerts()
	if len(alerts) != 1 {
		t.Fatalf("ActiveAlerts() = %d, want 1", len(alerts))
	}

	if err := svc.AcknowledgeAlert(alerts[0].ID, "admin"); err != nil {
		t.Fatalf("AcknowledgeAlert() error = %v", err)
	}
	alerts, _ = svc.ActiveAlerts()
	if len(alerts) != 0 {
		t.Errorf("ActiveAlerts() = %d after acknowledge, want 0", len(alerts))
	}
}

func TestService_ResolveError(t *testing.T) {
	svc, _ := newTestService(t)

	errorID, err := svc.LogError(model.SeverityLow, model.ErrCategoryUserInput, "chat", "unsafe_input", "bad chars", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.ResolveError(errorID, "false positive", "admin"); err != nil {
		t.Fatalf("ResolveError() error = %v", err)
	}

	summary, err := svc.GetSummary(24)
	if err != nil {
		t.Fatal(err)
	}
	if summary.TotalErrors != 1 {
		t.Errorf("TotalErrors = %d, want 1", summary.TotalErrors)
	}
	if len(summary.RecentErrors) != 1 || !summary.RecentErrors[0].Resolved {
		t.Error("resolved error not reflected in summary")
	}
}

// ========== 指标与汇总测试 ==========

func TestService_GetSummary(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.LogError(model.SeverityHigh, model.ErrCategoryData, "chatbot", "answer_failed", "fail", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.LogError(model.SeverityMedium, model.ErrCategorySecurity, "chat", "unsafe_input", "sql chars", nil); err != nil {
		t.Fatal(err)
	}
	if err := svc.LogMetric("chat", "answer_latency_ms", 12.5, "ms"); err != nil {
		t.Fatalf("LogMetric() error = %v", err)
	}
	if err := svc.LogMetric("chat", "answer_latency_ms", 7.5, "ms"); err != nil {
		t.Fatal(err)
	}

	summary, err := svc.GetSummary(24)
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}

	if summary.WindowHours != 24 {
		t.Errorf("WindowHours = %d, want 24", summary.WindowHours)
	}
	if summary.TotalErrors != 2 {
		t.Errorf("TotalErrors = %d, want 2", summary.TotalErrors)
	}
	if len(summary.BySeverity) != 2 {
		t.Errorf("BySeverity = %v, want 2 groups", summary.BySeverity)
	}
	if len(summary.TopPatterns) != 2 {
		t.Errorf("TopPatterns = %d, want 2", len(summary.TopPatterns))
	}
	if len(summary.RecentErrors) != 2 {
		t.Errorf("RecentErrors = %d, want 2", len(summary.RecentErrors))
	}

	foundLatency := false
	for _, m := range summary.Metrics {
		if m.MetricName == "answer_latency_ms" {
			foundLatency = true
			if m.SampleCount != 2 {
				t.Errorf("SampleCount = %d, want 2", m.SampleCount)
			}
		}
	}
	if !foundLatency {
		t.Error("Metrics missing answer_latency_ms summary")
	}
}

func TestService_GetSummary_DefaultWindow(t *testing.T) {
	svc, _ := newTestService(t)

	summary, err := svc.GetSummary(0)
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if summary.WindowHours != 24 {
		t.Errorf("WindowHours = %d, want default 24", summary.WindowHours)
	}
	if summary.TotalErrors != 0 {
		t.Errorf("TotalErrors = %d, want 0", summary.TotalErrors)
	}
}
