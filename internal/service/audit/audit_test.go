// Package audit 提供审计日志：zap JSON 文件 + 数据库双写
package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashwinyue/insure-ai/internal/repository"
	"github.com/ashwinyue/insure-ai/internal/testutil"
)

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	db := testutil.NewTestDB(t)
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := NewLogger(path, repository.NewAuditRepository(db))
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	return l, path
}

func TestLogger_LogAccess(t *testing.T) {
	l, path := newTestLogger(t)

	l.LogAccess("u1", "chat_query", "chat", true)
	l.LogAccess("u2", "admin_login", "auth", false, "bad password")
	_ = l.Sync()

	// 文件日志为 JSON 行
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"action":"chat_query"`) {
		t.Errorf("audit file missing chat_query entry:\n%s", content)
	}
	if !strings.Contains(content, "access denied") {
		t.Error("failed access not logged as denial")
	}
	if !strings.Contains(content, `"details":"bad password"`) {
		t.Error("details not logged")
	}

	// 数据库行可查询
	entries, err := l.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent() = %d entries, want 2", len(entries))
	}
}

func TestLogger_LogAccessFrom(t *testing.T) {
	l, _ := newTestLogger(t)

	l.LogAccessFrom("", "auth_failure", "admin", "10.0.0.1", false)

	entries, err := l.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("Recent() = %d entries, want 1", len(entries))
	}
	if entries[0].IPAddress != "10.0.0.1" {
		t.Errorf("IPAddress = %q, want 10.0.0.1", entries[0].IPAddress)
	}
	if entries[0].Success {
		t.Error("Success = true, want false")
	}
}

func TestLogger_Recent_Limit(t *testing.T) {
	l, _ := newTestLogger(t)

	for i := 0; i < 5; i++ {
		l.LogAccess("u1", "chat_query", "chat", true)
	}

	entries, err := l.Recent(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("Recent(3) = %d entries, want 3", len(entries))
	}
}
