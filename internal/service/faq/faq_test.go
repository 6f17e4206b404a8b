package faq

import (
	"context"
	"testing"

	"github.com/ashwinyue/insure-ai/internal/repository"
	"github.com/ashwinyue/insure-ai/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := testutil.NewTestDB(t)
	return NewService(repository.NewRepositories(db))
}

func TestService_CreateAndGetFAQ(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	faq, err := svc.CreateFAQ(ctx, &CreateFAQRequest{
		Question: "What is a deductible?",
		Answer:   "The amount you pay first.",
		Category: "Plan Type",
		Priority: 5,
	})
	if err != nil {
		t.Fatalf("CreateFAQ() error = %v", err)
	}
	if faq.ID == "" {
		t.Fatal("CreateFAQ() returned empty ID")
	}
	if !faq.IsActive || faq.Source != "manual" {
		t.Errorf("CreateFAQ() = %+v, want active manual FAQ", faq)
	}

	got, err := svc.GetFAQ(ctx, faq.ID)
	if err != nil {
		t.Fatalf("GetFAQ() error = %v", err)
	}
	if got.Question != faq.Question {
		t.Errorf("GetFAQ().Question = %q, want %q", got.Question, faq.Question)
	}

	// 读取计入命中次数
	got, err = svc.GetFAQ(ctx, faq.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.HitCount == 0 {
		t.Error("HitCount not incremented by GetFAQ")
	}
}

func TestService_GetFAQ_NotFound(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.GetFAQ(context.Background(), "missing-id"); err == nil {
		t.Error("GetFAQ() on missing id expected error, got nil")
	}
}

func TestService_ListFAQs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, q := range []struct{ question, category string }{
		{"What is an HMO?", "Plan Type"},
		{"What is a PPO?", "Plan Type"},
		{"When is open enrollment?", "Enrollment"},
	} {
		if _, err := svc.CreateFAQ(ctx, &CreateFAQRequest{Question: q.question, Answer: "a", Category: q.category}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := svc.ListFAQs(ctx, &ListFAQsRequest{})
	if err != nil {
		t.Fatalf("ListFAQs() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListFAQs() = %d, want 3", len(all))
	}

	planType, err := svc.ListFAQs(ctx, &ListFAQsRequest{Category: "Plan Type"})
	if err != nil {
		t.Fatal(err)
	}
	if len(planType) != 2 {
		t.Errorf("ListFAQs(Plan Type) = %d, want 2", len(planType))
	}

	paged, err := svc.ListFAQs(ctx, &ListFAQsRequest{Page: 2, Size: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(paged) != 1 {
		t.Errorf("ListFAQs(page 2, size 2) = %d, want 1", len(paged))
	}
}

func TestService_UpdateFAQ(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	faq, err := svc.CreateFAQ(ctx, &CreateFAQRequest{Question: "q", Answer: "old", Category: "Other"})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.UpdateFAQ(ctx, faq.ID, &CreateFAQRequest{
		Question: "q",
		Answer:   "new",
		Category: "Plan Type",
		Priority: 9,
	})
	if err != nil {
		t.Fatalf("UpdateFAQ() error = %v", err)
	}
	if updated.Answer != "new" || updated.Category != "Plan Type" || updated.Priority != 9 {
		t.Errorf("UpdateFAQ() = %+v", updated)
	}

	if _, err := svc.UpdateFAQ(ctx, "missing-id", &CreateFAQRequest{Question: "q", Answer: "a"}); err == nil {
		t.Error("UpdateFAQ() on missing id expected error, got nil")
	}
}

func TestService_DeleteFAQ(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	faq, err := svc.CreateFAQ(ctx, &CreateFAQRequest{Question: "q", Answer: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteFAQ(ctx, faq.ID); err != nil {
		t.Fatalf("DeleteFAQ() error = %v", err)
	}
	if _, err := svc.GetFAQ(ctx, faq.ID); err == nil {
		t.Error("GetFAQ() after delete expected error, got nil")
	}
}

func TestService_SearchFAQs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateFAQ(ctx, &CreateFAQRequest{Question: "What is a deductible?", Answer: "a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateFAQ(ctx, &CreateFAQRequest{Question: "When is open enrollment?", Answer: "a"}); err != nil {
		t.Fatal(err)
	}

	results, err := svc.SearchFAQs(ctx, "deductible", 10)
	if err != nil {
		t.Fatalf("SearchFAQs() error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("SearchFAQs(deductible) = %d, want 1", len(results))
	}

	none, err := svc.SearchFAQs(ctx, "unrelated", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("SearchFAQs(unrelated) = %d, want 0", len(none))
	}
}
