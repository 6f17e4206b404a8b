// Package dataset 加载训练用的问答 CSV 并落库
package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ashwinyue/insure-ai/internal/repository"
	"github.com/ashwinyue/insure-ai/internal/testutil"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qa.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ========== 加载测试 ==========

func TestLoad(t *testing.T) {
	path := writeCSV(t, `question,answer,category
What is a deductible?,You pay it first.,Plan Type
When is open enrollment?,November to January.,Enrollment
What is a copay?,A fixed fee.,Plan Type
`)

	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(ds.Rows) != 3 {
		t.Fatalf("Rows = %d, want 3", len(ds.Rows))
	}
	if ds.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", ds.Skipped)
	}
	if ds.Rows[0].Question != "What is a deductible?" || ds.Rows[0].Category != "Plan Type" {
		t.Errorf("first row = %+v", ds.Rows[0])
	}
}

func TestLoad_SkipsIncompleteRows(t *testing.T) {
	path := writeCSV(t, `question,answer,category
What is a deductible?,You pay it first.,Plan Type
Missing answer here,,Plan Type
,No question,Enrollment
What is a copay?,A fixed fee.,
`)

	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(ds.Rows) != 1 {
		t.Errorf("Rows = %d, want 1", len(ds.Rows))
	}
	if ds.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", ds.Skipped)
	}
}

func TestLoad_AllRowsInvalid(t *testing.T) {
	path := writeCSV(t, `question,answer,category
,,
`)

	_, err := Load(path)
	if !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("Load() error = %v, want ErrEmptyDataset", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("Load() on missing file expected error, got nil")
	}
}

// ========== 访问器测试 ==========

func TestDataset_Accessors(t *testing.T) {
	path := writeCSV(t, `question,answer,category
q1,a1,Plan Type
q2,a2,Enrollment
q3,a3,Plan Type
`)
	ds, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	questions := ds.Questions()
	categories := ds.Categories()
	if len(questions) != 3 || len(categories) != 3 {
		t.Fatalf("Questions/Categories lengths = %d/%d, want 3/3", len(questions), len(categories))
	}
	if questions[1] != "q2" || categories[1] != "Enrollment" {
		t.Errorf("accessors misaligned: %q / %q", questions[1], categories[1])
	}

	dist := ds.Distribution()
	if dist["Plan Type"] != 2 || dist["Enrollment"] != 1 {
		t.Errorf("Distribution() = %v", dist)
	}
}

// ========== 导入测试 ==========

func TestSeeder_Seed(t *testing.T) {
	db := testutil.NewTestDB(t)
	faqRepo := repository.NewFAQRepository(db)
	seeder := NewSeeder(faqRepo, testutil.NewTestLogger())

	path := writeCSV(t, `question,answer,category
What is a deductible?,You pay it first.,Plan Type
When is open enrollment?,November to January.,Enrollment
`)
	ds, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	seeded, err := seeder.Seed(ds)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if seeded != 2 {
		t.Errorf("Seed() = %d, want 2", seeded)
	}

	count, err := faqRepo.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}

	faqs, err := faqRepo.ListActive("")
	if err != nil {
		t.Fatal(err)
	}
	for _, faq := range faqs {
		if !faq.IsActive || faq.Source != "csv" {
			t.Errorf("seeded FAQ = %+v, want active csv row", faq)
		}
	}
}

func TestSeeder_Seed_UpsertsExisting(t *testing.T) {
	db := testutil.NewTestDB(t)
	faqRepo := repository.NewFAQRepository(db)
	seeder := NewSeeder(faqRepo, testutil.NewTestLogger())

	first := writeCSV(t, `question,answer,category
What is a copay?,Old answer.,Plan Type
`)
	ds, err := Load(first)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := seeder.Seed(ds); err != nil {
		t.Fatal(err)
	}

	second := writeCSV(t, `question,answer,category
What is a copay?,New answer.,Billing
`)
	ds, err = Load(second)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := seeder.Seed(ds); err != nil {
		t.Fatalf("Seed() re-import error = %v", err)
	}

	// 重复导入不产生重复行，答案被更新
	count, err := faqRepo.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("Count() = %d after re-import, want 1", count)
	}
	faqs, err := faqRepo.ListActive("")
	if err != nil {
		t.Fatal(err)
	}
	if faqs[0].Answer != "New answer." || faqs[0].Category != "Billing" {
		t.Errorf("re-imported FAQ = %+v", faqs[0])
	}
}
