package store

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/olgasafonova/devops-tools-api/internal/errors"
)

func newTestStore(opts ...Option) *Store {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(append([]Option{WithLogger(logger)}, opts...)...)
}

func TestNew_Seed(t *testing.T) {
	s := newTestStore()

	want := []Record{
		{ID: 1, Tool: Tool{Name: "Jenkins", Description: StringPtr("Automation server"), Category: "CI/CD"}},
		{ID: 2, Tool: Tool{Name: "Docker", Description: StringPtr("Containerization platform"), Category: "Containerization"}},
		{ID: 3, Tool: Tool{Name: "Kubernetes", Description: StringPtr("Container orchestration"), Category: "Orchestration"}},
	}
	if diff := cmp.Diff(want, s.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
	if s.NextID() != 4 {
		t.Errorf("NextID() = %d, want 4", s.NextID())
	}
}

func TestNew_WithoutSeed(t *testing.T) {
	s := newTestStore(WithoutSeed())

	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if s.NextID() != 1 {
		t.Errorf("NextID() = %d, want 1", s.NextID())
	}
	rec := s.Create(Tool{Name: "Terraform", Category: "IaC"})
	if rec.ID != 1 {
		t.Errorf("first ID = %d, want 1", rec.ID)
	}
}

func TestNew_IndependentStores(t *testing.T) {
	a := newTestStore()
	b := newTestStore()

	a.Create(Tool{Name: "Terraform", Category: "IaC"})
	if b.Len() != 3 {
		t.Errorf("second store Len() = %d, want 3", b.Len())
	}
}

func TestGet(t *testing.T) {
	s := newTestStore()

	got, err := s.Get(2)
	if err != nil {
		t.Fatalf("Get(2) error = %v", err)
	}
	if got.Name != "Docker" {
		t.Errorf("Name = %q, want Docker", got.Name)
	}

	_, err = s.Get(999)
	if !apperrors.IsNotFound(err) {
		t.Errorf("Get(999) error = %v, want NotFoundError", err)
	}
}

func TestGet_Idempotent(t *testing.T) {
	s := newTestStore()

	first, _ := s.Get(1)
	for i := 0; i < 5; i++ {
		got, err := s.Get(1)
		if err != nil {
			t.Fatalf("Get(1) error = %v", err)
		}
		if diff := cmp.Diff(first, got); diff != "" {
			t.Errorf("Get(1) changed between calls (-first +got):\n%s", diff)
		}
	}
}

func TestCreate(t *testing.T) {
	s := newTestStore()

	rec := s.Create(Tool{Name: "Terraform", Category: "IaC"})
	if rec.ID != 4 {
		t.Errorf("ID = %d, want 4", rec.ID)
	}
	if s.NextID() != 5 {
		t.Errorf("NextID() = %d, want 5", s.NextID())
	}

	got, err := s.Get(4)
	if err != nil {
		t.Fatalf("Get(4) error = %v", err)
	}
	if diff := cmp.Diff(rec.Tool, got); diff != "" {
		t.Errorf("stored tool mismatch (-want +got):\n%s", diff)
	}
}

func TestCreate_IDsNeverReused(t *testing.T) {
	s := newTestStore()

	first := s.Create(Tool{Name: "Terraform", Category: "IaC"})
	if err := s.Delete(first.ID); err != nil {
		t.Fatalf("Delete(%d) error = %v", first.ID, err)
	}
	if err := s.Delete(3); err != nil {
		t.Fatalf("Delete(3) error = %v", err)
	}
	second := s.Create(Tool{Name: "Ansible", Category: "Configuration"})

	if second.ID <= first.ID {
		t.Errorf("second ID = %d, want > %d", second.ID, first.ID)
	}
	if second.ID != 5 {
		t.Errorf("second ID = %d, want 5", second.ID)
	}
}

func TestUpdate_ReplacesWholesale(t *testing.T) {
	s := newTestStore()

	replacement := Tool{Name: "GitLab CI", Category: "CI/CD", IsOpenSource: true}
	rec, err := s.Update(1, replacement)
	if err != nil {
		t.Fatalf("Update(1) error = %v", err)
	}
	if rec.ID != 1 {
		t.Errorf("ID = %d, want 1", rec.ID)
	}

	got, _ := s.Get(1)
	if diff := cmp.Diff(replacement, got); diff != "" {
		t.Errorf("Get(1) after update mismatch (-want +got):\n%s", diff)
	}
	if got.Description != nil {
		t.Errorf("Description = %q, want nil (old value must not be merged)", *got.Description)
	}
	if s.NextID() != 4 {
		t.Errorf("NextID() = %d, want 4 after update", s.NextID())
	}
}

func TestUpdate_NotFound(t *testing.T) {
	s := newTestStore()

	_, err := s.Update(999, Tool{Name: "x", Category: "y"})
	if !apperrors.IsNotFound(err) {
		t.Errorf("Update(999) error = %v, want NotFoundError", err)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore()

	if err := s.Delete(2); err != nil {
		t.Fatalf("Delete(2) error = %v", err)
	}
	if _, err := s.Get(2); !apperrors.IsNotFound(err) {
		t.Errorf("Get(2) after delete error = %v, want NotFoundError", err)
	}
	for _, rec := range s.List() {
		if rec.ID == 2 {
			t.Error("List() still contains ID 2")
		}
	}
	if err := s.Delete(2); !apperrors.IsNotFound(err) {
		t.Errorf("second Delete(2) error = %v, want NotFoundError", err)
	}
}

func TestConcurrentCreate(t *testing.T) {
	s := newTestStore(WithoutSeed())

	const n = 100
	var wg sync.WaitGroup
	ids := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- s.Create(Tool{Name: "t", Category: "c"}).ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool, n)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate ID %d", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Errorf("got %d unique IDs, want %d", len(seen), n)
	}
	if s.NextID() != n+1 {
		t.Errorf("NextID() = %d, want %d", s.NextID(), n+1)
	}
}
