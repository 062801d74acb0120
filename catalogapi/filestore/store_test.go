package filestore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/JourneyJu/dsg-sub010/catalogapi"
	"github.com/JourneyJu/dsg-sub010/testutil"
	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/google/go-cmp/cmp"
)

func newMemStore(t *testing.T, opts ...Option) (*Store, *MemFileSystem, *HeldLock) {
	t.Helper()
	fs := NewMemFileSystem()
	lock := &HeldLock{}
	n := 0
	base := []Option{
		WithFileSystem(fs),
		WithFileLockFactory(HeldLockFactory{Lock: lock}),
		WithTimeFunc(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
		WithIDFunc(func() string { n++; return fmt.Sprintf("gen-%d", n) }),
	}
	s, err := New("/data/catalog.json", append(base, opts...)...)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s, fs, lock
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, fs, _ := newMemStore(t)

	if err := s.Import(ctx, "form-1", testutil.Items("a", "b")); err != nil {
		t.Fatalf("failed to import: %v", err)
	}
	if !fs.Exists("/data/catalog.json") {
		t.Fatal("expected document written")
	}
	if fs.Exists("/data/catalog.json.tmp") {
		t.Error("temp file left behind")
	}

	got, err := s.FetchRecords(ctx, "form-1")
	if err != nil {
		t.Fatalf("failed to fetch: %v", err)
	}
	if len(got) != 2 || got[0]["name"] != "a" || got[1]["id"] != "b" {
		t.Errorf("unexpected records: %v", got)
	}
	// numbers come back as JSON numbers
	if got[0]["data_length"] != float64(64) {
		t.Errorf("expected data_length 64, got %#v", got[0]["data_length"])
	}
}

func TestStoreSubmit(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newMemStore(t)
	length := 20

	result, err := s.SubmitRecords(ctx, "form-1", []types.SubmittedRecord{
		{ID: "keep", Name: "Existing", Metadata: types.Metadata{DataType: "varchar", DataLength: &length}},
		{Name: "Created", Metadata: types.Metadata{DataType: "date"}, IsSecret: true, DataRefer: &types.Ref{ID: "s", Name: "n"}},
	})
	if err != nil {
		t.Fatalf("failed to submit: %v", err)
	}
	want := &types.SubmitResult{SourceID: "form-1", IDs: []string{"keep", "gen-1"}, Version: 1}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	records, err := s.FetchRecords(ctx, "form-1")
	if err != nil {
		t.Fatalf("failed to fetch: %v", err)
	}
	if records[1]["id"] != "gen-1" || records[1]["is_secret"] != true {
		t.Errorf("unexpected stored record: %v", records[1])
	}
	if records[0]["data_length"] != float64(20) {
		t.Errorf("expected flattened data_length, got %v", records[0])
	}

	again, err := s.SubmitRecords(ctx, "form-1", []types.SubmittedRecord{{ID: "keep", Name: "Existing"}})
	if err != nil {
		t.Fatalf("failed to resubmit: %v", err)
	}
	if again.Version != 2 {
		t.Errorf("expected version 2, got %d", again.Version)
	}
}

func TestStoreErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown source", func(t *testing.T) {
		s, _, _ := newMemStore(t)
		if _, err := s.FetchRecords(ctx, "nope"); !errors.Is(err, catalogapi.ErrSourceNotFound) {
			t.Errorf("expected ErrSourceNotFound, got %v", err)
		}
		if err := s.Delete(ctx, "nope"); !errors.Is(err, catalogapi.ErrSourceNotFound) {
			t.Errorf("expected ErrSourceNotFound, got %v", err)
		}
	})

	t.Run("invalid submission", func(t *testing.T) {
		s, _, _ := newMemStore(t)
		_, err := s.SubmitRecords(ctx, "f", []types.SubmittedRecord{{ID: "x", Name: "a"}, {ID: "x", Name: "b"}})
		if !errors.Is(err, catalogapi.ErrInvalidSubmission) {
			t.Errorf("expected ErrInvalidSubmission, got %v", err)
		}
		_, err = s.SubmitRecords(ctx, "f", []types.SubmittedRecord{{Name: " "}})
		if !errors.Is(err, catalogapi.ErrInvalidSubmission) {
			t.Errorf("expected ErrInvalidSubmission for blank name, got %v", err)
		}
	})

	t.Run("write failure leaves document intact", func(t *testing.T) {
		s, fs, _ := newMemStore(t)
		if err := s.Import(ctx, "f", testutil.Items("a")); err != nil {
			t.Fatalf("failed to import: %v", err)
		}
		fs.RenameError = errors.New("disk full")
		if err := s.Import(ctx, "f", testutil.Items("b")); err == nil {
			t.Fatal("expected error")
		}
		fs.RenameError = nil
		records, _ := s.FetchRecords(ctx, "f")
		if len(records) != 1 || records[0]["name"] != "a" {
			t.Errorf("expected original records, got %v", records)
		}
	})

	t.Run("corrupt document", func(t *testing.T) {
		fs := NewMemFileSystem()
		_ = fs.WriteFile("/data/catalog.json", []byte("{not json"), 0644)
		_, err := New("/data/catalog.json", WithFileSystem(fs), WithFileLockFactory(HeldLockFactory{Lock: &HeldLock{}}))
		if err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("lock held by another process", func(t *testing.T) {
		s, _, lock := newMemStore(t)
		lock.Hold()
		err := s.Import(ctx, "f", testutil.Items("a"))
		if err == nil {
			t.Fatal("expected lock failure")
		}
		if lock.Attempts < lockMaxRetries {
			t.Errorf("expected %d attempts, got %d", lockMaxRetries, lock.Attempts)
		}
		lock.Release()
		if err := s.Import(ctx, "f", testutil.Items("a")); err != nil {
			t.Errorf("expected success after release, got %v", err)
		}
	})
}

func TestStoreSources(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newMemStore(t)
	_ = s.Import(ctx, "b-form", testutil.Items("x"))
	_ = s.Import(ctx, "a-form", testutil.Items("x", "y"))

	got, err := s.Sources(ctx)
	if err != nil {
		t.Fatalf("failed to list sources: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a-form" || got[0].Records != 2 {
		t.Errorf("unexpected sources: %+v", got)
	}

	if err := s.Delete(ctx, "a-form"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	got, _ = s.Sources(ctx)
	if len(got) != 1 {
		t.Errorf("expected one source left, got %+v", got)
	}
}

func TestStoreOnDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "catalog.json")

	first, err := New(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	second, err := New(path)
	if err != nil {
		t.Fatalf("failed to open second store: %v", err)
	}
	t.Cleanup(func() { _ = first.Close(); _ = second.Close() })

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := first
			if i%2 == 1 {
				s = second
			}
			if err := s.Import(ctx, fmt.Sprintf("form-%d", i), testutil.Items("a")); err != nil {
				t.Errorf("import %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	sources, err := first.Sources(ctx)
	if err != nil {
		t.Fatalf("failed to list sources: %v", err)
	}
	if len(sources) != 4 {
		t.Errorf("expected 4 sources from concurrent writers, got %d", len(sources))
	}
}
