package recordset

import (
	"errors"
	"testing"

	"github.com/JourneyJu/dsg-sub010/testutil"
	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/google/go-cmp/cmp"
)

func TestBatchConfig(t *testing.T) {
	t.Run("commit merges only the selection", func(t *testing.T) {
		c, _ := loadItems(t, "A", "B", "C")
		if err := c.EnterBatchConfig([]string{"A", "C"}); err != nil {
			t.Fatalf("failed to enter batch: %v", err)
		}
		if err := c.BatchEditField("is_sensitive", true); err != nil {
			t.Fatalf("failed to batch edit: %v", err)
		}

		v := c.View()
		testutil.AssertNames(t, v.Records, "A", "C")
		if diff := cmp.Diff(types.HeaderValue{Value: true, IsUniform: true}, v.Header["is_sensitive"]); diff != "" {
			t.Errorf("header mismatch (-want +got):\n%s", diff)
		}

		if err := c.CommitBatchConfig(); err != nil {
			t.Fatalf("failed to commit: %v", err)
		}
		if c.Mode() != types.ModeNormal || len(c.BatchSelection()) != 0 {
			t.Errorf("expected normal mode with cleared selection, got %s", c.Mode())
		}

		records := c.Records()
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}
		want := map[string]interface{}{"A": true, "B": false, "C": true}
		for _, r := range records {
			if r.Fields["is_sensitive"] != want[r.Key] {
				t.Errorf("%s.is_sensitive = %v, want %v", r.Key, r.Fields["is_sensitive"], want[r.Key])
			}
		}
	})

	t.Run("pending edits invisible to canonical until commit", func(t *testing.T) {
		c, _ := loadItems(t, "A", "B")
		_ = c.EnterBatchConfig([]string{"A"})
		_ = c.BatchEditField("is_secret", true)

		if mustRecord(t, c, "A").Fields["is_secret"] != false {
			t.Error("batch edit leaked into canonical before commit")
		}
		if c.SubmissionPayload()[0].IsSecret {
			t.Error("payload must reflect canonical state only")
		}
	})

	t.Run("cancel restores canonical state", func(t *testing.T) {
		c, _ := loadItems(t, "A", "B", "C")
		_ = c.EditField("B", "shared_type", "conditional")
		before := testutil.StripSelection(c.Records())

		_ = c.EnterBatchConfig([]string{"A", "B"})
		_ = c.BatchEditField("shared_type", "not_shared")
		_ = c.EditField("A", "name", "renamed")
		_ = c.EditField("C", "description", "outside selection")
		if err := c.CancelBatchConfig(); err != nil {
			t.Fatalf("failed to cancel: %v", err)
		}

		after := testutil.StripSelection(c.Records())
		delete(after[2].Fields, "description")
		delete(after[2].Errors, "description")
		if diff := cmp.Diff(before, after); diff != "" {
			t.Errorf("canonical changed by canceled batch (-before +after):\n%s", diff)
		}
	})

	t.Run("batch coupling applied to pending values", func(t *testing.T) {
		c, _ := loadItems(t, "A", "B")
		_ = c.EditField("A", "open_type", "open")
		_ = c.EnterBatchConfig([]string{"A", "B"})
		_ = c.BatchEditField("shared_type", "not_shared")

		v := c.View()
		if diff := cmp.Diff(types.HeaderValue{Value: "not_open", IsUniform: true}, v.Header["open_type"]); diff != "" {
			t.Errorf("open_type header mismatch (-want +got):\n%s", diff)
		}
		_ = c.CommitBatchConfig()
		if mustRecord(t, c, "A").Fields["open_type"] != "not_open" {
			t.Error("coupled value not merged on commit")
		}
	})

	t.Run("header reflects mixed values", func(t *testing.T) {
		c, _ := loadItems(t, "A", "B", "C")
		_ = c.EditField("A", "is_incremental", true)
		_ = c.EnterBatchConfig([]string{"A", "B"})

		if c.View().Header["is_incremental"].IsUniform {
			t.Error("expected mixed values before batch edit")
		}
		_ = c.EditField("B", "is_incremental", true)
		if h := c.View().Header["is_incremental"]; !h.IsUniform || h.Value != true {
			t.Errorf("expected uniform true after edit, got %+v", h)
		}
	})

	t.Run("empty selection", func(t *testing.T) {
		c, _ := loadItems(t, "A")
		if err := c.EnterBatchConfig([]string{"missing"}); err != nil {
			t.Fatalf("failed to enter batch: %v", err)
		}
		v := c.View()
		if len(v.Records) != 0 || v.Header["is_secret"].IsUniform {
			t.Errorf("expected empty non-uniform batch, got %+v", v)
		}
		if err := c.BatchEditField("is_secret", true); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		_ = c.CommitBatchConfig()
		if c.Len() != 1 {
			t.Errorf("expected collection length unchanged, got %d", c.Len())
		}
	})

	t.Run("enter clears search", func(t *testing.T) {
		c, _ := loadItems(t, "A", "B")
		_ = c.SetSearchFilter("A")
		if err := c.EnterBatchConfig([]string{"B"}); err != nil {
			t.Fatalf("failed to enter batch from search: %v", err)
		}
		_ = c.CancelBatchConfig()
		v := c.View()
		if v.Mode != types.ModeNormal || v.Filter != "" {
			t.Errorf("expected plain normal mode, got %s %q", v.Mode, v.Filter)
		}
	})

	t.Run("mode conflicts", func(t *testing.T) {
		c, _ := loadItems(t, "A")
		for name, fn := range map[string]func() error{
			"batch edit": func() error { return c.BatchEditField("is_secret", true) },
			"commit":     c.CommitBatchConfig,
			"cancel":     c.CancelBatchConfig,
		} {
			if err := fn(); !errors.Is(err, ErrModeConflict) {
				t.Errorf("%s outside batch: expected ErrModeConflict, got %v", name, err)
			}
		}
		_ = c.EnterBatchConfig([]string{"A"})
		if err := c.EnterBatchConfig([]string{"A"}); !errors.Is(err, ErrModeConflict) {
			t.Errorf("expected ErrModeConflict on re-entry, got %v", err)
		}
	})

	t.Run("only batch-coupled fields", func(t *testing.T) {
		c, _ := loadItems(t, "A")
		_ = c.EnterBatchConfig([]string{"A"})
		if err := c.BatchEditField("name", "x"); !errors.Is(err, ErrNotBatchField) {
			t.Errorf("expected ErrNotBatchField, got %v", err)
		}
	})

	t.Run("commit revalidates merged records", func(t *testing.T) {
		c, _ := loadItems(t, "A", "B")
		_ = c.EnterBatchConfig([]string{"A"})
		_ = c.EditField("A", "name", "B")
		_ = c.CommitBatchConfig()
		testutil.AssertFieldError(t, mustRecord(t, c, "A"), "name")
	})
}

func TestBatchIdempotentMerge(t *testing.T) {
	c, _ := loadItems(t, "A", "B", "C", "D")
	before := c.Records()

	_ = c.EnterBatchConfig([]string{"B", "D"})
	_ = c.BatchEditField("is_local_generated", true)
	_ = c.BatchEditField("open_type", "open")
	_ = c.CommitBatchConfig()

	after := c.Records()
	if len(after) != len(before) {
		t.Fatalf("length changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i].Key != after[i].Key {
			t.Errorf("key at %d changed: %s -> %s", i, before[i].Key, after[i].Key)
		}
		inBatch := before[i].Key == "B" || before[i].Key == "D"
		for field, old := range before[i].Fields {
			touched := field == "is_local_generated" || field == "open_type"
			if !touched || !inBatch {
				if diff := cmp.Diff(old, after[i].Fields[field]); diff != "" {
					t.Errorf("%s.%s changed unexpectedly:\n%s", before[i].Key, field, diff)
				}
			}
		}
	}
}
