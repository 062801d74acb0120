package recordset

import (
	"context"
	"errors"
	"testing"

	"github.com/JourneyJu/dsg-sub010/catalogapi"
	"github.com/JourneyJu/dsg-sub010/internal/validation"
	"github.com/JourneyJu/dsg-sub010/testutil"
	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/google/go-cmp/cmp"
)

// loadItems returns a controller loaded with items named after names
func loadItems(t *testing.T, names ...string) (*Controller, *testutil.StubClient) {
	t.Helper()
	client := testutil.NewStubClient(map[string][]types.RawRecord{"src": testutil.Items(names...)})
	c := New(client)
	if _, err := c.Load(context.Background(), "src"); err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	return c, client
}

func mustRecord(t *testing.T, c *Controller, key string) types.Record {
	t.Helper()
	rec, ok := c.Record(key)
	if !ok {
		t.Fatalf("record %s not found", key)
	}
	return rec
}

func TestLoad(t *testing.T) {
	t.Run("fixture normalization", func(t *testing.T) {
		client, _ := testutil.LoadCatalog(t)
		c := New(client)
		got, err := c.Load(context.Background(), testutil.CustomerSource)
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		testutil.AssertRecordCount(t, got, 4)
		testutil.AssertNames(t, got, "客户编号", "Customer Name", "Credit Limit", "Registered At")

		id := mustRecord(t, c, "item-001")
		if diff := cmp.Diff(&types.Ref{ID: "std-100", Name: "Customer Identifier"}, id.Fields["data_refer"]); diff != "" {
			t.Errorf("data_refer mismatch (-want +got):\n%s", diff)
		}
		if id.Fields["data_length"] != 32 {
			t.Errorf("expected data_length 32, got %#v", id.Fields["data_length"])
		}

		name := mustRecord(t, c, "item-002")
		if name.Fields["is_sensitive"] != true || name.Fields["is_secret"] != false {
			t.Errorf("expected flag words coerced, got %v / %v", name.Fields["is_sensitive"], name.Fields["is_secret"])
		}

		credit := mustRecord(t, c, "item-003")
		if credit.Fields["data_type"] != "decimal" || credit.Fields["data_accuracy"] != 2 {
			t.Errorf("expected metadata flattened, got %v", credit.Fields)
		}
		if _, ok := credit.Fields["metadata"]; ok {
			t.Error("metadata should not remain as a field")
		}

		for i, r := range c.Records() {
			if r.Ordinal != i || r.Selected || len(r.Errors) != 0 {
				t.Errorf("record %d not initialized: %+v", i, r)
			}
		}
		if c.Mode() != types.ModeNormal {
			t.Errorf("expected normal mode, got %s", c.Mode())
		}
	})

	t.Run("failure leaves controller empty", func(t *testing.T) {
		c, client := loadItems(t, "A", "B")
		client.FetchErr = errors.New("connection refused")

		_, err := c.Load(context.Background(), "src")
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			t.Fatalf("expected LoadError, got %v", err)
		}
		if loadErr.SourceID != "src" {
			t.Errorf("expected source src, got %s", loadErr.SourceID)
		}
		if c.Len() != 0 {
			t.Errorf("expected empty controller, got %d records", c.Len())
		}
	})

	t.Run("unknown source", func(t *testing.T) {
		c := New(testutil.NewStubClient(nil))
		_, err := c.Load(context.Background(), "missing")
		if !errors.Is(err, catalogapi.ErrSourceNotFound) {
			t.Errorf("expected ErrSourceNotFound in chain, got %v", err)
		}
	})

	t.Run("duplicate ids rejected", func(t *testing.T) {
		items := testutil.Items("A", "B")
		items[1]["id"] = "A"
		c := New(testutil.NewStubClient(map[string][]types.RawRecord{"src": items}))
		_, err := c.Load(context.Background(), "src")
		if !errors.Is(err, ErrDuplicateID) {
			t.Fatalf("expected ErrDuplicateID, got %v", err)
		}
		if c.Len() != 0 {
			t.Errorf("expected no partial load, got %d records", c.Len())
		}
	})

	t.Run("records without id get generated keys", func(t *testing.T) {
		items := testutil.Items("A", "B")
		delete(items[0], "id")
		n := 0
		c := New(testutil.NewStubClient(map[string][]types.RawRecord{"src": items}),
			WithKeyFunc(func() string { n++; return "gen-" + string(rune('0'+n)) }))
		got, err := c.Load(context.Background(), "src")
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if got[0].Key != "gen-1" || got[0].ID != "" {
			t.Errorf("expected generated key without id, got %+v", got[0])
		}
	})

	t.Run("load resets mode", func(t *testing.T) {
		c, _ := loadItems(t, "A", "B")
		if err := c.EnterBatchConfig([]string{"A"}); err != nil {
			t.Fatalf("failed to enter batch: %v", err)
		}
		if _, err := c.Load(context.Background(), "src"); err != nil {
			t.Fatalf("failed to reload: %v", err)
		}
		if c.Mode() != types.ModeNormal || len(c.BatchSelection()) != 0 {
			t.Errorf("expected fresh normal session, got %s", c.Mode())
		}
	})
}

func TestLoadSupersession(t *testing.T) {
	client := testutil.NewStubClient(map[string][]types.RawRecord{
		"old": testutil.Items("old"),
		"new": testutil.Items("new"),
	})
	started := make(chan struct{})
	client.FetchHook = func(ctx context.Context, sourceID string) error {
		if sourceID != "old" {
			return nil
		}
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}

	c := New(client)
	errc := make(chan error, 1)
	go func() {
		_, err := c.Load(context.Background(), "old")
		errc <- err
	}()
	<-started

	if _, err := c.Load(context.Background(), "new"); err != nil {
		t.Fatalf("failed to load newer source: %v", err)
	}
	if err := <-errc; !errors.Is(err, ErrSuperseded) {
		t.Errorf("expected ErrSuperseded for older load, got %v", err)
	}

	testutil.AssertNames(t, c.View().Records, "new")
	if c.SourceID() != "new" {
		t.Errorf("expected source new, got %s", c.SourceID())
	}
}

func TestSearch(t *testing.T) {
	t.Run("edit through search view writes canonical", func(t *testing.T) {
		c, _ := loadItems(t, "A", "B", "C")

		if err := c.SetSearchFilter("B"); err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		v := c.View()
		if v.Mode != types.ModeSearching {
			t.Errorf("expected searching mode, got %s", v.Mode)
		}
		testutil.AssertNames(t, v.Records, "B")

		if err := c.EditField(v.Records[0].Key, "name", "B2"); err != nil {
			t.Fatalf("failed to edit: %v", err)
		}
		if err := c.SetSearchFilter(""); err != nil {
			t.Fatalf("failed to clear search: %v", err)
		}
		v = c.View()
		if v.Mode != types.ModeNormal {
			t.Errorf("expected normal mode, got %s", v.Mode)
		}
		testutil.AssertNames(t, v.Records, "A", "B2", "C")
	})

	t.Run("case insensitive projection", func(t *testing.T) {
		c, _ := loadItems(t, "Order_ID", "customer", "ORDER_DATE")
		_ = c.SetSearchFilter("order")
		testutil.AssertNames(t, c.View().Records, "Order_ID", "ORDER_DATE")
	})

	t.Run("rejected in batch config", func(t *testing.T) {
		c, _ := loadItems(t, "A")
		_ = c.EnterBatchConfig([]string{"A"})
		err := c.SetSearchFilter("A")
		if !errors.Is(err, ErrModeConflict) {
			t.Errorf("expected ErrModeConflict, got %v", err)
		}
		var mc *ModeConflictError
		if !errors.As(err, &mc) || mc.Mode != types.ModeBatchConfig {
			t.Errorf("expected ModeConflictError in batch mode, got %v", err)
		}
	})
}

func TestEditField(t *testing.T) {
	t.Run("unknown key is a no-op", func(t *testing.T) {
		c, _ := loadItems(t, "A")
		before := c.Records()
		if err := c.EditField("nope", "name", "x"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if diff := cmp.Diff(before, c.Records()); diff != "" {
			t.Errorf("records changed (-before +after):\n%s", diff)
		}
	})

	t.Run("not shared forces not open", func(t *testing.T) {
		c, _ := loadItems(t, "A")
		_ = c.EditField("A", "open_type", "conditional")
		_ = c.EditField("A", "open_condition", "public data only")
		_ = c.EditField("A", "shared_type", "conditional")
		_ = c.EditField("A", "shared_condition", "partners")

		_ = c.EditField("A", "shared_type", "not_shared")
		rec := mustRecord(t, c, "A")
		if rec.Fields["open_type"] != "not_open" {
			t.Errorf("expected not_open, got %v", rec.Fields["open_type"])
		}
		for _, f := range []string{"shared_condition", "open_condition"} {
			if _, ok := rec.Fields[f]; ok {
				t.Errorf("expected %s cleared", f)
			}
		}
	})

	t.Run("data type change clears length and accuracy", func(t *testing.T) {
		c, _ := loadItems(t, "A")
		_ = c.EditField("A", "data_type", "decimal")
		_ = c.EditField("A", "data_length", 10)
		_ = c.EditField("A", "data_accuracy", 2)

		_ = c.EditField("A", "data_type", "number")
		rec := mustRecord(t, c, "A")
		if rec.Fields["data_length"] != 10 {
			t.Errorf("expected length kept for number, got %v", rec.Fields["data_length"])
		}
		if _, ok := rec.Fields["data_accuracy"]; ok {
			t.Error("expected accuracy cleared for number")
		}

		_ = c.EditField("A", "data_type", "date")
		rec = mustRecord(t, c, "A")
		if _, ok := rec.Fields["data_length"]; ok {
			t.Error("expected length cleared for date")
		}
		testutil.AssertNoFieldError(t, rec, "data_length")
	})

	t.Run("length validated against type", func(t *testing.T) {
		c, _ := loadItems(t, "A")
		_ = c.EditField("A", "data_length", 70000)
		testutil.AssertFieldError(t, mustRecord(t, c, "A"), "data_length")

		_ = c.EditField("A", "data_length", 255)
		testutil.AssertNoFieldError(t, mustRecord(t, c, "A"), "data_length")

		_ = c.EditField("A", "data_type", "number")
		rec := mustRecord(t, c, "A")
		if rec.Errors["data_length"] != validation.MsgNumericLength {
			t.Errorf("expected dependent length error after type change, got %q", rec.Errors["data_length"])
		}
	})

	t.Run("typed length is read as decimal", func(t *testing.T) {
		c, _ := loadItems(t, "A")
		_ = c.EditField("A", "data_type", "varchar")
		_ = c.EditField("A", "data_length", "010")
		rec := mustRecord(t, c, "A")
		if rec.Fields["data_length"] != 10 {
			t.Errorf("expected data_length 10, got %#v", rec.Fields["data_length"])
		}
		testutil.AssertNoFieldError(t, rec, "data_length")

		_ = c.EditField("A", "data_length", "0x10")
		testutil.AssertFieldError(t, mustRecord(t, c, "A"), "data_length")
	})

	t.Run("data refer drives standardized flag", func(t *testing.T) {
		c, _ := loadItems(t, "A")
		_ = c.EditField("A", "data_refer", "std-1>><<Gender")
		rec := mustRecord(t, c, "A")
		if rec.Fields["is_standardized"] != true {
			t.Errorf("expected standardized, got %v", rec.Fields["is_standardized"])
		}
		if ref, ok := rec.Fields["data_refer"].(*types.Ref); !ok || ref.ID != "std-1" {
			t.Errorf("expected structured reference, got %#v", rec.Fields["data_refer"])
		}

		_ = c.EditField("A", "data_refer", "")
		rec = mustRecord(t, c, "A")
		if rec.Fields["is_standardized"] != false {
			t.Errorf("expected not standardized, got %v", rec.Fields["is_standardized"])
		}
	})

	t.Run("duplicate name compared against all others", func(t *testing.T) {
		c, _ := loadItems(t, "a", "b", "c")
		_ = c.EditField("c", "name", "A")
		testutil.AssertFieldError(t, mustRecord(t, c, "c"), "name")

		_ = c.EditField("c", "name", "z")
		testutil.AssertNoFieldError(t, mustRecord(t, c, "c"), "name")
	})

	t.Run("stale duplicate errors cleared", func(t *testing.T) {
		c, _ := loadItems(t, "a", "b")
		_ = c.EditField("b", "name", "a")
		summary := c.ValidateAll()
		if summary.OK {
			t.Fatal("expected duplicate error")
		}
		testutil.AssertFieldError(t, mustRecord(t, c, "a"), "name")

		_ = c.EditField("b", "name", "b")
		testutil.AssertNoFieldError(t, mustRecord(t, c, "a"), "name")
		testutil.AssertNoFieldError(t, mustRecord(t, c, "b"), "name")
	})

	t.Run("pattern violation recorded not rejected", func(t *testing.T) {
		c, _ := loadItems(t, "a")
		if err := c.EditField("a", "name", "bad 😀"); err != nil {
			t.Fatalf("validation must not fail the edit: %v", err)
		}
		rec := mustRecord(t, c, "a")
		if rec.Name() != "bad 😀" {
			t.Errorf("expected value stored, got %q", rec.Name())
		}
		testutil.AssertFieldError(t, rec, "name")
	})
}

func TestSetPrimaryKey(t *testing.T) {
	c, _ := loadItems(t, "A", "B", "C")
	_ = c.SetSearchFilter("A")

	for _, key := range []string{"B", "C", "A", "C"} {
		if err := c.SetPrimaryKey(key); err != nil {
			t.Fatalf("failed to set primary key: %v", err)
		}
	}

	var primary []string
	for _, r := range c.Records() {
		if r.Fields["is_primary_key"] == true {
			primary = append(primary, r.Key)
		}
	}
	if diff := cmp.Diff([]string{"C"}, primary); diff != "" {
		t.Errorf("primary keys mismatch (-want +got):\n%s", diff)
	}

	if err := c.SetPrimaryKey("missing"); err != nil {
		t.Errorf("expected unknown key ignored, got %v", err)
	}
}

func TestReorder(t *testing.T) {
	t.Run("dense ordinals", func(t *testing.T) {
		c, _ := loadItems(t, "A", "B", "C", "D", "E")
		if err := c.Reorder(1, 3); err != nil {
			t.Fatalf("failed to reorder: %v", err)
		}
		testutil.AssertNames(t, c.View().Records, "A", "C", "D", "B", "E")
		testutil.AssertDenseOrdinals(t, c.Records())
	})

	t.Run("same index is a no-op", func(t *testing.T) {
		c, _ := loadItems(t, "A", "B")
		serial := c.Serial()
		if err := c.Reorder(1, 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Serial() != serial {
			t.Error("expected no mutation")
		}
	})

	t.Run("out of range", func(t *testing.T) {
		c, _ := loadItems(t, "A", "B")
		if err := c.Reorder(0, 2); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("expected ErrIndexOutOfRange, got %v", err)
		}
	})

	t.Run("rejected outside normal mode", func(t *testing.T) {
		c, _ := loadItems(t, "A", "B")
		_ = c.SetSearchFilter("A")
		if err := c.Reorder(0, 1); !errors.Is(err, ErrModeConflict) {
			t.Errorf("expected ErrModeConflict while searching, got %v", err)
		}
		_ = c.SetSearchFilter("")
		_ = c.EnterBatchConfig([]string{"A"})
		if err := c.Reorder(0, 1); !errors.Is(err, ErrModeConflict) {
			t.Errorf("expected ErrModeConflict in batch config, got %v", err)
		}
		testutil.AssertNames(t, c.View().Records, "A")
	})
}

func TestAddAndDelete(t *testing.T) {
	c, _ := loadItems(t, "A", "B", "C")

	key, err := c.AddRecord(map[string]interface{}{"name": "D", "data_type": "date"})
	if err != nil {
		t.Fatalf("failed to add: %v", err)
	}
	rec := mustRecord(t, c, key)
	if rec.ID != "" || rec.Ordinal != 3 {
		t.Errorf("unexpected new record: %+v", rec)
	}

	n, err := c.DeleteRecords([]string{"B", "missing"})
	if err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}
	records := c.Records()
	testutil.AssertDenseOrdinals(t, records)
	testutil.AssertUniqueKeys(t, records)
	testutil.AssertNames(t, c.View().Records, "A", "C", "D")

	_ = c.EnterBatchConfig([]string{"A"})
	if _, err := c.AddRecord(nil); !errors.Is(err, ErrModeConflict) {
		t.Errorf("expected ErrModeConflict for add, got %v", err)
	}
	if _, err := c.DeleteRecords([]string{"A"}); !errors.Is(err, ErrModeConflict) {
		t.Errorf("expected ErrModeConflict for delete, got %v", err)
	}
}

func TestDispatch(t *testing.T) {
	c, _ := loadItems(t, "A", "B", "C")
	events := []types.Event{
		types.SelectionChangedEvent{Keys: []string{"A"}},
		types.ReorderEvent{From: 2, To: 0},
		types.FieldEditEvent{Key: "A", Field: "description", Value: "first"},
		types.EnterBatchEvent{Keys: []string{"A", "B"}},
		types.BatchEditEvent{Field: "is_secret", Value: true},
		types.CommitBatchEvent{},
		types.PrimaryKeyEvent{Key: "B"},
		types.SearchEvent{Substring: "b"},
	}
	for _, ev := range events {
		if err := c.Dispatch(ev); err != nil {
			t.Fatalf("failed to dispatch %s: %v", ev.EventType(), err)
		}
	}

	v := c.View()
	testutil.AssertNames(t, v.Records, "B")
	if v.Records[0].Fields["is_secret"] != true || v.Records[0].Fields["is_primary_key"] != true {
		t.Errorf("unexpected B fields: %v", v.Records[0].Fields)
	}
	if err := c.Dispatch(nil); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent for nil event, got %v", err)
	}
	if err := c.DispatchSpec(types.EventSpec{Type: "unknown"}); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
}
