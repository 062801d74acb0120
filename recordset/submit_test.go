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

func TestValidateAll(t *testing.T) {
	t.Run("duplicate names", func(t *testing.T) {
		items := testutil.Items("a", "a")
		items[0]["id"] = "1"
		items[1]["id"] = "2"
		client := testutil.NewStubClient(map[string][]types.RawRecord{"src": items})
		c := New(client)
		if _, err := c.Load(context.Background(), "src"); err != nil {
			t.Fatalf("failed to load: %v", err)
		}

		summary := c.ValidateAll()
		if summary.OK || summary.ErrorCount < 1 {
			t.Errorf("expected duplicate error, got %+v", summary)
		}
		records := c.Records()
		if records[0].Errors[types.FieldName] != validation.MsgDuplicateName {
			t.Errorf("expected duplicate error on first record, got %v", records[0].Errors)
		}
		if _, has := records[1].Errors[types.FieldName]; has {
			t.Errorf("expected last occurrence to stay clean, got %v", records[1].Errors)
		}
	})

	t.Run("primary key required", func(t *testing.T) {
		cfg := types.DefaultConfig()
		cfg.PrimaryKeyRequired = true
		client := testutil.NewStubClient(map[string][]types.RawRecord{"src": testutil.Items("a", "b")})
		c := New(client, WithConfig(cfg))
		if _, err := c.Load(context.Background(), "src"); err != nil {
			t.Fatalf("failed to load: %v", err)
		}

		if got := c.ValidateAll(); got.ErrorCount != 1 {
			t.Errorf("expected one aggregate error, got %+v", got)
		}
		_ = c.SetPrimaryKey("a")
		if got := c.ValidateAll(); !got.OK {
			t.Errorf("expected valid collection, got %+v", got)
		}
	})

	t.Run("fixture is valid", func(t *testing.T) {
		client, _ := testutil.LoadCatalog(t)
		c := New(client)
		if _, err := c.Load(context.Background(), testutil.CustomerSource); err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if got := c.ValidateAll(); !got.OK {
			for _, r := range c.Records() {
				t.Logf("%s: %v", r.Key, r.Errors)
			}
			t.Errorf("expected fixture to validate, got %+v", got)
		}
	})
}

func TestSubmissionPayload(t *testing.T) {
	client, _ := testutil.LoadCatalog(t)
	c := New(client)
	if _, err := c.Load(context.Background(), testutil.CustomerSource); err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	key, err := c.AddRecord(map[string]interface{}{
		"name":         "Remark",
		"data_type":    "varchar",
		"data_length":  "500",
		"is_secret":    "yes",
		"source_field": "remark",
	})
	if err != nil {
		t.Fatalf("failed to add: %v", err)
	}

	payload := c.SubmissionPayload()
	if len(payload) != 5 {
		t.Fatalf("expected 5 records, got %d", len(payload))
	}

	length32, length18, accuracy2, length500 := 32, 18, 2, 500
	want := []types.SubmittedRecord{
		{
			ID: "item-001", Index: 0, Name: "客户编号", TechnicalName: "customer_id",
			Metadata:     types.Metadata{DataType: "varchar", DataLength: &length32},
			IsPrimaryKey: true, IsLocalGenerated: true, IsStandardized: true,
			SharedType: "unconditional", OpenType: "open",
			DataRefer: &types.Ref{ID: "std-100", Name: "Customer Identifier"},
		},
		{
			ID: "item-002", Index: 1, Name: "Customer Name", TechnicalName: "customer_name",
			Metadata:    types.Metadata{DataType: "varchar", DataLength: func() *int { n := 128; return &n }()},
			IsSensitive: true,
			SharedType:  "conditional", SharedCondition: "internal departments only", OpenType: "not_open",
		},
		{
			ID: "item-003", Index: 2, Name: "Credit Limit", TechnicalName: "credit_limit",
			Metadata:    types.Metadata{DataType: "decimal", DataLength: &length18, DataAccuracy: &accuracy2, DataRange: "0-1000000"},
			IsSensitive: true,
			SharedType:  "unconditional", OpenType: "conditional", OpenCondition: "aggregated only",
			CodeSet: &types.Ref{ID: "code-7", Name: "Currency"},
		},
		{
			ID: "item-004", Index: 3, Name: "Registered At", TechnicalName: "registered_at",
			Metadata:      types.Metadata{DataType: "datetime"},
			IsIncremental: true, IsLocalGenerated: true,
			SharedType: "not_shared", OpenType: "not_open",
			Attributes: map[string]interface{}{"source_table": "t_customer"},
		},
		{
			Index: 4, Name: "Remark",
			Metadata:   types.Metadata{DataType: "varchar", DataLength: &length500},
			IsSecret:   true,
			Attributes: map[string]interface{}{"source_field": "remark"},
		},
	}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	if payload[4].ID != "" {
		t.Errorf("new record %s must not carry an id", key)
	}
}

func TestSubmit(t *testing.T) {
	t.Run("assigns ids to new records", func(t *testing.T) {
		c, client := loadItems(t, "A", "B")
		key, _ := c.AddRecord(map[string]interface{}{"name": "C", "data_type": "bool"})

		result, err := c.Submit(context.Background())
		if err != nil {
			t.Fatalf("failed to submit: %v", err)
		}
		if len(result.IDs) != 3 {
			t.Fatalf("expected 3 ids, got %v", result.IDs)
		}
		rec := mustRecord(t, c, key)
		if rec.ID != result.IDs[2] || rec.ID == "" {
			t.Errorf("expected id %s written back, got %q", result.IDs[2], rec.ID)
		}
		if len(client.Submissions()) != 1 {
			t.Errorf("expected one submission, got %d", len(client.Submissions()))
		}
	})

	t.Run("validation gate", func(t *testing.T) {
		c, client := loadItems(t, "A", "a")
		_, err := c.Submit(context.Background())
		var vErr *ValidationFailedError
		if !errors.As(err, &vErr) || vErr.ErrorCount < 1 {
			t.Fatalf("expected ValidationFailedError, got %v", err)
		}
		if len(client.Submissions()) != 0 {
			t.Error("collaborator must not be called when validation fails")
		}
	})

	t.Run("failure leaves canonical untouched", func(t *testing.T) {
		c, client := loadItems(t, "A", "B")
		_, _ = c.AddRecord(map[string]interface{}{"name": "C", "data_type": "bool"})
		before := c.Records()
		client.SubmitErr = errors.New("gateway timeout")

		_, err := c.Submit(context.Background())
		var sErr *SubmitError
		if !errors.As(err, &sErr) {
			t.Fatalf("expected SubmitError, got %v", err)
		}
		if diff := cmp.Diff(before, c.Records()); diff != "" {
			t.Errorf("canonical changed by failed submit (-before +after):\n%s", diff)
		}
	})

	t.Run("empty collaborator result", func(t *testing.T) {
		client := catalogapi.ClientFunc{
			Fetch: func(ctx context.Context, sourceID string) ([]types.RawRecord, error) {
				return testutil.Items("A", "B"), nil
			},
			Submit: func(ctx context.Context, sourceID string, records []types.SubmittedRecord) (*types.SubmitResult, error) {
				return nil, nil
			},
		}
		c := New(client)
		if _, err := c.Load(context.Background(), "src"); err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		key, _ := c.AddRecord(map[string]interface{}{"name": "C", "data_type": "bool"})
		if got := c.ValidateAll(); !got.OK {
			t.Fatalf("expected valid collection, got %+v", got)
		}
		before := c.Records()

		result, err := c.Submit(context.Background())
		if err != nil {
			t.Fatalf("failed to submit: %v", err)
		}
		if result == nil || result.SourceID != "src" || len(result.IDs) != 0 {
			t.Errorf("expected empty result for src, got %+v", result)
		}
		if rec := mustRecord(t, c, key); rec.ID != "" {
			t.Errorf("expected no id written back, got %q", rec.ID)
		}
		if diff := cmp.Diff(before, c.Records()); diff != "" {
			t.Errorf("records changed by empty result (-before +after):\n%s", diff)
		}
	})

	t.Run("rejected in batch config", func(t *testing.T) {
		c, _ := loadItems(t, "A")
		_ = c.EnterBatchConfig([]string{"A"})
		if _, err := c.Submit(context.Background()); !errors.Is(err, ErrModeConflict) {
			t.Errorf("expected ErrModeConflict, got %v", err)
		}
	})

	t.Run("not loaded", func(t *testing.T) {
		c := New(testutil.NewStubClient(nil))
		if _, err := c.Submit(context.Background()); !errors.Is(err, ErrNotLoaded) {
			t.Errorf("expected ErrNotLoaded, got %v", err)
		}
	})
}
