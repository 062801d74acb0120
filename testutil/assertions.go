package testutil

import (
	"fmt"
	"testing"

	"github.com/JourneyJu/dsg-sub010/types"
)

// AssertRecordCount checks that the slice contains the expected number of records
func AssertRecordCount(t *testing.T, records []types.RecordView, expected int, context ...string) {
	t.Helper()
	if len(records) != expected {
		ctx := ""
		if len(context) > 0 {
			ctx = " " + context[0]
		}
		t.Errorf("expected %d records%s, got %d", expected, ctx, len(records))
	}
}

// AssertNames verifies the record names in order
func AssertNames(t *testing.T, records []types.RecordView, expected ...string) {
	t.Helper()
	got := make([]string, len(records))
	for i, r := range records {
		got[i] = fmt.Sprintf("%v", r.Fields[types.FieldName])
	}
	if len(got) != len(expected) {
		t.Errorf("expected names %v, got %v", expected, got)
		return
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Errorf("expected names %v, got %v", expected, got)
			return
		}
	}
}

// AssertDenseOrdinals verifies that ordinals form 0..N-1 in order
func AssertDenseOrdinals(t *testing.T, records []types.Record) {
	t.Helper()
	for i, r := range records {
		if r.Ordinal != i {
			t.Errorf("record %s at position %d has ordinal %d", r.Key, i, r.Ordinal)
		}
	}
}

// AssertUniqueKeys verifies that no key appears twice
func AssertUniqueKeys(t *testing.T, records []types.Record) {
	t.Helper()
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if seen[r.Key] {
			t.Errorf("duplicate key %s", r.Key)
		}
		seen[r.Key] = true
	}
}

// AssertFieldError verifies that a record carries an error on field
func AssertFieldError(t *testing.T, rec types.Record, field string) {
	t.Helper()
	if rec.Errors[field] == "" {
		t.Errorf("expected error on %s.%s, got errors %v", rec.Key, field, rec.Errors)
	}
}

// AssertNoFieldError verifies that a record carries no error on field
func AssertNoFieldError(t *testing.T, rec types.Record, field string) {
	t.Helper()
	if msg := rec.Errors[field]; msg != "" {
		t.Errorf("expected no error on %s.%s, got %q", rec.Key, field, msg)
	}
}

// StripSelection returns copies of records with Selected cleared,
// for comparisons that ignore selection state
func StripSelection(records []types.Record) []types.Record {
	out := make([]types.Record, len(records))
	for i, r := range records {
		c := r.Clone()
		c.Selected = false
		out[i] = c
	}
	return out
}
