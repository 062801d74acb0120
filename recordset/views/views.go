// Package views derives read-only projections of a canonical record collection.
// Every function here is pure: inputs are never mutated and results never
// alias canonical state.
package views

import (
	"reflect"

	"github.com/JourneyJu/dsg-sub010/internal/matching"
	"github.com/JourneyJu/dsg-sub010/types"
)

// Overlay holds pending batch edits: record key -> field -> value.
// A nil value means the field is cleared.
type Overlay map[string]map[string]interface{}

// Search returns the records whose field contains substring, ignoring case,
// in canonical order. An empty substring returns every record.
func Search(records []types.Record, field, substring string) []types.Record {
	m := matching.NewNameMatcher(substring)
	out := make([]types.Record, 0, len(records))
	for _, rec := range records {
		if m.Matches(rec.String(field)) {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// Batch returns the records whose key is in selection, in canonical order,
// with their pending overlay applied
func Batch(records []types.Record, selection map[string]bool, overlay Overlay) []types.Record {
	out := make([]types.Record, 0, len(selection))
	for _, rec := range records {
		if !selection[rec.Key] {
			continue
		}
		out = append(out, WithOverlay(rec, overlay[rec.Key]))
	}
	return out
}

// WithOverlay returns a copy of rec with pending values applied
func WithOverlay(rec types.Record, pending map[string]interface{}) types.Record {
	out := rec.Clone()
	for field, value := range pending {
		if value == nil {
			delete(out.Fields, field)
			continue
		}
		out.Fields[field] = value
	}
	return out
}

// Header computes the uniform-value indicator of every field over records.
// An empty record list yields non-uniform indicators with nil values.
func Header(records []types.Record, fields []string) types.BatchHeaderState {
	state := make(types.BatchHeaderState, len(fields))
	for _, field := range fields {
		state[field] = Uniform(records, field)
	}
	return state
}

// Uniform reports whether every record holds the same value for field
func Uniform(records []types.Record, field string) types.HeaderValue {
	if len(records) == 0 {
		return types.HeaderValue{}
	}
	first := records[0].Fields[field]
	for _, rec := range records[1:] {
		if !sameValue(first, rec.Fields[field]) {
			return types.HeaderValue{IsUniform: false}
		}
	}
	return types.HeaderValue{Value: first, IsUniform: true}
}

func sameValue(a, b interface{}) bool {
	if types.IsEmpty(a) && types.IsEmpty(b) {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// Project converts records into views, numbering Index by position in the slice
func Project(records []types.Record) []types.RecordView {
	out := make([]types.RecordView, len(records))
	for i, rec := range records {
		c := rec.Clone()
		out[i] = types.RecordView{
			Key:      c.Key,
			ID:       c.ID,
			Index:    i,
			Ordinal:  c.Ordinal,
			Fields:   c.Fields,
			Errors:   c.Errors,
			Selected: c.Selected,
		}
	}
	return out
}

// Move returns a new slice with the record at from relocated to to.
// Ordinals of the result are renumbered densely.
func Move(records []types.Record, from, to int) []types.Record {
	out := make([]types.Record, 0, len(records))
	moved := records[from]
	for i, rec := range records {
		if i == from {
			continue
		}
		out = append(out, rec)
	}
	out = append(out[:to], append([]types.Record{moved}, out[to:]...)...)
	Renumber(out)
	return out
}

// Renumber assigns ordinals 0..N-1 in slice order
func Renumber(records []types.Record) {
	for i := range records {
		records[i].Ordinal = i
	}
}
