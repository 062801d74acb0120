package types

// Record is one editable information item in an editing session
type Record struct {
	ID       string                 // Server identifier, empty until persisted
	Key      string                 // Session-stable identifier used by every controller operation
	Ordinal  int                    // Dense position in the canonical collection
	Fields   map[string]interface{} // Field name -> value (strings, numbers, bools, *Ref)
	Errors   map[string]string      // Field name -> validation message
	Selected bool                   // Checked for batch operations
}

// RawRecord is a record as returned by the catalog API before normalization.
// It always carries "id" plus the information-item fields.
type RawRecord map[string]interface{}

// Clone returns a deep copy of the record. Ref values are copied, other
// field values are treated as immutable scalars.
func (r Record) Clone() Record {
	out := r
	out.Fields = make(map[string]interface{}, len(r.Fields))
	for k, v := range r.Fields {
		if ref, ok := v.(*Ref); ok && ref != nil {
			cp := *ref
			out.Fields[k] = &cp
			continue
		}
		out.Fields[k] = v
	}
	out.Errors = make(map[string]string, len(r.Errors))
	for k, v := range r.Errors {
		out.Errors[k] = v
	}
	return out
}

// Name returns the record's name field as a string
func (r Record) Name() string {
	return r.String(FieldName)
}

// String returns a field as a string, or "" when absent or not a string
func (r Record) String(field string) string {
	if v, ok := r.Fields[field].(string); ok {
		return v
	}
	return ""
}

// Valid reports whether the record carries no validation errors
func (r Record) Valid() bool {
	return len(r.Errors) == 0
}

// RecordView is the read-only projection of a record handed to presentation code.
// Index is the record's position within the active view; Ordinal is its canonical position.
type RecordView struct {
	Key      string                 `json:"key" yaml:"key"`
	ID       string                 `json:"id,omitempty" yaml:"id,omitempty"`
	Index    int                    `json:"index" yaml:"index"`
	Ordinal  int                    `json:"ordinal" yaml:"ordinal"`
	Fields   map[string]interface{} `json:"fields" yaml:"fields"`
	Errors   map[string]string      `json:"errors,omitempty" yaml:"errors,omitempty"`
	Selected bool                   `json:"selected" yaml:"selected"`
}

// HeaderValue is the uniform-value indicator for one batch-coupled field
type HeaderValue struct {
	Value     interface{} `json:"value" yaml:"value"`
	IsUniform bool        `json:"is_uniform" yaml:"is_uniform"`
}

// BatchHeaderState maps each batch-coupled field to its uniform-value indicator
type BatchHeaderState map[string]HeaderValue

// View is everything the presentation layer needs to render the active mode
type View struct {
	Mode    ModeKind         `json:"mode" yaml:"mode"`
	Filter  string           `json:"filter,omitempty" yaml:"filter,omitempty"`
	Records []RecordView     `json:"records" yaml:"records"`
	Header  BatchHeaderState `json:"header,omitempty" yaml:"header,omitempty"`
	Total   int              `json:"total" yaml:"total"` // Size of the canonical collection
}

// ValidationSummary is the aggregate result of validating every canonical record
type ValidationSummary struct {
	OK         bool `json:"ok" yaml:"ok"`
	ErrorCount int  `json:"error_count" yaml:"error_count"`
}
