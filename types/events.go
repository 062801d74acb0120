package types

// Event is a UI-originated request against an editing session.
// The concrete event types below form a closed set; recordset.Dispatch
// switches over them.
type Event interface {
	EventType() string
}

// FieldEditEvent edits one field of one record
type FieldEditEvent struct {
	Key   string      `json:"key" yaml:"key"`
	Field string      `json:"field" yaml:"field"`
	Value interface{} `json:"value" yaml:"value"`
}

// BatchEditEvent applies one value to every record in the batch selection
type BatchEditEvent struct {
	Field string      `json:"field" yaml:"field"`
	Value interface{} `json:"value" yaml:"value"`
}

// ReorderEvent moves the record at From to position To
type ReorderEvent struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

// SearchEvent sets the search filter; an empty substring leaves search mode
type SearchEvent struct {
	Substring string `json:"substring" yaml:"substring"`
}

// SelectionChangedEvent replaces the set of checked records
type SelectionChangedEvent struct {
	Keys []string `json:"keys" yaml:"keys"`
}

// EnterBatchEvent starts batch configuration over the given records
type EnterBatchEvent struct {
	Keys []string `json:"keys" yaml:"keys"`
}

// CommitBatchEvent merges pending batch edits into the canonical collection
type CommitBatchEvent struct{}

// CancelBatchEvent discards pending batch edits
type CancelBatchEvent struct{}

// PrimaryKeyEvent makes one record the sole primary key
type PrimaryKeyEvent struct {
	Key string `json:"key" yaml:"key"`
}

// AddRecordEvent appends a client-side record
type AddRecordEvent struct {
	Fields map[string]interface{} `json:"fields" yaml:"fields"`
}

// DeleteRecordsEvent removes records from the canonical collection
type DeleteRecordsEvent struct {
	Keys []string `json:"keys" yaml:"keys"`
}

// Event type names as they appear in event scripts and HTTP payloads
const (
	EventFieldEdit   = "field_edit"
	EventBatchEdit   = "batch_edit"
	EventReorder     = "reorder"
	EventSearch      = "search"
	EventSelection   = "selection"
	EventEnterBatch  = "enter_batch"
	EventCommitBatch = "commit_batch"
	EventCancelBatch = "cancel_batch"
	EventPrimaryKey  = "primary_key"
	EventAddRecord   = "add_record"
	EventDeleteRecs  = "delete_records"
)

func (FieldEditEvent) EventType() string        { return EventFieldEdit }
func (BatchEditEvent) EventType() string        { return EventBatchEdit }
func (ReorderEvent) EventType() string          { return EventReorder }
func (SearchEvent) EventType() string           { return EventSearch }
func (SelectionChangedEvent) EventType() string { return EventSelection }
func (EnterBatchEvent) EventType() string       { return EventEnterBatch }
func (CommitBatchEvent) EventType() string      { return EventCommitBatch }
func (CancelBatchEvent) EventType() string      { return EventCancelBatch }
func (PrimaryKeyEvent) EventType() string       { return EventPrimaryKey }
func (AddRecordEvent) EventType() string        { return EventAddRecord }
func (DeleteRecordsEvent) EventType() string    { return EventDeleteRecs }

// EventSpec is the flat, serializable form of any Event, used by event
// scripts and the session HTTP API
type EventSpec struct {
	Type      string                 `json:"type" yaml:"type"`
	Key       string                 `json:"key,omitempty" yaml:"key,omitempty"`
	Keys      []string               `json:"keys,omitempty" yaml:"keys,omitempty"`
	Field     string                 `json:"field,omitempty" yaml:"field,omitempty"`
	Value     interface{}            `json:"value,omitempty" yaml:"value,omitempty"`
	From      int                    `json:"from,omitempty" yaml:"from,omitempty"`
	To        int                    `json:"to,omitempty" yaml:"to,omitempty"`
	Substring string                 `json:"substring,omitempty" yaml:"substring,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// ToEvent converts the flat spec into its typed Event.
// Returns false for unknown event types.
func (s EventSpec) ToEvent() (Event, bool) {
	switch s.Type {
	case EventFieldEdit:
		return FieldEditEvent{Key: s.Key, Field: s.Field, Value: s.Value}, true
	case EventBatchEdit:
		return BatchEditEvent{Field: s.Field, Value: s.Value}, true
	case EventReorder:
		return ReorderEvent{From: s.From, To: s.To}, true
	case EventSearch:
		return SearchEvent{Substring: s.Substring}, true
	case EventSelection:
		return SelectionChangedEvent{Keys: s.Keys}, true
	case EventEnterBatch:
		return EnterBatchEvent{Keys: s.Keys}, true
	case EventCommitBatch:
		return CommitBatchEvent{}, true
	case EventCancelBatch:
		return CancelBatchEvent{}, true
	case EventPrimaryKey:
		return PrimaryKeyEvent{Key: s.Key}, true
	case EventAddRecord:
		return AddRecordEvent{Fields: s.Fields}, true
	case EventDeleteRecs:
		return DeleteRecordsEvent{Keys: s.Keys}, true
	}
	return nil, false
}

// Change describes one committed mutation, delivered to observers after debouncing
type Change struct {
	Op     string   `json:"op" yaml:"op"`
	Keys   []string `json:"keys,omitempty" yaml:"keys,omitempty"`
	Field  string   `json:"field,omitempty" yaml:"field,omitempty"`
	Mode   ModeKind `json:"mode" yaml:"mode"`
	Serial uint64   `json:"serial" yaml:"serial"`
}
