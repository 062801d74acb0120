package types

// Metadata nests the physical type description of a submitted item
type Metadata struct {
	DataType     string `json:"data_type"`
	DataLength   *int   `json:"data_length,omitempty"`
	DataAccuracy *int   `json:"data_accuracy,omitempty"`
	DataRange    string `json:"data_range,omitempty"`
}

// SubmittedRecord is the wire shape of one information item sent to the catalog API
type SubmittedRecord struct {
	ID               string   `json:"id,omitempty"`
	Index            int      `json:"index"`
	Name             string   `json:"name"`
	TechnicalName    string   `json:"technical_name,omitempty"`
	Description      string   `json:"description,omitempty"`
	Metadata         Metadata `json:"metadata"`
	IsSensitive      bool     `json:"is_sensitive"`
	IsSecret         bool     `json:"is_secret"`
	IsPrimaryKey     bool     `json:"is_primary_key"`
	IsIncremental    bool     `json:"is_incremental"`
	IsLocalGenerated bool     `json:"is_local_generated"`
	IsStandardized   bool     `json:"is_standardized"`
	SharedType       string   `json:"shared_type,omitempty"`
	SharedCondition  string   `json:"shared_condition,omitempty"`
	OpenType         string   `json:"open_type,omitempty"`
	OpenCondition    string   `json:"open_condition,omitempty"`
	DataRefer        *Ref     `json:"data_refer,omitempty"`
	CodeSet          *Ref     `json:"code_set,omitempty"`

	// Attributes carries fields outside the information-item schema unchanged
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// SubmitResult is the catalog API's answer to a submission.
// IDs holds the persisted identifier of each submitted record, in submission order.
type SubmitResult struct {
	SourceID string   `json:"source_id"`
	IDs      []string `json:"ids"`
	Version  int      `json:"version"`
}

// ToRaw converts a submitted record back into the raw shape the catalog API
// returns from a fetch: metadata is flattened and references stay structured.
func (s SubmittedRecord) ToRaw() RawRecord {
	raw := RawRecord{
		"id":                  s.ID,
		FieldName:             s.Name,
		FieldDataType:         s.Metadata.DataType,
		FieldIsSensitive:      s.IsSensitive,
		FieldIsSecret:         s.IsSecret,
		FieldIsPrimaryKey:     s.IsPrimaryKey,
		FieldIsIncremental:    s.IsIncremental,
		FieldIsLocalGenerated: s.IsLocalGenerated,
		FieldIsStandardized:   s.IsStandardized,
	}
	optional := map[string]string{
		FieldTechnicalName:   s.TechnicalName,
		FieldDescription:     s.Description,
		FieldDataRange:       s.Metadata.DataRange,
		FieldSharedType:      s.SharedType,
		FieldSharedCondition: s.SharedCondition,
		FieldOpenType:        s.OpenType,
		FieldOpenCondition:   s.OpenCondition,
	}
	for k, v := range optional {
		if v != "" {
			raw[k] = v
		}
	}
	if s.Metadata.DataLength != nil {
		raw[FieldDataLength] = *s.Metadata.DataLength
	}
	if s.Metadata.DataAccuracy != nil {
		raw[FieldDataAccuracy] = *s.Metadata.DataAccuracy
	}
	if s.DataRefer != nil {
		raw[FieldDataRefer] = map[string]interface{}{"id": s.DataRefer.ID, "name": s.DataRefer.Name}
	}
	if s.CodeSet != nil {
		raw[FieldCodeSet] = map[string]interface{}{"id": s.CodeSet.ID, "name": s.CodeSet.Name}
	}
	for k, v := range s.Attributes {
		if _, exists := raw[k]; !exists {
			raw[k] = v
		}
	}
	return raw
}
