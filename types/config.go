package types

// FieldKind defines how a field's values are interpreted and validated
type FieldKind int

const (
	// String fields hold free text, optionally constrained by a named pattern
	String FieldKind = iota
	// Enum fields hold one of a predefined list of values
	Enum
	// Int fields hold whole numbers
	Int
	// Flag fields hold tri-state booleans (true, false, or unset)
	Flag
	// Reference fields hold a *Ref to a data standard or code table
	Reference
)

// String returns the string representation of the FieldKind
func (k FieldKind) String() string {
	switch k {
	case String:
		return "string"
	case Enum:
		return "enum"
	case Int:
		return "int"
	case Flag:
		return "flag"
	case Reference:
		return "reference"
	default:
		return "unknown"
	}
}

// Information-item field names
const (
	FieldName             = "name"
	FieldTechnicalName    = "technical_name"
	FieldDescription      = "description"
	FieldDataType         = "data_type"
	FieldDataLength       = "data_length"
	FieldDataAccuracy     = "data_accuracy"
	FieldDataRange        = "data_range"
	FieldIsSensitive      = "is_sensitive"
	FieldIsSecret         = "is_secret"
	FieldIsPrimaryKey     = "is_primary_key"
	FieldIsIncremental    = "is_incremental"
	FieldIsLocalGenerated = "is_local_generated"
	FieldIsStandardized   = "is_standardized"
	FieldSharedType       = "shared_type"
	FieldSharedCondition  = "shared_condition"
	FieldOpenType         = "open_type"
	FieldOpenCondition    = "open_condition"
	FieldDataRefer        = "data_refer"
	FieldCodeSet          = "code_set"
)

// Data types
const (
	DataTypeChar      = "char"
	DataTypeVarchar   = "varchar"
	DataTypeNumber    = "number"
	DataTypeDecimal   = "decimal"
	DataTypeDate      = "date"
	DataTypeDatetime  = "datetime"
	DataTypeTimestamp = "timestamp"
	DataTypeBool      = "bool"
	DataTypeBinary    = "binary"
)

// Share and open types
const (
	SharedUnconditional = "unconditional"
	SharedConditional   = "conditional"
	SharedNotShared     = "not_shared"

	OpenOpen        = "open"
	OpenConditional = "conditional"
	OpenNotOpen     = "not_open"
)

// Named patterns understood by the validator
const (
	PatternKeyboard   = "keyboard"
	PatternIdentifier = "identifier"
)

// FieldSpec defines a single editable field of an information item
type FieldSpec struct {
	// Name is the field key used in Record.Fields and on the wire
	Name string

	// Kind selects parsing and validation behavior
	Kind FieldKind

	// Required fields must be non-empty. data_length is additionally
	// exempt when the record's data type has no length.
	Required bool

	// Pattern names an allowed-character pattern (PatternKeyboard, PatternIdentifier)
	// Ignored for non-string fields
	Pattern string

	// MaxLength limits string length in runes; 0 means unlimited
	MaxLength int

	// Values lists the valid values for Enum fields
	Values []string

	// BatchCoupled fields can be configured for many rows at once
	BatchCoupled bool
}

// Config defines the editable schema of a record set
type Config struct {
	// Fields lists every editable field in display order
	Fields []FieldSpec

	// PrimaryKeyRequired makes validation demand at least one primary key
	PrimaryKeyRequired bool

	// SearchField is the field matched by the search filter, "name" by default
	SearchField string
}

// GetField returns the field specification by name
func (c Config) GetField(name string) (*FieldSpec, bool) {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i], true
		}
	}
	return nil, false
}

// BatchCoupledFields returns the names of all batch-coupled fields in schema order
func (c Config) BatchCoupledFields() []string {
	var names []string
	for _, f := range c.Fields {
		if f.BatchCoupled {
			names = append(names, f.Name)
		}
	}
	return names
}

// IsBatchCoupled reports whether the named field is batch-coupled
func (c Config) IsBatchCoupled(name string) bool {
	f, ok := c.GetField(name)
	return ok && f.BatchCoupled
}

// SearchFieldName returns the configured search field, defaulting to "name"
func (c Config) SearchFieldName() string {
	if c.SearchField == "" {
		return FieldName
	}
	return c.SearchField
}

// Flags returns the names of all flag fields
func (c Config) Flags() []string {
	var names []string
	for _, f := range c.Fields {
		if f.Kind == Flag {
			names = append(names, f.Name)
		}
	}
	return names
}

// DefaultConfig returns the information-item schema used by catalog editors
func DefaultConfig() Config {
	return Config{
		Fields: []FieldSpec{
			{Name: FieldName, Kind: String, Required: true, Pattern: PatternKeyboard, MaxLength: 128},
			{Name: FieldTechnicalName, Kind: String, Pattern: PatternIdentifier, MaxLength: 128},
			{Name: FieldDescription, Kind: String, Pattern: PatternKeyboard, MaxLength: 300},
			{Name: FieldDataType, Kind: Enum, Required: true, Values: []string{
				DataTypeChar, DataTypeVarchar, DataTypeNumber, DataTypeDecimal,
				DataTypeDate, DataTypeDatetime, DataTypeTimestamp, DataTypeBool, DataTypeBinary,
			}},
			{Name: FieldDataLength, Kind: Int, Required: true},
			{Name: FieldDataAccuracy, Kind: Int},
			{Name: FieldDataRange, Kind: String, Pattern: PatternKeyboard, MaxLength: 128},
			{Name: FieldIsSensitive, Kind: Flag, BatchCoupled: true},
			{Name: FieldIsSecret, Kind: Flag, BatchCoupled: true},
			{Name: FieldIsPrimaryKey, Kind: Flag},
			{Name: FieldIsIncremental, Kind: Flag, BatchCoupled: true},
			{Name: FieldIsLocalGenerated, Kind: Flag, BatchCoupled: true},
			{Name: FieldIsStandardized, Kind: Flag},
			{Name: FieldSharedType, Kind: Enum, BatchCoupled: true, Values: []string{
				SharedUnconditional, SharedConditional, SharedNotShared,
			}},
			{Name: FieldSharedCondition, Kind: String, Pattern: PatternKeyboard, MaxLength: 128},
			{Name: FieldOpenType, Kind: Enum, BatchCoupled: true, Values: []string{
				OpenOpen, OpenConditional, OpenNotOpen,
			}},
			{Name: FieldOpenCondition, Kind: String, Pattern: PatternKeyboard, MaxLength: 128},
			{Name: FieldDataRefer, Kind: Reference},
			{Name: FieldCodeSet, Kind: Reference},
		},
		SearchField: FieldName,
	}
}

// DataTypeFamily groups data types by how their length is bounded
type DataTypeFamily int

const (
	// FamilyNone types carry no length (dates, booleans, binaries)
	FamilyNone DataTypeFamily = iota
	// FamilyNumeric types have a length in [1, 38]
	FamilyNumeric
	// FamilyCharacter types have a length in [1, 65535]
	FamilyCharacter
)

// FamilyOf returns the length family of a data type
func FamilyOf(dataType string) DataTypeFamily {
	switch dataType {
	case DataTypeNumber, DataTypeDecimal:
		return FamilyNumeric
	case DataTypeChar, DataTypeVarchar:
		return FamilyCharacter
	default:
		return FamilyNone
	}
}

// HasLength reports whether records of this data type carry a data_length
func HasLength(dataType string) bool {
	return FamilyOf(dataType) != FamilyNone
}

// HasAccuracy reports whether records of this data type carry a data_accuracy
func HasAccuracy(dataType string) bool {
	return dataType == DataTypeDecimal
}
