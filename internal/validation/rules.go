package validation

import (
	"fmt"
	"strings"

	"github.com/JourneyJu/dsg-sub010/internal/matching"
	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/spf13/cast"
)

// Error messages attached to Record.Errors
const (
	MsgRequired           = "this field is required"
	MsgKeyboardPattern    = "only keyboard characters are allowed, emoji are not supported"
	MsgIdentifierPattern  = "must start with a letter or underscore and contain only letters, digits and underscores"
	MsgInvalidOption      = "not a valid option"
	MsgNotWholeNumber     = "must be a whole number"
	MsgNotBoolean         = "must be true or false"
	MsgInvalidReference   = "invalid reference"
	MsgNumericLength      = "length must be between 1 and 38 for numeric types"
	MsgCharacterLength    = "length must be between 1 and 65535 for character types"
	MsgAccuracyRange      = "accuracy must be between 0 and the length"
	MsgAccuracyNotAllowed = "accuracy only applies to decimal types"
	MsgDuplicateName      = "name already exists"
	MsgMultiplePrimary    = "only one primary key is allowed"
	MsgUnsupportedValue   = "unsupported value"
)

// Length bounds per data type family
const (
	MaxNumericLength   = 38
	MaxCharacterLength = 65535
)

// MsgTooLong formats the maximum-length message
func MsgTooLong(max int) string {
	return fmt.Sprintf("must be at most %d characters", max)
}

// Validator applies the information-item rule set of a schema
type Validator struct {
	cfg types.Config
}

// New creates a validator for the given schema
func New(cfg types.Config) *Validator {
	return &Validator{cfg: cfg}
}

// Config returns the schema the validator applies
func (v *Validator) Config() types.Config {
	return v.cfg
}

// Dependents returns the fields whose validity depends on field's value
func (v *Validator) Dependents(field string) []string {
	switch field {
	case types.FieldDataType:
		return []string{types.FieldDataLength, types.FieldDataAccuracy}
	case types.FieldDataLength:
		return []string{types.FieldDataAccuracy}
	}
	return nil
}

// CheckField returns the error message for one field of rec, or "" when valid.
// Cross-record rules (duplicate names, primary keys) are not applied here.
func (v *Validator) CheckField(rec types.Record, field string) string {
	value := rec.Fields[field]
	spec, ok := v.cfg.GetField(field)
	if !ok {
		if err := ValidateSimpleType(value, field); err != nil {
			return MsgUnsupportedValue
		}
		return ""
	}

	if types.IsEmpty(value) {
		if !spec.Required {
			return ""
		}
		if field == types.FieldDataLength && !types.HasLength(rec.String(types.FieldDataType)) {
			return ""
		}
		return MsgRequired
	}

	switch spec.Kind {
	case types.String:
		return checkString(spec, value)
	case types.Enum:
		s := cast.ToString(value)
		for _, allowed := range spec.Values {
			if s == allowed {
				return ""
			}
		}
		return MsgInvalidOption
	case types.Int:
		n, _, err := types.IntValue(value)
		if err != nil {
			return MsgNotWholeNumber
		}
		return v.checkInt(rec, field, n)
	case types.Flag:
		if _, err := types.FlagValue(value); err != nil {
			return MsgNotBoolean
		}
	case types.Reference:
		if _, err := types.ToRef(value); err != nil {
			return MsgInvalidReference
		}
	}
	return ""
}

func checkString(spec *types.FieldSpec, value interface{}) string {
	s, ok := value.(string)
	if !ok {
		return MsgUnsupportedValue
	}
	if spec.MaxLength > 0 && runeLen(s) > spec.MaxLength {
		return MsgTooLong(spec.MaxLength)
	}
	if spec.Pattern != "" && !MatchPattern(spec.Pattern, s) {
		if spec.Pattern == types.PatternIdentifier {
			return MsgIdentifierPattern
		}
		return MsgKeyboardPattern
	}
	return ""
}

func (v *Validator) checkInt(rec types.Record, field string, n int) string {
	dataType := rec.String(types.FieldDataType)
	switch field {
	case types.FieldDataLength:
		switch types.FamilyOf(dataType) {
		case types.FamilyNumeric:
			if n < 1 || n > MaxNumericLength {
				return MsgNumericLength
			}
		case types.FamilyCharacter:
			if n < 1 || n > MaxCharacterLength {
				return MsgCharacterLength
			}
		}
	case types.FieldDataAccuracy:
		if !types.HasAccuracy(dataType) {
			return MsgAccuracyNotAllowed
		}
		upper := MaxNumericLength
		if length, ok, err := types.IntValue(rec.Fields[types.FieldDataLength]); ok && err == nil {
			upper = length
		}
		if n < 0 || n > upper {
			return MsgAccuracyRange
		}
	}
	return ""
}

// CheckRecord applies every field rule to rec and returns the resulting errors.
// Fields outside the schema are checked for simple values only.
func (v *Validator) CheckRecord(rec types.Record) map[string]string {
	errs := make(map[string]string)
	for _, f := range v.cfg.Fields {
		if msg := v.CheckField(rec, f.Name); msg != "" {
			errs[f.Name] = msg
		}
	}
	for name := range rec.Fields {
		if _, known := v.cfg.GetField(name); known {
			continue
		}
		if msg := v.CheckField(rec, name); msg != "" {
			errs[name] = msg
		}
	}
	return errs
}

// DuplicateNames returns the positions of records whose name collides with a
// later record, compared case-insensitively. Empty names are ignored.
func DuplicateNames(records []types.Record) map[int]bool {
	last := make(map[string]int, len(records))
	for i, rec := range records {
		name := strings.TrimSpace(rec.Name())
		if name == "" {
			continue
		}
		last[matching.Fold(name)] = i
	}

	dups := make(map[int]bool)
	for i, rec := range records {
		name := strings.TrimSpace(rec.Name())
		if name == "" {
			continue
		}
		if last[matching.Fold(name)] > i {
			dups[i] = true
		}
	}
	return dups
}

// HasDuplicateName reports whether records[idx] shares its name with any
// other record, compared case-insensitively
func HasDuplicateName(records []types.Record, idx int) bool {
	name := strings.TrimSpace(records[idx].Name())
	if name == "" {
		return false
	}
	for i, rec := range records {
		if i != idx && matching.EqualFold(rec.Name(), name) {
			return true
		}
	}
	return false
}

// PrimaryKeys returns the positions of every record flagged as primary key
func PrimaryKeys(records []types.Record) []int {
	var keys []int
	for i, rec := range records {
		if types.Truthy(rec.Fields[types.FieldIsPrimaryKey]) {
			keys = append(keys, i)
		}
	}
	return keys
}

// Report is the outcome of validating a whole collection
type Report struct {
	// Errors holds the per-record errors, aligned with the validated slice
	Errors []map[string]string

	// MissingPrimaryKey is set when a primary key is required and none is flagged
	MissingPrimaryKey bool

	// ErrorCount totals every field error plus one for a missing primary key
	ErrorCount int
}

// OK reports whether the collection is free of errors
func (r Report) OK() bool {
	return r.ErrorCount == 0
}

// ValidateAll applies field rules, duplicate-name detection and the
// primary key checks to every record
func (v *Validator) ValidateAll(records []types.Record) Report {
	report := Report{Errors: make([]map[string]string, len(records))}
	for i, rec := range records {
		report.Errors[i] = v.CheckRecord(rec)
	}

	for i := range DuplicateNames(records) {
		if _, has := report.Errors[i][types.FieldName]; !has {
			report.Errors[i][types.FieldName] = MsgDuplicateName
		}
	}

	pks := PrimaryKeys(records)
	if len(pks) > 1 {
		for _, i := range pks {
			report.Errors[i][types.FieldIsPrimaryKey] = MsgMultiplePrimary
		}
	}
	if v.cfg.PrimaryKeyRequired && len(pks) == 0 {
		report.MissingPrimaryKey = true
		report.ErrorCount++
	}

	for _, errs := range report.Errors {
		report.ErrorCount += len(errs)
	}
	return report
}
