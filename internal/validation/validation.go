package validation

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/JourneyJu/dsg-sub010/types"
)

// ValidateConfig checks the field schema for consistency
func ValidateConfig(cfg types.Config) error {
	if len(cfg.Fields) == 0 {
		return fmt.Errorf("at least one field must be configured")
	}

	seen := make(map[string]bool)
	for _, f := range cfg.Fields {
		if f.Name == "" {
			return fmt.Errorf("field name cannot be empty")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field name: %s", f.Name)
		}
		seen[f.Name] = true

		if IsReservedFieldName(f.Name) {
			return fmt.Errorf("'%s' is a reserved field name", f.Name)
		}

		switch f.Kind {
		case types.Enum:
			if err := validateEnumField(f); err != nil {
				return err
			}
		case types.String:
			if f.Pattern != "" && !IsKnownPattern(f.Pattern) {
				return fmt.Errorf("field %s: unknown pattern '%s'", f.Name, f.Pattern)
			}
		case types.Int, types.Flag, types.Reference:
			if f.Pattern != "" {
				return fmt.Errorf("field %s: patterns only apply to string fields", f.Name)
			}
		default:
			return fmt.Errorf("invalid field kind %d for %s", f.Kind, f.Name)
		}

		if f.MaxLength < 0 {
			return fmt.Errorf("field %s: max length cannot be negative", f.Name)
		}
	}

	search := cfg.SearchFieldName()
	if !seen[search] {
		return fmt.Errorf("search field '%s' is not configured", search)
	}
	if !seen[types.FieldName] {
		return fmt.Errorf("the '%s' field is required by duplicate detection", types.FieldName)
	}

	return nil
}

func validateEnumField(f types.FieldSpec) error {
	if len(f.Values) == 0 {
		return fmt.Errorf("field %s: enum fields must list their values", f.Name)
	}
	valuesSeen := make(map[string]bool)
	for _, value := range f.Values {
		if value == "" {
			return fmt.Errorf("field %s: values cannot be empty", f.Name)
		}
		if valuesSeen[value] {
			return fmt.Errorf("field %s: duplicate value '%s'", f.Name, value)
		}
		valuesSeen[value] = true
	}
	return nil
}

// IsReservedFieldName checks if a field name collides with record bookkeeping
// or with the submission envelope
func IsReservedFieldName(name string) bool {
	reserved := []string{
		"id", "key", "index", "ordinal", "errors", "selected",
		"metadata", "attributes",
	}

	name = strings.ToLower(name)
	for _, reservedName := range reserved {
		if name == reservedName {
			return true
		}
	}

	return false
}

// ValidateSimpleType ensures a free-form attribute value is a simple type
// (string, number, bool, time) or a reference
func ValidateSimpleType(value interface{}, fieldName string) error {
	if value == nil {
		return nil
	}
	if _, ok := value.(*types.Ref); ok {
		return nil
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return nil
	case reflect.Slice, reflect.Array:
		return fmt.Errorf("field '%s' cannot be an array/slice type, got %T", fieldName, value)
	case reflect.Map:
		if _, err := types.ToRef(value); err == nil {
			return nil
		}
		return fmt.Errorf("field '%s' cannot be a map type, got %T", fieldName, value)
	case reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		return ValidateSimpleType(v.Elem().Interface(), fieldName)
	case reflect.Struct:
		if _, ok := value.(time.Time); ok {
			return nil
		}
		return fmt.Errorf("field '%s' cannot be a struct type, got %T", fieldName, value)
	default:
		return fmt.Errorf("field '%s' must be a simple type (string, number, or bool), got %T", fieldName, value)
	}
}
