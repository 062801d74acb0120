package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// IsEmpty reports whether a field value counts as unset.
// nil, blank strings and nil references are empty; false and 0 are not.
func IsEmpty(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case *Ref:
		return val == nil || val.ID == ""
	}
	return false
}

// IntValue coerces a field value to an int.
// The second return is false when the value is empty.
// Fractional numbers and non-numeric strings are errors. Strings are always
// read as base 10, so "010" is 10 and "0x10" is rejected.
func IntValue(v interface{}) (int, bool, error) {
	if IsEmpty(v) {
		return 0, false, nil
	}
	switch val := v.(type) {
	case float64:
		if val != math.Trunc(val) {
			return 0, true, fmt.Errorf("%v is not a whole number", val)
		}
	case float32:
		if float64(val) != math.Trunc(float64(val)) {
			return 0, true, fmt.Errorf("%v is not a whole number", val)
		}
	case string:
		return parseDecimal(strings.TrimSpace(val))
	case bool:
		return 0, true, fmt.Errorf("%v is not a number", val)
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, true, fmt.Errorf("%v is not a whole number", v)
	}
	return n, true, nil
}

// parseDecimal reads s as a base-10 integer. A zero fraction such as "12.0"
// is accepted.
func parseDecimal(s string) (int, bool, error) {
	digits := s
	if i := strings.IndexByte(s, '.'); i >= 0 && strings.Trim(s[i+1:], "0") == "" {
		digits = s[:i]
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, true, fmt.Errorf("%v is not a whole number", s)
	}
	return n, true, nil
}

// FlagValue coerces a tri-state flag to a strict bool.
// Empty values are false. Besides the strconv forms, "yes"/"no", "y"/"n"
// and "on"/"off" are accepted in any case.
func FlagValue(v interface{}) (bool, error) {
	if IsEmpty(v) {
		return false, nil
	}
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "y", "on":
			return true, nil
		case "no", "n", "off":
			return false, nil
		}
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("%v is not a boolean", v)
	}
	return b, nil
}

// Truthy is FlagValue with coercion failures treated as false
func Truthy(v interface{}) bool {
	b, _ := FlagValue(v)
	return b
}

// NormalizeValue brings a field value into the form stored in Record.Fields
// for the given field kind. Reference values become *Ref, flags become bool,
// ints become int. Values that cannot be coerced are stored unchanged so that
// validation can report them.
func NormalizeValue(kind FieldKind, v interface{}) interface{} {
	if IsEmpty(v) {
		if kind == Flag {
			return v
		}
		return nil
	}
	switch kind {
	case Reference:
		ref, err := ToRef(v)
		if err != nil {
			return v
		}
		if ref == nil {
			return nil
		}
		return ref
	case Flag:
		b, err := FlagValue(v)
		if err != nil {
			return v
		}
		return b
	case Int:
		n, _, err := IntValue(v)
		if err != nil {
			return v
		}
		return n
	case String, Enum:
		if s, ok := v.(string); ok {
			return s
		}
		return cast.ToString(v)
	}
	return v
}
