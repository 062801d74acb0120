package types

import (
	"encoding/json"
	"fmt"
)

// ModeKind identifies which view of the canonical collection is active
type ModeKind int

const (
	// ModeNormal shows the full canonical collection in ordinal order
	ModeNormal ModeKind = iota
	// ModeSearching shows the records whose search field contains the filter
	ModeSearching
	// ModeBatchConfig shows the batch selection with pending batch edits applied
	ModeBatchConfig
)

// String returns the string representation of the ModeKind
func (m ModeKind) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeSearching:
		return "searching"
	case ModeBatchConfig:
		return "batch_config"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the mode by name
func (m ModeKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// MarshalYAML encodes the mode by name
func (m ModeKind) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// ParseModeKind converts a mode name back into a ModeKind
func ParseModeKind(s string) (ModeKind, error) {
	switch s {
	case "normal":
		return ModeNormal, nil
	case "searching":
		return ModeSearching, nil
	case "batch_config":
		return ModeBatchConfig, nil
	}
	return ModeNormal, fmt.Errorf("unknown mode %q", s)
}

// UnmarshalJSON decodes a mode name
func (m *ModeKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("mode must be a string: %w", err)
	}
	parsed, err := ParseModeKind(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// UnmarshalYAML decodes a mode name
func (m *ModeKind) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseModeKind(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
