// Package formats renders editing-session views for terminals, documents and
// machine consumers.
package formats

import (
	"fmt"
	"io"
	"sort"

	"github.com/JourneyJu/dsg-sub010/types"
)

// Options tune how a view is rendered
type Options struct {
	// Columns lists the fields to show, in order. Empty means DefaultColumns.
	// Ignored by structured formats, which always carry every field.
	Columns []string

	// MaxCellWidth truncates long cells by display width; 0 means unlimited
	MaxCellWidth int
}

// ViewFormat defines how a view is written out
type ViewFormat struct {
	// Name is the format identifier (alphanumeric, dashes, underscores, lowercase)
	Name string

	// Extension is the file extension including the dot (e.g., ".txt", ".md")
	Extension string

	// Render writes the view to w
	Render func(w io.Writer, view types.View, opts Options) error
}

// registry holds all available view formats
var registry = make(map[string]*ViewFormat)

// Register adds a new view format to the registry
func Register(format *ViewFormat) error {
	if !isValidFormatName(format.Name) {
		return fmt.Errorf("invalid format name %q: must be lowercase alphanumeric with dashes and underscores only", format.Name)
	}
	if format.Render == nil {
		return fmt.Errorf("format %q has no renderer", format.Name)
	}
	if format.Extension != "" && format.Extension[0] != '.' {
		format.Extension = "." + format.Extension
	}
	if _, exists := registry[format.Name]; exists {
		return fmt.Errorf("format %q already registered", format.Name)
	}

	registry[format.Name] = format
	return nil
}

// Get returns a view format by name
func Get(name string) (*ViewFormat, error) {
	format, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("unknown format %q (available: %v)", name, List())
	}
	return format, nil
}

// List returns all registered format names, sorted
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render writes view in the named format
func Render(w io.Writer, name string, view types.View, opts Options) error {
	format, err := Get(name)
	if err != nil {
		return err
	}
	return format.Render(w, view, opts)
}

// isValidFormatName checks if a format name is valid
func isValidFormatName(name string) bool {
	if name == "" {
		return false
	}

	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

func init() {
	for _, f := range []*ViewFormat{Table, Markdown, PlainText, JSON, YAML} {
		if err := Register(f); err != nil {
			panic(err)
		}
	}
}
