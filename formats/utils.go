package formats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cast"
)

// DefaultColumns are the fields shown by tabular formats when none are requested
var DefaultColumns = []string{
	types.FieldName,
	types.FieldTechnicalName,
	types.FieldDataType,
	types.FieldDataLength,
	types.FieldIsPrimaryKey,
	types.FieldSharedType,
	types.FieldOpenType,
}

func columns(opts Options) []string {
	if len(opts.Columns) > 0 {
		return opts.Columns
	}
	return DefaultColumns
}

// formatCell renders a field value for humans: references as their
// composite token, flags as yes/no, unset values as empty
func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case *types.Ref:
		if val == nil {
			return ""
		}
		return val.Token()
	case bool:
		if val {
			return "yes"
		}
		return "no"
	case string:
		return val
	default:
		return cast.ToString(val)
	}
}

// truncate shortens s to maxWidth display columns, accounting for wide characters
func truncate(s string, maxWidth int) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
	if maxWidth <= 0 || runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// errorSummary joins a record's validation messages in field order
func errorSummary(errs map[string]string) string {
	if len(errs) == 0 {
		return ""
	}
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %s", f, errs[f])
	}
	return strings.Join(parts, "; ")
}

// headerLine describes the batch header, e.g. "is_secret=yes shared_type=(mixed)"
func headerLine(h types.BatchHeaderState) string {
	if len(h) == 0 {
		return ""
	}
	fields := make([]string, 0, len(h))
	for f := range h {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		value := "(mixed)"
		if h[f].IsUniform {
			value = formatCell(h[f].Value)
		}
		parts[i] = f + "=" + value
	}
	return strings.Join(parts, " ")
}
