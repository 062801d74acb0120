package formats

import (
	"fmt"
	"io"
	"strings"

	"github.com/JourneyJu/dsg-sub010/types"
)

// PlainText renders one block per record: a "#ordinal name" title line,
// "field: value" lines for the requested columns, then "! field: message"
// lines for validation errors. Blocks are separated by a blank line.
var PlainText = &ViewFormat{
	Name:      "plaintext",
	Extension: ".txt",
	Render: func(w io.Writer, view types.View, opts Options) error {
		var b strings.Builder
		cols := columns(opts)

		for i, rec := range view.Records {
			if i > 0 {
				b.WriteString("\n")
			}
			mark := ""
			if rec.Selected {
				mark = " *"
			}
			fmt.Fprintf(&b, "#%d %s%s\n", rec.Ordinal, formatCell(rec.Fields[types.FieldName]), mark)
			for _, c := range cols {
				if c == types.FieldName {
					continue
				}
				value := truncate(formatCell(rec.Fields[c]), opts.MaxCellWidth)
				if value == "" {
					continue
				}
				fmt.Fprintf(&b, "  %s: %s\n", c, value)
			}
			for _, line := range strings.Split(errorSummary(rec.Errors), "; ") {
				if line != "" {
					fmt.Fprintf(&b, "  ! %s\n", line)
				}
			}
		}
		if h := headerLine(view.Header); h != "" {
			fmt.Fprintf(&b, "\nbatch: %s\n", h)
		}

		_, err := io.WriteString(w, b.String())
		return err
	},
}
