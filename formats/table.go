package formats

import (
	"fmt"
	"io"

	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Table renders the view as a box-drawn terminal table followed by a status line
var Table = &ViewFormat{
	Name:      "table",
	Extension: ".txt",
	Render: func(w io.Writer, view types.View, opts Options) error {
		t := newTable(w, view, opts)
		t.SetStyle(table.StyleLight)
		t.Render()

		status := fmt.Sprintf("mode: %s  showing %d of %d", view.Mode, len(view.Records), view.Total)
		if view.Filter != "" {
			status += fmt.Sprintf("  filter: %q", view.Filter)
		}
		if h := headerLine(view.Header); h != "" {
			status += "\nbatch: " + h
		}
		_, err := fmt.Fprintln(w, status)
		return err
	},
}

// newTable lays out one row per record: position, selection mark, the
// requested columns and the record's validation errors
func newTable(w io.Writer, view types.View, opts Options) table.Writer {
	cols := columns(opts)

	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := table.Row{"#", ""}
	for _, c := range cols {
		header = append(header, c)
	}
	header = append(header, "errors")
	t.AppendHeader(header)

	for _, rec := range view.Records {
		mark := ""
		if rec.Selected {
			mark = "*"
		}
		row := table.Row{rec.Ordinal, mark}
		for _, c := range cols {
			row = append(row, truncate(formatCell(rec.Fields[c]), opts.MaxCellWidth))
		}
		row = append(row, truncate(errorSummary(rec.Errors), opts.MaxCellWidth))
		t.AppendRow(row)
	}
	return t
}
