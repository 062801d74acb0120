package formats

import (
	"io"

	"github.com/JourneyJu/dsg-sub010/types"
)

// Markdown renders the view as a GitHub-flavored markdown table, suitable for
// pasting into review documents
var Markdown = &ViewFormat{
	Name:      "markdown",
	Extension: ".md",
	Render: func(w io.Writer, view types.View, opts Options) error {
		t := newTable(w, view, opts)
		t.RenderMarkdown()
		return nil
	},
}
