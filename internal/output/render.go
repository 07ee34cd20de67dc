package output

import (
	"fmt"
	"io"

	"tondev/internal/rules"
)

// Formats accepted by Render.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatSARIF = "sarif"
)

// RenderOptions carries what the individual renderers need beyond the
// report itself.
type RenderOptions struct {
	Table TableOptions
	Tool  ToolInfo
}

// Render dispatches to the renderer for format.
func Render(w io.Writer, format string, report rules.Report, opts RenderOptions) error {
	switch format {
	case FormatTable, "":
		return RenderTable(w, report, opts.Table)
	case FormatJSON:
		return RenderJSON(w, report)
	case FormatSARIF:
		return RenderSARIF(w, report, opts.Tool)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
