package output

import (
	"encoding/json"
	"io"

	"tondev/internal/rules"
)

// RenderJSON writes the report as indented {"summary": ..., "findings": [...]}.
// findings is always an array.
func RenderJSON(w io.Writer, report rules.Report) error {
	if report.Findings == nil {
		report.Findings = []rules.Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	return flushIfPossible(w)
}
