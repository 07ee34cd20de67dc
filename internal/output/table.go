package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"tondev/internal/rules"

	"github.com/fatih/color"
)

// TableOptions controls the human-readable rendering.
type TableOptions struct {
	// WorkDir is the directory finding paths are shown relative to. Empty
	// prints paths as recorded.
	WorkDir string
	// Color enables ANSI colors.
	Color bool
}

type tablePalette struct {
	bold, red, yellow, gray, green *color.Color
}

func newTablePalette(enabled bool) tablePalette {
	p := tablePalette{
		bold:   color.New(color.Bold),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		gray:   color.New(color.FgHiBlack),
		green:  color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.bold, p.red, p.yellow, p.gray, p.green} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p tablePalette) severity(s rules.Severity) *color.Color {
	if s == rules.SeverityCritical || s == rules.SeverityHigh {
		return p.red
	}
	return p.yellow
}

// RenderTable writes the console report: a header, the summary counts and
// one two-line entry per finding.
func RenderTable(w io.Writer, report rules.Report, opts TableOptions) error {
	p := newTablePalette(opts.Color)
	s := report.Summary
	c := s.CountsBySeverity

	var b strings.Builder
	b.WriteString("\n" + p.bold.Sprint("ton-dev security audit") + "\n\n")
	fmt.Fprintf(&b, "Scanned files: %d\n", s.ScannedFiles)
	if s.SkippedFiles > 0 {
		fmt.Fprintf(&b, "Skipped files: %d\n", s.SkippedFiles)
	}
	fmt.Fprintf(&b, "Findings: %d (%d critical, %d high, %d medium, %d low)\n", s.TotalFindings, c.Critical, c.High, c.Medium, c.Low)
	if s.SuppressedFindings > 0 {
		fmt.Fprintf(&b, "Suppressed: %d\n", s.SuppressedFindings)
	}
	b.WriteString("\n")

	if len(report.Findings) == 0 {
		b.WriteString(p.green.Sprint("No findings.") + "\n")
	}
	for _, f := range report.Findings {
		tag := "[" + strings.ToUpper(string(f.Severity)) + "]"
		fmt.Fprintf(&b, "- %s %s: %s\n", p.severity(f.Severity).Sprint(tag), f.RuleID, f.Message)
		fmt.Fprintf(&b, "  %s\n", p.gray.Sprintf("%s:%d", displayPath(opts.WorkDir, f.File), max(f.Line, 1)))
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	return flushIfPossible(w)
}

// displayPath shows file relative to workDir, climbing out with ../ when the
// file lives elsewhere. The recorded path is kept only when no relative path
// exists, e.g. across Windows volumes.
func displayPath(workDir, file string) string {
	if workDir == "" {
		return file
	}
	absFile, err := filepath.Abs(file)
	if err != nil {
		return file
	}
	rel, err := filepath.Rel(workDir, absFile)
	if err != nil {
		return file
	}
	return rel
}
