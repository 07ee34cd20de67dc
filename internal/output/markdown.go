package output

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"tondev/internal/rules"
)

type ruleStats struct {
	ID       string
	Severity rules.Severity
	Title    string
	Files    []string
	Count    int
}

// RenderMarkdown writes a Markdown audit report: summary counts, findings
// grouped by rule and by file, and remediation notes taken from the rule
// catalog. catalog may be nil, in which case rule titles fall back to the
// finding message.
func RenderMarkdown(w io.Writer, report rules.Report, catalog *rules.Catalog) error {
	s := report.Summary
	byRule := computeRuleStats(report.Findings, catalog)

	var b strings.Builder
	b.WriteString("# ton-dev Audit Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", s.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))

	// --- Summary ---
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Scanned files: %d\n", s.ScannedFiles)
	if s.SkippedFiles > 0 {
		fmt.Fprintf(&b, "- Skipped (unreadable) files: %d\n", s.SkippedFiles)
	}
	fmt.Fprintf(&b, "- Findings: %d\n", s.TotalFindings)
	if s.SuppressedFindings > 0 {
		fmt.Fprintf(&b, "- Suppressed findings: %d\n", s.SuppressedFindings)
	}
	b.WriteString("\n| Severity | Findings |\n")
	b.WriteString("| --- | ---: |\n")
	for _, sev := range rules.Severities() {
		fmt.Fprintf(&b, "| %s | %d |\n", sev, s.CountsBySeverity.Get(sev))
	}
	b.WriteString("\n")

	// --- Findings by rule ---
	b.WriteString("## Findings by rule\n\n")
	if len(byRule) == 0 {
		b.WriteString("No findings.\n\n")
	} else {
		b.WriteString("| Rule | Severity | Title | Findings | Files |\n")
		b.WriteString("| --- | --- | --- | ---: | --- |\n")
		for _, rs := range byRule {
			fmt.Fprintf(&b, "| %s | %s | %s | %d | %s |\n", rs.ID, rs.Severity, escapeTableCell(rs.Title), rs.Count, formatFileList(rs.Files, 3))
		}
		b.WriteString("\n")
	}

	// --- Findings by file ---
	b.WriteString("## Findings by file\n\n")
	if len(report.Findings) == 0 {
		b.WriteString("- None\n\n")
	} else {
		var files []string
		perFile := make(map[string][]rules.Finding)
		for _, f := range report.Findings {
			if _, ok := perFile[f.File]; !ok {
				files = append(files, f.File)
			}
			perFile[f.File] = append(perFile[f.File], f)
		}
		for _, file := range files {
			fmt.Fprintf(&b, "### %s\n", filepath.ToSlash(file))
			for _, f := range perFile[file] {
				fmt.Fprintf(&b, "- **[%s] %s** (line %d): %s\n", strings.ToUpper(string(f.Severity)), f.RuleID, max(f.Line, 1), f.Message)
			}
			b.WriteString("\n")
		}
	}

	// --- Remediation ---
	if catalog != nil && len(byRule) > 0 {
		b.WriteString("## Remediation notes\n\n")
		for _, rs := range byRule {
			r, ok := catalog.Lookup(rs.ID)
			if !ok || r.Description() == "" {
				continue
			}
			fmt.Fprintf(&b, "### %s: %s\n", r.ID(), r.Title())
			fmt.Fprintf(&b, "%s\n\n", r.Description())
			if m := r.MitigationPatterns(); len(m) > 0 {
				fmt.Fprintf(&b, "Evidence that clears this rule: `%s`\n\n", strings.Join(m, "`, `"))
			}
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	return flushIfPossible(w)
}

// computeRuleStats groups findings by rule, most severe first, then by
// catalog order, then by rule id.
func computeRuleStats(findings []rules.Finding, catalog *rules.Catalog) []ruleStats {
	order := make(map[string]int)
	if catalog != nil {
		for i, r := range catalog.List() {
			order[r.ID()] = i
		}
	}

	byID := make(map[string]*ruleStats)
	seenFile := make(map[string]map[string]struct{})
	for _, f := range findings {
		rs, ok := byID[f.RuleID]
		if !ok {
			rs = &ruleStats{ID: f.RuleID, Severity: f.Severity, Title: f.Message}
			if catalog != nil {
				if r, ok := catalog.Lookup(f.RuleID); ok {
					rs.Title = r.Title()
				}
			}
			byID[f.RuleID] = rs
			seenFile[f.RuleID] = make(map[string]struct{})
		}
		rs.Count++
		if _, ok := seenFile[f.RuleID][f.File]; !ok {
			seenFile[f.RuleID][f.File] = struct{}{}
			rs.Files = append(rs.Files, filepath.ToSlash(f.File))
		}
	}

	out := make([]ruleStats, 0, len(byID))
	for _, rs := range byID {
		out = append(out, *rs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() > out[j].Severity.Rank()
		}
		oi, iok := order[out[i].ID]
		oj, jok := order[out[j].ID]
		if iok && jok && oi != oj {
			return oi < oj
		}
		if iok != jok {
			return iok
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// formatFileList renders "a, b, c, +N more".
func formatFileList(files []string, limit int) string {
	if len(files) <= limit {
		return strings.Join(files, ", ")
	}
	return fmt.Sprintf("%s, +%d more", strings.Join(files[:limit], ", "), len(files)-limit)
}

func escapeTableCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
