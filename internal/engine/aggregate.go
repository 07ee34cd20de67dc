package engine

import (
	"time"

	"tondev/internal/rules"
)

// Aggregate folds per-file results into the run report. Findings keep file
// order, then rule order within a file; nothing is re-sorted.
func Aggregate(results []rules.ScanResult, scanned, skipped int, now time.Time) rules.Report {
	findings := make([]rules.Finding, 0)
	suppressed := 0
	for _, r := range results {
		findings = append(findings, r.Findings...)
		suppressed += r.Suppressed
	}

	return rules.Report{
		Summary: rules.Summary{
			ScannedFiles:       scanned,
			TotalFindings:      len(findings),
			CountsBySeverity:   rules.CountBySeverity(findings),
			GeneratedAt:        now.UTC(),
			SkippedFiles:       skipped,
			SuppressedFindings: suppressed,
		},
		Findings: findings,
	}
}
