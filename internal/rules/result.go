package rules

import "time"

// Finding is one instance of a rule matching a file. Severity is copied from
// the rule when the finding is created and never looked up again.
type Finding struct {
	RuleID   string   `json:"ruleId"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	File     string   `json:"file"`
	// Line is 1-based. Line 1 also stands for "present, location unknown".
	Line int `json:"line"`
}

// ScanResult holds the findings for a single file in rule-catalog order.
type ScanResult struct {
	File     string
	Findings []Finding
	// Suppressed counts findings dropped by inline or configured ignores.
	Suppressed int
}

type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

type Summary struct {
	ScannedFiles     int            `json:"scannedFiles"`
	TotalFindings    int            `json:"totalFindings"`
	CountsBySeverity SeverityCounts `json:"countsBySeverity"`
	GeneratedAt      time.Time      `json:"generatedAt"`
	// SkippedFiles counts unreadable files skipped under the skip policy.
	SkippedFiles       int `json:"skippedFiles,omitempty"`
	SuppressedFindings int `json:"suppressedFindings,omitempty"`
}

// Report is the run-level result handed to reporters.
type Report struct {
	Summary  Summary   `json:"summary"`
	Findings []Finding `json:"findings"`
}
