package engine

import "tondev/internal/rules"

// Exit code contract:
// 0 = no findings
// 1 = findings, none critical
// 2 = at least one critical finding
// 3 = fatal error (the run did not complete)
const (
	ExitClean    = 0
	ExitFindings = 1
	ExitCritical = 2
	ExitFatal    = 3
)

// ExitCode maps findings to the process exit code. It does not depend on the
// output format.
func ExitCode(findings []rules.Finding) int {
	if rules.HasSeverity(findings, rules.SeverityCritical) {
		return ExitCritical
	}
	if len(findings) > 0 {
		return ExitFindings
	}
	return ExitClean
}
