package output

import (
	"time"

	"tondev/internal/rules"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleReport() rules.Report {
	findings := []rules.Finding{
		{RuleID: "TON-AUTH-001", Severity: rules.SeverityCritical, Message: "Potential privileged path without clear sender authorization", File: "contracts/minter.fc", Line: 1},
		{RuleID: "TON-GAS-001", Severity: rules.SeverityMedium, Message: "Cross-contract send path without visible gas/value checks", File: "contracts/minter.fc", Line: 14},
		{RuleID: "TON-AUTH-001", Severity: rules.SeverityCritical, Message: "Potential privileged path without clear sender authorization", File: "contracts/wallet.fc", Line: 1},
		{RuleID: "TON-BOUNCE-001", Severity: rules.SeverityHigh, Message: "State mutation without explicit bounced-message handling", File: "contracts/wallet.fc", Line: 1},
	}
	return rules.Report{
		Summary: rules.Summary{
			ScannedFiles:     2,
			TotalFindings:    len(findings),
			CountsBySeverity: rules.CountBySeverity(findings),
			GeneratedAt:      fixedTime,
		},
		Findings: findings,
	}
}

func emptyReport() rules.Report {
	return rules.Report{
		Summary:  rules.Summary{ScannedFiles: 1, GeneratedAt: fixedTime},
		Findings: []rules.Finding{},
	}
}
