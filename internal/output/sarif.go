package output

import (
	"encoding/json"
	"io"
	"path/filepath"

	"tondev/internal/rules"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
)

// ToolInfo describes the producing tool in SARIF output.
type ToolInfo struct {
	Name           string
	Version        string
	InformationURI string
}

type SarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []SarifRun `json:"runs"`
}

type SarifRun struct {
	Tool    SarifTool     `json:"tool"`
	Results []SarifResult `json:"results"`
}

type SarifTool struct {
	Driver SarifDriver `json:"driver"`
}

type SarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []SarifRule `json:"rules"`
}

type SarifRule struct {
	ID               string       `json:"id"`
	ShortDescription SarifMessage `json:"shortDescription"`
}

type SarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   SarifMessage    `json:"message"`
	Locations []SarifLocation `json:"locations"`
}

type SarifMessage struct {
	Text string `json:"text"`
}

type SarifLocation struct {
	PhysicalLocation SarifPhysicalLocation `json:"physicalLocation"`
}

type SarifPhysicalLocation struct {
	ArtifactLocation SarifArtifactLocation `json:"artifactLocation"`
	Region           SarifRegion           `json:"region"`
}

type SarifArtifactLocation struct {
	URI string `json:"uri"`
}

type SarifRegion struct {
	StartLine int `json:"startLine"`
}

// BuildSARIF converts a report into a single-run SARIF log. Driver rules are
// deduplicated by rule id, keeping the first-seen message as the short
// description. An empty report yields empty (non-null) results and rules.
func BuildSARIF(report rules.Report, tool ToolInfo) SarifLog {
	if tool.Name == "" {
		tool.Name = "ton-dev"
	}

	driverRules := make([]SarifRule, 0)
	results := make([]SarifResult, 0, len(report.Findings))
	seen := make(map[string]struct{})

	for _, f := range report.Findings {
		if _, ok := seen[f.RuleID]; !ok {
			seen[f.RuleID] = struct{}{}
			driverRules = append(driverRules, SarifRule{
				ID:               f.RuleID,
				ShortDescription: SarifMessage{Text: f.Message},
			})
		}
		results = append(results, SarifResult{
			RuleID:  f.RuleID,
			Level:   sarifLevel(f.Severity),
			Message: SarifMessage{Text: f.Message},
			Locations: []SarifLocation{{PhysicalLocation: SarifPhysicalLocation{
				ArtifactLocation: SarifArtifactLocation{URI: filepath.ToSlash(f.File)},
				Region:           SarifRegion{StartLine: max(f.Line, 1)},
			}}},
		})
	}

	return SarifLog{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []SarifRun{{
			Tool: SarifTool{Driver: SarifDriver{
				Name:           tool.Name,
				Version:        tool.Version,
				InformationURI: tool.InformationURI,
				Rules:          driverRules,
			}},
			Results: results,
		}},
	}
}

func sarifLevel(s rules.Severity) string {
	switch s {
	case rules.SeverityCritical, rules.SeverityHigh:
		return "error"
	default:
		return "warning"
	}
}

// RenderSARIF writes BuildSARIF's log as indented JSON.
func RenderSARIF(w io.Writer, report rules.Report, tool ToolInfo) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(BuildSARIF(report, tool)); err != nil {
		return err
	}
	return flushIfPossible(w)
}
