package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tondev/internal/rules"
)

func TestMarkdownReportContract(t *testing.T) {
	tmpDir := t.TempDir()
	reportPath := filepath.Join(tmpDir, "reports", "ton-dev-report.md")

	s, err := NewReportSink(reportPath, rules.Builtin())
	if err != nil {
		t.Fatalf("NewReportSink failed: %v", err)
	}
	if err := s.Write(sampleReport()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	b, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	out := string(b)

	// Required headings
	required := []string{
		"# ton-dev Audit Report",
		"Generated: 2026-03-01 12:00:00 UTC",
		"## Summary",
		"| critical | 2 |",
		"| high | 1 |",
		"## Findings by rule",
		"## Findings by file",
		"### contracts/minter.fc",
		"- **[MEDIUM] TON-GAS-001** (line 14): Cross-contract send path without visible gas/value checks",
		"## Remediation notes",
		"### TON-AUTH-001: Privileged operation without sender authorization check",
	}
	for _, r := range required {
		if !strings.Contains(out, r) {
			t.Errorf("report missing %q\n---\n%s", r, out)
		}
	}

	// Most severe rule first in the per-rule table.
	auth := strings.Index(out, "| TON-AUTH-001 |")
	bounce := strings.Index(out, "| TON-BOUNCE-001 |")
	gas := strings.Index(out, "| TON-GAS-001 |")
	if auth < 0 || bounce < 0 || gas < 0 || !(auth < bounce && bounce < gas) {
		t.Errorf("per-rule table order wrong: auth=%d bounce=%d gas=%d", auth, bounce, gas)
	}
	if !strings.Contains(out, "| TON-AUTH-001 | critical | Privileged operation without sender authorization check | 2 | contracts/minter.fc, contracts/wallet.fc |") {
		t.Errorf("unexpected AUTH row\n%s", out)
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, emptyReport(), nil); err != nil {
		t.Fatalf("RenderMarkdown error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "No findings.") || !strings.Contains(out, "- None") {
		t.Fatalf("expected empty markers, got:\n%s", out)
	}
	if strings.Contains(out, "Remediation notes") {
		t.Fatal("no remediation section expected without findings")
	}
}

func TestFormatFileList(t *testing.T) {
	files := []string{"a.fc", "b.fc", "c.fc", "d.fc", "e.fc"}
	if got := formatFileList(files, 3); got != "a.fc, b.fc, c.fc, +2 more" {
		t.Fatalf("formatFileList = %q", got)
	}
	if got := formatFileList(files[:2], 3); got != "a.fc, b.fc" {
		t.Fatalf("formatFileList = %q", got)
	}
}
