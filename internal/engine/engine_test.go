package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tondev/internal/config"
	"tondev/internal/output"
	"tondev/internal/rules"
)

type fakeUploader struct {
	calls int
	sarif []byte
	err   error
}

func (f *fakeUploader) UploadSARIF(ctx context.Context, owner, repo, ref, sha string, sarif []byte) (string, error) {
	f.calls++
	f.sarif = sarif
	return "sarif-1", f.err
}

type runResult struct {
	code   int
	stdout string
	stderr string
}

func newTestEngine() (*Engine, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	e := NewEngine(nil, nil)
	e.Stdout = &stdout
	e.Stderr = &stderr
	e.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return e, &stdout, &stderr
}

func runEngine(t *testing.T, e *Engine, cfg *config.Config) runResult {
	t.Helper()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	code := e.Run(context.Background(), cfg)
	return runResult{code: code, stdout: e.Stdout.(*bytes.Buffer).String(), stderr: e.Stderr.(*bytes.Buffer).String()}
}

func auditConfig(path, format string) *config.Config {
	cfg := config.New()
	cfg.Targeting.Path = path
	cfg.Output.Format = format
	return cfg
}

func decodeReport(t *testing.T, raw string) rules.Report {
	t.Helper()
	var r rules.Report
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("stdout is not a JSON report: %v\n%s", err, raw)
	}
	return r
}

func TestRun_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		contract string
		wantCode int
		wantIDs  []string
	}{
		{"bounce finding", bounceContract, ExitFindings, []string{rules.IDBounce}},
		{"critical auth finding", mintContract, ExitCritical, []string{rules.IDAuth}},
		{"critical with medium", mintAndSendContract, ExitCritical, []string{rules.IDAuth, rules.IDGas}},
		{"external with seqno is clean", externalWithSeqno, ExitClean, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeTree(t, map[string]string{"contract.fc": tt.contract})
			e, _, _ := newTestEngine()

			res := runEngine(t, e, auditConfig(filepath.Join(dir, "contract.fc"), config.FormatJSON))
			if res.code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d (stderr: %s)", res.code, tt.wantCode, res.stderr)
			}
			r := decodeReport(t, res.stdout)
			if got := ruleIDs(r.Findings); strings.Join(got, ",") != strings.Join(tt.wantIDs, ",") {
				t.Fatalf("rule ids = %v, want %v", got, tt.wantIDs)
			}
			if r.Summary.ScannedFiles != 1 {
				t.Fatalf("scannedFiles = %d", r.Summary.ScannedFiles)
			}
		})
	}
}

func TestRun_ExitCodeIsFormatIndependent(t *testing.T) {
	tests := []struct {
		name     string
		contract string
		wantCode int
	}{
		{"clean", cleanContract, ExitClean},
		{"high", bounceContract, ExitFindings},
		{"medium", drainContract, ExitFindings},
		{"critical", mintAndSendContract, ExitCritical},
	}
	formats := []string{config.FormatTable, config.FormatJSON, config.FormatSARIF}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeTree(t, map[string]string{"contract.fc": tt.contract})
			for _, format := range formats {
				e, _, _ := newTestEngine()
				res := runEngine(t, e, auditConfig(dir, format))
				if res.code != tt.wantCode {
					t.Fatalf("format %s: exit code = %d, want %d (stderr: %s)", format, res.code, tt.wantCode, res.stderr)
				}
				if tt.wantCode != ExitClean {
					continue
				}
				var want string
				switch format {
				case config.FormatTable:
					want = "No findings."
				case config.FormatJSON:
					want = `"findings": []`
				case config.FormatSARIF:
					want = `"results": []`
				}
				if !strings.Contains(res.stdout, want) {
					t.Fatalf("format %s: expected %q in output:\n%s", format, want, res.stdout)
				}
			}
		})
	}
}

func TestRun_RepeatedRunsAreIdentical(t *testing.T) {
	files := map[string]string{}
	for i, c := range []string{mintContract, bounceContract, drainContract, tactDrainContract, externalNoReplay, cleanContract} {
		for j := 0; j < 4; j++ {
			files[fmt.Sprintf("pkg%d/c%d.fc", j, i)] = c
		}
	}
	dir := writeTree(t, files)

	run := func(concurrency int) runResult {
		e, _, _ := newTestEngine()
		cfg := auditConfig(dir, config.FormatJSON)
		cfg.Runtime.Concurrency = concurrency
		return runEngine(t, e, cfg)
	}

	base := run(1)
	if base.code != ExitCritical {
		t.Fatalf("exit code = %d, want %d", base.code, ExitCritical)
	}
	for _, concurrency := range []int{1, 8} {
		got := run(concurrency)
		if got.code != base.code || got.stdout != base.stdout {
			t.Fatalf("concurrency %d: output differs from sequential run\nwant:\n%s\ngot:\n%s", concurrency, base.stdout, got.stdout)
		}
	}
}

func TestRun_DirectoryCountsOnlyContracts(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"jetton/minter.fc":  mintContract,
		"jetton/wallet.fc":  bounceContract,
		"vault/Vault.tact":  cleanContract,
		"docs/AUDIT.md":     "mint owner admin set_data",
		"scripts/deploy.ts": "send(",
	})
	e, _, _ := newTestEngine()

	res := runEngine(t, e, auditConfig(dir, config.FormatJSON))
	if res.code != ExitCritical {
		t.Fatalf("exit code = %d, want %d", res.code, ExitCritical)
	}
	r := decodeReport(t, res.stdout)
	if r.Summary.ScannedFiles != 3 {
		t.Fatalf("scannedFiles = %d, want 3", r.Summary.ScannedFiles)
	}
	if r.Summary.TotalFindings != 2 || r.Summary.CountsBySeverity.Critical != 1 || r.Summary.CountsBySeverity.High != 1 {
		t.Fatalf("unexpected summary: %+v", r.Summary)
	}
	// Files are visited in lexical order.
	if !strings.HasSuffix(r.Findings[0].File, "minter.fc") || !strings.HasSuffix(r.Findings[1].File, "wallet.fc") {
		t.Fatalf("unexpected finding order: %+v", r.Findings)
	}
}

func TestRun_EmptySARIFHasEmptyArrays(t *testing.T) {
	dir := writeTree(t, map[string]string{"clean.fc": cleanContract})
	e, _, _ := newTestEngine()

	res := runEngine(t, e, auditConfig(dir, config.FormatSARIF))
	if res.code != ExitClean {
		t.Fatalf("exit code = %d", res.code)
	}
	for _, want := range []string{`"results": []`, `"rules": []`, `"version": "2.1.0"`} {
		if !strings.Contains(res.stdout, want) {
			t.Fatalf("expected %s in SARIF output:\n%s", want, res.stdout)
		}
	}
}

func TestRun_TableOutput(t *testing.T) {
	dir := writeTree(t, map[string]string{"contract.fc": mintAndSendContract})
	e, _, _ := newTestEngine()

	res := runEngine(t, e, auditConfig(dir, config.FormatTable))
	if res.code != ExitCritical {
		t.Fatalf("exit code = %d", res.code)
	}
	for _, want := range []string{"Scanned files: 1", "[CRITICAL] TON-AUTH-001", "[MEDIUM] TON-GAS-001", "contract.fc:4"} {
		if !strings.Contains(res.stdout, want) {
			t.Fatalf("expected %q in table output:\n%s", want, res.stdout)
		}
	}
	if strings.Contains(res.stdout, "\x1b[") {
		t.Fatalf("expected no ANSI escapes when color is off:\n%q", res.stdout)
	}
}

func TestRun_FatalErrors(t *testing.T) {
	dir := writeTree(t, map[string]string{"contract.fc": mintContract})

	tests := []struct {
		name       string
		cfg        func() *config.Config
		wantStderr string
	}{
		{
			name:       "missing path",
			cfg:        func() *config.Config { return auditConfig(filepath.Join(dir, "missing"), config.FormatJSON) },
			wantStderr: "path not found",
		},
		{
			name: "unknown rule",
			cfg: func() *config.Config {
				cfg := auditConfig(dir, config.FormatJSON)
				cfg.Rules.Selector = "TON-NOPE-001"
				return cfg
			},
			wantStderr: "rule not found: TON-NOPE-001",
		},
		{
			name: "upload without client",
			cfg: func() *config.Config {
				cfg := auditConfig(dir, config.FormatJSON)
				cfg.Upload = config.Upload{Repo: "acme/vault", Ref: "refs/heads/main", SHA: "abc"}
				return cfg
			},
			wantStderr: "no GitHub client",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _ := newTestEngine()
			res := runEngine(t, e, tt.cfg())
			if res.code != ExitFatal {
				t.Fatalf("exit code = %d, want %d", res.code, ExitFatal)
			}
			if !strings.Contains(res.stderr, tt.wantStderr) {
				t.Fatalf("stderr = %q, want it to contain %q", res.stderr, tt.wantStderr)
			}
			if res.stdout != "" {
				t.Fatalf("expected no report on stdout, got %q", res.stdout)
			}
		})
	}
}

func TestRun_NoConsoleWritesFiles(t *testing.T) {
	dir := writeTree(t, map[string]string{"contracts/wallet.fc": bounceContract})
	reports := filepath.Join(dir, "reports")
	e, _, _ := newTestEngine()

	cfg := auditConfig(filepath.Join(dir, "contracts"), config.FormatTable)
	cfg.Output.NoConsole = true
	cfg.Output.ReportsDir = reports
	cfg.Output.Out = "audit.sarif.json"
	cfg.Output.Report = "audit.md"

	res := runEngine(t, e, cfg)
	if res.code != ExitFindings {
		t.Fatalf("exit code = %d (stderr: %s)", res.code, res.stderr)
	}
	if res.stdout != "" {
		t.Fatalf("expected empty stdout with --no-console, got %q", res.stdout)
	}

	sarif, err := os.ReadFile(filepath.Join(reports, "audit.sarif.json"))
	if err != nil {
		t.Fatalf("read sarif: %v", err)
	}
	var log output.SarifLog
	if err := json.Unmarshal(sarif, &log); err != nil {
		t.Fatalf("decode sarif: %v", err)
	}
	if len(log.Runs) != 1 || len(log.Runs[0].Results) != 1 || log.Runs[0].Results[0].RuleID != rules.IDBounce {
		t.Fatalf("unexpected sarif: %+v", log)
	}

	md, err := os.ReadFile(filepath.Join(reports, "audit.md"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(md), "# ton-dev Audit Report") || !strings.Contains(string(md), rules.IDBounce) {
		t.Fatalf("unexpected markdown report:\n%s", md)
	}
}

func TestRun_UnwritableOutFailsBeforeScanning(t *testing.T) {
	dir := writeTree(t, map[string]string{"blocker": "not a directory"})
	e, _, _ := newTestEngine()

	// The target does not exist either; the sink error must win because sinks
	// are opened before any file is collected.
	cfg := auditConfig(filepath.Join(dir, "missing"), config.FormatJSON)
	cfg.Output.Out = filepath.Join(dir, "blocker", "audit.json")

	res := runEngine(t, e, cfg)
	if res.code != ExitFatal {
		t.Fatalf("exit code = %d, want %d", res.code, ExitFatal)
	}
	if !strings.Contains(res.stderr, "Error creating output sinks") {
		t.Fatalf("stderr = %q, want a sink error", res.stderr)
	}
	if strings.Contains(res.stderr, "path not found") {
		t.Fatalf("files were collected before sinks were opened: %q", res.stderr)
	}
}

func TestRun_Upload(t *testing.T) {
	dir := writeTree(t, map[string]string{"contract.fc": mintContract})

	t.Run("success", func(t *testing.T) {
		up := &fakeUploader{}
		e, _, _ := newTestEngine()
		e.Uploader = up

		cfg := auditConfig(dir, config.FormatJSON)
		cfg.Output.NoConsole = true
		cfg.Upload = config.Upload{Repo: "acme/vault", Ref: "refs/heads/main", SHA: "abc"}

		res := runEngine(t, e, cfg)
		if res.code != ExitCritical {
			t.Fatalf("exit code = %d (stderr: %s)", res.code, res.stderr)
		}
		if up.calls != 1 || !bytes.Contains(up.sarif, []byte(rules.IDAuth)) {
			t.Fatalf("unexpected upload: calls=%d sarif=%s", up.calls, up.sarif)
		}
	})

	t.Run("failure is fatal", func(t *testing.T) {
		up := &fakeUploader{err: errors.New("403 forbidden")}
		e, _, _ := newTestEngine()
		e.Uploader = up

		cfg := auditConfig(dir, config.FormatJSON)
		cfg.Upload = config.Upload{Repo: "acme/vault", Ref: "refs/heads/main", SHA: "abc"}

		res := runEngine(t, e, cfg)
		if res.code != ExitFatal {
			t.Fatalf("exit code = %d, want %d", res.code, ExitFatal)
		}
		if !strings.Contains(res.stderr, "403 forbidden") {
			t.Fatalf("stderr = %q", res.stderr)
		}
	})
}

func TestRun_Suppressions(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"contracts/minter.fc": ";; ton-dev:ignore TON-AUTH-001\n" + mintContract,
		"contracts/wallet.fc": bounceContract,
	})
	e, _, _ := newTestEngine()

	cfg := auditConfig(filepath.Join(dir, "contracts"), config.FormatJSON)
	cfg.Rules.Ignore = []rules.IgnoreEntry{{Rule: rules.IDBounce, Path: "contracts/wallet.fc", Reason: "reviewed"}}
	cfg.Rules.IgnoreRoot = dir

	res := runEngine(t, e, cfg)
	if res.code != ExitClean {
		t.Fatalf("exit code = %d (stdout: %s)", res.code, res.stdout)
	}
	r := decodeReport(t, res.stdout)
	if r.Summary.SuppressedFindings != 2 || r.Summary.TotalFindings != 0 {
		t.Fatalf("unexpected summary: %+v", r.Summary)
	}
}

func TestRun_WarnsOnUnknownFormat(t *testing.T) {
	dir := writeTree(t, map[string]string{"contract.fc": cleanContract})
	e, _, _ := newTestEngine()

	res := runEngine(t, e, auditConfig(dir, "xml"))
	if res.code != ExitClean {
		t.Fatalf("exit code = %d", res.code)
	}
	if !strings.Contains(res.stderr, "Warning: unsupported --format: xml") {
		t.Fatalf("stderr = %q", res.stderr)
	}
	if !strings.Contains(res.stdout, "No findings.") {
		t.Fatalf("expected table fallback, got %q", res.stdout)
	}
}

func TestRun_IncludeExcludeAndMaxFiles(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.fc":         mintContract,
		"b.fc":         bounceContract,
		"c.tact":       mintContract,
		"vendor/x.fc":  mintContract,
		"vendor/y.fc":  mintContract,
		"vendor/z.fc":  mintContract,
		"vendor/zz.fc": mintContract,
	})

	tests := []struct {
		name        string
		mutate      func(*config.Config)
		wantScanned int
	}{
		{"include tact", func(c *config.Config) { c.Targeting.Include = []string{"*.tact"} }, 1},
		{"exclude vendor", func(c *config.Config) { c.Targeting.Exclude = []string{"vendor/"} }, 3},
		{"max files", func(c *config.Config) { c.Targeting.MaxFiles = 2 }, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _ := newTestEngine()
			cfg := auditConfig(dir, config.FormatJSON)
			tt.mutate(cfg)
			res := runEngine(t, e, cfg)
			r := decodeReport(t, res.stdout)
			if r.Summary.ScannedFiles != tt.wantScanned {
				t.Fatalf("scannedFiles = %d, want %d", r.Summary.ScannedFiles, tt.wantScanned)
			}
		})
	}
}
