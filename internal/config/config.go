package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"tondev/internal/rules"
)

// Output formats accepted by --format and --out-format.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatSARIF = "sarif"
)

// Unreadable-file policies accepted by --on-unreadable.
const (
	OnUnreadableFail = "fail"
	OnUnreadableSkip = "skip"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect scan
	// behavior, keep these in sync:
	// - CLI flags in internal/cli/audit.go
	// - project file mapping in internal/config/file.go:ApplyFile
	Targeting Targeting
	Rules     Rules
	Output    Output
	Runtime   Runtime
	Upload    Upload

	warnings []string
}

type Targeting struct {
	// Path is the file or directory to scan. Empty means the project file's
	// paths.contracts, else the working directory.
	Path string

	// Include keeps only files matching at least one pattern (see --include).
	// Go path.Match style; if a pattern contains '/', it matches the path relative
	// to the scan root, otherwise it matches the file name.
	Include []string

	// Exclude drops files matching any pattern (see --exclude).
	// Same matching rules as Include.
	Exclude []string

	// MaxFiles limits how many files to scan (see --max-files). 0 means unlimited.
	MaxFiles int
}

type Rules struct {
	// Selector is a comma-separated list of rule ids (see --rules).
	// Empty means all rules.
	Selector string

	// Ignore lists configured suppressions. Only the project file sets these.
	Ignore []rules.IgnoreEntry

	// IgnoreRoot is the directory Ignore paths are relative to. Empty means the
	// working directory.
	IgnoreRoot string
}

type Output struct {
	// Format controls the console rendering (see --format).
	// Allowed values: table, json, sarif. Unknown values fall back to table.
	Format string

	// Report writes a Markdown report to this path (see --report).
	Report string

	// Out writes an additional rendering to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: table, json, sarif. If empty, it is inferred from the --out
	// file extension.
	OutFormat string

	// ReportsDir is the directory relative --out and --report paths resolve
	// against (project file paths.reports). Empty means the working directory.
	ReportsDir string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool

	// NoColor disables ANSI colors in the table renderer (see --no-color).
	NoColor bool
}

type Runtime struct {
	// Concurrency controls how many files are scanned in parallel (see --concurrency).
	// Must be >= 1.
	Concurrency int

	// Timeout is the global timeout for the run (see --timeout).
	// Must be > 0.
	Timeout time.Duration

	// OnUnreadable decides what happens when a selected file cannot be read
	// (see --on-unreadable). Allowed values: fail, skip.
	OnUnreadable string

	// ConfigFile is an explicit project file path (see --config).
	ConfigFile string

	// Verbose enables debug logging.
	Verbose bool
}

type Upload struct {
	// Repo is OWNER/REPO to upload SARIF results to (see --upload-repo).
	// Empty disables the upload sink.
	Repo string

	// Ref is the git ref the results belong to, e.g. refs/heads/main (see --upload-ref).
	Ref string

	// SHA is the commit the results belong to (see --upload-sha).
	SHA string
}

func New() *Config {
	return &Config{
		Output: Output{
			Format: FormatTable,
		},
		Runtime: Runtime{
			Concurrency:  4,
			Timeout:      5 * time.Minute,
			OnUnreadable: OnUnreadableFail,
		},
	}
}

// Warnings returns the non-fatal problems Validate corrected, e.g. an unknown
// --format value that fell back to table.
func (c *Config) Warnings() []string {
	return c.warnings
}

func (c *Config) Validate() error {
	c.warnings = nil

	// Normalize comma-delimited list inputs.
	c.Targeting.Include = splitCommaList(c.Targeting.Include)
	c.Targeting.Exclude = splitCommaList(c.Targeting.Exclude)
	c.Targeting.Path = strings.TrimSpace(c.Targeting.Path)
	c.Rules.Selector = normalizeSelector(c.Rules.Selector)

	// Output validation
	c.Output.Format = normalizeEnumValue(c.Output.Format)
	if !isFormat(c.Output.Format) {
		if c.Output.Format != "" {
			c.warnings = append(c.warnings, fmt.Sprintf("unsupported --format: %s (must be one of: table, json, sarif); falling back to table", c.Output.Format))
		}
		c.Output.Format = FormatTable
	}

	if c.Output.Out != "" {
		c.Output.Out = resolveReportPath(c.Output.ReportsDir, c.Output.Out)
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			format, err := InferFormat(c.Output.Out)
			if err != nil {
				return err
			}
			c.Output.OutFormat = format
		} else if !isFormat(c.Output.OutFormat) {
			return fmt.Errorf("unsupported output format: %s (must be one of: table, json, sarif)", c.Output.OutFormat)
		}
	}
	if c.Output.Report != "" {
		c.Output.Report = resolveReportPath(c.Output.ReportsDir, c.Output.Report)
	}

	// Runtime validation
	c.Runtime.OnUnreadable = normalizeEnumValue(c.Runtime.OnUnreadable)
	if c.Runtime.OnUnreadable == "" {
		c.Runtime.OnUnreadable = OnUnreadableFail
	}
	if c.Runtime.OnUnreadable != OnUnreadableFail && c.Runtime.OnUnreadable != OnUnreadableSkip {
		return fmt.Errorf("unsupported --on-unreadable: %s (must be one of: fail, skip)", c.Runtime.OnUnreadable)
	}
	if c.Targeting.MaxFiles < 0 {
		return errors.New("--max-files must be >= 0")
	}
	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	// Upload validation
	c.Upload.Repo = strings.TrimSpace(c.Upload.Repo)
	if c.Upload.Repo != "" {
		owner, name, ok := strings.Cut(c.Upload.Repo, "/")
		if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
			return fmt.Errorf("invalid --upload-repo value %q: expected OWNER/REPO", c.Upload.Repo)
		}
		if strings.TrimSpace(c.Upload.SHA) == "" {
			return errors.New("--upload-sha is required with --upload-repo")
		}
		if strings.TrimSpace(c.Upload.Ref) == "" {
			return errors.New("--upload-ref is required with --upload-repo")
		}
	}

	return nil
}

// InferFormat maps an output file name to a format by its extension.
func InferFormat(path string) (string, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".sarif.json") {
		return FormatSARIF, nil
	}
	ext := filepath.Ext(lower)
	switch ext {
	case ".json":
		return FormatJSON, nil
	case ".sarif":
		return FormatSARIF, nil
	case ".txt":
		return FormatTable, nil
	case "":
		return "", errors.New("cannot infer output format from file extension (missing extension); use --out-format")
	default:
		return "", fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
	}
}

func isFormat(v string) bool {
	return v == FormatTable || v == FormatJSON || v == FormatSARIF
}

func resolveReportPath(dir, p string) string {
	if dir == "" || filepath.IsAbs(p) || filepath.Dir(p) != "." {
		return p
	}
	return filepath.Join(dir, p)
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// normalizeSelector trims every id of a comma-separated rule list and drops
// empty entries.
func normalizeSelector(raw string) string {
	return strings.Join(splitCommaList([]string{raw}), ",")
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
