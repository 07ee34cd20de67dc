package cli

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"tondev/internal/engine"
	"tondev/internal/rules"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const demoSampleName = "jetton.fc"

//go:embed samples/jetton.fc
var demoSample string

var demoJSON bool

type demoOutput struct {
	Demo        string          `json:"demo"`
	Sample      string          `json:"sample"`
	DurationMs  int64           `json:"durationMs"`
	Summary     rules.Summary   `json:"summary"`
	TopFindings []rules.Finding `json:"topFindings"`
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Audit a bundled sample jetton contract",
	Long: `Audit a deliberately unsafe jetton minter bundled with ton-dev and print
the three most severe findings. Nothing on disk is read.

The exit code follows the audit exit codes (2: the sample has a critical
finding).

Examples:
  ton-dev demo
  ton-dev demo --json
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		code, err := runDemo(cmd.OutOrStdout(), demoJSON)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			os.Exit(engine.ExitFatal)
		}
		os.Exit(code)
	},
}

func runDemo(w io.Writer, asJSON bool) (int, error) {
	start := time.Now()
	res := engine.ScanText(demoSampleName, demoSample, rules.Builtin().List(), engine.ScanOptions{})
	report := engine.Aggregate([]rules.ScanResult{res}, 1, 0, time.Now())

	out := demoOutput{
		Demo:        "ton-dev",
		Sample:      demoSampleName,
		DurationMs:  time.Since(start).Milliseconds(),
		Summary:     report.Summary,
		TopFindings: topFindings(report.Findings, 3),
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return engine.ExitFatal, err
		}
		return engine.ExitCode(report.Findings), nil
	}

	bold := color.New(color.Bold)
	c := out.Summary.CountsBySeverity
	fmt.Fprintf(w, "\n%s\n\n", bold.Sprint("ton-dev demo"))
	fmt.Fprintf(w, "Sample: %s (bundled)\n", out.Sample)
	fmt.Fprintf(w, "Findings: %d (%d critical, %d high, %d medium, %d low)\n\n", out.Summary.TotalFindings, c.Critical, c.High, c.Medium, c.Low)
	for _, f := range out.TopFindings {
		fmt.Fprintf(w, "- [%s] %s: %s (line %d)\n", f.Severity, f.RuleID, f.Message, f.Line)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tip: run `ton-dev audit contracts/ --format sarif` for CI output.")
	return engine.ExitCode(report.Findings), nil
}

// topFindings returns up to n findings, most severe first. Findings of equal
// severity keep their report order.
func topFindings(findings []rules.Finding, n int) []rules.Finding {
	sorted := slices.Clone(findings)
	slices.SortStableFunc(sorted, func(a, b rules.Finding) int {
		return b.Severity.Rank() - a.Severity.Rank()
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	if sorted == nil {
		sorted = []rules.Finding{}
	}
	return sorted
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().BoolVar(&demoJSON, "json", false, "Print the result as JSON")
}
