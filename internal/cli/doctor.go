package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	gh "tondev/internal/github"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type doctorCheck struct {
	name   string
	ok     bool
	detail string
	// optional checks are reported but never fail the run.
	optional bool
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the local environment",
	Long: `Run environment diagnostics: platform, write access to the working
directory, terminal support and whether a GitHub token is available for
SARIF uploads.

Exit codes:
	0 = all required checks passed
	1 = a required check failed
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		wd, err := os.Getwd()
		if err != nil {
			wd = "."
		}
		checks := runDoctorChecks(cmd.Context(), wd)
		os.Exit(printDoctorReport(cmd.OutOrStdout(), checks))
	},
}

func runDoctorChecks(ctx context.Context, wd string) []doctorCheck {
	if ctx == nil {
		ctx = context.Background()
	}
	checks := []doctorCheck{
		{name: "Go runtime", ok: true, detail: runtime.Version()},
		{name: "Platform", ok: true, detail: runtime.GOOS + "/" + runtime.GOARCH},
	}

	writeErr := canWrite(wd)
	detail := wd
	if writeErr != nil {
		detail = fmt.Sprintf("%s: %v", wd, writeErr)
	}
	checks = append(checks, doctorCheck{name: "Write access to cwd", ok: writeErr == nil, detail: detail})

	tty := term.IsTerminal(int(os.Stdout.Fd()))
	ttyDetail := "stdout is a terminal"
	if !tty {
		ttyDetail = "stdout is not a terminal; colors off"
	}
	checks = append(checks, doctorCheck{name: "Terminal", ok: tty, detail: ttyDetail, optional: true})

	_, source, err := gh.ResolveAuthToken(ctx, "")
	tokenCheck := doctorCheck{name: "GitHub token (for --upload-repo)", optional: true}
	switch {
	case err != nil:
		tokenCheck.detail = err.Error()
	case source == "":
		tokenCheck.detail = "none found; set GITHUB_TOKEN or run 'gh auth login'"
	default:
		tokenCheck.ok = true
		tokenCheck.detail = "from " + string(source)
	}
	checks = append(checks, tokenCheck)

	return checks
}

// printDoctorReport writes one line per check and returns the exit code.
func printDoctorReport(w io.Writer, checks []doctorCheck) int {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	fmt.Fprintf(w, "\n%s\n\n", bold.Sprint("TON Dev Doctor"))

	allOK := true
	for _, c := range checks {
		icon := green.Sprint("✓")
		switch {
		case !c.ok && c.optional:
			icon = yellow.Sprint("!")
		case !c.ok:
			icon = red.Sprint("✗")
			allOK = false
		}
		fmt.Fprintf(w, " %s %s %s\n", icon, c.name, gray.Sprint("("+c.detail+")"))
	}
	fmt.Fprintln(w)

	if allOK {
		fmt.Fprintln(w, green.Sprint("Environment looks good."))
		return 0
	}
	fmt.Fprintln(w, red.Sprint("Environment check failed."))
	return 1
}

func canWrite(dir string) error {
	f, err := os.CreateTemp(dir, ".ton-dev-write-test-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if _, err := f.WriteString("ok"); err != nil {
		f.Close()
		os.Remove(name)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return err
	}
	return os.Remove(name)
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
