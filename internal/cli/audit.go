package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"tondev/internal/config"
	"tondev/internal/engine"
	"tondev/internal/flags"
	gh "tondev/internal/github"
	"tondev/internal/logging"
	"tondev/internal/output"
	"tondev/internal/rules"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var cfg = config.New()

const auditHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if gt (len .Aliases) 0}}Aliases:
  {{.NameAndAliases}}

{{end}}{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
	Uploading SARIF (--upload-repo) needs a GitHub access token with the
	security_events scope (or "Code scanning alerts: write" for fine-grained
	tokens).

	Sources (in order):
	1) GITHUB_TOKEN environment variable (set automatically in GitHub Actions)
	2) GH_TOKEN environment variable
	3) GitHub CLI (gh) authentication via gh auth token (if gh is installed and logged in)

	In GitHub Actions, GITHUB_REF and GITHUB_SHA fill in --upload-ref and
	--upload-sha when those flags are omitted.

	NO_COLOR disables colors like --no-color.

{{if .HasAvailableSubCommands}}Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasHelpSubCommands}}Additional help topics:
{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.
{{end}}`

var auditCmd = &cobra.Command{
	Use:     "audit [path]",
	Aliases: []string{"scan"},
	Short:   "Audit TON contract sources for security smells",
	Long: `Audit a contract file or a directory of contracts and report findings.

A directory is walked recursively and every .fc, .func, .tact and .tolk file
is scanned. A single file is scanned whatever its extension. Without a path,
the project file's paths.contracts is used, else the current directory.

Project config:
	ton-dev.config.json (or .yaml/.yml) is looked up from the scan path upwards,
	or given with --config. Flags given on the command line win over file
	values; file excludes are added to --exclude.

	Findings can be silenced inline with a comment naming the rule:
	  ;; ton-dev:ignore TON-AUTH-001

Output:
	Console output is controlled by --format (default: table).
	Additional outputs:
	- --out / --out-format: write table, json or sarif to a file
	- --report: write a Markdown report
	- --upload-repo: upload SARIF to GitHub code scanning
	- --no-console: suppress the console output (use with --out/--report)

Exit codes:
	0 = no findings
	1 = findings, none critical
	2 = at least one critical finding
	3 = fatal error (the audit did not complete)

Examples:
	ton-dev audit contracts/jetton-minter.fc
	ton-dev audit contracts/ --format json
	ton-dev audit . --exclude 'imports/' --out reports/audit.sarif.json --report reports/audit.md

	# CI: upload results to code scanning
	ton-dev audit contracts/ --no-console --upload-repo "$GITHUB_REPOSITORY"
`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runAudit(cmd.Context(), cmd, cfg, args, cmd.OutOrStdout(), cmd.ErrOrStderr()))
	},
}

// runAudit resolves configuration for one audit, runs it and returns the exit
// code.
func runAudit(ctx context.Context, cmd *cobra.Command, cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(args) == 1 {
		cfg.Targeting.Path = args[0]
	}

	if err := loadProjectConfig(cmd, cfg); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return engine.ExitFatal
	}

	applyImplicitDefaults(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return engine.ExitFatal
	}

	eng := engine.NewEngine(rules.Builtin(), logging.Logger)
	eng.Stdout = stdout
	eng.Stderr = stderr
	eng.Color = colorEnabled(cfg, stdout)
	eng.Tool = output.ToolInfo{Name: "ton-dev", Version: buildVersion}

	if cfg.Upload.Repo != "" {
		token, source, err := gh.ResolveAuthToken(ctx, "")
		if err != nil {
			fmt.Fprintf(stderr, "Error: failed to resolve GitHub auth token: %v\n", err)
			return engine.ExitFatal
		}
		if strings.TrimSpace(token) == "" {
			fmt.Fprintln(stderr, "Error: GitHub auth token is required for --upload-repo (set GITHUB_TOKEN or run 'gh auth login')")
			return engine.ExitFatal
		}
		logging.Logger.Debugw("Resolved GitHub token", "source", source)

		client, err := gh.NewClient(ctx, token, gh.WithVerbose(cfg.Runtime.Verbose, logging.Logger))
		if err != nil {
			fmt.Fprintf(stderr, "Error: failed to create GitHub client: %v\n", err)
			return engine.ExitFatal
		}
		client.ToolName = "ton-dev"
		eng.Uploader = client
	}

	return eng.Run(ctx, cfg)
}

// loadProjectConfig applies the project file named by --config, or the first
// one found from the scan path upwards. No file is not an error.
func loadProjectConfig(cmd *cobra.Command, cfg *config.Config) error {
	path := cfg.Runtime.ConfigFile
	if path == "" {
		start := cfg.Targeting.Path
		if start == "" {
			start = "."
		}
		found, ok := config.FindFile(start)
		if !ok {
			return nil
		}
		path = found
	}

	f, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	logging.Logger.Debugw("Loaded project config", "path", path)

	changed := func(string) bool { return false }
	if cmd != nil {
		changed = cmd.Flags().Changed
	}
	cfg.ApplyFile(f, changed)
	return nil
}

func applyImplicitDefaults(cmd *cobra.Command, cfg *config.Config) {
	// Inside GitHub Actions the ref and commit being built are in the
	// environment; use them unless given explicitly.
	if cfg.Upload.Repo == "" || cmd == nil {
		return
	}
	if !cmd.Flags().Changed(flags.FlagUploadRef) && cfg.Upload.Ref == "" {
		cfg.Upload.Ref = os.Getenv("GITHUB_REF")
	}
	if !cmd.Flags().Changed(flags.FlagUploadSHA) && cfg.Upload.SHA == "" {
		cfg.Upload.SHA = os.Getenv("GITHUB_SHA")
	}
}

// colorEnabled decides whether the console table uses ANSI colors: only on a
// terminal, and never with --no-color or NO_COLOR set.
func colorEnabled(cfg *config.Config, w io.Writer) bool {
	if cfg.Output.NoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func bindAuditFlags(cmd *cobra.Command, cfg *config.Config) {
	// MAINTAINER NOTE: If you add/change/remove any audit-affecting flags here,
	// keep the project file mapping in sync: internal/config/file.go:ApplyFile.

	// Targeting
	cmd.Flags().StringSliceVar(&cfg.Targeting.Include, flags.FlagInclude, nil, "Include pattern(s) (repeatable; comma-separated accepted). Go path.Match style; if pattern contains '/', matches the path relative to the scan root, else the file name")
	cmd.Flags().StringSliceVar(&cfg.Targeting.Exclude, flags.FlagExclude, nil, "Exclude pattern(s) (repeatable; comma-separated accepted). Same matching rules as --include; a trailing '/' excludes a directory")
	cmd.Flags().IntVar(&cfg.Targeting.MaxFiles, flags.FlagMaxFiles, 0, "Maximum number of files to scan (0 = unlimited)")

	// Rules
	cmd.Flags().StringVar(&cfg.Rules.Selector, flags.FlagRules, "", "Comma-separated rule IDs to run (empty = all rules)")

	// Output
	cmd.Flags().StringVar(&cfg.Output.Format, flags.FlagFormat, config.FormatTable, "Console output format: table|json|sarif (default: table)")
	cmd.Flags().StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown report to this path")
	cmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write an additional rendering to this path")
	cmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Format for --out: table|json|sarif (default: inferred from file extension)")
	cmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --out/--report/--upload-repo)")
	cmd.Flags().BoolVar(&cfg.Output.NoColor, flags.FlagNoColor, false, "Disable colors in table output")

	// Runtime
	cmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Files scanned in parallel")
	cmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout")
	cmd.Flags().StringVar(&cfg.Runtime.OnUnreadable, flags.FlagOnUnreadable, config.OnUnreadableFail, "Unreadable file policy: fail|skip (default: fail)")
	cmd.Flags().StringVar(&cfg.Runtime.ConfigFile, flags.FlagConfig, "", "Project config file (default: ton-dev.config.json found from the scan path upwards)")

	// Upload
	cmd.Flags().StringVar(&cfg.Upload.Repo, flags.FlagUploadRepo, "", "Upload SARIF results to GitHub code scanning for OWNER/REPO")
	cmd.Flags().StringVar(&cfg.Upload.Ref, flags.FlagUploadRef, "", "Git ref for the upload, e.g. refs/heads/main (default: $GITHUB_REF)")
	cmd.Flags().StringVar(&cfg.Upload.SHA, flags.FlagUploadSHA, "", "Commit SHA for the upload (default: $GITHUB_SHA)")
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.SetHelpTemplate(auditHelpTemplate)
	bindAuditFlags(auditCmd, cfg)
}
