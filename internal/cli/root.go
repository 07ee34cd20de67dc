package cli

import (
	"fmt"
	"os"

	"tondev/internal/flags"
	"tondev/internal/logging"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "ton-dev",
	Short: "Static security audit for TON smart contracts",
	Long: `ton-dev audits TON smart contract sources (FunC, Tact, Tolk) for common
security smells and reports findings as a table, JSON or SARIF.

ton-dev is a lightweight pattern scanner: it reads source text, never
compiles or executes it, and never talks to the network unless asked to
upload results.

Examples:
	# Check the local environment
	ton-dev doctor

	# Scaffold a project with a sample contract and config
	ton-dev init my-jetton

	# Audit a directory of contracts
	ton-dev audit contracts/

	# List rules
	ton-dev rules list

	# Print build info
	ton-dev version

Output:
	Reports go to stdout; logs, warnings and errors go to stderr.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(cfg.Runtime.Verbose); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose logging (debug logs on stderr, including every GitHub API call)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
