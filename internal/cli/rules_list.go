package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"tondev/internal/rules"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	rulesListQuiet bool
	rulesListJSON  bool
	rulesTON       bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage and list rules",
	Long: `Inspect ton-dev rules.

This command group helps you discover which rules exist and what each rule checks.
Rules are evaluated during audits (see "ton-dev audit --help").

Examples:
  # List all available rules
  ton-dev rules list

  # Compact listing of the TON rulepack
  ton-dev rules --ton
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if rulesTON {
			printRulepack(cmd.OutOrStdout(), rules.Builtin())
			return nil
		}
		return cmd.Help()
	},
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available rules",
	Long: `List all rules compiled into this build, in catalog order.

Examples:
  ton-dev rules list
  ton-dev rules list -q
  ton-dev rules list --json

Output:
  A vertical list of rules:
    ----------------------------------------
    RULE: {ID} [{SEVERITY}]
    ----------------------------------------
    {TITLE}
    {DESCRIPTION}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rList := rules.Builtin().List()

		if rulesListJSON {
			return writeRulesJSON(cmd.OutOrStdout(), rList)
		}
		for _, r := range rList {
			if rulesListQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), r.ID())
			} else {
				printRule(cmd.OutOrStdout(), r, false)
			}
		}
		return nil
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show [rule-id]",
	Short: "Show details of a specific rule",
	Long: `Show details of a specific rule by its ID, including the patterns it
matches.

Examples:
  ton-dev rules show TON-AUTH-001
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, ok := rules.Builtin().Lookup(strings.ToUpper(strings.TrimSpace(args[0])))
		if !ok {
			return fmt.Errorf("rule not found: %s", args[0])
		}
		printRule(cmd.OutOrStdout(), r, true)
		return nil
	},
}

func printRule(w io.Writer, r rules.Rule, withPatterns bool) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "RULE: %s [%s]\n", r.ID(), r.Severity())
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, r.Title())
	fmt.Fprintln(w, r.Description())

	if withPatterns {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Fires when any of:")
		for _, p := range r.IndicatorPatterns() {
			fmt.Fprintf(w, "  %s\n", p)
		}
		if ms := r.MitigationPatterns(); len(ms) > 0 {
			fmt.Fprintln(w, "Unless any of:")
			for _, p := range ms {
				fmt.Fprintf(w, "  %s\n", p)
			}
		}
		if a := r.Anchor(); a != "" {
			fmt.Fprintf(w, "Reported at the first %q\n", a)
		}
	}
	fmt.Fprintln(w)
}

func printRulepack(w io.Writer, c *rules.Catalog) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s (%d starter rules)\n\n", bold.Sprint("TON-native rulepack"), c.Len())
	for _, r := range c.List() {
		fmt.Fprintf(w, "- %s [%s] %s\n", r.ID(), r.Severity(), r.Title())
	}
}

type ruleJSON struct {
	ID          string         `json:"id"`
	Severity    rules.Severity `json:"severity"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Indicators  []string       `json:"indicators"`
	Mitigations []string       `json:"mitigations"`
	Anchor      string         `json:"anchor,omitempty"`
}

func writeRulesJSON(w io.Writer, rs []rules.Rule) error {
	out := make([]ruleJSON, 0, len(rs))
	for _, r := range rs {
		out = append(out, ruleJSON{
			ID:          r.ID(),
			Severity:    r.Severity(),
			Title:       r.Title(),
			Description: r.Description(),
			Indicators:  r.IndicatorPatterns(),
			Mitigations: r.MitigationPatterns(),
			Anchor:      r.Anchor(),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().BoolVar(&rulesTON, "ton", false, "Print the TON rulepack as a compact list")
	rulesCmd.AddCommand(rulesListCmd)
	rulesListCmd.Flags().BoolVarP(&rulesListQuiet, "quiet", "q", false, "Only print rule IDs")
	rulesListCmd.Flags().BoolVar(&rulesListJSON, "json", false, "Print rules as JSON")
	rulesCmd.AddCommand(rulesShowCmd)
}
