package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"tondev/internal/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const sampleContract = `;; sample.fc
() recv_internal(int msg_value, cell in_msg_full, slice in_msg_body) impure {
  ;; TODO: add sender checks and op dispatch
}
`

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Scaffold a ton-dev project",
	Long: `Create a project layout ton-dev understands:

  contracts/            contract sources
  contracts/sample.fc   a minimal FunC contract to audit
  reports/              where --out and --report files go by default
  ton-dev.config.json   project config

Existing files are left untouched.

Examples:
  ton-dev init
  ton-dev init my-jetton
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		return runInit(cmd.OutOrStdout(), dir)
	},
}

func runInit(w io.Writer, dir string) error {
	root, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	defaults := config.DefaultFile()
	contracts := filepath.Join(root, defaults.Paths.Contracts)
	reports := filepath.Join(root, defaults.Paths.Reports)

	for _, d := range []string{root, contracts, reports} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}

	samplePath := filepath.Join(contracts, "sample.fc")
	if err := writeFileIfMissing(samplePath, []byte(sampleContract)); err != nil {
		return err
	}

	configPath := filepath.Join(root, config.DefaultFileName)
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		if err := config.WriteFile(configPath, defaults); err != nil {
			return fmt.Errorf("write %s: %w", configPath, err)
		}
	} else if err != nil {
		return err
	}

	next := samplePath
	if wd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(wd, samplePath); err == nil {
			next = rel
		}
	}

	green := color.New(color.FgGreen)
	green.Fprintf(w, "Initialized TON Dev project at %s\n", root)
	fmt.Fprintf(w, "Next: ton-dev audit %s\n", next)
	return nil
}

func writeFileIfMissing(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func init() {
	rootCmd.AddCommand(initCmd)
}
