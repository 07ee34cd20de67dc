package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tondev/internal/flags"
	"tondev/internal/rules"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the project file written by `ton-dev init`.
const DefaultFileName = "ton-dev.config.json"

// FileNames are the project file names searched for, in order of preference.
var FileNames = []string{DefaultFileName, "ton-dev.config.yaml", "ton-dev.config.yml"}

// File is the on-disk project configuration. JSON is read through the YAML
// decoder, so both spellings share one schema.
type File struct {
	Version int                 `yaml:"version" json:"version"`
	Scanner FileScanner         `yaml:"scanner" json:"scanner"`
	Paths   FilePaths           `yaml:"paths" json:"paths"`
	Ignore  []rules.IgnoreEntry `yaml:"ignore,omitempty" json:"ignore,omitempty"`

	// dir is the directory the file was loaded from; relative paths resolve
	// against it.
	dir string
}

type FileScanner struct {
	Format       string   `yaml:"format,omitempty" json:"format,omitempty"`
	Rules        string   `yaml:"rules,omitempty" json:"rules,omitempty"`
	Exclude      []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	OnUnreadable string   `yaml:"onUnreadable,omitempty" json:"onUnreadable,omitempty"`
}

type FilePaths struct {
	Contracts string `yaml:"contracts,omitempty" json:"contracts,omitempty"`
	Reports   string `yaml:"reports,omitempty" json:"reports,omitempty"`
}

// DefaultFile is the project file `ton-dev init` scaffolds.
func DefaultFile() *File {
	return &File{
		Version: 1,
		Scanner: FileScanner{Format: FormatTable},
		Paths:   FilePaths{Contracts: "contracts", Reports: "reports"},
	}
}

// LoadFile reads and validates a project file.
func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if f.Version > 1 {
		return nil, fmt.Errorf("config %s: unsupported version %d", path, f.Version)
	}
	for i, e := range f.Ignore {
		if e.Rule == "" && e.Path == "" {
			return nil, fmt.Errorf("config %s: ignore[%d] needs a rule or a path", path, i)
		}
		if e.Rule != "" && !rules.ValidID(strings.ToUpper(strings.TrimSpace(e.Rule))) {
			return nil, fmt.Errorf("config %s: ignore[%d]: invalid rule id %q", path, i, e.Rule)
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	f.dir = filepath.Dir(abs)
	return &f, nil
}

// FindFile looks for a project file in start and each of its parents. start
// may name a file, in which case the search begins in its directory.
func FindFile(start string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	if fi, err := os.Stat(dir); err == nil && !fi.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
				return candidate, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// WriteFile encodes f as indented JSON at path. It refuses to overwrite.
func WriteFile(path string, f *File) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	data, err := marshalJSON(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ApplyFile copies project file values into c for every setting whose flag
// was not given explicitly. changed reports whether a flag was set on the
// command line; nil means no flag was set.
func (c *Config) ApplyFile(f *File, changed func(name string) bool) {
	if f == nil {
		return
	}
	if changed == nil {
		changed = func(string) bool { return false }
	}

	if f.Scanner.Format != "" && !changed(flags.FlagFormat) {
		c.Output.Format = f.Scanner.Format
	}
	if f.Scanner.Rules != "" && !changed(flags.FlagRules) {
		c.Rules.Selector = f.Scanner.Rules
	}
	if f.Scanner.OnUnreadable != "" && !changed(flags.FlagOnUnreadable) {
		c.Runtime.OnUnreadable = f.Scanner.OnUnreadable
	}
	// File excludes add to the command line ones; there is no way to undo an
	// exclusion from the CLI.
	c.Targeting.Exclude = append(c.Targeting.Exclude, f.Scanner.Exclude...)

	if c.Targeting.Path == "" && f.Paths.Contracts != "" {
		c.Targeting.Path = f.resolve(f.Paths.Contracts)
	}
	if f.Paths.Reports != "" {
		c.Output.ReportsDir = f.resolve(f.Paths.Reports)
	}
	if len(f.Ignore) > 0 {
		c.Rules.Ignore = append(c.Rules.Ignore, f.Ignore...)
		c.Rules.IgnoreRoot = f.dir
	}
}

// Dir is the directory the file was loaded from.
func (f *File) Dir() string {
	return f.dir
}

func (f *File) resolve(p string) string {
	if filepath.IsAbs(p) || f.dir == "" {
		return p
	}
	return filepath.Join(f.dir, p)
}

func marshalJSON(f *File) ([]byte, error) {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return append(data, '\n'), nil
}
