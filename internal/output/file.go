package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tondev/internal/rules"
)

// FileSink renders reports into a file. The file is created up front so that
// an unwritable path fails the run before any scanning happens.
type FileSink struct {
	path   string
	format string
	opts   RenderOptions
	file   *os.File
	mu     sync.Mutex
}

func NewFileSink(path string, format string, opts RenderOptions) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}

	// Infer format if not provided
	if format == "" {
		inferred, err := inferFileFormat(path)
		if err != nil {
			return nil, err
		}
		format = inferred
	}

	if format != FormatTable && format != FormatJSON && format != FormatSARIF {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	f, err := createWithDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	// Files never get ANSI colors.
	opts.Table.Color = false
	return &FileSink{
		path:   path,
		format: format,
		opts:   opts,
		file:   f,
	}, nil
}

func (s *FileSink) Path() string {
	return s.path
}

func (s *FileSink) Write(r rules.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Render(s.file, s.format, r, s.opts)
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func inferFileFormat(path string) (string, error) {
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
	default:
		return "", fmt.Errorf("cannot infer output format from file extension %q", ext)
	}
}

// createWithDir creates path, making its parent directory if needed.
func createWithDir(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return os.Create(path)
}
