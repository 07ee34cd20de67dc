package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"tondev/internal/rules"
)

// ConsoleSink renders each report it receives to a writer (stdout by default).
type ConsoleSink struct {
	writer io.Writer
	format string // "table", "json", "sarif"
	opts   RenderOptions
	mu     sync.Mutex
}

func NewConsoleSink(w io.Writer, format string, opts RenderOptions) (*ConsoleSink, error) {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = FormatTable
	}
	if format != FormatTable && format != FormatJSON && format != FormatSARIF {
		return nil, fmt.Errorf("unsupported console format: %s", format)
	}
	return &ConsoleSink{writer: w, format: format, opts: opts}, nil
}

func (s *ConsoleSink) Write(r rules.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Render(s.writer, s.format, r, s.opts)
}

func (s *ConsoleSink) Close() error {
	return nil
}
