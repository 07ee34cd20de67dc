package output

import (
	"fmt"
	"os"
	"sync"

	"tondev/internal/rules"
)

// ReportSink writes the Markdown audit report.
type ReportSink struct {
	path    string
	file    *os.File
	catalog *rules.Catalog
	mu      sync.Mutex
}

func NewReportSink(path string, catalog *rules.Catalog) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := createWithDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{
		path:    path,
		file:    f,
		catalog: catalog,
	}, nil
}

func (s *ReportSink) Write(r rules.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RenderMarkdown(s.file, r, s.catalog)
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
