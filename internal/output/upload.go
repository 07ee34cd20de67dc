package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"tondev/internal/rules"
)

// SARIFUploader submits a SARIF document for a commit. The GitHub client
// implements it with the code scanning API.
type SARIFUploader interface {
	UploadSARIF(ctx context.Context, owner, repo, ref, sha string, sarif []byte) (string, error)
}

// UploadTarget identifies where results are uploaded.
type UploadTarget struct {
	Repo string // OWNER/REPO
	Ref  string
	SHA  string
}

// UploadSink sends each report it receives to GitHub code scanning as SARIF.
type UploadSink struct {
	ctx      context.Context
	uploader SARIFUploader
	target   UploadTarget
	tool     ToolInfo
	mu       sync.Mutex
	ids      []string
}

func NewUploadSink(ctx context.Context, uploader SARIFUploader, target UploadTarget, tool ToolInfo) (*UploadSink, error) {
	if uploader == nil {
		return nil, fmt.Errorf("uploader must not be nil")
	}
	owner, name, ok := strings.Cut(target.Repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("invalid upload repository %q: expected OWNER/REPO", target.Repo)
	}
	if target.SHA == "" || target.Ref == "" {
		return nil, fmt.Errorf("upload requires both a commit SHA and a ref")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &UploadSink{ctx: ctx, uploader: uploader, target: target, tool: tool}, nil
}

func (s *UploadSink) Write(r rules.Report) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(BuildSARIF(r, s.tool)); err != nil {
		return fmt.Errorf("encode sarif: %w", err)
	}

	owner, name, _ := strings.Cut(s.target.Repo, "/")
	id, err := s.uploader.UploadSARIF(s.ctx, owner, name, s.target.Ref, s.target.SHA, buf.Bytes())
	if err != nil {
		return fmt.Errorf("upload sarif to %s: %w", s.target.Repo, err)
	}

	s.mu.Lock()
	s.ids = append(s.ids, id)
	s.mu.Unlock()
	return nil
}

// UploadIDs returns the ids GitHub assigned to the uploads so far.
func (s *UploadSink) UploadIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

func (s *UploadSink) Close() error {
	return nil
}
