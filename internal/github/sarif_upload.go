package github

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/go-github/v68/github"
)

var commitSHAPattern = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

// EncodeSARIF gzips and base64-encodes a SARIF document, the form the code
// scanning API expects.
func EncodeSARIF(sarif []byte) (string, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(sarif); err != nil {
		return "", fmt.Errorf("gzip sarif: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("gzip sarif: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// UploadSARIF submits a SARIF document to GitHub code scanning for the given
// commit and returns the analysis id GitHub assigns.
func (c *Client) UploadSARIF(ctx context.Context, owner, repo, ref, sha string, sarif []byte) (string, error) {
	if c == nil || c.Client == nil {
		return "", fmt.Errorf("github client is nil")
	}
	if !strings.HasPrefix(ref, "refs/") {
		return "", fmt.Errorf("invalid ref %q: expected refs/heads/<branch> or refs/pull/<n>/merge", ref)
	}
	if !commitSHAPattern.MatchString(sha) {
		return "", fmt.Errorf("invalid commit sha %q: expected 40 hex characters", sha)
	}

	encoded, err := EncodeSARIF(sarif)
	if err != nil {
		return "", err
	}

	analysis := &github.SarifAnalysis{
		CommitSHA: github.Ptr(sha),
		Ref:       github.Ptr(ref),
		Sarif:     github.Ptr(encoded),
	}
	if c.ToolName != "" {
		analysis.ToolName = github.Ptr(c.ToolName)
	}

	id, _, err := c.Client.CodeScanning.UploadSarif(ctx, owner, repo, analysis)
	if err != nil {
		return "", fmt.Errorf("upload sarif: %w", err)
	}
	if id == nil {
		return "", nil
	}
	return id.GetID(), nil
}
