package rules

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// InlineIgnoreMarker precedes a rule id in a source comment to silence that
// rule for the whole file, e.g. ";; ton-dev:ignore TON-AUTH-001".
const InlineIgnoreMarker = "ton-dev:ignore"

var inlineIgnorePattern = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(InlineIgnoreMarker) + `[ \t]+([A-Za-z0-9\-, \t]+)`)

// IgnoreEntry is a configured suppression. An empty Rule matches every rule.
// Path is a slash-separated prefix, or a path.Match pattern when it contains
// glob metacharacters. An empty Path matches every file.
type IgnoreEntry struct {
	Rule   string `yaml:"rule" json:"rule"`
	Path   string `yaml:"path" json:"path"`
	Reason string `yaml:"reason" json:"reason"`
}

// Suppressions decides whether a finding is silenced by configuration or by
// an inline marker in the scanned text.
type Suppressions struct {
	entries []IgnoreEntry
}

func NewSuppressions(entries []IgnoreEntry) *Suppressions {
	s := &Suppressions{}
	for _, e := range entries {
		e.Rule = strings.TrimSpace(e.Rule)
		e.Path = strings.Trim(strings.TrimSpace(e.Path), "/")
		e.Path = strings.TrimPrefix(e.Path, "./")
		s.entries = append(s.entries, e)
	}
	return s
}

// InlineIgnores returns the set of rule ids named by inline markers in text.
func InlineIgnores(text string) map[string]bool {
	if !strings.Contains(strings.ToLower(text), InlineIgnoreMarker) {
		return nil
	}
	out := make(map[string]bool)
	for _, m := range inlineIgnorePattern.FindAllStringSubmatch(text, -1) {
		for _, f := range strings.FieldsFunc(m[1], func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
			id := strings.ToUpper(strings.TrimSpace(f))
			if ValidID(id) {
				out[id] = true
			}
		}
	}
	return out
}

// IsSuppressed checks f against the configured entries and the inline
// markers found in the file (see InlineIgnores). relPath is the finding's
// file relative to the working directory, slash-separated. The returned
// reason is empty when f is not suppressed.
func (s *Suppressions) IsSuppressed(f Finding, relPath string, inline map[string]bool) (bool, string) {
	if inline[f.RuleID] {
		return true, "inline " + InlineIgnoreMarker
	}
	if s == nil {
		return false, ""
	}
	for _, e := range s.entries {
		if e.Rule != "" && !strings.EqualFold(e.Rule, f.RuleID) {
			continue
		}
		if e.Path != "" && !pathMatches(e.Path, relPath) {
			continue
		}
		reason := "config ignore"
		if e.Reason != "" {
			reason = fmt.Sprintf("config ignore: %s", e.Reason)
		}
		return true, reason
	}
	return false, ""
}

func pathMatches(pattern, relPath string) bool {
	relPath = strings.TrimPrefix(relPath, "./")
	if strings.ContainsAny(pattern, "*?[") {
		matched, _ := path.Match(pattern, relPath)
		return matched
	}
	return relPath == pattern || strings.HasPrefix(relPath, pattern+"/")
}
