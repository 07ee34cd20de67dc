package engine

import (
	"path/filepath"
	"strings"

	"tondev/internal/rules"
)

// ScanOptions carries the per-run state ScanText needs besides the text.
type ScanOptions struct {
	// Suppressions silences configured findings. nil means inline markers only.
	Suppressions *rules.Suppressions
	// IgnoreRoot is the directory configured ignore paths are relative to.
	// Empty means the working directory.
	IgnoreRoot string
}

// ScanText evaluates every rule against the whole text of one file.
//
// A rule produces a finding iff at least one indicator matches and no
// mitigation matches anywhere in the text. Findings come out in the order of
// selected. The finding's line is that of the first occurrence of the rule's
// anchor, or 1 when the rule has none or the anchor is absent.
func ScanText(file, text string, selected []rules.Rule, opts ScanOptions) rules.ScanResult {
	return buildResult(file, text, evaluate(text, selected), opts)
}

// match is a rule that fired on a text, before suppression. It depends only
// on the text, so it can be shared between files with equal content.
type match struct {
	rule rules.Rule
	line int
}

func evaluate(text string, selected []rules.Rule) []match {
	var out []match
	for _, r := range selected {
		if !r.HasIndicator(text) || r.HasMitigation(text) {
			continue
		}
		out = append(out, match{rule: r, line: lineOf(text, r.AnchorOffset(text))})
	}
	return out
}

func buildResult(file, text string, matches []match, opts ScanOptions) rules.ScanResult {
	res := rules.ScanResult{File: file}
	if len(matches) == 0 {
		return res
	}

	inline := rules.InlineIgnores(text)
	relPath := relativeTo(opts.IgnoreRoot, file)
	for _, m := range matches {
		f := rules.NewFinding(m.rule, file, m.line)
		if ok, _ := opts.Suppressions.IsSuppressed(f, relPath, inline); ok {
			res.Suppressed++
			continue
		}
		res.Findings = append(res.Findings, f)
	}
	return res
}

// lineOf converts a byte offset into a 1-based line number. A negative offset
// maps to line 1.
func lineOf(text string, offset int) int {
	if offset < 0 {
		return 1
	}
	return strings.Count(text[:offset], "\n") + 1
}

func relativeTo(root, file string) string {
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return filepath.ToSlash(file)
	}
	absFile, err := filepath.Abs(file)
	if err != nil {
		return filepath.ToSlash(file)
	}
	rel, err := filepath.Rel(absRoot, absFile)
	if err != nil {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}
