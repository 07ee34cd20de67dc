package engine

import (
	"path"
	"path/filepath"
	"strings"
)

// FileFilter narrows a directory scan. The zero value selects every file on
// the extension allow-list.
type FileFilter struct {
	Include []string
	Exclude []string
	// MaxFiles truncates the selection after filtering. 0 means unlimited.
	MaxFiles int
	// SkipUnreadable drops subdirectories that cannot be listed instead of
	// failing the walk with a FileError.
	SkipUnreadable bool
}

// allowedExtensions is the source-file allow-list, lower-case.
var allowedExtensions = map[string]struct{}{
	".fc":   {},
	".func": {},
	".tact": {},
	".tolk": {},
}

// IsContractFile reports whether name has an allow-listed extension.
func IsContractFile(name string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Allows reports whether relPath (slash-separated, relative to the scan
// root) passes the include and exclude patterns.
func (f FileFilter) Allows(relPath string) bool {
	base := path.Base(relPath)

	// If Include is set, must match at least one
	if len(f.Include) > 0 && !matchesAnyPattern(f.Include, relPath, base) {
		return false
	}

	// If Exclude is set, must not match any
	if len(f.Exclude) > 0 && matchesAnyPattern(f.Exclude, relPath, base) {
		return false
	}
	return true
}

func (f FileFilter) truncate(files []string) []string {
	if f.MaxFiles > 0 && len(files) > f.MaxFiles {
		return files[:f.MaxFiles]
	}
	return files
}

func matchesAnyPattern(patterns []string, relPath, base string) bool {
	for _, p := range patterns {
		if matchPattern(p, relPath, base) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, relPath, base string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	// A pattern with a directory component matches the relative path;
	// otherwise it matches the file name so "*.tact" works at any depth.
	if strings.Contains(pattern, "/") {
		pattern = strings.TrimPrefix(pattern, "./")
		matched, _ := path.Match(pattern, relPath)
		if matched {
			return true
		}
		// "dir/" excludes everything below dir.
		if strings.HasSuffix(pattern, "/") {
			return strings.HasPrefix(relPath, pattern)
		}
		return false
	}
	matched, _ := path.Match(pattern, base)
	return matched
}
