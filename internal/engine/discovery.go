package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// CollectFiles resolves a scan target to the ordered list of files to scan.
//
// A regular file is returned as-is whatever its extension. A directory is
// walked recursively in lexical order and every allow-listed file that
// passes filter is returned. A target that is itself a symlink to a directory
// is resolved before the walk and the results keep the target as prefix.
// WalkDir does not descend into symlinked directories below the root, so the
// walk always terminates; symlinked files are selected by name like any other
// entry.
func CollectFiles(target string, filter FileFilter) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, target)
		}
		return nil, fmt.Errorf("stat %s: %w", target, err)
	}
	if !info.IsDir() {
		return []string{target}, nil
	}

	root, err := walkRoot(target)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == root {
				return walkErr
			}
			if filter.SkipUnreadable {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			return &FileError{Path: p, Err: walkErr}
		}
		if d.IsDir() || !IsContractFile(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if !filter.Allows(filepath.ToSlash(rel)) {
			return nil
		}
		if root != target {
			p = filepath.Join(target, rel)
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filter.truncate(files), nil
}

// walkRoot returns the directory WalkDir should start from. WalkDir does not
// follow a symlinked root, so a linked target is resolved first.
func walkRoot(target string) (string, error) {
	li, err := os.Lstat(target)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", target, err)
	}
	if li.Mode()&fs.ModeSymlink == 0 {
		return target, nil
	}
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", target, err)
	}
	return resolved, nil
}
