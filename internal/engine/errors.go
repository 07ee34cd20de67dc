package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrPathNotFound is returned when the scan target does not exist.
	ErrPathNotFound = errors.New("path not found")

	// ErrUnreadableFile is wrapped by every FileError.
	ErrUnreadableFile = errors.New("unreadable file")
)

// FileError records a selected file that could not be read.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUnreadableFile, e.Path, e.Err)
}

func (e *FileError) Unwrap() []error {
	return []error{ErrUnreadableFile, e.Err}
}
