package diff

import "errors"

// Root validation errors
var (
	// ErrRootNotFound indicates a comparison root does not exist
	ErrRootNotFound = errors.New("root directory not found")

	// ErrNotDirectory indicates a comparison root exists but is not a directory
	ErrNotDirectory = errors.New("not a directory")
)
