package dataset

import "errors"

var (
	// ErrUnsupportedDtype indicates an array element type this package cannot store.
	ErrUnsupportedDtype = errors.New("unsupported array dtype")

	// ErrUnsupportedRank indicates an array that is neither a vector nor a matrix.
	ErrUnsupportedRank = errors.New("unsupported array rank")

	// ErrSchemaMismatch indicates a stored field whose type or rank differs
	// from the Item schema.
	ErrSchemaMismatch = errors.New("stored array does not match schema")

	// ErrUnsafeArchivePath indicates an archive entry escaping the target directory.
	ErrUnsafeArchivePath = errors.New("archive entry escapes target directory")
)
