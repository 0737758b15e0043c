package catalog

import "errors"

// Sentinel errors for catalog pass operations.
var (
	// ErrFetchFailed indicates that the catalog could not be read. The pass is
	// aborted before the store is touched.
	ErrFetchFailed = errors.New("catalog fetch failed")

	// ErrEmptyObservation indicates that the catalog was read but yielded no
	// valid entries. The pass is skipped and the store is left untouched.
	ErrEmptyObservation = errors.New("catalog observation is empty")
)
