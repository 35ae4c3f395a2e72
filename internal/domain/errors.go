package domain

import "errors"

// Error taxonomy. The monitor loop is the only place that decides between
// fatal and swallow-and-continue; components wrap these sentinels so the
// loop can classify with errors.Is.
var (
	// ErrScanFailed marks a transient scan backend failure. The loop logs
	// it and skips the cycle without advancing known-state.
	ErrScanFailed = errors.New("scan failed")

	// ErrStorageUnavailable marks a store that cannot be opened or written.
	// Fatal at startup; mid-run the loop degrades to cache-only operation.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNoScanBackend marks startup failure to find any usable wireless
	// scanning facility. Always fatal.
	ErrNoScanBackend = errors.New("no usable scan backend")
)
