package fastexport

import "errors"

// Error kinds from the fast-stream transformer's error design. Parser and
// invariant-check failures are fatal at the pipeline level: the output
// repository is never created.
var (
	// ErrMalformedStream is returned when a 'data' header declares a
	// length that overruns the remaining buffer.
	ErrMalformedStream = errors.New("fastexport: malformed stream")

	// ErrDuplicateBlobMark is returned when two 'blob' entries declare
	// the same mark.
	ErrDuplicateBlobMark = errors.New("fastexport: duplicate blob mark")

	// ErrDanglingMarkReference is returned when a from/merge/M reference
	// does not resolve to a mark defined earlier in the stream.
	ErrDanglingMarkReference = errors.New("fastexport: dangling mark reference")
)
