package blobfilter

import "github.com/pkg/errors"

// ErrDanglingDataRef is returned when an 'M' command's data-ref mark has
// no matching 'blob'/'mark'/'data' triple earlier in the stream.
var ErrDanglingDataRef = errors.New("blobfilter: file modify references an unknown blob mark")
