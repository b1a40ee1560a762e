package rewrite

import "errors"

// ErrUnsupportedPathQuoting is returned when a quoted path in a C/R
// command contains an escaped quote, which this rewriter does not parse.
var ErrUnsupportedPathQuoting = errors.New("rewrite: unsupported escaped quote in path")
