package hosttool

import "github.com/pkg/errors"

// ErrHostToolFailed wraps a failing invocation of an external git
// subprocess. The wrapped message carries the argv and captured stderr.
var ErrHostToolFailed = errors.New("hosttool: subprocess failed")
