package interleave

import "github.com/pkg/errors"

// ErrMissingCommitBeforeMark is returned when a breakpoint mark is not
// immediately preceded by a 'commit' command, meaning the input streams
// are not well-formed fast-export output.
var ErrMissingCommitBeforeMark = errors.New("interleave: mark not preceded by a commit command")

// ErrUnexpectedFrom is returned when a branch's first commit, which the
// interleaver needs to reparent onto the other branch's last emitted
// commit, already carries its own 'from' command.
var ErrUnexpectedFrom = errors.New("interleave: commit already has a from command")
