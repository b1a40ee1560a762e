// Package gitlog extracts a branch's first-parent commit log from a flat
// fast-export command sequence, for use by the history interleaver.
package gitlog

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/rcowham/gitstitch/fastexport"
)

// Entry is one commit on a branch's first-parent chain.
type Entry struct {
	// Mark is the commit's mark number.
	Mark int
	// Time is the committer timestamp, timezone ignored.
	Time int64
	// Origin identifies which input stream this entry came from, so a
	// combined log can still tell which source a commit belongs to.
	Origin int
}

// ErrTruncatedCommit is returned when a commit command isn't followed by
// the mark/committer/data fields the extractor requires.
var ErrTruncatedCommit = errors.New("gitlog: truncated commit record")

// Extract walks seq backwards along branch's first-parent chain and
// returns its commits oldest-first. branch is a short name such as
// "master"; both "refs/heads/<branch>" and "refs/heads/origin/<branch>"
// are recognized as the branch tip. Remote-tracking refs of the form
// "refs/remotes/origin/<branch>" are not recognized.
//
// Walking stops as soon as a commit has no 'from' command, whether that
// happens at the tip or partway up the chain: every commit without a
// parent link terminates the walk, with no special-casing of the first
// commit found.
func Extract(seq fastexport.Sequence, branch string, origin int) ([]Entry, error) {
	headRef := []byte("refs/heads/" + branch)
	originRef := []byte("refs/heads/origin/" + branch)

	var log []Entry
	var parentMark int
	haveParent := false

	for k := len(seq) - 1; k >= 0; k-- {
		cmd := seq[k]

		if !haveParent {
			if cmd.Verb == fastexport.VerbReset {
				ref, ok := cmd.Ref()
				if !ok || (!bytes.Equal(ref, headRef) && !bytes.Equal(ref, originRef)) {
					continue
				}
				if k+1 < len(seq) {
					if m, ok := seq[k+1].From(); ok {
						parentMark = m
						haveParent = true
					}
				}
				continue
			}
			if cmd.Verb == fastexport.VerbCommit {
				ref, ok := cmd.Ref()
				if !ok || (!bytes.Equal(ref, headRef) && !bytes.Equal(ref, originRef)) {
					continue
				}
				entry, next, hasNext, err := readCommitLogEntry(seq, k, origin)
				if err != nil {
					return nil, err
				}
				log = append(log, entry)
				if !hasNext {
					// No 'from': this is the root commit, walk terminates.
					break
				}
				parentMark = next
				haveParent = true
			}
			continue
		}

		if cmd.Verb == fastexport.VerbCommit {
			if k+1 >= len(seq) {
				continue
			}
			m, ok := seq[k+1].Mark()
			if !ok || m != parentMark {
				continue
			}
			entry, next, hasNext, err := readCommitLogEntry(seq, k, origin)
			if err != nil {
				return nil, err
			}
			log = append(log, entry)
			if !hasNext {
				// Terminate: no more parents to walk.
				break
			}
			parentMark = next
		}
	}

	for i, j := 0, len(log)-1; i < j; i, j = i+1, j-1 {
		log[i], log[j] = log[j], log[i]
	}
	return log, nil
}

// readCommitLogEntry reads the mark/committer-time/from fields following a
// 'commit' command at seq[k], returning the parsed Entry and the parent
// mark referenced by a following 'from' command, if any.
func readCommitLogEntry(seq fastexport.Sequence, k, origin int) (Entry, int, bool, error) {
	idx := k + 1
	if idx >= len(seq) {
		return Entry{}, 0, false, errors.Wrapf(ErrTruncatedCommit, "commit at %d has no mark", k)
	}
	mark, ok := seq[idx].Mark()
	if !ok {
		return Entry{}, 0, false, errors.Wrapf(ErrTruncatedCommit, "commit at %d has no mark", k)
	}
	idx++

	if idx < len(seq) && seq[idx].Verb == fastexport.VerbOriginalOID {
		idx++
	}
	if idx < len(seq) && seq[idx].Verb == fastexport.VerbAuthor {
		idx++
	}
	if idx >= len(seq) || seq[idx].Verb != fastexport.VerbCommitter {
		return Entry{}, 0, false, errors.Wrapf(ErrTruncatedCommit, "commit at %d has no committer", k)
	}
	t, ok := seq[idx].CommitterTime()
	if !ok {
		return Entry{}, 0, false, errors.Wrapf(ErrTruncatedCommit, "commit at %d has malformed committer time", k)
	}
	// Skip committer and data.
	idx += 2

	entry := Entry{Mark: mark, Time: t, Origin: origin}

	if idx < len(seq) {
		if m, ok := seq[idx].From(); ok {
			return entry, m, true, nil
		}
	}
	return entry, 0, false, nil
}
