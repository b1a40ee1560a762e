package fastexport

import "github.com/pkg/errors"

// Validate checks the Command Model's two cross-cutting invariants over a
// parsed Sequence: every blob's mark is unique, and every from/merge/M
// reference resolves to a mark defined earlier in the stream. It does not
// mutate seq.
func Validate(seq Sequence) error {
	blobMarks := make(map[int]bool)
	defined := make(map[int]bool)
	pendingBlob := false

	for i, c := range seq {
		switch c.Verb {
		case VerbBlob:
			pendingBlob = true
			continue
		case VerbMark:
			if m, ok := c.Mark(); ok {
				if pendingBlob {
					if blobMarks[m] {
						return errors.Wrapf(ErrDuplicateBlobMark, "mark :%d", m)
					}
					blobMarks[m] = true
				}
				defined[m] = true
			}
		case VerbFrom:
			if m, ok := c.From(); ok && !defined[m] {
				return errors.Wrapf(ErrDanglingMarkReference, "from :%d at command %d", m, i)
			}
		case VerbMerge:
			if m, ok := c.Merge(); ok && !defined[m] {
				return errors.Wrapf(ErrDanglingMarkReference, "merge :%d at command %d", m, i)
			}
		case VerbFileModify:
			if _, dataref, _, ok := c.FileModify(); ok {
				if m, isMark := ParseMarkToken(dataref); isMark && !defined[m] {
					return errors.Wrapf(ErrDanglingMarkReference, "M dataref :%d at command %d", m, i)
				}
			}
		}
		pendingBlob = false
	}
	return nil
}
