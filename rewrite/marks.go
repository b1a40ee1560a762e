package rewrite

import "github.com/rcowham/gitstitch/fastexport"

// RenumberMarks adds delta to every mark declaration and reference in seq:
// 'mark :N' declarations, 'from :N'/'merge :N' references, the data-ref
// field of 'M <mode> :N <path>' (hex object ids pass through untouched),
// and both mark operands of 'N :blob :commit'. It preserves the
// equivalence class of references: two commands reference the same
// logical object before renumbering iff they do after.
func RenumberMarks(seq fastexport.Sequence, delta int) fastexport.Sequence {
	if delta == 0 {
		out := make(fastexport.Sequence, len(seq))
		copy(out, seq)
		return out
	}

	out := make(fastexport.Sequence, len(seq))
	copy(out, seq)

	for i, c := range out {
		switch c.Verb {
		case fastexport.VerbMark:
			if m, ok := c.Mark(); ok {
				out[i] = c.WithMark(m + delta)
			}
		case fastexport.VerbFrom:
			if m, ok := c.From(); ok {
				out[i] = c.WithFrom(m + delta)
			}
		case fastexport.VerbMerge:
			if m, ok := c.Merge(); ok {
				out[i] = c.WithMerge(m + delta)
			}
		case fastexport.VerbFileModify:
			mode, dataref, path, ok := c.FileModify()
			if !ok {
				continue
			}
			if m, isMark := fastexport.ParseMarkToken(dataref); isMark {
				out[i] = c.WithFileModifyFields(mode, renumberedMarkToken(m, delta), path)
			}
		case fastexport.VerbNote:
			blob, commit, ok := c.NoteMarks()
			if !ok {
				continue
			}
			newBlob := blob
			if m, isMark := fastexport.ParseMarkToken(blob); isMark {
				newBlob = renumberedMarkToken(m, delta)
			}
			newCommit := commit
			if m, isMark := fastexport.ParseMarkToken(commit); isMark {
				newCommit = renumberedMarkToken(m, delta)
			}
			out[i] = c.WithNoteMarks(newBlob, newCommit)
		}
	}
	return out
}

func renumberedMarkToken(mark, delta int) []byte {
	return fastexport.MarkToken(mark + delta)
}
