// Package fastexport implements the command model and codec for the
// git fast-export/fast-import stream: a flat, ordered sequence of
// byte-oriented commands, one per line-command (data commands carry
// their payload inline).
package fastexport

import (
	"bytes"
	"fmt"
	"strconv"
)

// Verb identifies the kind of a Command. Unrecognized verbs classify as
// VerbOther and are preserved byte-for-byte.
type Verb string

const (
	VerbBlob        Verb = "blob"
	VerbMark        Verb = "mark"
	VerbOriginalOID Verb = "original-oid"
	VerbData        Verb = "data"
	VerbCommit      Verb = "commit"
	VerbAuthor      Verb = "author"
	VerbCommitter   Verb = "committer"
	VerbTagger      Verb = "tagger"
	VerbFrom        Verb = "from"
	VerbMerge       Verb = "merge"
	VerbTag         Verb = "tag"
	VerbReset       Verb = "reset"
	VerbFileModify  Verb = "M"
	VerbFileDelete  Verb = "D"
	VerbFileCopy    Verb = "C"
	VerbFileRename  Verb = "R"
	VerbNote        Verb = "N"
	VerbDeleteAll   Verb = "deleteall"
	VerbOther       Verb = "other"
)

// Command is a single record of a fast-export stream. Raw holds the
// complete on-wire bytes of the record with no trailing newline: for a
// 'data' command that includes the "data <len>" header, one embedded
// newline, and exactly <len> bytes of payload. Strings are never decoded;
// paths, refs and payloads remain opaque byte sequences.
type Command struct {
	Verb Verb
	Raw  []byte
}

// Sequence is an ordered command stream, the Command Model's top-level type.
type Sequence []Command

// MaxMark returns the largest mark declared anywhere in the sequence, 0 if
// none. Used to compute the offset for renumbering a second stream so the
// two streams can share a mark space.
func (s Sequence) MaxMark() int {
	max := 0
	for _, c := range s {
		if m, ok := c.Mark(); ok && m > max {
			max = m
		}
	}
	return max
}

func (c Command) verbToken() []byte {
	sp := bytes.IndexByte(c.Raw, ' ')
	if sp < 0 {
		nl := bytes.IndexByte(c.Raw, '\n')
		if nl < 0 {
			return c.Raw
		}
		return c.Raw[:nl]
	}
	return c.Raw[:sp]
}

// rest returns everything on the header line after the verb token and its
// separating space (stops at the first embedded newline, relevant for
// 'data' commands whose payload follows).
func (c Command) rest() []byte {
	nl := bytes.IndexByte(c.Raw, '\n')
	header := c.Raw
	if nl >= 0 {
		header = c.Raw[:nl]
	}
	sp := bytes.IndexByte(header, ' ')
	if sp < 0 {
		return nil
	}
	return header[sp+1:]
}

// ParseMarkToken parses a ":123" style reference into its integer mark.
// Hex object ids (no leading colon) return ok=false.
func ParseMarkToken(tok []byte) (int, bool) {
	if len(tok) == 0 || tok[0] != ':' {
		return 0, false
	}
	n, err := strconv.Atoi(string(tok[1:]))
	if err != nil {
		return 0, false
	}
	return n, true
}

func markToken(mark int) []byte {
	return []byte(fmt.Sprintf(":%d", mark))
}

// MarkToken formats a mark number as its ":N" wire token, for callers
// building up a command field (e.g. an M command's data-ref) by hand.
func MarkToken(mark int) []byte {
	return markToken(mark)
}

// Mark returns the mark declared by a 'mark :N' command.
func (c Command) Mark() (int, bool) {
	if c.Verb != VerbMark {
		return 0, false
	}
	return ParseMarkToken(bytes.TrimSpace(c.rest()))
}

// WithMark returns a copy of a 'mark' command with a new mark value.
func (c Command) WithMark(mark int) Command {
	return Command{Verb: VerbMark, Raw: append([]byte("mark "), markToken(mark)...)}
}

// From returns the mark referenced by a 'from :N' command.
func (c Command) From() (int, bool) {
	if c.Verb != VerbFrom {
		return 0, false
	}
	return ParseMarkToken(bytes.TrimSpace(c.rest()))
}

// WithFrom returns a copy of a 'from' command pointing at a new mark.
func (c Command) WithFrom(mark int) Command {
	return Command{Verb: VerbFrom, Raw: append([]byte("from "), markToken(mark)...)}
}

// NewFrom constructs a standalone 'from :N' command, used by the
// interleaver to synthesize a reparenting link.
func NewFrom(mark int) Command {
	return Command{Verb: VerbFrom, Raw: append([]byte("from "), markToken(mark)...)}
}

// Merge returns the mark referenced by a 'merge :N' command.
func (c Command) Merge() (int, bool) {
	if c.Verb != VerbMerge {
		return 0, false
	}
	return ParseMarkToken(bytes.TrimSpace(c.rest()))
}

// WithMerge returns a copy of a 'merge' command pointing at a new mark.
func (c Command) WithMerge(mark int) Command {
	return Command{Verb: VerbMerge, Raw: append([]byte("merge "), markToken(mark)...)}
}

// Ref returns the ref operand of a commit/reset/tag command.
func (c Command) Ref() ([]byte, bool) {
	switch c.Verb {
	case VerbCommit, VerbReset, VerbTag:
		return c.rest(), true
	}
	return nil, false
}

// WithRef returns a copy of a commit/reset/tag command with a new ref
// operand.
func (c Command) WithRef(ref []byte) Command {
	raw := append(append([]byte{}, c.verbToken()...), ' ')
	raw = append(raw, ref...)
	return Command{Verb: c.Verb, Raw: raw}
}

// DataLen returns the declared length of a 'data' command's payload.
func (c Command) DataLen() (int, bool) {
	if c.Verb != VerbData {
		return 0, false
	}
	n, err := strconv.Atoi(string(bytes.TrimSpace(c.rest())))
	if err != nil {
		return 0, false
	}
	return n, true
}

// DataPayload returns the raw payload bytes of a 'data' command.
func (c Command) DataPayload() []byte {
	nl := bytes.IndexByte(c.Raw, '\n')
	if nl < 0 {
		return nil
	}
	return c.Raw[nl+1:]
}

// WithDataPayload returns a copy of a 'data' command carrying a new
// payload, re-emitting the length header.
func (c Command) WithDataPayload(payload []byte) Command {
	return NewData(payload)
}

// NewData constructs a standalone 'data <len>' command for the given
// payload.
func NewData(payload []byte) Command {
	header := []byte(fmt.Sprintf("data %d", len(payload)))
	raw := append(append(header, '\n'), payload...)
	return Command{Verb: VerbData, Raw: raw}
}

// FileModify splits a 'M <mode> <dataref> <path>' command into its fields.
func (c Command) FileModify() (mode, dataref, path []byte, ok bool) {
	if c.Verb != VerbFileModify {
		return nil, nil, nil, false
	}
	parts := bytes.SplitN(c.rest(), []byte(" "), 3)
	if len(parts) != 3 {
		return nil, nil, nil, false
	}
	return parts[0], parts[1], parts[2], true
}

// WithFileModifyFields reconstructs an 'M' command from its fields.
func (c Command) WithFileModifyFields(mode, dataref, path []byte) Command {
	raw := bytes.Join([][]byte{[]byte("M"), mode, dataref, path}, []byte(" "))
	return Command{Verb: VerbFileModify, Raw: raw}
}

// FileDeletePath returns the path operand of a 'D' command.
func (c Command) FileDeletePath() ([]byte, bool) {
	if c.Verb != VerbFileDelete {
		return nil, false
	}
	return c.rest(), true
}

// WithFileDeletePath reconstructs a 'D' command with a new path.
func (c Command) WithFileDeletePath(path []byte) Command {
	raw := append([]byte("D "), path...)
	return Command{Verb: VerbFileDelete, Raw: raw}
}

// WithCopyRenamePaths reconstructs a 'C'/'R' command from already-formatted
// (and, where needed, quoted) src/dst operands.
func (c Command) WithCopyRenamePaths(src, dst []byte) Command {
	raw := bytes.Join([][]byte{c.verbToken(), src, dst}, []byte(" "))
	return Command{Verb: c.Verb, Raw: raw}
}

// NoteMarks splits an 'N <dataref> <commit-ish>' command into its two
// mark-or-oid tokens.
func (c Command) NoteMarks() (blob, commit []byte, ok bool) {
	if c.Verb != VerbNote {
		return nil, nil, false
	}
	parts := bytes.SplitN(c.rest(), []byte(" "), 2)
	if len(parts) != 2 {
		return nil, nil, false
	}
	return parts[0], parts[1], true
}

// WithNoteMarks reconstructs an 'N' command from its two tokens.
func (c Command) WithNoteMarks(blob, commit []byte) Command {
	raw := bytes.Join([][]byte{[]byte("N"), blob, commit}, []byte(" "))
	return Command{Verb: VerbNote, Raw: raw}
}

// CommitterTime parses the trailing "<unix-seconds> <tz>" off an
// author/committer/tagger line and returns the seconds, ignoring the tz
// offset (see spec design notes: tz-aware ordering is not used).
func (c Command) CommitterTime() (int64, bool) {
	switch c.Verb {
	case VerbAuthor, VerbCommitter, VerbTagger:
	default:
		return 0, false
	}
	rest := c.rest()
	gt := bytes.LastIndexByte(rest, '>')
	if gt < 0 {
		return 0, false
	}
	fields := bytes.Fields(rest[gt+1:])
	if len(fields) < 1 {
		return 0, false
	}
	t, err := strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil {
		return 0, false
	}
	return t, true
}

func (c Command) String() string {
	return string(c.Raw)
}
