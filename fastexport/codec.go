package fastexport

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
)

// classifyVerb maps the verb token of a header line to a Verb, falling
// back to VerbOther for anything this parser doesn't recognize. Unknown
// commands pass through verbatim via their Raw bytes.
func classifyVerb(line []byte) Verb {
	sp := bytes.IndexByte(line, ' ')
	var tok []byte
	if sp < 0 {
		tok = line
	} else {
		tok = line[:sp]
	}
	switch string(tok) {
	case "blob":
		return VerbBlob
	case "mark":
		return VerbMark
	case "original-oid":
		return VerbOriginalOID
	case "data":
		return VerbData
	case "commit":
		return VerbCommit
	case "author":
		return VerbAuthor
	case "committer":
		return VerbCommitter
	case "tagger":
		return VerbTagger
	case "from":
		return VerbFrom
	case "merge":
		return VerbMerge
	case "tag":
		return VerbTag
	case "reset":
		return VerbReset
	case "deleteall":
		return VerbDeleteAll
	case "M":
		return VerbFileModify
	case "D":
		return VerbFileDelete
	case "C":
		return VerbFileCopy
	case "R":
		return VerbFileRename
	case "N":
		return VerbNote
	default:
		return VerbOther
	}
}

// Parse turns a raw fast-export byte stream into an ordered Sequence of
// Commands. The parser is line-oriented except across 'data <len>'
// commands, where it reads exactly <len> raw bytes following the
// terminating newline of the header and attaches them to the same
// Command. Blank lines produced by that exact byte-accounting (the
// optional readability newline git tooling emits after a data block) are
// dropped, not recorded as commands - this is what makes
// Serialize(Parse(x)) == x hold for well-formed streams.
func Parse(data []byte) (Sequence, error) {
	var seq Sequence
	pos := 0
	n := len(data)
	for pos < n {
		nl := bytes.IndexByte(data[pos:], '\n')
		var line []byte
		var lineEnd int
		if nl < 0 {
			line = data[pos:]
			lineEnd = n
		} else {
			line = data[pos : pos+nl]
			lineEnd = pos + nl + 1
		}
		pos = lineEnd

		if len(line) == 0 {
			continue
		}

		verb := classifyVerb(line)
		if verb != VerbData {
			seq = append(seq, Command{Verb: verb, Raw: line})
			continue
		}

		sp := bytes.IndexByte(line, ' ')
		if sp < 0 {
			return nil, errors.Wrapf(ErrMalformedStream, "data header missing length: %q", line)
		}
		length, err := strconv.Atoi(string(bytes.TrimSpace(line[sp+1:])))
		if err != nil || length < 0 {
			return nil, errors.Wrapf(ErrMalformedStream, "bad data header %q", line)
		}
		if pos+length > n {
			return nil, errors.Wrapf(ErrMalformedStream, "data header declares %d bytes, only %d remain", length, n-pos)
		}
		payload := data[pos : pos+length]
		raw := make([]byte, 0, len(line)+1+length)
		raw = append(raw, line...)
		raw = append(raw, '\n')
		raw = append(raw, payload...)
		seq = append(seq, Command{Verb: VerbData, Raw: raw})
		pos += length
	}
	return seq, nil
}

// Serialize renders a Sequence back to a byte stream: newline-joined
// command records with a trailing newline.
func (s Sequence) Serialize() []byte {
	var buf bytes.Buffer
	for _, c := range s {
		buf.Write(c.Raw)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
