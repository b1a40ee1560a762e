// Package rewrite implements the Path Rewriter, Mark Renumberer and Ref
// Rewriter passes that run over a parsed fastexport.Sequence before the
// History Interleaver combines two streams.
package rewrite

import (
	"bytes"

	"github.com/rcowham/gitstitch/fastexport"
)

const gitmodulesPath = ".gitmodules"

// Paths moves every path-bearing command in seq under the byte prefix
// (which must be terminated with '/'). It returns a copy of seq with the
// rewrite applied, and whether any 'M' or 'D' command names .gitmodules
// (callers combining more than one repository with submodules must reject
// that combination - merging two submodule manifests is out of scope).
// The .gitmodules blob's payload is rewritten only when an 'M' command
// references it by a mark declared on a blob in seq.
func Paths(seq fastexport.Sequence, prefix []byte) (fastexport.Sequence, bool, error) {
	out := make(fastexport.Sequence, len(seq))
	copy(out, seq)

	markToDataIdx := map[int]int{}
	for i := 0; i+2 < len(out); i++ {
		if out[i].Verb == fastexport.VerbBlob &&
			out[i+1].Verb == fastexport.VerbMark &&
			out[i+2].Verb == fastexport.VerbData {
			if mark, ok := out[i+1].Mark(); ok {
				markToDataIdx[mark] = i + 2
			}
		}
	}

	foundGitmodules := false

	for i, c := range out {
		switch c.Verb {
		case fastexport.VerbFileModify:
			mode, dataref, path, ok := c.FileModify()
			if !ok {
				continue
			}
			if bytes.Equal(path, []byte(gitmodulesPath)) {
				foundGitmodules = true
				if mark, isMark := fastexport.ParseMarkToken(dataref); isMark {
					if dataIdx, found := markToDataIdx[mark]; found {
						rewritten := rewriteGitmodulesPayload(out[dataIdx].DataPayload(), prefix)
						out[dataIdx] = out[dataIdx].WithDataPayload(rewritten)
					}
				}
				continue
			}
			newPath := append(append([]byte{}, prefix...), path...)
			out[i] = c.WithFileModifyFields(mode, dataref, newPath)

		case fastexport.VerbFileDelete:
			path, ok := c.FileDeletePath()
			if !ok {
				continue
			}
			if bytes.Equal(path, []byte(gitmodulesPath)) {
				foundGitmodules = true
				continue
			}
			newPath := append(append([]byte{}, prefix...), path...)
			out[i] = c.WithFileDeletePath(newPath)

		case fastexport.VerbFileCopy, fastexport.VerbFileRename:
			src, srcQuoted, dst, dstQuoted, err := parseCopyRenameOperands(c)
			if err != nil {
				return nil, false, err
			}
			newSrc := prefixOperand(prefix, src, srcQuoted)
			newDst := prefixOperand(prefix, dst, dstQuoted)
			out[i] = c.WithCopyRenamePaths(newSrc, newDst)
		}
	}

	return out, foundGitmodules, nil
}

// rewriteGitmodulesPayload prefixes every "path = X" value in a
// .gitmodules blob payload with prefix. Mirrors the original tool's
// global byte-replace of the "path = " marker.
func rewriteGitmodulesPayload(payload, prefix []byte) []byte {
	needle := []byte("path = ")
	repl := append(append([]byte{}, needle...), prefix...)
	return bytes.ReplaceAll(payload, needle, repl)
}

// parseCopyRenameOperands splits the "<src> <dst>" operand of a C/R
// command, honoring double-quoting of either operand. Escaped quotes are
// detected and rejected rather than parsed.
func parseCopyRenameOperands(c fastexport.Command) (src []byte, srcQuoted bool, dst []byte, dstQuoted bool, err error) {
	rest := c.Raw
	sp := bytes.IndexByte(rest, ' ')
	if sp < 0 {
		return nil, false, nil, false, ErrUnsupportedPathQuoting
	}
	rest = rest[sp+1:]

	src, srcQuoted, n, err := parsePathToken(rest, true)
	if err != nil {
		return nil, false, nil, false, err
	}
	rest = rest[n:]
	if len(rest) == 0 || rest[0] != ' ' {
		return nil, false, nil, false, ErrUnsupportedPathQuoting
	}
	rest = rest[1:]

	dst, dstQuoted, _, err = parsePathToken(rest, false)
	if err != nil {
		return nil, false, nil, false, err
	}
	return src, srcQuoted, dst, dstQuoted, nil
}

// parsePathToken reads one path operand from data. When stopAtSpace is
// true and the token is unquoted, the token ends at the next space
// (there is more to parse after it); otherwise an unquoted token runs to
// the end of data.
func parsePathToken(data []byte, stopAtSpace bool) (token []byte, quoted bool, consumed int, err error) {
	if len(data) > 0 && data[0] == '"' {
		for i := 1; i < len(data); i++ {
			switch data[i] {
			case '\\':
				return nil, false, 0, ErrUnsupportedPathQuoting
			case '"':
				return data[1:i], true, i + 1, nil
			}
		}
		return nil, false, 0, ErrUnsupportedPathQuoting
	}
	if stopAtSpace {
		sp := bytes.IndexByte(data, ' ')
		if sp < 0 {
			return data, false, len(data), nil
		}
		return data[:sp], false, sp, nil
	}
	return data, false, len(data), nil
}

func prefixOperand(prefix, path []byte, quoted bool) []byte {
	combined := append(append([]byte{}, prefix...), path...)
	if !quoted {
		return combined
	}
	out := make([]byte, 0, len(combined)+2)
	out = append(out, '"')
	out = append(out, combined...)
	out = append(out, '"')
	return out
}
