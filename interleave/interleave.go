// Package interleave splices two fast-export command sequences into one,
// switching between them at the commit boundaries a combined, time-ordered
// log dictates, and reparenting each branch's first spliced commit onto
// the other branch's most recently emitted commit so neither history is
// left orphaned.
package interleave

import (
	"github.com/rcowham/gitstitch/gitlog"

	"github.com/rcowham/gitstitch/fastexport"
)

// CombineLogs merges two per-branch commit logs into a single time-ordered
// log, preserving each input log's own relative order (a plain sort would
// scramble a log whose commit dates are not already monotonic). On an
// exact time tie the main-side entry is taken first, so a secondary
// commit never displaces a main commit carrying the same timestamp.
func CombineLogs(mainLog, secLog []gitlog.Entry) []gitlog.Entry {
	out := make([]gitlog.Entry, 0, len(mainLog)+len(secLog))
	i, j := 0, 0
	for i < len(mainLog) && j < len(secLog) {
		if mainLog[i].Time <= secLog[j].Time {
			out = append(out, mainLog[i])
			i++
		} else {
			out = append(out, secLog[j])
			j++
		}
	}
	out = append(out, mainLog[i:]...)
	out = append(out, secLog[j:]...)
	return out
}

// isCommitBodyVerb reports whether v can appear inside a commit's body,
// i.e. between its 'commit' header and the next commit/reset/tag.
func isCommitBodyVerb(v fastexport.Verb) bool {
	switch v {
	case fastexport.VerbMark, fastexport.VerbOriginalOID, fastexport.VerbAuthor,
		fastexport.VerbCommitter, fastexport.VerbData, fastexport.VerbFrom,
		fastexport.VerbMerge, fastexport.VerbFileModify, fastexport.VerbFileDelete,
		fastexport.VerbFileCopy, fastexport.VerbFileRename, fastexport.VerbDeleteAll,
		fastexport.VerbNote:
		return true
	}
	return false
}

// remapFrom rewrites a 'from' command's mark through markMap, leaving
// every other command (including commands with no entry in markMap)
// unchanged.
func remapFrom(cmd fastexport.Command, markMap map[int]int) fastexport.Command {
	if cmd.Verb != fastexport.VerbFrom {
		return cmd
	}
	m, ok := cmd.From()
	if !ok {
		return cmd
	}
	mapped, found := markMap[m]
	if !found {
		return cmd
	}
	return cmd.WithFrom(mapped)
}

// Interleave splices main and secondary into a single command sequence.
// Both inputs must already share one mark space (secondary renumbered by
// main's max mark) and already have their refs disambiguated (secondary
// canonicalized and suffixed). mainLog and secLog are the two branches'
// first-parent logs extracted before secondary's refs were renamed, with
// Origin 0 for main and 1 for secondary; CombineLogs merges them first.
//
// The splice visits combined breakpoints in order, copying commands from
// whichever source is current until the next breakpoint mark is reached,
// then switching sources. The very first commit copied from a branch is
// reparented when the other branch has already emitted a run: a
// synthesized 'from' is inserted right after its 'data' command, pointing
// at the mark most recently emitted from the other branch. On every later
// switch, the mark that closed the previous run is recorded in a mark map,
// and 'from' commands naming a mapped mark are rewritten through it (the
// 'from' right after a 'tag' command is never rewritten). A first commit
// that already carries its own 'from' is a stream invariant violation
// (ErrUnexpectedFrom), as is a breakpoint mark not immediately preceded
// by a 'commit' command (ErrMissingCommitBeforeMark).
func Interleave(main, secondary fastexport.Sequence, mainLog, secLog []gitlog.Entry) (fastexport.Sequence, error) {
	combined := CombineLogs(mainLog, secLog)
	streams := [2]fastexport.Sequence{main, secondary}

	var out fastexport.Sequence
	var cursor [2]int
	markMap := make(map[int]int)
	lastBranch := -1
	var markBeforeBreak int
	markBeforeBreakSet := false
	var markFromPrevBranch int
	markFromPrevBranchSet := false
	logIdx := 0

	for cursor[0] < len(streams[0]) || cursor[1] < len(streams[1]) {
		logDone := logIdx >= len(combined)
		var currentBranch, nextMark int
		if !logDone {
			currentBranch = combined[logIdx].Origin
			nextMark = combined[logIdx].Mark
			logIdx++
		} else {
			if cursor[0] < len(streams[0]) {
				currentBranch = 0
			} else {
				currentBranch = 1
			}
		}

		if markBeforeBreakSet && lastBranch != currentBranch && lastBranch >= 0 {
			if markFromPrevBranchSet {
				markMap[markFromPrevBranch] = markBeforeBreak
			}
			markFromPrevBranch = markBeforeBreak
			markFromPrevBranchSet = true
		}

		src := streams[currentBranch]
		processedAll := true
		firstCommitOfBranch := cursor[currentBranch] == 0
		markBeforeBreakSet = false
		expectingTagFromMark := false

		for k := cursor[currentBranch]; k < len(src); k++ {
			if !logDone {
				if m, ok := src[k].Mark(); ok && m == nextMark {
					if k == 0 || src[k-1].Verb != fastexport.VerbCommit {
						return nil, ErrMissingCommitBeforeMark
					}

					haveNewParent := firstCommitOfBranch && markFromPrevBranchSet
					var newParentCmd fastexport.Command
					if haveNewParent {
						newParentCmd = fastexport.NewFrom(markFromPrevBranch)
					}
					firstCommitOfBranch = false

					for i := k; i < len(src); i++ {
						cmd := src[i]
						if !isCommitBodyVerb(cmd.Verb) {
							cursor[currentBranch] = i
							processedAll = false
							break
						}
						out = append(out, remapFrom(cmd, markMap))
						if haveNewParent {
							if cmd.Verb == fastexport.VerbData {
								out = append(out, newParentCmd)
							} else if cmd.Verb == fastexport.VerbFrom {
								return nil, ErrUnexpectedFrom
							}
						}
					}

					markBeforeBreak = nextMark
					markBeforeBreakSet = true
					break
				}
			}

			if expectingTagFromMark {
				out = append(out, src[k])
				expectingTagFromMark = false
			} else {
				out = append(out, remapFrom(src[k], markMap))
			}
			if src[k].Verb == fastexport.VerbTag {
				expectingTagFromMark = true
			}
		}

		if processedAll {
			cursor[currentBranch] = len(src)
		}
		lastBranch = currentBranch
	}

	return out, nil
}
