package interleave

import (
	"strconv"
	"testing"

	"github.com/rcowham/gitstitch/fastexport"
	"github.com/rcowham/gitstitch/gitlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commit(ref string, mark int, t int64, from int, hasFrom bool) string {
	s := "commit " + ref + "\n"
	s += "mark :" + strconv.Itoa(mark) + "\n"
	s += "committer X <x@y> " + strconv.FormatInt(t, 10) + " +0000\n"
	s += "data 1\nm\n"
	if hasFrom {
		s += "from :" + strconv.Itoa(from) + "\n"
	}
	return s
}

func TestCombineLogsPrefersMainOnTie(t *testing.T) {
	main := []gitlog.Entry{{Mark: 1, Time: 10, Origin: 0}}
	sec := []gitlog.Entry{{Mark: 2, Time: 10, Origin: 1}}

	out := CombineLogs(main, sec)

	require.Len(t, out, 2)
	assert.Equal(t, 0, out[0].Origin)
	assert.Equal(t, 1, out[1].Origin)
}

func TestCombineLogsPreservesRelativeOrder(t *testing.T) {
	main := []gitlog.Entry{{Mark: 1, Time: 5}, {Mark: 2, Time: 25}}
	sec := []gitlog.Entry{{Mark: 3, Time: 10, Origin: 1}, {Mark: 4, Time: 20, Origin: 1}}

	out := CombineLogs(main, sec)

	marks := make([]int, len(out))
	for i, e := range out {
		marks[i] = e.Mark
	}
	assert.Equal(t, []int{1, 3, 4, 2}, marks)
}

func TestInterleaveSplicesAtBreakpointsAndReparentsFirstCommit(t *testing.T) {
	mainSrc := commit("refs/heads/master", 1, 10, 0, false) +
		commit("refs/heads/master", 3, 30, 1, true)
	secSrc := commit("refs/heads/master-lib", 2, 20, 0, false)

	mainSeq, err := fastexport.Parse([]byte(mainSrc))
	require.NoError(t, err)
	secSeq, err := fastexport.Parse([]byte(secSrc))
	require.NoError(t, err)

	mainLog, err := gitlog.Extract(mainSeq, "master", 0)
	require.NoError(t, err)
	secLog, err := gitlog.Extract(secSeq, "master-lib", 1)
	require.NoError(t, err)

	out, err := Interleave(mainSeq, secSeq, mainLog, secLog)
	require.NoError(t, err)

	var marks []int
	var fromsAfterMark2 []int
	for i, c := range out {
		if m, ok := c.Mark(); ok {
			marks = append(marks, m)
		}
		if c.Verb == fastexport.VerbFrom {
			if m, ok := c.From(); ok && len(marks) > 0 && marks[len(marks)-1] == 2 {
				fromsAfterMark2 = append(fromsAfterMark2, m)
			}
		}
		_ = i
	}
	assert.Equal(t, []int{1, 2, 3}, marks)
	// The secondary's first commit (mark 2) should have been reparented
	// onto the main branch's most recently emitted commit (mark 1).
	require.Len(t, fromsAfterMark2, 1)
	assert.Equal(t, 1, fromsAfterMark2[0])
}

func TestInterleaveRejectsBreakpointNotPrecededByCommit(t *testing.T) {
	mainSeq := fastexport.Sequence{{Verb: fastexport.VerbMark, Raw: []byte("mark :1")}}
	secSeq := fastexport.Sequence{}
	mainLog := []gitlog.Entry{{Mark: 1, Time: 1, Origin: 0}}

	_, err := Interleave(mainSeq, secSeq, mainLog, nil)
	assert.ErrorIs(t, err, ErrMissingCommitBeforeMark)
}
