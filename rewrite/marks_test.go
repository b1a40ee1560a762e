package rewrite

import (
	"testing"

	"github.com/rcowham/gitstitch/fastexport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenumberMarksPreservesEquivalence(t *testing.T) {
	s := "blob\nmark :1\ndata 1\nx\ncommit refs/heads/master\nmark :2\n" +
		"committer X <x@y> 1 +0000\ndata 1\nm\nfrom :1\nmerge :1\nM 100644 :1 f\nN :1 :2\n"
	seq, err := fastexport.Parse([]byte(s))
	require.NoError(t, err)

	out := RenumberMarks(seq, 10)

	blobMark, ok := out[1].Mark()
	require.True(t, ok)
	assert.Equal(t, 11, blobMark)

	commitMark, ok := out[4].Mark()
	require.True(t, ok)
	assert.Equal(t, 12, commitMark)

	from, ok := out[7].From()
	require.True(t, ok)
	assert.Equal(t, 11, from)

	merge, ok := out[8].Merge()
	require.True(t, ok)
	assert.Equal(t, 11, merge)

	_, dataref, _, ok := out[9].FileModify()
	require.True(t, ok)
	assert.Equal(t, ":11", string(dataref))

	blobTok, commitTok, ok := out[10].NoteMarks()
	require.True(t, ok)
	assert.Equal(t, ":11", string(blobTok))
	assert.Equal(t, ":12", string(commitTok))
}

func TestRenumberMarksLeavesHexObjectIDsAlone(t *testing.T) {
	seq, err := fastexport.Parse([]byte("M 100644 abcdef1234 path\n"))
	require.NoError(t, err)
	out := RenumberMarks(seq, 10)
	_, dataref, _, ok := out[0].FileModify()
	require.True(t, ok)
	assert.Equal(t, "abcdef1234", string(dataref))
}
