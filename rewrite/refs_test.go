package rewrite

import (
	"testing"

	"github.com/rcowham/gitstitch/fastexport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeRefsRewritesRemoteOrigin(t *testing.T) {
	seq, err := fastexport.Parse([]byte("commit refs/remotes/origin/master\n"))
	require.NoError(t, err)

	out := CanonicalizeRefs(seq)

	ref, ok := out[0].Ref()
	require.True(t, ok)
	assert.Equal(t, "refs/heads/master", string(ref))
}

func TestCanonicalizeRefsLeavesCanonicalRefsAlone(t *testing.T) {
	seq, err := fastexport.Parse([]byte("commit refs/heads/master\n"))
	require.NoError(t, err)

	out := CanonicalizeRefs(seq)

	ref, ok := out[0].Ref()
	require.True(t, ok)
	assert.Equal(t, "refs/heads/master", string(ref))
}

func TestDisambiguateRefsAppendsSuffix(t *testing.T) {
	seq, err := fastexport.Parse([]byte("commit refs/heads/master\nreset refs/heads/master\ntag v1\n"))
	require.NoError(t, err)

	out := DisambiguateRefs(seq, []byte("-secondary"))

	for _, c := range out {
		ref, ok := c.Ref()
		require.True(t, ok)
		assert.Contains(t, string(ref), "-secondary")
	}
}

func TestDisambiguateRefsNoopOnEmptySuffix(t *testing.T) {
	seq, err := fastexport.Parse([]byte("commit refs/heads/master\n"))
	require.NoError(t, err)

	out := DisambiguateRefs(seq, nil)

	ref, ok := out[0].Ref()
	require.True(t, ok)
	assert.Equal(t, "refs/heads/master", string(ref))
}
