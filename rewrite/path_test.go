package rewrite

import (
	"strconv"
	"testing"

	"github.com/rcowham/gitstitch/fastexport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsFileModify(t *testing.T) {
	seq, err := fastexport.Parse([]byte("M 100644 :1 a/b.c\n"))
	require.NoError(t, err)

	out, found, err := Paths(seq, []byte("sub/"))
	require.NoError(t, err)
	assert.False(t, found)
	mode, dataref, path, ok := out[0].FileModify()
	assert.True(t, ok)
	assert.Equal(t, "100644", string(mode))
	assert.Equal(t, ":1", string(dataref))
	assert.Equal(t, "sub/a/b.c", string(path))
}

func TestPathsCopyRenameQuoting(t *testing.T) {
	seq, err := fastexport.Parse([]byte(`R "a b" c.txt` + "\n"))
	require.NoError(t, err)

	out, _, err := Paths(seq, []byte("sub/"))
	require.NoError(t, err)
	assert.Equal(t, `R "sub/a b" sub/c.txt`, string(out[0].Raw))
}

func TestPathsRejectsEscapedQuotes(t *testing.T) {
	seq, err := fastexport.Parse([]byte(`C "a \"b" c.txt` + "\n"))
	require.NoError(t, err)

	_, _, err = Paths(seq, []byte("sub/"))
	assert.ErrorIs(t, err, ErrUnsupportedPathQuoting)
}

func TestPathsRewritesGitmodulesBlobNotPath(t *testing.T) {
	payload := "[submodule \"x\"]\n\tpath = x\n\turl = u\n"
	s := "blob\nmark :1\ndata " + strconv.Itoa(len(payload)) + "\n" + payload +
		"commit refs/heads/master\nmark :2\ncommitter X <x@y> 1 +0000\ndata 1\nm\n" +
		"M 100644 :1 .gitmodules\n"
	seq, err := fastexport.Parse([]byte(s))
	require.NoError(t, err)

	out, found, err := Paths(seq, []byte("sub/"))
	require.NoError(t, err)
	assert.True(t, found)

	// The M command's path itself is untouched.
	_, _, path, ok := out[len(out)-1].FileModify()
	require.True(t, ok)
	assert.Equal(t, ".gitmodules", string(path))

	// The blob payload gained a prefix on every path = value.
	newPayload := out[2].DataPayload()
	assert.Contains(t, string(newPayload), "path = sub/x")
	length, ok := out[2].DataLen()
	require.True(t, ok)
	assert.Equal(t, len(newPayload), length)
}
