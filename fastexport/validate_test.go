package fastexport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsWellFormedStream(t *testing.T) {
	s := "blob\nmark :1\ndata 3\nabc\ncommit refs/heads/master\nmark :2\n" +
		"committer X <x@y> 100 +0000\ndata 1\nm\nM 100644 :1 f\n"
	seq, err := Parse([]byte(s))
	require.NoError(t, err)
	assert.NoError(t, Validate(seq))
}

func TestValidateRejectsDuplicateBlobMark(t *testing.T) {
	s := "blob\nmark :1\ndata 1\na\nblob\nmark :1\ndata 1\nb\n"
	seq, err := Parse([]byte(s))
	require.NoError(t, err)
	assert.ErrorIs(t, Validate(seq), ErrDuplicateBlobMark)
}

func TestValidateRejectsDanglingFrom(t *testing.T) {
	s := "commit refs/heads/master\nmark :1\ncommitter X <x@y> 100 +0000\ndata 1\nm\nfrom :99\n"
	seq, err := Parse([]byte(s))
	require.NoError(t, err)
	assert.ErrorIs(t, Validate(seq), ErrDanglingMarkReference)
}

func TestValidateRejectsDanglingFileModifyDataref(t *testing.T) {
	s := "commit refs/heads/master\nmark :1\ncommitter X <x@y> 100 +0000\ndata 1\nm\nM 100644 :99 f\n"
	seq, err := Parse([]byte(s))
	require.NoError(t, err)
	assert.ErrorIs(t, Validate(seq), ErrDanglingMarkReference)
}

func TestValidateAllowsHexFileModifyDataref(t *testing.T) {
	s := "commit refs/heads/master\nmark :1\ncommitter X <x@y> 100 +0000\ndata 1\nm\n" +
		"M 100644 da39a3ee5e6b4b0d3255bfef95601890afd80709 f\n"
	seq, err := Parse([]byte(s))
	require.NoError(t, err)
	assert.NoError(t, Validate(seq))
}
