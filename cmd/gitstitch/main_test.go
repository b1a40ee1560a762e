package main

import (
	"testing"

	"github.com/rcowham/gitstitch/config"
	"github.com/rcowham/gitstitch/fastexport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStitchInterleavesTwoBranches(t *testing.T) {
	mainSrc := "commit refs/heads/master\nmark :1\ncommitter X <x@y> 10 +0000\ndata 1\nm\n"
	secSrc := "commit refs/heads/master\nmark :1\ncommitter X <x@y> 20 +0000\ndata 1\nm\n"

	mainSeq, err := fastexport.Parse([]byte(mainSrc))
	require.NoError(t, err)
	secSeq, err := fastexport.Parse([]byte(secSrc))
	require.NoError(t, err)

	out, err := stitch(mainSeq, secSeq, "master", config.RepoSpec{Name: "lib", Branch: "master"})
	require.NoError(t, err)

	var marks []int
	for _, c := range out {
		if m, ok := c.Mark(); ok {
			marks = append(marks, m)
		}
	}
	require.Len(t, marks, 2)
	// The secondary's mark was renumbered above main's single mark (1),
	// so it must come out as mark 2.
	assert.Equal(t, []int{1, 2}, marks)
}

func TestExportAndPrefixRewritesPathsWhenRequested(t *testing.T) {
	t.Skip("exercises hosttool.FastExport, which shells out to git; the path rewrite itself is covered by the rewrite package's tests")
}
