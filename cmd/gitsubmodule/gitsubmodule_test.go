package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractRepoNameStripsHostAndSuffix(t *testing.T) {
	assert.Equal(t, "widget", extractRepoName("git@example.com:org/widget.git"))
	assert.Equal(t, "widget", extractRepoName("https://example.com/org/widget.git"))
	assert.Equal(t, "widget", extractRepoName("https://example.com/org/widget"))
}

func TestCombineLogsOrdersByTimePreferringSecondOnTie(t *testing.T) {
	a := []logEntry{{name: "a", time: 10}, {name: "a", time: 30}}
	b := []logEntry{{name: "b", time: 10}, {name: "b", time: 20}}

	combined := combineLogs(a, b)
	names := make([]string, len(combined))
	times := make([]int64, len(combined))
	for i, e := range combined {
		names[i] = e.name
		times[i] = e.time
	}
	assert.Equal(t, []string{"b", "a", "b", "a"}, names)
	assert.Equal(t, []int64{10, 10, 20, 30}, times)
}

func TestCombineLogsAppendsRemainingTail(t *testing.T) {
	a := []logEntry{{name: "a", time: 1}}
	b := []logEntry{{name: "b", time: 2}, {name: "b", time: 3}, {name: "b", time: 4}}

	combined := combineLogs(a, b)
	assert.Len(t, combined, 4)
	assert.Equal(t, "a", combined[0].name)
	assert.Equal(t, "b", combined[3].name)
}
