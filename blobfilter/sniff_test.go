package blobfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSniffDescriptionRecognizesImageMagicBytes(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.Equal(t, "image", SniffDescription(png))
}

func TestSniffDescriptionReturnsUnknownForPlainText(t *testing.T) {
	assert.Equal(t, "unknown", SniffDescription([]byte("just some plain text content")))
}
