package blobfilter

import "github.com/h2non/filetype"

// SniffDescription returns a short, best-effort description of a blob's
// content type from its leading bytes, for debug logging only: it never
// overrides a name-based filter decision.
func SniffDescription(head []byte) string {
	if len(head) > 261 {
		head = head[:261]
	}
	switch {
	case filetype.IsImage(head):
		return "image"
	case filetype.IsVideo(head):
		return "video"
	case filetype.IsArchive(head):
		return "archive"
	case filetype.IsAudio(head):
		return "audio"
	case filetype.IsDocument(head):
		kind, err := filetype.Match(head)
		if err != nil || kind == filetype.Unknown {
			return "document"
		}
		return "document/" + kind.Extension
	}
	return "unknown"
}
