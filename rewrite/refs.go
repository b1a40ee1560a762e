package rewrite

import (
	"bytes"

	"github.com/rcowham/gitstitch/fastexport"
)

var remoteOriginPrefix = []byte("refs/remotes/origin/")
var headsPrefix = []byte("refs/heads/")

// CanonicalizeRefs rewrites refs/remotes/origin/X to refs/heads/X on the
// ref operand of every commit/reset/tag command. Idempotent: applying it
// twice leaves an already-canonical ref unchanged.
func CanonicalizeRefs(seq fastexport.Sequence) fastexport.Sequence {
	out := make(fastexport.Sequence, len(seq))
	copy(out, seq)
	for i, c := range out {
		ref, ok := c.Ref()
		if !ok {
			continue
		}
		if bytes.HasPrefix(ref, remoteOriginPrefix) {
			newRef := append(append([]byte{}, headsPrefix...), ref[len(remoteOriginPrefix):]...)
			out[i] = c.WithRef(newRef)
		}
	}
	return out
}

// DisambiguateRefs appends suffix to the ref operand of every
// commit/reset/tag command, so that two streams' refs do not collide when
// concatenated.
func DisambiguateRefs(seq fastexport.Sequence, suffix []byte) fastexport.Sequence {
	if len(suffix) == 0 {
		out := make(fastexport.Sequence, len(seq))
		copy(out, seq)
		return out
	}
	out := make(fastexport.Sequence, len(seq))
	copy(out, seq)
	for i, c := range out {
		ref, ok := c.Ref()
		if !ok {
			continue
		}
		newRef := append(append([]byte{}, ref...), suffix...)
		out[i] = c.WithRef(newRef)
	}
	return out
}
