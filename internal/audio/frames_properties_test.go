package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestDoubledLengthProperty checks that applying Doubled k times to a
// buffer of length L produces a buffer of length L*2^k.
func TestDoubledLengthProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		length := rapid.IntRange(0, 64).Draw(t, "length")
		k := rapid.IntRange(0, 4).Draw(t, "k")

		buf := make([]float32, length)
		for i := range buf {
			buf[i] = rapid.Float32().Draw(t, "sample")
		}

		got := buf
		for i := 0; i < k; i++ {
			got = Doubled(got)
		}

		want := length
		for i := 0; i < k; i++ {
			want *= 2
		}

		assert.Equal(t, want, len(got), "len(Doubled^%d(buf))", k)
	})
}

// TestDropChannelsLengthProperty checks that dropping from "from" down to
// "to" channels on a buffer of L frames (L*from samples) yields L*to
// samples.
func TestDropChannelsLengthProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		frames := rapid.IntRange(0, 32).Draw(t, "frames")
		from := rapid.IntRange(2, 8).Draw(t, "from")
		to := rapid.IntRange(1, from-1).Draw(t, "to")

		buf := make([]float32, frames*from)
		for i := range buf {
			buf[i] = rapid.Float32().Draw(t, "sample")
		}

		got := DropChannels(buf, from, to)
		assert.Equal(t, frames*to, len(got), "len(DropChannels(buf, %d, %d))", from, to)
	})
}
