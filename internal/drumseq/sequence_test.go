package drumseq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agalue/audiothread-go/internal/audio"
)

func TestDrumkitSeqDefaultLength(t *testing.T) {
	assert.Equal(t, 16, New(mustTimeSpec(t, 120, 4, 4), NoteSixteenth).Len())
	assert.Equal(t, 14, New(mustTimeSpec(t, 120, 7, 8), NoteSixteenth).Len())
	assert.Equal(t, 12, New(mustTimeSpec(t, 140, 3, 4), NoteSixteenth).Len())
}

func drumkitSeq1(t *testing.T) *DrumkitSequence {
	t.Helper()
	seq := New(mustTimeSpec(t, 120, 4, 4), NoteSixteenth)

	seq.SetStepTrigger(0, BassDrum, 1.0)

	seq.SetStepTrigger(4, BassDrum, 1.0)
	seq.SetStepTrigger(4, Snare, 1.0)

	seq.SetStepTrigger(8, BassDrum, 1.0)

	seq.SetStepTrigger(12, BassDrum, 1.0)
	seq.SetStepTrigger(12, Snare, 1.0)

	return seq
}

func stepsWithTriggers(seq *DrumkitSequence, samplerate audio.Samplerate, n int) []int {
	var out []int
	for i := 0; i < n; i++ {
		info, ok := seq.Step(i, samplerate)
		if ok && len(info.Triggers) > 0 {
			out = append(out, i)
		}
	}
	return out
}

func TestDrumkitSeqPlainStepLengths(t *testing.T) {
	seq := drumkitSeq1(t)
	sr, err := audio.NewSamplerate(44100)
	require.NoError(t, err)

	for n := 0; n < 16; n++ {
		info, ok := seq.Step(n, sr)
		require.True(t, ok)
		assert.InDelta(t, 5512.5, info.LengthInSamples, 0.0001)
	}
}

func TestDrumkitSeqSwingStepLengths(t *testing.T) {
	seq := drumkitSeq1(t)
	sr, err := audio.NewSamplerate(44100)
	require.NoError(t, err)

	ts := seq.TimeSpec()
	ts.Swing, err = NewSwing(0.5)
	require.NoError(t, err)
	seq.SetTimeSpec(ts)

	info0, _ := seq.Step(0, sr)
	info1, _ := seq.Step(1, sr)
	info2, _ := seq.Step(2, sr)
	info3, _ := seq.Step(3, sr)

	assert.InDelta(t, 8268.75, info0.LengthInSamples, 0.0001)
	assert.InDelta(t, 2756.25, info1.LengthInSamples, 0.0001)
	assert.InDelta(t, 8268.75, info2.LengthInSamples, 0.0001)
	assert.InDelta(t, 2756.25, info3.LengthInSamples, 0.0001)
}

func TestDrumkitSeqUnsetTrigger(t *testing.T) {
	seq := drumkitSeq1(t)
	sr, err := audio.NewSamplerate(44100)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 4, 8, 12}, stepsWithTriggers(seq, sr, 100))

	seq.UnsetStepTrigger(12, BassDrum)
	assert.Equal(t, []int{0, 4, 8, 12}, stepsWithTriggers(seq, sr, 100))

	seq.UnsetStepTrigger(12, Snare)
	assert.Equal(t, []int{0, 4, 8}, stepsWithTriggers(seq, sr, 100))
}

func TestDrumkitSeqSetTrigger(t *testing.T) {
	seq := drumkitSeq1(t)
	sr, err := audio.NewSamplerate(44100)
	require.NoError(t, err)

	seq.SetStepTrigger(1, ClosedHihat, 1.0)
	assert.Equal(t, []int{0, 1, 4, 8, 12}, stepsWithTriggers(seq, sr, 100))

	info, ok := seq.Step(1, sr)
	require.True(t, ok)
	found := false
	for _, tr := range info.Triggers {
		if tr.Label == ClosedHihat {
			found = true
		}
	}
	assert.True(t, found)
}
