package drumseq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agalue/audiothread-go/internal/audio"
)

func mustTimeSpec(t *testing.T, bpm uint16, sigUpper, sigLower uint8) TimeSpec {
	t.Helper()
	ts, err := NewTimeSpec(bpm, sigUpper, sigLower)
	require.NoError(t, err)
	return ts
}

func TestInvalidValues(t *testing.T) {
	_, err := NewBPM(0)
	assert.ErrorIs(t, err, audio.ErrValueOutOfRange)

	_, err = NewTimeSignature(0, 4)
	assert.ErrorIs(t, err, audio.ErrValueOutOfRange)

	_, err = NewTimeSignature(4, 0)
	assert.ErrorIs(t, err, audio.ErrValueOutOfRange)

	_, err = NewTimeSignature(0, 0)
	assert.ErrorIs(t, err, audio.ErrValueOutOfRange)

	_, err = NewSwing(-0.01)
	assert.ErrorIs(t, err, audio.ErrValueOutOfRange)

	_, err = NewSwing(1.01)
	assert.ErrorIs(t, err, audio.ErrValueOutOfRange)
}

func TestTimeSpec120_4_4(t *testing.T) {
	ts := mustTimeSpec(t, 120, 4, 4)
	sr, err := audio.NewSamplerate(44100)
	require.NoError(t, err)

	assert.Equal(t, uint8(4), ts.BeatsPerBar())
	assert.InDelta(t, 2.0, ts.SecondsPerBar(), 0.0001)
	assert.InDelta(t, 2.0, ts.BeatsPerSecond(), 0.0001)
	assert.InDelta(t, 0.5, ts.SecondsPerBeat(), 0.0001)
	assert.InDelta(t, 22050.0, ts.SamplesPerBeat(sr), 0.0001)
	assert.InDelta(t, 2.0, ts.NotesPerBeat(NoteEighth), 0.0001)
	assert.InDelta(t, 4.0, ts.NotesPerBeat(NoteSixteenth), 0.0001)
	assert.InDelta(t, 0.25, ts.SecondsPerNote(NoteEighth), 0.0001)
	assert.InDelta(t, 0.125, ts.SecondsPerNote(NoteSixteenth), 0.0001)
}

func TestTimeSpec140_3_4(t *testing.T) {
	ts := mustTimeSpec(t, 140, 3, 4)
	sr, err := audio.NewSamplerate(44100)
	require.NoError(t, err)

	assert.Equal(t, uint8(3), ts.BeatsPerBar())
	assert.InDelta(t, 1.2857, ts.SecondsPerBar(), 0.0001)
	assert.InDelta(t, 2.3333, ts.BeatsPerSecond(), 0.0001)
	assert.InDelta(t, 0.4286, ts.SecondsPerBeat(), 0.0001)
	assert.InDelta(t, 18900.0, ts.SamplesPerBeat(sr), 0.0001)
	assert.InDelta(t, 2.0, ts.NotesPerBeat(NoteEighth), 0.0001)
	assert.InDelta(t, 4.0, ts.NotesPerBeat(NoteSixteenth), 0.0001)
	assert.InDelta(t, 0.2143, ts.SecondsPerNote(NoteEighth), 0.0001)
	assert.InDelta(t, 0.1071, ts.SecondsPerNote(NoteSixteenth), 0.0001)
}

func TestTimeSpecWithSwing(t *testing.T) {
	ts, err := NewTimeSpecWithSwing(120, 4, 4, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, ts.Swing.Get(), 0.0001)

	_, err = NewTimeSpecWithSwing(120, 4, 4, 1.5)
	assert.ErrorIs(t, err, audio.ErrValueOutOfRange)
}
