package drumseq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agalue/audiothread-go/internal/audio"
)

func mustSamplerate(t *testing.T, rate uint32) audio.Samplerate {
	t.Helper()
	sr, err := audio.NewSamplerate(rate)
	require.NoError(t, err)
	return sr
}

func TestLoadAndInitSequence(t *testing.T) {
	sr := mustSamplerate(t, 44100)
	r := NewDrumkitSequenceRenderer(sr)

	assert.False(t, r.started)

	info := loadSequence(r.sequence, r.outputSamplerate, r.samples[r.samplesCurrentGeneration], r.samplesCurrentGeneration)

	r.initSequence()

	assert.Equal(t, info.stepFramesRemain, r.stepFramesRemain)
	assert.Equal(t, 0, r.currentStep)
	assert.Equal(t, info.mixbufferCap, len(r.mixbuffer))
}

func TestUnloadStaleSamples(t *testing.T) {
	r := NewDrumkitSequenceRenderer(mustSamplerate(t, 44100))

	loadEmpty := func() {
		r.samples = append(r.samples, map[DrumkitLabel][]float32{BassDrum: {}})
		r.samplesCurrentGeneration++
	}

	loadEmpty()
	assert.Len(t, r.samples, 2)

	r.activeSounds = append(r.activeSounds, ActiveSound{
		Label:             BassDrum,
		SamplesGeneration: r.samplesCurrentGeneration,
		Amplitude:         1.0,
		OffsetInFrames:    0,
		NumFrames:         1,
	})

	loadEmpty()
	assert.Len(t, r.samples, 3)
	r.unloadStaleSamples()
	assert.Len(t, r.samples, 2)

	r.activeSounds = nil
	r.unloadStaleSamples()
	assert.Len(t, r.samples, 1)
}

func TestUnloadStaleSamplesAsync(t *testing.T) {
	r := NewDrumkitSequenceRenderer(mustSamplerate(t, 44100))

	loadAsync := func() {
		r.sampleLoaders = append(r.sampleLoaders, newSamplePromise(func() map[DrumkitLabel][]float32 {
			return map[DrumkitLabel][]float32{BassDrum: {}}
		}))
		for len(r.sampleLoaders) > 0 {
			r.checkSampleLoaders()
		}
	}

	loadAsync()
	assert.Len(t, r.samples, 1)

	r.activeSounds = append(r.activeSounds, ActiveSound{
		Label:             BassDrum,
		SamplesGeneration: r.samplesCurrentGeneration,
		Amplitude:         1.0,
		OffsetInFrames:    0,
		NumFrames:         1,
	})

	loadAsync()
	r.unloadStaleSamples()
	assert.Len(t, r.samples, 2)

	r.activeSounds = nil
	r.unloadStaleSamples()
	assert.Len(t, r.samples, 1)
}

func TestRenderProducesSilenceWithNoSamplesLoaded(t *testing.T) {
	r := NewDrumkitSequenceRenderer(mustSamplerate(t, 44100))
	r.SequenceSetStepTrigger(0, BassDrum, 1.0)

	buf := make([]float32, 2*4410)
	n, events := r.Render(buf)

	assert.Equal(t, len(buf), n)
	assert.NotEmpty(t, events)
	for _, v := range buf {
		assert.Equal(t, float32(0), v)
	}
}
