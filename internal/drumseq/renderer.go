package drumseq

import (
	"log"
	"time"

	"github.com/agalue/audiothread-go/internal/audio"
)

// ActiveSound is one currently-sounding trigger: an offset into a cached
// sample buffer from a specific generation, advancing each render call.
type ActiveSound struct {
	Label             DrumkitLabel
	SamplesGeneration int
	Amplitude         float32
	OffsetInFrames    int
	NumFrames         int
}

// DrumkitSequenceEvent reports the labels of every sound active when a
// step starts (including sounds still ringing from earlier steps),
// stamped with the estimated wall-clock time the step starts sounding.
type DrumkitSequenceEvent struct {
	Labels []DrumkitLabel
	Step   int
	Time   time.Time
}

// promiseState is the outcome of polling an in-flight async sample load.
type promiseState int

const (
	promisePending promiseState = iota
	promiseReady
	promiseFailed
)

// samplePromise runs a sample-loading function on its own goroutine and
// lets the renderer poll for the result without blocking. A panicking
// load function is recovered and reported as promiseFailed, mirroring a
// dropped sender on the Rust side.
type samplePromise struct {
	rx chan map[DrumkitLabel][]float32
}

func newSamplePromise(fn func() map[DrumkitLabel][]float32) *samplePromise {
	rx := make(chan map[DrumkitLabel][]float32, 1)

	go func() {
		defer close(rx)
		defer func() {
			if r := recover(); r != nil {
				log.Printf("drumseq: async sample load panicked: %v", r)
			}
		}()
		rx <- fn()
	}()

	return &samplePromise{rx: rx}
}

func (p *samplePromise) poll() (map[DrumkitLabel][]float32, promiseState) {
	select {
	case v, ok := <-p.rx:
		if !ok {
			return nil, promiseFailed
		}
		return v, promiseReady
	default:
		return nil, promisePending
	}
}

type loadedSequenceInfo struct {
	stepFramesRemain float64
	activeSounds     []ActiveSound
	mixbufferCap     int
}

// DrumkitSequenceRenderer turns a DrumkitSequence plus a cache of loaded
// stereo samples into a continuous stream of mixed stereo frames, one
// Render call at a time. Loaded sample sets are kept as numbered
// generations so that a sample swap taking effect mid-sound doesn't
// yank audio out from under an ActiveSound already playing from the
// previous generation; stale generations are dropped once nothing
// references them any more.
type DrumkitSequenceRenderer struct {
	sequence                 *DrumkitSequence
	outputSamplerate         audio.Samplerate
	samples                  []map[DrumkitLabel][]float32
	samplesCurrentGeneration int
	sampleLoaders            []*samplePromise

	started          bool
	currentStep      int
	stepFramesRemain float64
	activeSounds     []ActiveSound
	mixbuffer        []float32
}

// NewDrumkitSequenceRenderer builds a renderer with an empty default
// sequence and no samples loaded; call LoadSamples before the first
// Render or every trigger will simply produce silence.
func NewDrumkitSequenceRenderer(outputSamplerate audio.Samplerate) *DrumkitSequenceRenderer {
	return &DrumkitSequenceRenderer{
		sequence:         Default(),
		outputSamplerate: outputSamplerate,
		samples:          []map[DrumkitLabel][]float32{{}},
	}
}

// Render fills buffer (interleaved stereo) with mixed sequencer output
// and returns the number of float32 values written (always len(buffer))
// along with every step-boundary event crossed during the call.
func (r *DrumkitSequenceRenderer) Render(buffer []float32) (int, []DrumkitSequenceEvent) {
	renderStart := time.Now()
	durationPerFrame := time.Duration(float64(time.Second) / float64(r.outputSamplerate.Get()))

	var events []DrumkitSequenceEvent

	r.checkSampleLoaders()

	if !r.started {
		r.initSequence()
		events = append(events, DrumkitSequenceEvent{
			Labels: r.activeLabels(),
			Step:   0,
			Time:   renderStart,
		})
	}

	framesToWrite := len(buffer) / 2
	outputOffset := 0
	framesWritten := 0

	for framesToWrite > 0 {
		framesThisCycle := framesToWrite
		if remain := int(r.stepFramesRemain); remain < framesThisCycle {
			framesThisCycle = remain
		}

		for i := 0; i < framesThisCycle*2; i++ {
			r.mixbuffer[i] = 0
		}

		for i := range r.activeSounds {
			s := &r.activeSounds[i]
			frames := framesThisCycle
			if avail := s.NumFrames - s.OffsetInFrames; avail < frames {
				frames = avail
			}

			sampleData := r.samples[s.SamplesGeneration][s.Label]
			base := s.OffsetInFrames * 2
			for j := 0; j < frames*2; j++ {
				r.mixbuffer[j] += sampleData[base+j] * s.Amplitude
			}

			s.OffsetInFrames += frames
		}

		kept := r.activeSounds[:0]
		for _, s := range r.activeSounds {
			if s.OffsetInFrames < s.NumFrames {
				kept = append(kept, s)
			}
		}
		r.activeSounds = kept

		copy(buffer[outputOffset:outputOffset+framesThisCycle*2], r.mixbuffer[:framesThisCycle*2])

		framesWritten += framesThisCycle
		outputOffset += framesThisCycle * 2

		r.stepFramesRemain -= float64(framesThisCycle)
		framesToWrite -= framesThisCycle

		if r.stepFramesRemain < 1.0 {
			r.currentStep = (r.currentStep + 1) % r.sequence.Len()

			if info, ok := r.sequence.Step(r.currentStep, r.outputSamplerate); ok {
				r.stepFramesRemain += info.LengthInSamples

				gen := r.samplesCurrentGeneration
				for _, t := range info.Triggers {
					if sampleData, ok := r.samples[gen][t.Label]; ok {
						r.activeSounds = append(r.activeSounds, ActiveSound{
							Label:             t.Label,
							SamplesGeneration: gen,
							Amplitude:         t.Amplitude,
							OffsetInFrames:    0,
							NumFrames:         len(sampleData) / 2,
						})
					}
				}
			}

			events = append(events, DrumkitSequenceEvent{
				Labels: r.activeLabels(),
				Step:   r.currentStep,
				Time:   renderStart.Add(durationPerFrame * time.Duration(framesWritten)),
			})
		}
	}

	return len(buffer), events
}

func (r *DrumkitSequenceRenderer) activeLabels() []DrumkitLabel {
	labels := make([]DrumkitLabel, len(r.activeSounds))
	for i, s := range r.activeSounds {
		labels[i] = s.Label
	}
	return labels
}

// ResetSequence drops the renderer's playback position, forcing the
// next Render to reinitialize from step 0.
func (r *DrumkitSequenceRenderer) ResetSequence() {
	r.started = false
	r.currentStep = 0
	r.stepFramesRemain = 0
	r.mixbuffer = nil
}

// SetSequence replaces the sequence being rendered and resets playback
// position.
func (r *DrumkitSequenceRenderer) SetSequence(sequence *DrumkitSequence) {
	r.sequence = sequence
	r.ResetSequence()
}

// SetTempo changes the sequence's BPM in place, leaving signature and
// swing untouched, and resets playback position.
func (r *DrumkitSequenceRenderer) SetTempo(bpm BPM) {
	ts := r.sequence.TimeSpec()
	ts.BPM = bpm
	r.sequence.SetTimeSpec(ts)
	r.ResetSequence()
}

// SetSwing changes the sequence's swing in place, leaving tempo and
// signature untouched, and resets playback position.
func (r *DrumkitSequenceRenderer) SetSwing(swing Swing) {
	ts := r.sequence.TimeSpec()
	ts.Swing = swing
	r.sequence.SetTimeSpec(ts)
	r.ResetSequence()
}

// SequenceClear removes every trigger from every step.
func (r *DrumkitSequenceRenderer) SequenceClear() { r.sequence.Clear() }

// SequenceClearStep removes every trigger from step n.
func (r *DrumkitSequenceRenderer) SequenceClearStep(n int) { r.sequence.ClearStep(n) }

// SequenceSetStepTrigger sets step n's trigger for label.
func (r *DrumkitSequenceRenderer) SequenceSetStepTrigger(n int, label DrumkitLabel, amp float32) {
	r.sequence.SetStepTrigger(n, label, amp)
}

// SequenceUnsetStepTrigger removes step n's trigger for label.
func (r *DrumkitSequenceRenderer) SequenceUnsetStepTrigger(n int, label DrumkitLabel) {
	r.sequence.UnsetStepTrigger(n, label)
}

// LoadSamples loads every labeled sample from loader synchronously,
// converts each to stereo at the output samplerate, and publishes the
// result as a new sample-cache generation immediately.
func (r *DrumkitSequenceRenderer) LoadSamples(loader DrumkitSampleLoader) {
	result := make(map[DrumkitLabel][]float32)

	for _, label := range loader.Labels() {
		meta, data, ok := loader.LoadSample(label)
		if !ok {
			continue
		}
		result[label] = toStereoWithSamplerate(data, meta, r.outputSamplerate.Get())
	}

	r.samples = append(r.samples, result)
	r.samplesCurrentGeneration++
}

// LoadSamplesAsync starts loading every labeled sample from loader on a
// background goroutine; the result is published as a new generation the
// next time Render (via checkSampleLoaders) observes it ready.
func (r *DrumkitSequenceRenderer) LoadSamplesAsync(loader DrumkitSampleLoader) {
	samplerate := r.outputSamplerate.Get()

	r.sampleLoaders = append(r.sampleLoaders, newSamplePromise(func() map[DrumkitLabel][]float32 {
		result := make(map[DrumkitLabel][]float32)
		for _, label := range loader.Labels() {
			meta, data, ok := loader.LoadSample(label)
			if !ok {
				continue
			}
			result[label] = toStereoWithSamplerate(data, meta, samplerate)
		}
		return result
	}))
}

// Sequence returns the sequence currently being rendered.
func (r *DrumkitSequenceRenderer) Sequence() *DrumkitSequence { return r.sequence }

// OutputSamplerate returns the renderer's fixed output sample rate.
func (r *DrumkitSequenceRenderer) OutputSamplerate() audio.Samplerate { return r.outputSamplerate }

func loadSequence(seq *DrumkitSequence, outputSamplerate audio.Samplerate, samples map[DrumkitLabel][]float32, samplesGeneration int) loadedSequenceInfo {
	step0, _ := seq.Step(0, outputSamplerate)

	var activeSounds []ActiveSound
	for _, t := range step0.Triggers {
		sampleData, ok := samples[t.Label]
		if !ok {
			continue
		}
		activeSounds = append(activeSounds, ActiveSound{
			Label:             t.Label,
			SamplesGeneration: samplesGeneration,
			Amplitude:         t.Amplitude,
			OffsetInFrames:    0,
			NumFrames:         len(sampleData) / 2,
		})
	}

	// The factor of 4 covers both the stereo interleaving (x2) and the
	// longest a swung step can stretch to (up to 2x the base step
	// length), so this element count is always enough for one step's
	// worth of mixing regardless of swing.
	mixbufferCap := int(4.0 * seq.timespec.SamplesPerNote(outputSamplerate, seq.stepBaseLength))

	return loadedSequenceInfo{
		stepFramesRemain: step0.LengthInSamples,
		activeSounds:     activeSounds,
		mixbufferCap:     mixbufferCap,
	}
}

func (r *DrumkitSequenceRenderer) initSequence() {
	info := loadSequence(r.sequence, r.outputSamplerate, r.samples[r.samplesCurrentGeneration], r.samplesCurrentGeneration)

	r.started = true
	r.currentStep = 0
	r.stepFramesRemain = info.stepFramesRemain
	r.activeSounds = info.activeSounds
	r.mixbuffer = make([]float32, info.mixbufferCap)
}

// unloadStaleSamples drops every sample-cache generation older than the
// oldest one any ActiveSound still references, so memory does not grow
// without bound across repeated sample swaps.
func (r *DrumkitSequenceRenderer) unloadStaleSamples() {
	numStaleGens := r.samplesCurrentGeneration
	for _, s := range r.activeSounds {
		if s.SamplesGeneration < numStaleGens {
			numStaleGens = s.SamplesGeneration
		}
	}

	if numStaleGens > 0 {
		r.samples = append([]map[DrumkitLabel][]float32{}, r.samples[numStaleGens:]...)
		r.samplesCurrentGeneration -= numStaleGens

		for i := range r.activeSounds {
			r.activeSounds[i].SamplesGeneration -= numStaleGens
		}

		log.Printf("drumseq: dropped %d sample generation(s)", numStaleGens)
	}
}

func (r *DrumkitSequenceRenderer) checkSampleLoaders() {
	generationPre := r.samplesCurrentGeneration

	kept := r.sampleLoaders[:0]
	for _, p := range r.sampleLoaders {
		result, state := p.poll()
		switch state {
		case promisePending:
			kept = append(kept, p)
		case promiseReady:
			r.samples = append(r.samples, result)
			r.samplesCurrentGeneration++
		case promiseFailed:
			// load failed; generation simply never arrives
		}
	}
	r.sampleLoaders = kept

	if r.samplesCurrentGeneration > generationPre {
		r.unloadStaleSamples()
	}
}
