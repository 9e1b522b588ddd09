package drumseq

import (
	"log"

	"github.com/google/uuid"

	"github.com/agalue/audiothread-go/internal/audio"
)

// Trigger is one drum hit scheduled on a step, at a given amplitude.
type Trigger struct {
	Label     DrumkitLabel
	Amplitude float32
}

// StepInfo describes one step's rendered length and the triggers firing
// on it, as returned by DrumkitSequence.Step.
type StepInfo struct {
	LengthInSamples float64
	Triggers        []Trigger
}

// DrumkitSequence is a fixed-length grid of steps, each possibly firing
// one trigger per DrumkitLabel, rendered at a given tempo/meter/swing.
type DrumkitSequence struct {
	UUID           uuid.UUID
	Name           string
	timespec       TimeSpec
	stepBaseLength NoteLength
	steps          [][]Trigger
}

// New builds a sequence at timespec, with its step count derived from
// the time signature and step base length: one step per step-base-length
// note across the bar (e.g. 4/4 at sixteenth-note steps gives 16 steps).
func New(timespec TimeSpec, stepBaseLength NoteLength) *DrumkitSequence {
	length := uint64(timespec.BeatsPerBar()) *
		uint64(stepBaseLength.reciprocal()/float64(timespec.Signature.Lower()))

	steps := make([][]Trigger, length)

	return &DrumkitSequence{
		UUID:           uuid.New(),
		Name:           "untitled",
		timespec:       timespec,
		stepBaseLength: stepBaseLength,
		steps:          steps,
	}
}

// Default returns the sequence's zero-value configuration: 120 BPM,
// 4/4, sixteenth-note steps, 16 steps, no swing.
func Default() *DrumkitSequence {
	ts, err := NewTimeSpec(120, 4, 4)
	if err != nil {
		panic(err) // unreachable: 120/4/4 are always valid
	}
	return New(ts, NoteSixteenth)
}

// TimeSpec returns the sequence's current tempo/meter/swing.
func (d *DrumkitSequence) TimeSpec() TimeSpec { return d.timespec }

// Len returns the number of steps in the sequence.
func (d *DrumkitSequence) Len() int { return len(d.steps) }

// IsEmpty reports whether the sequence has zero steps.
func (d *DrumkitSequence) IsEmpty() bool { return d.Len() == 0 }

// StepBaseLen returns the note length one step represents.
func (d *DrumkitSequence) StepBaseLen() NoteLength { return d.stepBaseLength }

// Step returns step n's rendered length and triggers at samplerate, or
// ok=false if n is out of range. Even-numbered steps are lengthened and
// odd-numbered steps shortened by the sequence's swing amount, giving
// every other step a delayed, "swung" feel.
func (d *DrumkitSequence) Step(n int, samplerate audio.Samplerate) (info StepInfo, ok bool) {
	if n < 0 || n >= len(d.steps) {
		return StepInfo{}, false
	}

	baseLenInSamples := d.timespec.SamplesPerNote(samplerate, d.stepBaseLength)

	sign := 1.0
	if n%2 != 0 {
		sign = -1.0
	}

	return StepInfo{
		LengthInSamples: baseLenInSamples * (1.0 + sign*d.timespec.Swing.Get()),
		Triggers:        d.steps[n],
	}, true
}

// SetTimeSpec replaces the sequence's tempo/meter/swing without altering
// its step count.
func (d *DrumkitSequence) SetTimeSpec(spec TimeSpec) {
	d.timespec = spec
}

// SetLen grows or truncates the sequence to len steps. A request to set
// the length to zero is ignored with a warning, since an empty sequence
// can never produce a step.
func (d *DrumkitSequence) SetLen(length int) {
	if length <= 0 {
		log.Printf("drumseq: attempt to set sequence length to zero")
		return
	}

	switch {
	case length < len(d.steps):
		d.steps = d.steps[:length]
	case length > len(d.steps):
		for i := len(d.steps); i < length; i++ {
			d.steps = append(d.steps, nil)
		}
	}
}

// SetStepBaseLen changes the note length one step represents, without
// altering the step count.
func (d *DrumkitSequence) SetStepBaseLen(length NoteLength) {
	d.stepBaseLength = length
}

// Clear removes every trigger from every step.
func (d *DrumkitSequence) Clear() {
	for i := range d.steps {
		d.steps[i] = nil
	}
}

// ClearStep removes every trigger from step n, if it exists.
func (d *DrumkitSequence) ClearStep(n int) {
	if n >= 0 && n < len(d.steps) {
		d.steps[n] = nil
	}
}

// SetStepTrigger sets step n's trigger for label, replacing any existing
// trigger for that label on the same step.
func (d *DrumkitSequence) SetStepTrigger(n int, label DrumkitLabel, amplitude float32) {
	if n < 0 || n >= len(d.steps) {
		return
	}
	d.steps[n] = removeLabel(d.steps[n], label)
	d.steps[n] = append(d.steps[n], Trigger{Label: label, Amplitude: amplitude})
}

// UnsetStepTrigger removes step n's trigger for label, if any.
func (d *DrumkitSequence) UnsetStepTrigger(n int, label DrumkitLabel) {
	if n < 0 || n >= len(d.steps) {
		return
	}
	d.steps[n] = removeLabel(d.steps[n], label)
}

func removeLabel(triggers []Trigger, label DrumkitLabel) []Trigger {
	kept := triggers[:0]
	for _, t := range triggers {
		if t.Label != label {
			kept = append(kept, t)
		}
	}
	return kept
}
