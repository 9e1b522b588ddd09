// Package drumseq implements the drumkit step sequencer: a fixed-length
// grid of per-drum triggers, timing math to translate that grid into
// sample offsets at a given tempo and samplerate, and a renderer that
// turns a sequence plus a sample set into a mixed-down interleaved PCM
// buffer.
package drumseq

import "github.com/agalue/audiothread-go/internal/audio"

// NoteLength is the note subdivision a sequence's steps represent.
type NoteLength int

const (
	// NoteEighth treats each step as an eighth note.
	NoteEighth NoteLength = iota
	// NoteSixteenth treats each step as a sixteenth note.
	NoteSixteenth
)

// reciprocal returns the note's denominator (8.0 for an eighth note, 16.0
// for a sixteenth note).
func (n NoteLength) reciprocal() float64 {
	switch n {
	case NoteSixteenth:
		return 16.0
	default:
		return 8.0
	}
}

// BPM is a validated, nonzero tempo in beats per minute.
type BPM uint16

// NewBPM validates and constructs a BPM.
func NewBPM(value uint16) (BPM, error) {
	if value == 0 {
		return 0, audio.NewValueOutOfRangeError("BPM must be greater than zero")
	}
	return BPM(value), nil
}

// Get returns the underlying BPM value.
func (b BPM) Get() uint16 { return uint16(b) }

// TimeSignature is a validated, nonzero-component musical time signature.
type TimeSignature struct {
	upper uint8
	lower uint8
}

// NewTimeSignature validates and constructs a TimeSignature.
func NewTimeSignature(upper, lower uint8) (TimeSignature, error) {
	if upper == 0 || lower == 0 {
		return TimeSignature{}, audio.NewValueOutOfRangeError("time signature components must be nonzero")
	}
	return TimeSignature{upper: upper, lower: lower}, nil
}

// Upper returns the number of beats per bar.
func (t TimeSignature) Upper() uint8 { return t.upper }

// Lower returns the note value that represents a beat (4 for quarter, etc).
func (t TimeSignature) Lower() uint8 { return t.lower }

// Swing is a validated swing amount in [0.0, 1.0], where 0 is straight
// timing and larger values delay every other step progressively more.
type Swing float64

// NewSwing validates and constructs a Swing.
func NewSwing(value float64) (Swing, error) {
	if value < 0.0 || value > 1.0 {
		return 0, audio.NewValueOutOfRangeError("swing value must be in the range [0.0, 1.0]")
	}
	return Swing(value), nil
}

// Get returns the underlying swing amount.
func (s Swing) Get() float64 { return float64(s) }

// TimeSpec describes a sequence's tempo, meter, and swing, and derives
// every timing quantity a sequence needs from them.
type TimeSpec struct {
	BPM       BPM
	Signature TimeSignature
	Swing     Swing
}

// NewTimeSpec builds a TimeSpec with no swing.
func NewTimeSpec(bpm uint16, sigUpper, sigLower uint8) (TimeSpec, error) {
	return NewTimeSpecWithSwing(bpm, sigUpper, sigLower, 0.0)
}

// NewTimeSpecWithSwing builds a TimeSpec with the given swing amount.
func NewTimeSpecWithSwing(bpm uint16, sigUpper, sigLower uint8, swing float64) (TimeSpec, error) {
	b, err := NewBPM(bpm)
	if err != nil {
		return TimeSpec{}, err
	}
	sig, err := NewTimeSignature(sigUpper, sigLower)
	if err != nil {
		return TimeSpec{}, err
	}
	sw, err := NewSwing(swing)
	if err != nil {
		return TimeSpec{}, err
	}
	return TimeSpec{BPM: b, Signature: sig, Swing: sw}, nil
}

// BeatsPerBar returns the time signature's beat count per bar.
func (t TimeSpec) BeatsPerBar() uint8 {
	return t.Signature.upper
}

// BeatsPerSecond returns the tempo expressed in beats per second.
func (t TimeSpec) BeatsPerSecond() float64 {
	return float64(t.BPM.Get()) / 60.0
}

// SecondsPerBeat returns the duration of one beat in seconds.
func (t TimeSpec) SecondsPerBeat() float64 {
	return 1.0 / t.BeatsPerSecond()
}

// SecondsPerBar returns the duration of one bar in seconds.
func (t TimeSpec) SecondsPerBar() float64 {
	return float64(t.BeatsPerBar()) * t.SecondsPerBeat()
}

// SamplesPerBeat returns the duration of one beat in samples at samplerate.
func (t TimeSpec) SamplesPerBeat(samplerate audio.Samplerate) float64 {
	return float64(samplerate.Get()) * t.SecondsPerBeat()
}

// NotesPerBeat returns how many notes of the given length fit in one beat.
func (t TimeSpec) NotesPerBeat(note NoteLength) float64 {
	return (1.0 / float64(t.Signature.lower)) * note.reciprocal()
}

// SecondsPerNote returns the duration of one note of the given length.
func (t TimeSpec) SecondsPerNote(note NoteLength) float64 {
	return t.SecondsPerBeat() / t.NotesPerBeat(note)
}

// SamplesPerNote returns the duration of one note of the given length in
// samples at samplerate.
func (t TimeSpec) SamplesPerNote(samplerate audio.Samplerate, note NoteLength) float64 {
	return t.SecondsPerNote(note) * float64(samplerate.Get())
}
