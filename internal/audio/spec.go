// Package audio provides audio primitives shared by the mixer and the
// drumkit sequencer: sample-rate/channel types, frame-accessor helpers,
// a lock-free ring buffer, and quality-tiered rate converters.
package audio

import "fmt"

// Samplerate is a validated, nonzero sample rate in Hz.
type Samplerate uint32

// NewSamplerate validates and constructs a Samplerate.
func NewSamplerate(value uint32) (Samplerate, error) {
	if value == 0 {
		return 0, NewValueOutOfRangeError("sample rate must be greater than zero")
	}
	return Samplerate(value), nil
}

// Get returns the underlying Hz value.
func (s Samplerate) Get() uint32 { return uint32(s) }

// NumChannels is a validated, nonzero channel count.
type NumChannels uint8

// NewNumChannels validates and constructs a NumChannels.
func NewNumChannels(value uint8) (NumChannels, error) {
	if value == 0 {
		return 0, NewValueOutOfRangeError("channel count must be greater than zero")
	}
	return NumChannels(value), nil
}

// Get returns the underlying channel count.
func (c NumChannels) Get() uint8 { return uint8(c) }

// NumFrames is a count of audio frames (may be zero).
type NumFrames int

// NonZeroFrames validates that a frame count is nonzero, for call sites
// (e.g. mixer buffer sizes) where a zero-length buffer is meaningless.
func NonZeroFrames(value int) (int, error) {
	if value <= 0 {
		return 0, NewValueOutOfRangeError("frame count must be greater than zero")
	}
	return value, nil
}

// AudioSpec identifies an audio stream by sample rate and channel count.
// It is comparable and is used as a map key to group sources by spec.
type AudioSpec struct {
	Samplerate Samplerate
	Channels   NumChannels
}

// NewAudioSpec validates and constructs an AudioSpec.
func NewAudioSpec(samplerate uint32, channels uint8) (AudioSpec, error) {
	sr, err := NewSamplerate(samplerate)
	if err != nil {
		return AudioSpec{}, err
	}
	ch, err := NewNumChannels(channels)
	if err != nil {
		return AudioSpec{}, err
	}
	return AudioSpec{Samplerate: sr, Channels: ch}, nil
}

func (s AudioSpec) String() string {
	return fmt.Sprintf("%dHz/%dch", s.Samplerate.Get(), s.Channels.Get())
}

// StreamState tracks whether a source still has data to provide.
type StreamState int

const (
	// StreamStateStreaming means the source may still produce samples.
	StreamStateStreaming StreamState = iota
	// StreamStateComplete means the source is exhausted and can be dropped.
	StreamStateComplete
)

// Quality selects the rate-conversion algorithm a SourceGroup uses.
type Quality int

const (
	// QualityLowest uses linear interpolation: cheapest, lowest fidelity.
	QualityLowest Quality = iota
	// QualityLow uses a short windowed-sinc filter.
	QualityLow
	// QualityMedium uses a medium-length windowed-sinc filter.
	QualityMedium
	// QualityHigh uses a long windowed-sinc filter: most expensive, highest fidelity.
	QualityHigh
)
