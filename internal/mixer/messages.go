// Package mixer implements a real-time audio mixing engine: a single
// goroutine owns a playback device and mixes an arbitrary, dynamically
// changing set of concurrent sources into its output stream. Callers
// drive it entirely through the Handle returned by Spawn.
package mixer

import "github.com/agalue/audiothread-go/internal/audio"

// Message is the union of commands the mixer goroutine accepts on its
// control channel.
type Message interface {
	isMessage()
}

// Shutdown asks the mixer to stop gracefully: finish the current write
// cycle, tear down the device, and exit.
type Shutdown struct{}

func (Shutdown) isMessage() {}

// DropAll immediately discards every source in every group.
type DropAll struct{}

func (DropAll) isMessage() {}

// PlayFileDecoded adds a decoder-backed source, grouping it by its
// native AudioSpec.
type PlayFileDecoded struct {
	Source *FileDecoded
}

func (PlayFileDecoded) isMessage() {}

// CreateExternallyPushed adds a ring-buffer-backed source that a
// producer feeds from outside the mixer (e.g. the drum render thread).
type CreateExternallyPushed struct {
	Setup ExternallyPushedSetup
}

func (CreateExternallyPushed) isMessage() {}

// GetOutputSpec asks the mixer to report its output AudioSpec on Reply.
type GetOutputSpec struct {
	Reply chan<- audio.AudioSpec
}

func (GetOutputSpec) isMessage() {}

// Opts configures a mixer instance. Use DefaultOpts and the With*
// methods to build one; each With* method returns a modified copy.
type Opts struct {
	StreamName        string
	Spec              audio.AudioSpec
	ConversionQuality audio.Quality
	BufferSize        int
}

// DefaultOpts returns the mixer's default configuration: a stream named
// "Audio" at 48kHz stereo, medium conversion quality, and a 2048-frame
// buffer.
func DefaultOpts() Opts {
	spec, err := audio.NewAudioSpec(48000, 2)
	if err != nil {
		panic(err) // unreachable: 48000 and 2 are always valid
	}
	return Opts{
		StreamName:        "Audio",
		Spec:              spec,
		ConversionQuality: audio.QualityMedium,
		BufferSize:        2048,
	}
}

// WithName returns a copy of o with StreamName set.
func (o Opts) WithName(name string) Opts {
	o.StreamName = name
	return o
}

// WithSpec returns a copy of o with Spec set.
func (o Opts) WithSpec(spec audio.AudioSpec) Opts {
	o.Spec = spec
	return o
}

// WithConversionQuality returns a copy of o with ConversionQuality set.
func (o Opts) WithConversionQuality(q audio.Quality) Opts {
	o.ConversionQuality = q
	return o
}

// WithBufferSize returns a copy of o with BufferSize set. The caller is
// responsible for passing a value greater than zero; Spawn's device
// startup is the first thing that would misbehave on one that isn't.
func (o Opts) WithBufferSize(bufferSize int) Opts {
	o.BufferSize = bufferSize
	return o
}
