package drumseq

import "github.com/agalue/audiothread-go/internal/audio"

// SampleMetadata describes a loaded sample's native format, prior to the
// stereo/samplerate conversion the renderer applies at load time.
type SampleMetadata struct {
	Channels   uint8
	Samplerate uint32
}

// DrumkitSampleLoader supplies the renderer with sample audio per label.
// Concrete loaders (e.g. one backed by internal/wavfile reading a kit
// directory) live outside this package.
type DrumkitSampleLoader interface {
	// Labels returns every label this loader can supply a sample for.
	Labels() []DrumkitLabel
	// LoadSample returns the sample's metadata and interleaved audio for
	// label, or ok=false if no sample is assigned to that label.
	LoadSample(label DrumkitLabel) (meta SampleMetadata, data []float32, ok bool)
}

// toStereoWithSamplerate converts a loaded sample to interleaved stereo
// at targetRate: mono is duplicated to stereo, more than two channels
// are truncated to the first two, and the sample rate is converted if it
// differs from targetRate. This is the renderer's load-time
// normalization, so every active sound in the mix is already stereo at
// the output rate and render never has to convert on the fly.
func toStereoWithSamplerate(data []float32, meta SampleMetadata, targetRate uint32) []float32 {
	converted := data

	switch {
	case meta.Channels == 1:
		converted = audio.Doubled(converted)
	case meta.Channels > 2:
		converted = audio.DropChannels(converted, int(meta.Channels), 2)
	}

	if meta.Samplerate != targetRate {
		if rc := audio.NewRateConverter(int(meta.Samplerate), int(targetRate), 2, audio.QualityHigh); rc != nil {
			converted = rc.Process(converted)
		}
	}

	return converted
}
