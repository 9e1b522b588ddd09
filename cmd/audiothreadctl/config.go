package main

import (
	"flag"
	"fmt"

	"github.com/agalue/audiothread-go/internal/audio"
	"github.com/agalue/audiothread-go/internal/mixer"
)

// config holds the CLI-configurable settings for the audiothreadctl
// demo program.
type config struct {
	streamName  string
	samplerate  uint32
	channels    uint8
	bufferSize  int
	quality     audio.Quality
	kitManifest string
	bpm         uint16
	swing       float64
	demoBeat    bool
}

// parseFlags parses os.Args into a config, applying the same defaults
// mixer.DefaultOpts would.
func parseFlags() (config, error) {
	defaults := mixerDefaults()

	streamName := flag.String("stream-name", defaults.streamName, "name reported to the audio backend for this stream")
	samplerate := flag.Uint("samplerate", uint(defaults.samplerate), "output sample rate in Hz")
	channels := flag.Uint("channels", uint(defaults.channels), "output channel count")
	bufferSize := flag.Int("buffer-size", defaults.bufferSize, "device buffer size in frames")
	quality := flag.String("quality", "medium", "rate conversion quality: lowest, low, medium, high")
	kitManifest := flag.String("kit", "", "path to a YAML drumkit sample manifest")
	bpm := flag.Uint("bpm", 120, "sequence tempo in beats per minute")
	swing := flag.Float64("swing", 0.0, "swing amount in [0.0, 1.0]")
	demoBeat := flag.Bool("demo-beat", true, "load a simple four-on-the-floor demo sequence at startup")

	flag.Parse()

	q, err := parseQuality(*quality)
	if err != nil {
		return config{}, err
	}

	return config{
		streamName:  *streamName,
		samplerate:  uint32(*samplerate),
		channels:    uint8(*channels),
		bufferSize:  *bufferSize,
		quality:     q,
		kitManifest: *kitManifest,
		bpm:         uint16(*bpm),
		swing:       *swing,
		demoBeat:    *demoBeat,
	}, nil
}

type mixerDefaultsResult struct {
	streamName string
	samplerate uint32
	channels   uint8
	bufferSize int
}

// mixerDefaults reads mixer.DefaultOpts so the CLI's own defaults never
// drift from the mixer package's.
func mixerDefaults() mixerDefaultsResult {
	o := mixer.DefaultOpts()
	return mixerDefaultsResult{
		streamName: o.StreamName,
		samplerate: o.Spec.Samplerate.Get(),
		channels:   o.Spec.Channels.Get(),
		bufferSize: o.BufferSize,
	}
}

func parseQuality(s string) (audio.Quality, error) {
	switch s {
	case "lowest":
		return audio.QualityLowest, nil
	case "low":
		return audio.QualityLow, nil
	case "medium":
		return audio.QualityMedium, nil
	case "high":
		return audio.QualityHigh, nil
	default:
		return 0, fmt.Errorf("invalid -quality %q (must be lowest, low, medium, or high)", s)
	}
}
