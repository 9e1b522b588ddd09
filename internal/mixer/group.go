package mixer

import (
	"github.com/agalue/audiothread-go/internal/audio"
)

// channelConversion describes how a group's native channel count maps
// onto the output channel count: duplicate channels up to a power of two
// above or at the output count, then truncate down to it exactly.
type channelConversion struct {
	inputChannels  int
	outputChannels int
}

// group holds every source sharing one native AudioSpec and mixes them
// down to the mixer's output spec, converting channels and sample rate
// as needed. One group exists per distinct source AudioSpec seen so far.
type group struct {
	spec    audio.AudioSpec
	sources []source

	channelConv      *channelConversion
	rateConv         audio.RateConverter
	rateConvDoneOnce bool

	preConvBuf       []float32
	postConvOverflow *audio.Ring
}

// newGroup builds a group for sources at sourceSpec, mixing down to
// outputSpec at the given conversion quality.
func newGroup(sourceSpec, outputSpec audio.AudioSpec, quality audio.Quality) *group {
	var chanConv *channelConversion
	if sourceSpec.Channels != outputSpec.Channels {
		chanConv = &channelConversion{
			inputChannels:  int(sourceSpec.Channels.Get()),
			outputChannels: int(outputSpec.Channels.Get()),
		}
	}

	rateConv := audio.NewRateConverter(
		int(sourceSpec.Samplerate.Get()), int(outputSpec.Samplerate.Get()),
		int(outputSpec.Channels.Get()), quality,
	)

	bufSize := int(sourceSpec.Channels.Get()) * int(sourceSpec.Samplerate.Get())

	return &group{
		spec:             sourceSpec,
		channelConv:      chanConv,
		rateConv:         rateConv,
		preConvBuf:       make([]float32, bufSize),
		postConvOverflow: audio.NewRing(bufSize),
	}
}

func (g *group) addSource(s source) error {
	if g.spec != s.spec() {
		return audio.NewMismatchedSpecError(s.spec(), g.spec)
	}
	g.sources = append(g.sources, s)
	return nil
}

func (g *group) dropCompletedSources() {
	kept := g.sources[:0]
	for _, s := range g.sources {
		if s.streamState() != audio.StreamStateComplete {
			kept = append(kept, s)
		}
	}
	g.sources = kept
}

func (g *group) sourcesLen() int { return len(g.sources) }

// mixToGivenSpec mixes every source in the group into outBuffer, which
// is at outSpec (generally different from the group's own spec),
// applying channel and rate conversion as configured.
//
// Order of operations: drain any samples left over from a previous
// conversion (the rate converter can emit more frames than requested);
// compute how many source-spec frames are needed to fill the remainder
// of outBuffer; mix all sources at the native spec into a scratch
// buffer; convert channels; convert sample rate; add the result into
// outBuffer, stashing any surplus in the overflow ring for next time.
func (g *group) mixToGivenSpec(outSpec audio.AudioSpec, outBuffer []float32) {
	if len(g.sources) == 0 {
		return
	}

	outChans := int(outSpec.Channels.Get())

	numOutFrames := len(outBuffer) / outChans

	priorOverflowFramesAvailable := g.postConvOverflow.OccupiedLen() / outChans
	priorOverflowFramesDrained := numOutFrames
	if priorOverflowFramesAvailable < priorOverflowFramesDrained {
		priorOverflowFramesDrained = priorOverflowFramesAvailable
	}

	g.postConvOverflow.AddInto(outBuffer[:priorOverflowFramesDrained*outChans])

	outFramesNeeded := numOutFrames - priorOverflowFramesDrained
	if outFramesNeeded == 0 {
		return
	}

	sourceRate := float64(g.spec.Samplerate.Get())
	outRate := float64(outSpec.Samplerate.Get())

	sourceFramesNeeded := float64(outFramesNeeded) / (outRate / sourceRate)

	// Some rate converters incur a "transport delay" on their first call,
	// returning fewer frames than requested; overshoot the first pull to
	// absorb it rather than underrun the output.
	if !g.rateConvDoneOnce && g.rateConv != nil {
		sourceFramesNeeded *= 1.5
		g.rateConvDoneOnce = true
	}

	sourceFramesNeededCeil := int(sourceFramesNeeded)
	if float64(sourceFramesNeededCeil) < sourceFramesNeeded {
		sourceFramesNeededCeil++
	}

	sourceChans := int(g.spec.Channels.Get())
	mixbuf := g.preConvBuf[:sourceFramesNeededCeil*sourceChans]
	for i := range mixbuf {
		mixbuf[i] = 0
	}

	for _, s := range g.sources {
		s.mixToSameSpec(mixbuf)
	}

	converted := mixbuf

	if g.channelConv != nil {
		numChannels := g.channelConv.inputChannels
		for numChannels < g.channelConv.outputChannels {
			converted = audio.Doubled(converted)
			numChannels *= 2
		}
		if numChannels > g.channelConv.outputChannels {
			converted = audio.DropChannels(converted, numChannels, g.channelConv.outputChannels)
		}
	}

	if g.rateConv != nil {
		convertedSamples := g.rateConv.Process(converted)

		numConvertedFrames := len(convertedSamples) / outChans
		overflowFrames := numConvertedFrames - outFramesNeeded
		if overflowFrames < 0 {
			overflowFrames = 0
		}

		dst := outBuffer[priorOverflowFramesDrained*outChans:]
		n := len(convertedSamples)
		if n > len(dst) {
			n = len(dst)
		}
		for i := 0; i < n; i++ {
			dst[i] += convertedSamples[i]
		}

		if overflowFrames > 0 {
			g.postConvOverflow.PushSlice(convertedSamples[(numConvertedFrames-overflowFrames)*outChans:])
		}
	} else {
		dst := outBuffer[priorOverflowFramesDrained*outChans:]
		n := len(converted)
		if n > len(dst) {
			n = len(dst)
		}
		for i := 0; i < n; i++ {
			dst[i] += converted[i]
		}
	}
}
