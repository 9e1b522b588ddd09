package audio

import "math"

// SincResampler performs windowed-sinc FIR resampling across all channels
// of an interleaved buffer. Used for QualityLow/Medium/High, with the tap
// count (and therefore the transition band and CPU cost) increasing with
// quality. Generalizes the teacher's fixed 64-tap downsampling-only filter
// into a symmetric converter usable for both up- and downsampling at any
// tap count.
type SincResampler struct {
	channels  int
	ratio     float64 // toRate / fromRate
	filterLen int
	filter    []float32
	history   [][]float32 // per-channel, filterLen samples of carried-over input
}

// NewSincResampler builds a windowed-sinc resampler with the given tap
// count. The filter cutoff sits at the lower of the two Nyquist
// frequencies, i.e. at the output Nyquist when downsampling, matching the
// teacher's anti-aliasing filter design.
func NewSincResampler(fromRate, toRate, channels, taps int) *SincResampler {
	ratio := float64(toRate) / float64(fromRate)

	cutoff := 0.5
	if ratio < 1.0 {
		cutoff = ratio * 0.5
	}

	filter := make([]float32, taps)
	for i := 0; i < taps; i++ {
		n := float64(i) - float64(taps-1)/2.0
		if n == 0 {
			filter[i] = float32(2.0 * cutoff)
		} else {
			sinc := math.Sin(2.0*math.Pi*cutoff*n) / (math.Pi * n)
			window := 0.54 - 0.46*math.Cos(2.0*math.Pi*float64(i)/float64(taps-1))
			filter[i] = float32(sinc * window)
		}
	}

	sum := float32(0.0)
	for _, f := range filter {
		sum += f
	}
	for i := range filter {
		filter[i] /= sum
	}

	history := make([][]float32, channels)
	for c := range history {
		history[c] = make([]float32, taps)
	}

	return &SincResampler{
		channels:  channels,
		ratio:     ratio,
		filterLen: taps,
		filter:    filter,
		history:   history,
	}
}

// Process implements RateConverter.
func (r *SincResampler) Process(input []float32) []float32 {
	if r.ratio == 1.0 {
		return input
	}

	frames := len(input) / r.channels
	if frames == 0 {
		return nil
	}

	outFrames := int(float64(frames) * r.ratio)
	output := make([]float32, outFrames*r.channels)

	histLen := r.filterLen
	combinedLen := histLen + frames
	combined := make([]float32, combinedLen)

	for c := 0; c < r.channels; c++ {
		copy(combined, r.history[c])
		for i := 0; i < frames; i++ {
			combined[histLen+i] = input[i*r.channels+c]
		}

		for i := 0; i < outFrames; i++ {
			srcPos := float64(i) / r.ratio
			srcIdx := int(srcPos) + histLen

			var sample float32
			for j := 0; j < r.filterLen; j++ {
				idx := srcIdx - r.filterLen/2 + j
				if idx >= 0 && idx < len(combined) {
					sample += combined[idx] * r.filter[j]
				}
			}
			output[i*r.channels+c] = sample
		}

		if frames >= histLen {
			for i := 0; i < histLen; i++ {
				r.history[c][i] = input[(frames-histLen+i)*r.channels+c]
			}
		} else {
			shift := histLen - frames
			copy(r.history[c], r.history[c][frames:])
			for i := 0; i < frames; i++ {
				r.history[c][shift+i] = input[i*r.channels+c]
			}
		}
	}

	return output
}
