package audio

// LenFrames returns the number of frames an interleaved buffer holds
// under the given spec.
func LenFrames(buf []float32, spec AudioSpec) NumFrames {
	return NumFrames(len(buf) / int(spec.Channels.Get()))
}

// SliceFrames returns the sub-slice of buf spanning frames [from, to).
// A negative to means "to the end".
func SliceFrames(buf []float32, spec AudioSpec, from, to int) []float32 {
	chans := int(spec.Channels.Get())
	end := len(buf)
	if to >= 0 {
		end = to * chans
	}
	return buf[from*chans : end]
}

// Doubled duplicates every sample in an interleaved buffer, turning an
// N-channel frame into a 2N-channel frame by repeating each channel's
// value once. Applying it repeatedly doubles the channel count each time.
func Doubled(buf []float32) []float32 {
	out := make([]float32, len(buf)*2)
	for i, v := range buf {
		out[2*i] = v
		out[2*i+1] = v
	}
	return out
}

// DropChannels truncates an interleaved buffer from "from" channels per
// frame down to "to" channels per frame, keeping the first "to" channels
// of each frame and discarding the rest. Requires from > to.
func DropChannels(buf []float32, from, to int) []float32 {
	if from <= to {
		panic("audio: DropChannels requires from > to")
	}
	out := make([]float32, 0, (len(buf)/from)*to)
	for i, v := range buf {
		if i%from < to {
			out = append(out, v)
		}
	}
	return out
}
