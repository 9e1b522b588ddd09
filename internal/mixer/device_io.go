package mixer

import (
	"encoding/binary"
	"math"
)

// float32ToBytes writes samples back into data as little-endian float32s,
// mirroring the teacher's playback write-callback encoding.
func float32ToBytes(samples []float32, data []byte) {
	for i, s := range samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(s))
	}
}
