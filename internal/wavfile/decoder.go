// Package wavfile implements a minimal decoder for uncompressed PCM and
// IEEE-float WAV files, sufficient to exercise the mixer.Decoder and
// drumseq.DrumkitSampleLoader contracts without pulling in a codec
// library the rest of the module has no other use for.
package wavfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/agalue/audiothread-go/internal/audio"
)

const (
	formatTagPCM   = 1
	formatTagFloat = 3
)

// fmtChunk holds the fields of a WAV "fmt " chunk this decoder supports.
type fmtChunk struct {
	formatTag     uint16
	channels      uint16
	samplerate    uint32
	bitsPerSample uint16
}

// Decoder implements mixer.Decoder over an entire WAV file's sample data
// decoded into memory up front. WAV files used as drum hits and short
// sequencer samples are small enough that streaming decode buys nothing;
// Decode simply hands out the whole buffer as a single packet and
// returns io.EOF on every call after that.
type Decoder struct {
	spec     audio.AudioSpec
	samples  []float32
	consumed bool
}

// Spec implements mixer.Decoder.
func (d *Decoder) Spec() audio.AudioSpec { return d.spec }

// Decode implements mixer.Decoder: it returns the file's entire decoded
// sample buffer once, then io.EOF on every subsequent call.
func (d *Decoder) Decode() ([]float32, error) {
	if d.consumed {
		return nil, io.EOF
	}
	d.consumed = true
	return d.samples, nil
}

// Load reads and fully decodes a WAV file at path.
func Load(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wavfile: opening %q: %w", path, err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads and fully decodes a WAV stream from r.
func Decode(r io.Reader) (*Decoder, error) {
	meta, samples, err := decodeAll(r)
	if err != nil {
		return nil, err
	}

	spec, err := audio.NewAudioSpec(meta.samplerate, uint8(meta.channels))
	if err != nil {
		return nil, fmt.Errorf("wavfile: invalid audio spec: %w", err)
	}

	return &Decoder{spec: spec, samples: samples}, nil
}

// decodeAll walks the RIFF/WAVE chunk structure, validates the "fmt "
// chunk, and converts the "data" chunk's samples to interleaved float32
// regardless of the file's native sample format.
func decodeAll(r io.Reader) (fmtChunk, []float32, error) {
	var riffHeader [12]byte
	if _, err := io.ReadFull(r, riffHeader[:]); err != nil {
		return fmtChunk{}, nil, fmt.Errorf("wavfile: reading RIFF header: %w", err)
	}
	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return fmtChunk{}, nil, fmt.Errorf("wavfile: not a RIFF/WAVE file")
	}

	var meta fmtChunk
	var haveFmt bool
	var samples []float32

	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(r, chunkHeader[:]); err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				break
			}
			return fmtChunk{}, nil, fmt.Errorf("wavfile: reading chunk header: %w", err)
		}

		chunkID := string(chunkHeader[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		body := make([]byte, chunkSize)
		if _, err := io.ReadFull(r, body); err != nil {
			return fmtChunk{}, nil, fmt.Errorf("wavfile: reading %q chunk body: %w", chunkID, err)
		}
		if chunkSize%2 == 1 {
			// chunks are word-aligned; skip the pad byte
			var pad [1]byte
			_, _ = io.ReadFull(r, pad[:])
		}

		switch chunkID {
		case "fmt ":
			var err error
			meta, err = parseFmtChunk(body)
			if err != nil {
				return fmtChunk{}, nil, err
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return fmtChunk{}, nil, fmt.Errorf("wavfile: data chunk before fmt chunk")
			}
			var err error
			samples, err = decodeSamples(body, meta)
			if err != nil {
				return fmtChunk{}, nil, err
			}
		}
	}

	if !haveFmt {
		return fmtChunk{}, nil, fmt.Errorf("wavfile: missing fmt chunk")
	}
	if samples == nil {
		return fmtChunk{}, nil, fmt.Errorf("wavfile: missing data chunk")
	}

	return meta, samples, nil
}

func parseFmtChunk(body []byte) (fmtChunk, error) {
	if len(body) < 16 {
		return fmtChunk{}, fmt.Errorf("wavfile: fmt chunk too short (%d bytes)", len(body))
	}

	meta := fmtChunk{
		formatTag:     binary.LittleEndian.Uint16(body[0:2]),
		channels:      binary.LittleEndian.Uint16(body[2:4]),
		samplerate:    binary.LittleEndian.Uint32(body[4:8]),
		bitsPerSample: binary.LittleEndian.Uint16(body[14:16]),
	}

	if meta.formatTag != formatTagPCM && meta.formatTag != formatTagFloat {
		return fmtChunk{}, fmt.Errorf("wavfile: unsupported format tag %d (only PCM and IEEE float are supported)", meta.formatTag)
	}
	if meta.channels == 0 {
		return fmtChunk{}, fmt.Errorf("wavfile: fmt chunk declares zero channels")
	}

	return meta, nil
}

func decodeSamples(data []byte, meta fmtChunk) ([]float32, error) {
	bytesPerSample := int(meta.bitsPerSample) / 8
	if bytesPerSample == 0 {
		return nil, fmt.Errorf("wavfile: invalid bits-per-sample %d", meta.bitsPerSample)
	}

	numSamples := len(data) / bytesPerSample
	out := make([]float32, numSamples)

	switch {
	case meta.formatTag == formatTagFloat && meta.bitsPerSample == 32:
		for i := range out {
			bits := binary.LittleEndian.Uint32(data[i*4:])
			out[i] = math.Float32frombits(bits)
		}

	case meta.formatTag == formatTagPCM && meta.bitsPerSample == 16:
		for i := range out {
			v := int16(binary.LittleEndian.Uint16(data[i*2:]))
			out[i] = float32(v) / 32768.0
		}

	case meta.formatTag == formatTagPCM && meta.bitsPerSample == 24:
		for i := range out {
			b := data[i*3 : i*3+3]
			v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			if v&0x800000 != 0 {
				v |= ^0xFFFFFF // sign-extend
			}
			out[i] = float32(v) / 8388608.0
		}

	case meta.formatTag == formatTagPCM && meta.bitsPerSample == 32:
		for i := range out {
			v := int32(binary.LittleEndian.Uint32(data[i*4:]))
			out[i] = float32(v) / 2147483648.0
		}

	case meta.formatTag == formatTagPCM && meta.bitsPerSample == 8:
		for i := range out {
			// 8-bit PCM is unsigned, centered at 128.
			out[i] = (float32(data[i]) - 128.0) / 128.0
		}

	default:
		return nil, fmt.Errorf("wavfile: unsupported sample format (tag=%d, bits=%d)", meta.formatTag, meta.bitsPerSample)
	}

	return out, nil
}
