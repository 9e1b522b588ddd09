package wavfile

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildWav assembles a minimal RIFF/WAVE byte stream with one fmt chunk
// and one data chunk, for decoder tests.
func buildWav(t *testing.T, formatTag, channels uint16, samplerate uint32, bitsPerSample uint16, data []byte) []byte {
	t.Helper()

	var fmtBody bytes.Buffer
	byteRate := samplerate * uint32(channels) * uint32(bitsPerSample) / 8
	blockAlign := channels * bitsPerSample / 8

	binary.Write(&fmtBody, binary.LittleEndian, formatTag)
	binary.Write(&fmtBody, binary.LittleEndian, channels)
	binary.Write(&fmtBody, binary.LittleEndian, samplerate)
	binary.Write(&fmtBody, binary.LittleEndian, byteRate)
	binary.Write(&fmtBody, binary.LittleEndian, blockAlign)
	binary.Write(&fmtBody, binary.LittleEndian, bitsPerSample)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	var riffSize uint32
	binary.Write(&buf, binary.LittleEndian, riffSize) // placeholder, unused by decoder
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(fmtBody.Len()))
	buf.Write(fmtBody.Bytes())

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	return buf.Bytes()
}

func TestDecode16BitPCMStereo(t *testing.T) {
	var pcm bytes.Buffer
	samples := []int16{100, -100, 32767, -32768}
	for _, s := range samples {
		binary.Write(&pcm, binary.LittleEndian, s)
	}

	raw := buildWav(t, formatTagPCM, 2, 44100, 16, pcm.Bytes())

	dec, err := Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, uint32(44100), dec.Spec().Samplerate.Get())
	assert.Equal(t, uint8(2), dec.Spec().Channels.Get())

	out, err := dec.Decode()
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.InDelta(t, 100.0/32768.0, out[0], 0.0001)
	assert.InDelta(t, -100.0/32768.0, out[1], 0.0001)
	assert.InDelta(t, 1.0, out[2], 0.0001)
	assert.InDelta(t, -1.0, out[3], 0.0001)

	_, err = dec.Decode()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecode32BitFloatMono(t *testing.T) {
	var pcm bytes.Buffer
	samples := []float32{0.5, -0.5, 0.0}
	for _, s := range samples {
		binary.Write(&pcm, binary.LittleEndian, s)
	}

	raw := buildWav(t, formatTagFloat, 1, 16000, 32, pcm.Bytes())

	dec, err := Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, uint32(16000), dec.Spec().Samplerate.Get())
	assert.Equal(t, uint8(1), dec.Spec().Channels.Get())

	out, err := dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, samples, out)
}

func TestDecodeRejectsUnsupportedFormat(t *testing.T) {
	raw := buildWav(t, 6 /* a-law, unsupported */, 1, 8000, 8, []byte{0, 1, 2})
	_, err := Decode(bytes.NewReader(raw))
	assert.Error(t, err)
}

func TestDecodeRejectsMissingDataChunk(t *testing.T) {
	var fmtBody bytes.Buffer
	binary.Write(&fmtBody, binary.LittleEndian, uint16(formatTagPCM))
	binary.Write(&fmtBody, binary.LittleEndian, uint16(1))
	binary.Write(&fmtBody, binary.LittleEndian, uint32(44100))
	binary.Write(&fmtBody, binary.LittleEndian, uint32(88200))
	binary.Write(&fmtBody, binary.LittleEndian, uint16(2))
	binary.Write(&fmtBody, binary.LittleEndian, uint16(16))

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(fmtBody.Len()))
	buf.Write(fmtBody.Bytes())

	_, err := Decode(bytes.NewReader(buf.Bytes()))
	assert.Error(t, err)
}
