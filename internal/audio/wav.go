package audio

import (
	"bytes"
	"encoding/binary"
	"time"
)

// PCM format returned by the speech model.
const (
	SampleRate    = 24000
	Channels      = 1
	BitsPerSample = 16

	bytesPerSample = BitsPerSample / 8
	wavHeaderSize  = 44
)

// EncodeWAV wraps raw little-endian PCM samples in a RIFF/WAVE container
// (mono, 16-bit, 24000 Hz). A trailing odd byte is dropped.
func EncodeWAV(pcm []byte) []byte {
	pcm = pcm[:len(pcm)-len(pcm)%bytesPerSample]

	dataSize := uint32(len(pcm))
	byteRate := uint32(SampleRate * Channels * bytesPerSample)
	blockAlign := uint16(Channels * bytesPerSample)

	var buf bytes.Buffer
	buf.Grow(wavHeaderSize + len(pcm))

	buf.WriteString("RIFF")
	writeLE(&buf, 36+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	writeLE(&buf, uint32(16)) // fmt chunk size
	writeLE(&buf, uint16(1))  // PCM
	writeLE(&buf, uint16(Channels))
	writeLE(&buf, uint32(SampleRate))
	writeLE(&buf, byteRate)
	writeLE(&buf, blockAlign)
	writeLE(&buf, uint16(BitsPerSample))

	buf.WriteString("data")
	writeLE(&buf, dataSize)
	buf.Write(pcm)

	return buf.Bytes()
}

// PCMDuration returns the exact playback length of raw PCM samples.
func PCMDuration(pcm []byte) time.Duration {
	samples := int64(len(pcm) / (bytesPerSample * Channels))
	return time.Duration(samples) * time.Second / SampleRate
}

// PCMSeconds returns the playback length of raw PCM samples in seconds.
func PCMSeconds(pcm []byte) float64 {
	samples := len(pcm) / (bytesPerSample * Channels)
	return float64(samples) / SampleRate
}

// writeLE cannot fail on a bytes.Buffer.
func writeLE(buf *bytes.Buffer, v any) {
	_ = binary.Write(buf, binary.LittleEndian, v)
}
