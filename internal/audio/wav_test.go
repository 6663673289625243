package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
)

func TestEncodeWAV_Header(t *testing.T) {
	pcm := make([]byte, 48000) // one second
	for i := range pcm {
		pcm[i] = byte(i)
	}

	wav := EncodeWAV(pcm)

	if len(wav) != wavHeaderSize+len(pcm) {
		t.Fatalf("len(wav) = %d, want %d", len(wav), wavHeaderSize+len(pcm))
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"riff", string(wav[0:4]), "RIFF"},
		{"riff size", binary.LittleEndian.Uint32(wav[4:8]), uint32(36 + len(pcm))},
		{"wave", string(wav[8:12]), "WAVE"},
		{"fmt", string(wav[12:16]), "fmt "},
		{"fmt size", binary.LittleEndian.Uint32(wav[16:20]), uint32(16)},
		{"audio format", binary.LittleEndian.Uint16(wav[20:22]), uint16(1)},
		{"channels", binary.LittleEndian.Uint16(wav[22:24]), uint16(1)},
		{"sample rate", binary.LittleEndian.Uint32(wav[24:28]), uint32(24000)},
		{"byte rate", binary.LittleEndian.Uint32(wav[28:32]), uint32(48000)},
		{"block align", binary.LittleEndian.Uint16(wav[32:34]), uint16(2)},
		{"bits per sample", binary.LittleEndian.Uint16(wav[34:36]), uint16(16)},
		{"data", string(wav[36:40]), "data"},
		{"data size", binary.LittleEndian.Uint32(wav[40:44]), uint32(len(pcm))},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	if !bytes.Equal(wav[wavHeaderSize:], pcm) {
		t.Error("payload does not match input PCM")
	}
}

func TestEncodeWAV_DropsOddByte(t *testing.T) {
	wav := EncodeWAV([]byte{1, 2, 3})
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != 2 {
		t.Errorf("data size = %d, want 2", got)
	}
}

func TestPCMDuration(t *testing.T) {
	tests := []struct {
		name  string
		bytes int
		want  time.Duration
		secs  float64
	}{
		{"empty", 0, 0, 0},
		{"one second", 48000, time.Second, 1},
		{"half second", 24000, 500 * time.Millisecond, 0.5},
		{"ten minutes", 48000 * 600, 10 * time.Minute, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pcm := make([]byte, tt.bytes)
			if got := PCMDuration(pcm); got != tt.want {
				t.Errorf("PCMDuration() = %v, want %v", got, tt.want)
			}
			if got := PCMSeconds(pcm); got != tt.secs {
				t.Errorf("PCMSeconds() = %v, want %v", got, tt.secs)
			}
		})
	}
}
