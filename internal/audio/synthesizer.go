package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"
)

// DefaultTone is used when a session has no tone.
const DefaultTone = "calm"

// ErrEmptyAudio is returned when the speech model produced no samples.
var ErrEmptyAudio = errors.New("no audio data received from speech model")

// SpeechGenerator returns raw PCM (mono, 16-bit little-endian, 24 kHz) for prompt.
type SpeechGenerator interface {
	SynthesizeSpeech(ctx context.Context, prompt, voice string) ([]byte, error)
}

// Result describes a stored narration.
type Result struct {
	URL     string
	Voice   string
	Seconds float64
}

// Minutes returns the narration length rounded to whole minutes, at least 1.
func (r *Result) Minutes() int {
	return DurationMinutes(r.Seconds)
}

// DurationMinutes rounds seconds to whole minutes with a floor of 1.
func DurationMinutes(seconds float64) int {
	return max(1, int(math.Round(seconds/60)))
}

// Synthesizer narrates text with a single speech request and stores the WAV.
type Synthesizer struct {
	speech SpeechGenerator
	store  AssetStore
	logger *slog.Logger
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(speech SpeechGenerator, store AssetStore, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{speech: speech, store: store, logger: logger}
}

// Synthesize narrates text in the voice for (tone, gender) and stores it as
// <uuid>.wav. Nothing is stored when the model returns no audio.
func (s *Synthesizer) Synthesize(ctx context.Context, text, tone, gender string) (*Result, error) {
	if strings.TrimSpace(tone) == "" {
		tone = DefaultTone
	}
	voice := SelectVoice(tone, gender)

	s.logger.InfoContext(ctx, "synthesizing narration",
		"chars", len(text),
		"tone", tone,
		"gender", NormalizeGender(gender),
		"voice", voice,
	)

	pcm, err := s.speech.SynthesizeSpeech(ctx, speechPrompt(text, tone), voice)
	if err != nil {
		return nil, fmt.Errorf("audio generation failed: %w", err)
	}
	if len(pcm) < bytesPerSample {
		return nil, ErrEmptyAudio
	}

	name := uuid.New().String() + ".wav"
	url, err := s.store.Put(ctx, name, EncodeWAV(pcm))
	if err != nil {
		return nil, fmt.Errorf("storing audio: %w", err)
	}
	s.logger.InfoContext(ctx, "narration stored", "url", url, "length", PCMDuration(pcm))

	return &Result{
		URL:     url,
		Voice:   voice,
		Seconds: PCMSeconds(pcm),
	}, nil
}

func speechPrompt(text, tone string) string {
	return fmt.Sprintf("Please read the following text aloud with a %s tone: \"%s\"", tone, text)
}
