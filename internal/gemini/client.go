// Package gemini wraps the Google Gen AI SDK for text, structured JSON and
// speech generation.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("missing GOOGLE_API_KEY environment variable")

	// ErrEmptyResponse is returned when the model returns no usable content.
	ErrEmptyResponse = errors.New("empty response from Gemini")
)

// Config holds client settings.
type Config struct {
	APIKey    string
	TextModel string
	TTSModel  string

	// BaseURL overrides the API endpoint. Empty means the SDK default.
	BaseURL string
}

// Client is a Gemini API client. Construct it once and share it.
type Client struct {
	genai     *genai.Client
	textModel string
	ttsModel  string
}

// New creates a client. Returns ErrMissingAPIKey if cfg.APIKey is empty.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Client{
		genai:     client,
		textModel: cfg.TextModel,
		ttsModel:  cfg.TTSModel,
	}, nil
}

// GenerateText sends a single prompt and returns the concatenated text parts.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.genai.Models.GenerateContent(ctx, c.textModel, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generating text: %w", err)
	}
	return responseText(resp)
}

// GenerateJSON asks the model for a JSON document matching schema and returns
// the raw JSON text. Callers are responsible for strict decoding.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.textModel, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generating json: %w", err)
	}
	return responseText(resp)
}

// SynthesizeSpeech requests audio for prompt using a prebuilt voice and
// returns the raw PCM bytes (mono, 16-bit little-endian, 24 kHz).
// Returns ErrEmptyResponse if the response carries no audio.
func (c *Client) SynthesizeSpeech(ctx context.Context, prompt, voice string) ([]byte, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: voice,
				},
			},
		},
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.ttsModel, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("synthesizing speech: %w", err)
	}
	return responseAudio(resp)
}

// responseText joins the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	parts := firstCandidateParts(resp)

	var sb strings.Builder
	for _, part := range parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// responseAudio collects inline data from the first candidate.
func responseAudio(resp *genai.GenerateContentResponse) ([]byte, error) {
	var audio []byte
	for _, part := range firstCandidateParts(resp) {
		if part != nil && part.InlineData != nil {
			audio = append(audio, part.InlineData.Data...)
		}
	}

	if len(audio) == 0 {
		return nil, ErrEmptyResponse
	}
	return audio, nil
}

func firstCandidateParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return nil
	}
	return candidate.Content.Parts
}
