package mood

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/justestif/go-sleep-meditation/internal/gemini"
)

// JSONGenerator produces JSON text constrained by a response schema.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// Suggestion is a structured session recommendation derived from mood text.
type Suggestion struct {
	SuggestedType       string `json:"suggested_type"`
	SuggestedDuration   int    `json:"suggested_duration"`
	SuggestedTone       string `json:"suggested_tone"`
	SuggestedFocusAreas string `json:"suggested_focus_areas"`
}

// FallbackSuggestion is returned whenever the model cannot produce a valid suggestion.
var FallbackSuggestion = Suggestion{
	SuggestedType:       "Stress Relief",
	SuggestedDuration:   10,
	SuggestedTone:       "Calm",
	SuggestedFocusAreas: "General relaxation",
}

// allowedDurations are the session lengths the classifier may suggest, in minutes.
var allowedDurations = map[int]bool{5: true, 10: true, 15: true}

var suggestionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"suggested_type":        {Type: genai.TypeString},
		"suggested_duration":    {Type: genai.TypeInteger},
		"suggested_tone":        {Type: genai.TypeString},
		"suggested_focus_areas": {Type: genai.TypeString},
	},
	Required:         []string{"suggested_type", "suggested_duration", "suggested_tone", "suggested_focus_areas"},
	PropertyOrdering: []string{"suggested_type", "suggested_duration", "suggested_tone", "suggested_focus_areas"},
}

const suggestPrompt = `You are a meditation guide. A user describes how they feel right now:

"%s"

Recommend one meditation session for them. Respond with JSON only, using exactly these fields:
{
  "suggested_type": one of "Stress Relief", "Deep Sleep", "Better Focus", "Anxiety Relief", "Body Scan",
  "suggested_duration": 5, 10 or 15,
  "suggested_tone": a short voice tone such as "Calm", "Gentle", "Soothing" or "Grounding",
  "suggested_focus_areas": a short comma separated list of concrete techniques
}

Rules for suggested_focus_areas:
- Do NOT copy or paraphrase the user's words.
- Infer concrete, actionable techniques (for example "4-7-8 breathing, progressive muscle relaxation, body scan").`

// Classifier maps freeform mood text to a Suggestion with one model call.
type Classifier struct {
	gen    JSONGenerator
	logger *slog.Logger
}

// NewClassifier creates a Classifier.
func NewClassifier(gen JSONGenerator, logger *slog.Logger) *Classifier {
	return &Classifier{gen: gen, logger: logger}
}

// Suggest returns a session suggestion for moodText.
// Any failure yields FallbackSuggestion; Suggest never returns an error.
func (c *Classifier) Suggest(ctx context.Context, moodText string) Suggestion {
	prompt := fmt.Sprintf(suggestPrompt, strings.TrimSpace(moodText))

	raw, err := c.gen.GenerateJSON(ctx, prompt, suggestionSchema)
	if err != nil {
		c.logger.WarnContext(ctx, "mood suggestion failed, using fallback", "error", err)
		return FallbackSuggestion
	}

	s, err := parseSuggestion(raw)
	if err != nil {
		c.logger.WarnContext(ctx, "mood suggestion malformed, using fallback", "error", err)
		return FallbackSuggestion
	}

	return s
}

// parseSuggestion strictly decodes and validates model output.
func parseSuggestion(raw string) (Suggestion, error) {
	var s Suggestion
	if err := gemini.DecodeJSON(raw, &s); err != nil {
		return Suggestion{}, err
	}

	s.SuggestedType = strings.TrimSpace(s.SuggestedType)
	s.SuggestedTone = strings.TrimSpace(s.SuggestedTone)
	s.SuggestedFocusAreas = strings.TrimSpace(s.SuggestedFocusAreas)

	switch {
	case s.SuggestedType == "":
		return Suggestion{}, &gemini.MalformedOutputError{Reason: "missing suggested_type"}
	case s.SuggestedTone == "":
		return Suggestion{}, &gemini.MalformedOutputError{Reason: "missing suggested_tone"}
	case s.SuggestedFocusAreas == "":
		return Suggestion{}, &gemini.MalformedOutputError{Reason: "missing suggested_focus_areas"}
	case !allowedDurations[s.SuggestedDuration]:
		return Suggestion{}, &gemini.MalformedOutputError{
			Reason: fmt.Sprintf("suggested_duration %d not in {5,10,15}", s.SuggestedDuration),
		}
	}

	return s, nil
}
