// Package script builds meditation prompts and decodes the generated scripts.
package script

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"google.golang.org/genai"

	"github.com/justestif/go-sleep-meditation/internal/gemini"
)

const (
	// WordsPerMinute is the narration pace used to size the script.
	WordsPerMinute = 130

	// DefaultPreferences is used when the request has no preferences.
	DefaultPreferences = "General relaxation"
)

// JSONGenerator produces JSON text constrained by a response schema.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// Request holds the parameters of a meditation script.
type Request struct {
	Type             string
	Duration         int // minutes
	Preferences      string
	Tone             string
	HealthConditions []string
	MoodBefore       string
}

// Script is a generated meditation in its two renderings.
type Script struct {
	Title        string `json:"title"`
	VisualScript string `json:"visual_script"`
	AudioScript  string `json:"audio_script"`
}

var scriptSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":         {Type: genai.TypeString},
		"visual_script": {Type: genai.TypeString},
		"audio_script":  {Type: genai.TypeString},
	},
	Required:         []string{"title", "visual_script", "audio_script"},
	PropertyOrdering: []string{"title", "visual_script", "audio_script"},
}

// Generator produces meditation scripts with one model call per request.
type Generator struct {
	gen JSONGenerator
}

// NewGenerator creates a Generator.
func NewGenerator(gen JSONGenerator) *Generator {
	return &Generator{gen: gen}
}

// Generate builds the prompt for req and returns the decoded script.
// Provider errors are wrapped; undecodable output yields *gemini.MalformedOutputError.
func (g *Generator) Generate(ctx context.Context, req Request) (*Script, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, err
	}

	raw, err := g.gen.GenerateJSON(ctx, prompt, scriptSchema)
	if err != nil {
		return nil, fmt.Errorf("generating meditation script: %w", err)
	}

	return Parse(raw)
}

// Parse strictly decodes model output into a Script. All three fields must be present.
func Parse(raw string) (*Script, error) {
	var s Script
	if err := gemini.DecodeJSON(raw, &s); err != nil {
		return nil, err
	}

	s.Title = strings.TrimSpace(s.Title)
	s.VisualScript = strings.TrimSpace(s.VisualScript)
	s.AudioScript = strings.TrimSpace(s.AudioScript)

	switch {
	case s.Title == "":
		return nil, &gemini.MalformedOutputError{Reason: "missing title"}
	case s.VisualScript == "":
		return nil, &gemini.MalformedOutputError{Reason: "missing visual_script"}
	case s.AudioScript == "":
		return nil, &gemini.MalformedOutputError{Reason: "missing audio_script"}
	}

	return &s, nil
}

// TargetWords returns the approximate word count for a session of duration minutes.
func TargetWords(duration int) int {
	return duration * WordsPerMinute
}

type promptData struct {
	Type        string
	Duration    int
	Preferences string
	Tone        string
	MoodBefore  string
	Conditions  string
	TargetWords int
	Guardrails  []string
}

var promptTemplate = template.Must(template.New("meditation").Parse(`You are an expert meditation instructor. Create a personalized sleep meditation script based on the following details:

Meditation Type: {{.Type}}
Duration: {{.Duration}} minutes
User Preferences/Focus Areas: {{.Preferences}}
Voice Tone/Style: {{.Tone}}
{{- if .Conditions}}
Health Considerations: {{.Conditions}}
{{- end}}
{{- if .MoodBefore}}
Current Mood: {{.MoodBefore}} (acknowledge this feeling gently at the start and guide the user toward calm)
{{- end}}

Length:
- The spoken narration must be approximately {{.TargetWords}} words so that it fills about {{.Duration}} minutes at a slow, {{.Tone}} pace.
- Do not stop early and do not pad with repetition; pauses count toward the time, words do not.

Structure:
- **Introduction** (settling in)
- **Body** (the core meditation practice, focused deeply on: {{.Preferences}})
- **Conclusion** (gently waking or drifting to sleep)

Safety guidelines:
{{- range .Guardrails}}
- {{.}}
{{- end}}

Output format:
Return strict JSON with exactly three string fields and nothing else:
{
  "title": a short, calming title for this session,
  "visual_script": the script for reading on screen. Use double asterisks (**) to bold the section headers (**Introduction**, **Body**, **Conclusion**) and key affirmations, and include pause cues such as [PAUSE 5s] or [LONG PAUSE] where appropriate,
  "audio_script": the same meditation for narration. Plain spoken words only: no markdown, no asterisks, no headers, no bracketed cues, no stage directions
}`))

// generalGuardrails are included in every prompt.
var generalGuardrails = []string{
	"Do not make medical claims or promise to cure or treat any condition.",
	"Do not give unsafe breathing instructions: no long breath holds, no rapid or forced breathing, no hyperventilation.",
	"Do not suggest intense physical techniques (deep stretches, strong muscle tension) that could aggravate chronic pain.",
}

// conditionGuardrails are appended when the matching health label is present.
var conditionGuardrails = []struct {
	label string
	rule  string
}{
	{"insomnia", "Insomnia: keep the pacing slow and non-stimulating; avoid energizing imagery and never ask the user to wake up or get up at the end."},
	{"anxiety", "Anxiety: use grounding techniques (senses, contact with the surface, steady breath) and avoid overwhelming or vast metaphors."},
	{"depression", "Depression: be warm and validating; avoid toxic positivity and never tell the user to simply cheer up."},
	{"burnout", "Burnout: frame rest as worthwhile on its own; avoid productivity framing such as recharging to work harder."},
}

// Guardrails returns the safety rules for the given health conditions.
// Matching is case-insensitive.
func Guardrails(conditions []string) []string {
	rules := append([]string(nil), generalGuardrails...)

	present := make(map[string]bool, len(conditions))
	for _, c := range conditions {
		present[strings.ToLower(strings.TrimSpace(c))] = true
	}

	for _, cg := range conditionGuardrails {
		if present[cg.label] {
			rules = append(rules, cg.rule)
		}
	}
	return rules
}

// BuildPrompt renders the generation prompt for req.
func BuildPrompt(req Request) (string, error) {
	preferences := strings.TrimSpace(req.Preferences)
	if preferences == "" {
		preferences = DefaultPreferences
	}

	tone := strings.TrimSpace(req.Tone)
	if tone == "" {
		tone = "calm"
	}

	var conditions []string
	for _, c := range req.HealthConditions {
		if c = strings.TrimSpace(c); c != "" {
			conditions = append(conditions, c)
		}
	}

	data := promptData{
		Type:        req.Type,
		Duration:    req.Duration,
		Preferences: preferences,
		Tone:        tone,
		MoodBefore:  strings.TrimSpace(req.MoodBefore),
		Conditions:  strings.Join(conditions, ", "),
		TargetWords: TargetWords(req.Duration),
		Guardrails:  Guardrails(conditions),
	}

	var sb strings.Builder
	if err := promptTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return sb.String(), nil
}
