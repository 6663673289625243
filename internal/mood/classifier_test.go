package mood

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/justestif/go-sleep-meditation/internal/logging"
)

type fakeJSONGenerator struct {
	out    string
	err    error
	prompt string
	schema *genai.Schema
}

func (f *fakeJSONGenerator) GenerateJSON(_ context.Context, prompt string, schema *genai.Schema) (string, error) {
	f.prompt = prompt
	f.schema = schema
	return f.out, f.err
}

func TestClassifier_Suggest(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
		want Suggestion
	}{
		{
			name: "valid suggestion",
			out:  `{"suggested_type":"Deep Sleep","suggested_duration":15,"suggested_tone":"Gentle","suggested_focus_areas":"4-7-8 breathing, body scan"}`,
			want: Suggestion{
				SuggestedType:       "Deep Sleep",
				SuggestedDuration:   15,
				SuggestedTone:       "Gentle",
				SuggestedFocusAreas: "4-7-8 breathing, body scan",
			},
		},
		{
			name: "fenced output",
			out:  "```json\n{\"suggested_type\":\"Better Focus\",\"suggested_duration\":5,\"suggested_tone\":\"Clear\",\"suggested_focus_areas\":\"breath counting\"}\n```",
			want: Suggestion{
				SuggestedType:       "Better Focus",
				SuggestedDuration:   5,
				SuggestedTone:       "Clear",
				SuggestedFocusAreas: "breath counting",
			},
		},
		{
			name: "provider error",
			err:  errors.New("quota exceeded"),
			want: FallbackSuggestion,
		},
		{
			name: "not json",
			out:  "You should relax.",
			want: FallbackSuggestion,
		},
		{
			name: "duration out of range",
			out:  `{"suggested_type":"Deep Sleep","suggested_duration":20,"suggested_tone":"Gentle","suggested_focus_areas":"body scan"}`,
			want: FallbackSuggestion,
		},
		{
			name: "missing field",
			out:  `{"suggested_type":"Deep Sleep","suggested_duration":10,"suggested_tone":"Gentle"}`,
			want: FallbackSuggestion,
		},
		{
			name: "unknown field",
			out:  `{"suggested_type":"Deep Sleep","suggested_duration":10,"suggested_tone":"Gentle","suggested_focus_areas":"scan","mood":"sad"}`,
			want: FallbackSuggestion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeJSONGenerator{out: tt.out, err: tt.err}
			c := NewClassifier(gen, logging.Discard())

			got := c.Suggest(context.Background(), "  I can't stop thinking about work  ")
			if got != tt.want {
				t.Errorf("Suggest() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClassifier_PromptAndSchema(t *testing.T) {
	gen := &fakeJSONGenerator{err: errors.New("skip")}
	c := NewClassifier(gen, logging.Discard())

	c.Suggest(context.Background(), "racing thoughts at night")

	if !strings.Contains(gen.prompt, `"racing thoughts at night"`) {
		t.Errorf("prompt does not embed mood text: %q", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "Do NOT copy") {
		t.Error("prompt is missing the no-copy instruction")
	}
	if gen.schema == nil || len(gen.schema.Required) != 4 {
		t.Fatalf("schema = %+v, want 4 required fields", gen.schema)
	}
}
