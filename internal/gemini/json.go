package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MalformedOutputError is returned when model output does not decode into the
// expected structure.
type MalformedOutputError struct {
	Reason string
	Err    error
}

func (e *MalformedOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model output: %s: %v", e.Reason, e.Err)
	}
	return "malformed model output: " + e.Reason
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}

// DecodeJSON strictly decodes a single JSON object from model output into v.
// Markdown code fences around the object are tolerated; unknown fields and
// trailing content are not.
func DecodeJSON(raw string, v any) error {
	body := stripCodeFence(raw)
	if body == "" {
		return &MalformedOutputError{Reason: "empty output"}
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &MalformedOutputError{Reason: "decoding json", Err: err}
	}

	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return &MalformedOutputError{Reason: "trailing content after json object"}
	}

	return nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// drop the language tag line
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
