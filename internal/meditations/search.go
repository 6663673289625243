package meditations

import (
	"unicode"

	"github.com/justestif/go-sleep-meditation/internal/db"
)

// Where a search result matched.
const (
	MatchedScript      = "script"
	MatchedAudioScript = "audio_script"
	MatchedType        = "type"
	MatchedFilter      = "filter"
	MatchedNone        = "none"
)

// snippetContext is the number of characters kept on each side of a match.
const snippetContext = 40

// MatchInfo explains why a session is in the search results.
type MatchInfo struct {
	MatchedIn string  `json:"matched_in"`
	Snippet   *string `json:"snippet"`
}

// SearchResult pairs a session with its match information.
type SearchResult struct {
	Session db.Meditation
	Match   MatchInfo
}

// matchInfo checks script, then narration script, then type.
func matchInfo(m *db.Meditation, query, sessionType string) MatchInfo {
	if query == "" {
		if sessionType != "" {
			return MatchInfo{MatchedIn: MatchedFilter}
		}
		return MatchInfo{MatchedIn: MatchedNone}
	}

	if snippet, ok := Snippet(m.Script, query); ok {
		return MatchInfo{MatchedIn: MatchedScript, Snippet: &snippet}
	}
	if m.AudioScript != nil {
		if snippet, ok := Snippet(*m.AudioScript, query); ok {
			return MatchInfo{MatchedIn: MatchedAudioScript, Snippet: &snippet}
		}
	}
	if indexFold([]rune(m.Type), []rune(query)) >= 0 {
		return MatchInfo{MatchedIn: MatchedType}
	}
	return MatchInfo{MatchedIn: MatchedNone}
}

// Snippet returns the first case-insensitive occurrence of query in text with
// up to 40 characters of context on each side, wrapped in ellipses.
func Snippet(text, query string) (string, bool) {
	if query == "" {
		return "", false
	}

	runes := []rune(text)
	q := []rune(query)

	i := indexFold(runes, q)
	if i < 0 {
		return "", false
	}

	start := max(0, i-snippetContext)
	end := min(len(runes), i+len(q)+snippetContext)
	return "..." + string(runes[start:end]) + "...", true
}

// indexFold returns the rune index of the first case-insensitive occurrence
// of sub in s, or -1.
func indexFold(s, sub []rune) int {
	if len(sub) == 0 {
		return 0
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		match := true
		for j, r := range sub {
			if unicode.ToLower(s[i+j]) != unicode.ToLower(r) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
