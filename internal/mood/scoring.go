// Package mood scores mood labels and suggests sessions from freeform mood text.
package mood

// DefaultSeverity is the score for labels missing from the table.
const DefaultSeverity = 5

// severities maps a mood label to its emotional intensity (1 calm .. 9 acute).
// Lookup is exact; labels are the ones offered by the client.
var severities = map[string]int{
	"Very anxious":      9,
	"Overwhelmed":       9,
	"Anxious":           8,
	"Very stressed":     8,
	"Stressed":          7,
	"Restless":          7,
	"Sad":               7,
	"Irritable":         6,
	"Frustrated":        6,
	"Tired":             5,
	"Numb":              5,
	"Neutral":           5,
	"Slightly stressed": 4,
	"Sleepy":            4,
	"Hopeful":           3,
	"Okay":              3,
	"Calm":              2,
	"Refreshed":         2,
	"Centered":          2,
	"Grateful":          2,
	"Peaceful":          1,
	"Relaxed":           1,
}

// Severity returns the severity score for a mood label.
// Unknown labels score DefaultSeverity.
func Severity(label string) int {
	if score, ok := severities[label]; ok {
		return score
	}
	return DefaultSeverity
}

// ImprovementScore returns Severity(before) - Severity(after).
// Positive values mean the user feels better after the session.
func ImprovementScore(before, after string) int {
	return Severity(before) - Severity(after)
}
