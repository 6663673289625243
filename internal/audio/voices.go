// Package audio turns narration scripts into stored, playable speech.
package audio

import "strings"

// Gender labels accepted for voice selection.
const (
	GenderFemale = "female"
	GenderMale   = "male"
)

// Prebuilt Gemini voice identities.
const (
	VoiceKore   = "Kore"   // female, calm
	VoiceAoede  = "Aoede"  // female, gentle
	VoiceCharon = "Charon" // male, deep
	VoicePuck   = "Puck"   // male, clear
	VoiceFenrir = "Fenrir" // male, steady
)

type voiceKey struct {
	tone   string
	gender string
}

// voices maps (tone, gender) to a voice identity. Keep in sync with the
// tone options offered by the client.
var voices = map[voiceKey]string{
	{"calm-soothing", GenderFemale}:   VoiceKore,
	{"clear-steady", GenderFemale}:    VoiceKore,
	{"relaxed-tone", GenderFemale}:    VoiceAoede,
	{"gentle-peaceful", GenderFemale}: VoiceAoede,

	{"calm-soothing", GenderMale}:   VoiceCharon,
	{"clear-steady", GenderMale}:    VoicePuck,
	{"relaxed-tone", GenderMale}:    VoiceFenrir,
	{"gentle-peaceful", GenderMale}: VoiceCharon,

	{"calm", GenderFemale}: VoiceKore,
	{"calm", GenderMale}:   VoiceCharon,
}

// SelectVoice returns the voice for a tone and gender.
// Tone must match exactly; gender is case-insensitive. Pairs missing from the
// table fall back by gender alone: female gets Kore, anything else Charon.
func SelectVoice(tone, gender string) string {
	gender = NormalizeGender(gender)
	if v, ok := voices[voiceKey{tone: tone, gender: gender}]; ok {
		return v
	}
	if gender == GenderFemale {
		return VoiceKore
	}
	return VoiceCharon
}

// NormalizeGender lower-cases a gender label and defaults empty input to female.
func NormalizeGender(gender string) string {
	gender = strings.ToLower(strings.TrimSpace(gender))
	if gender == "" {
		return GenderFemale
	}
	return gender
}
