package db

import "time"

// User is an authenticated account, keyed by the identity provider subject.
type User struct {
	ID          string
	Email       *string // nullable
	CreatedAt   time.Time
	LastLoginAt time.Time
}

// Meditation is one generated meditation session.
type Meditation struct {
	ID               int64
	UserID           string
	Type             string
	Duration         int
	Preferences      *string // nullable
	Tone             *string // nullable
	VoiceGender      string
	Title            *string // nullable
	Script           string
	AudioScript      *string // nullable
	AudioURL         *string // nullable
	VoiceUsed        *string // nullable
	AudioGeneratedAt *time.Time
	HealthConditions []string
	MoodBefore       *string // nullable
	MoodAfter        *string // nullable
	ImprovementScore *int    // nullable
	CreatedAt        time.Time
}

// AudioUpdate holds the fields written after narration succeeds.
type AudioUpdate struct {
	URL         string
	Voice       string
	VoiceGender string
	Duration    int
}
