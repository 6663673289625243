// Package meditations manages a user's meditation sessions: generation,
// history, search, narration and post-session mood.
package meditations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/justestif/go-sleep-meditation/internal/audio"
	"github.com/justestif/go-sleep-meditation/internal/db"
	"github.com/justestif/go-sleep-meditation/internal/mood"
	"github.com/justestif/go-sleep-meditation/internal/script"
)

// Duration bounds in minutes.
const (
	MinDuration = 1
	MaxDuration = 60
)

var (
	// ErrNotFound is returned when a session does not exist or belongs to
	// another user.
	ErrNotFound = fmt.Errorf("meditation session %w", db.ErrNotFound)

	// ErrInvalidInput is wrapped by request validation errors.
	ErrInvalidInput = errors.New("invalid input")
)

// ScriptGenerator writes meditation scripts.
type ScriptGenerator interface {
	Generate(ctx context.Context, req script.Request) (*script.Script, error)
}

// Narrator turns text into a stored audio asset.
type Narrator interface {
	Synthesize(ctx context.Context, text, tone, gender string) (*audio.Result, error)
}

// Service handles meditation session workflows.
type Service struct {
	store    Store
	scripts  ScriptGenerator
	narrator Narrator
	logger   *slog.Logger
}

// New creates a new meditation service.
func New(store Store, scripts ScriptGenerator, narrator Narrator, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		scripts:  scripts,
		narrator: narrator,
		logger:   logger,
	}
}

// GenerateRequest holds the parameters of a new session.
type GenerateRequest struct {
	Type             string
	Duration         int // minutes
	Preferences      string
	Tone             string
	VoiceGender      string
	HealthConditions []string
	MoodBefore       string
}

// Validate checks the request bounds.
func (r GenerateRequest) Validate() error {
	if strings.TrimSpace(r.Type) == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidInput)
	}
	if r.Duration < MinDuration || r.Duration > MaxDuration {
		return fmt.Errorf("%w: duration must be between %d and %d minutes", ErrInvalidInput, MinDuration, MaxDuration)
	}
	return nil
}

// AudioResult describes narration attached to a session.
type AudioResult struct {
	URL      string
	Voice    string
	Duration int // minutes
}

// Generate writes a script for req and saves it as a new session owned by userID.
// Nothing is saved when generation fails.
func (s *Service) Generate(ctx context.Context, userID string, req GenerateRequest) (*db.Meditation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	conditions := cleanList(req.HealthConditions)

	generated, err := s.scripts.Generate(ctx, script.Request{
		Type:             req.Type,
		Duration:         req.Duration,
		Preferences:      req.Preferences,
		Tone:             req.Tone,
		HealthConditions: conditions,
		MoodBefore:       req.MoodBefore,
	})
	if err != nil {
		return nil, err
	}

	session := &db.Meditation{
		UserID:           userID,
		Type:             req.Type,
		Duration:         req.Duration,
		Preferences:      optional(req.Preferences),
		Tone:             optional(req.Tone),
		VoiceGender:      audio.NormalizeGender(req.VoiceGender),
		Title:            optional(generated.Title),
		Script:           generated.VisualScript,
		AudioScript:      optional(generated.AudioScript),
		HealthConditions: conditions,
		MoodBefore:       optional(req.MoodBefore),
	}

	err = s.store.InTx(ctx, func(repo Repository) error {
		return repo.Create(ctx, session)
	})
	if err != nil {
		return nil, fmt.Errorf("saving meditation session: %w", err)
	}

	s.logger.InfoContext(ctx, "meditation generated",
		"id", session.ID,
		"type", session.Type,
		"duration", session.Duration,
	)
	return session, nil
}

// List returns the user's sessions, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]db.Meditation, error) {
	var sessions []db.Meditation
	err := s.store.InTx(ctx, func(repo Repository) error {
		var err error
		sessions, err = repo.ListForUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing meditation sessions: %w", err)
	}
	return sessions, nil
}

// Search finds the user's sessions containing query and/or having exactly
// sessionType, newest first, with the reason each one matched.
func (s *Service) Search(ctx context.Context, userID, query, sessionType string) ([]SearchResult, error) {
	var sessions []db.Meditation
	err := s.store.InTx(ctx, func(repo Repository) error {
		var err error
		sessions, err = repo.Search(ctx, userID, query, sessionType)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("searching meditation sessions: %w", err)
	}

	results := make([]SearchResult, len(sessions))
	for i := range sessions {
		results[i] = SearchResult{
			Session: sessions[i],
			Match:   matchInfo(&sessions[i], query, sessionType),
		}
	}
	return results, nil
}

// Get returns one of the user's sessions.
func (s *Service) Get(ctx context.Context, userID string, id int64) (*db.Meditation, error) {
	var session *db.Meditation
	err := s.store.InTx(ctx, func(repo Repository) error {
		var err error
		session, err = repo.Get(ctx, id, userID)
		return err
	})
	if err != nil {
		return nil, notFound(err, "getting meditation session")
	}
	return session, nil
}

// Delete removes one of the user's sessions.
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	err := s.store.InTx(ctx, func(repo Repository) error {
		return repo.Delete(ctx, id, userID)
	})
	if err != nil {
		return notFound(err, "deleting meditation session")
	}

	s.logger.InfoContext(ctx, "meditation deleted", "id", id)
	return nil
}

// GenerateAudio narrates the session and records the audio fields. The
// narration script is used when present, the display script otherwise. An
// empty gender keeps the session's stored voice gender.
func (s *Service) GenerateAudio(ctx context.Context, userID string, id int64, gender string) (*AudioResult, error) {
	session, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(gender) == "" {
		gender = session.VoiceGender
	}
	gender = audio.NormalizeGender(gender)

	text := session.Script
	if session.AudioScript != nil && strings.TrimSpace(*session.AudioScript) != "" {
		text = *session.AudioScript
	}

	tone := ""
	if session.Tone != nil {
		tone = *session.Tone
	}

	narration, err := s.narrator.Synthesize(ctx, text, tone, gender)
	if err != nil {
		return nil, err
	}

	update := db.AudioUpdate{
		URL:         narration.URL,
		Voice:       narration.Voice,
		VoiceGender: gender,
		Duration:    narration.Minutes(),
	}

	err = s.store.InTx(ctx, func(repo Repository) error {
		_, err := repo.UpdateAudio(ctx, id, userID, update)
		return err
	})
	if err != nil {
		return nil, notFound(err, "saving meditation audio")
	}

	s.logger.InfoContext(ctx, "meditation audio generated",
		"id", id,
		"voice", narration.Voice,
		"seconds", narration.Seconds,
	)

	return &AudioResult{
		URL:      update.URL,
		Voice:    update.Voice,
		Duration: update.Duration,
	}, nil
}

// RecordMoodAfter stores the post-session mood. The improvement score is
// computed only when the session has a mood-before label.
func (s *Service) RecordMoodAfter(ctx context.Context, userID string, id int64, moodAfter string) (*db.Meditation, error) {
	moodAfter = strings.TrimSpace(moodAfter)
	if moodAfter == "" {
		return nil, fmt.Errorf("%w: mood_after is required", ErrInvalidInput)
	}

	var session *db.Meditation
	err := s.store.InTx(ctx, func(repo Repository) error {
		current, err := repo.Get(ctx, id, userID)
		if err != nil {
			return err
		}

		var score *int
		if current.MoodBefore != nil && *current.MoodBefore != "" {
			improvement := mood.ImprovementScore(*current.MoodBefore, moodAfter)
			score = &improvement
		}

		session, err = repo.UpdateMoodAfter(ctx, id, userID, moodAfter, score)
		return err
	})
	if err != nil {
		return nil, notFound(err, "recording mood after")
	}
	return session, nil
}

// notFound maps repository misses to ErrNotFound and wraps everything else.
func notFound(err error, action string) error {
	if errors.Is(err, db.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", action, err)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
