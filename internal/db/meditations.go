package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// MeditationRepository handles meditation session database operations.
// Every query is scoped to the owning user.
type MeditationRepository struct {
	q DBTX
}

const meditationColumns = `
	id, user_id, type, duration, preferences, tone, voice_gender, title,
	script, audio_script, audio_url, voice_used, audio_generated_at,
	health_conditions, mood_before, mood_after, improvement_score, created_at`

// Create inserts a session and fills in the generated fields.
func (r *MeditationRepository) Create(ctx context.Context, m *Meditation) error {
	query := `
		INSERT INTO meditation_sessions (
			user_id, type, duration, preferences, tone, voice_gender, title,
			script, audio_script, health_conditions, mood_before
		)
		VALUES ($1, $2, $3, $4, $5, COALESCE(NULLIF($6, ''), 'female'), $7, $8, $9, $10, $11)
		RETURNING id, voice_gender, created_at
	`
	err := r.q.QueryRow(ctx, query,
		m.UserID,
		m.Type,
		m.Duration,
		m.Preferences,
		m.Tone,
		m.VoiceGender,
		m.Title,
		m.Script,
		m.AudioScript,
		m.HealthConditions,
		m.MoodBefore,
	).Scan(&m.ID, &m.VoiceGender, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting meditation session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID owned by userID.
func (r *MeditationRepository) Get(ctx context.Context, id int64, userID string) (*Meditation, error) {
	query := `SELECT ` + meditationColumns + `
		FROM meditation_sessions
		WHERE id = $1 AND user_id = $2
	`
	m, err := scanMeditation(r.q.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying meditation session: %w", err)
	}
	return m, nil
}

// ListForUser returns the user's sessions, newest first.
func (r *MeditationRepository) ListForUser(ctx context.Context, userID string) ([]Meditation, error) {
	query := `SELECT ` + meditationColumns + `
		FROM meditation_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.queryMeditations(ctx, query, userID)
}

// Search returns the user's sessions whose script, narration script or type
// contains text (case-insensitive), optionally restricted to an exact type.
// Empty text or sessionType disables that filter.
func (r *MeditationRepository) Search(ctx context.Context, userID, text, sessionType string) ([]Meditation, error) {
	query := `SELECT ` + meditationColumns + `
		FROM meditation_sessions
		WHERE user_id = $1
		  AND ($2 = '' OR script ILIKE $3 OR audio_script ILIKE $3 OR type ILIKE $3)
		  AND ($4 = '' OR type = $4)
		ORDER BY created_at DESC, id DESC
	`
	return r.queryMeditations(ctx, query, userID, text, containsPattern(text), sessionType)
}

// Delete removes a session owned by userID.
func (r *MeditationRepository) Delete(ctx context.Context, id int64, userID string) error {
	query := `DELETE FROM meditation_sessions WHERE id = $1 AND user_id = $2`
	result, err := r.q.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("deleting meditation session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAudio sets all audio fields in one statement and returns the updated row.
func (r *MeditationRepository) UpdateAudio(ctx context.Context, id int64, userID string, u AudioUpdate) (*Meditation, error) {
	query := `
		UPDATE meditation_sessions
		SET audio_url = $3,
			voice_used = $4,
			voice_gender = $5,
			duration = $6,
			audio_generated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + meditationColumns
	m, err := scanMeditation(r.q.QueryRow(ctx, query, id, userID, u.URL, u.Voice, u.VoiceGender, u.Duration))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating meditation audio: %w", err)
	}
	return m, nil
}

// UpdateMoodAfter records the post-session mood and improvement score.
// A nil score is stored as NULL.
func (r *MeditationRepository) UpdateMoodAfter(ctx context.Context, id int64, userID, moodAfter string, score *int) (*Meditation, error) {
	query := `
		UPDATE meditation_sessions
		SET mood_after = $3, improvement_score = $4
		WHERE id = $1 AND user_id = $2
		RETURNING ` + meditationColumns
	m, err := scanMeditation(r.q.QueryRow(ctx, query, id, userID, moodAfter, score))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating mood after: %w", err)
	}
	return m, nil
}

func (r *MeditationRepository) queryMeditations(ctx context.Context, query string, args ...any) ([]Meditation, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying meditation sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Meditation
	for rows.Next() {
		m, err := scanMeditation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning meditation session: %w", err)
		}
		sessions = append(sessions, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating meditation sessions: %w", err)
	}
	return sessions, nil
}

func scanMeditation(row pgx.Row) (*Meditation, error) {
	var m Meditation
	err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Type,
		&m.Duration,
		&m.Preferences,
		&m.Tone,
		&m.VoiceGender,
		&m.Title,
		&m.Script,
		&m.AudioScript,
		&m.AudioURL,
		&m.VoiceUsed,
		&m.AudioGeneratedAt,
		&m.HealthConditions,
		&m.MoodBefore,
		&m.MoodAfter,
		&m.ImprovementScore,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching text literally anywhere.
func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}
