package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/justestif/go-sleep-meditation/internal/audio"
	"github.com/justestif/go-sleep-meditation/internal/db"
	"github.com/justestif/go-sleep-meditation/internal/gemini"
	"github.com/justestif/go-sleep-meditation/internal/meditations"
)

const notFoundDetail = "Meditation session not found"

type moodSuggestRequest struct {
	MoodText string `json:"mood_text"`
}

type generateRequest struct {
	Type             string   `json:"type"`
	Duration         int      `json:"duration"`
	Preferences      string   `json:"preferences"`
	Tone             string   `json:"tone"`
	VoiceGender      string   `json:"voice_gender"`
	HealthConditions []string `json:"health_conditions"`
	MoodBefore       string   `json:"mood_before"`
}

type audioRequest struct {
	VoiceGender string `json:"voice_gender"`
}

type moodAfterRequest struct {
	MoodAfter string `json:"mood_after"`
}

type sessionResponse struct {
	ID               int64      `json:"id"`
	UserID           string     `json:"user_id"`
	Type             string     `json:"type"`
	Duration         int        `json:"duration"`
	Preferences      *string    `json:"preferences"`
	Tone             *string    `json:"tone"`
	VoiceGender      string     `json:"voice_gender"`
	Title            *string    `json:"title"`
	Script           string     `json:"script"`
	AudioScript      *string    `json:"audio_script"`
	AudioURL         *string    `json:"audio_url"`
	VoiceUsed        *string    `json:"voice_used"`
	AudioGeneratedAt *time.Time `json:"audio_generated_at"`
	HealthConditions []string   `json:"health_conditions"`
	MoodBefore       *string    `json:"mood_before"`
	MoodAfter        *string    `json:"mood_after"`
	ImprovementScore *int       `json:"improvement_score"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toSessionResponse(m *db.Meditation) sessionResponse {
	return sessionResponse{
		ID:               m.ID,
		UserID:           m.UserID,
		Type:             m.Type,
		Duration:         m.Duration,
		Preferences:      m.Preferences,
		Tone:             m.Tone,
		VoiceGender:      m.VoiceGender,
		Title:            m.Title,
		Script:           m.Script,
		AudioScript:      m.AudioScript,
		AudioURL:         m.AudioURL,
		VoiceUsed:        m.VoiceUsed,
		AudioGeneratedAt: m.AudioGeneratedAt,
		HealthConditions: m.HealthConditions,
		MoodBefore:       m.MoodBefore,
		MoodAfter:        m.MoodAfter,
		ImprovementScore: m.ImprovementScore,
		CreatedAt:        m.CreatedAt,
	}
}

type searchResultResponse struct {
	Session   sessionResponse       `json:"session"`
	MatchInfo meditations.MatchInfo `json:"match_info"`
}

type audioResponse struct {
	AudioURL  string `json:"audio_url"`
	VoiceUsed string `json:"voice_used"`
	Duration  int    `json:"duration"`
}

type quoteResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Data    quoteData `json:"data"`
}

type quoteData struct {
	Quote string `json:"quote"`
}

// writeError maps service errors to status codes. Server errors are logged
// and their message surfaced to the client.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var malformed *gemini.MalformedOutputError

	switch {
	case errors.Is(err, meditations.ErrInvalidInput):
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, db.ErrNotFound):
		writeDetail(w, http.StatusNotFound, notFoundDetail)
		return
	case errors.Is(err, audio.ErrEmptyAudio):
		h.logger.ErrorContext(r.Context(), "audio generation failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Audio generation failed: "+err.Error())
		return
	case errors.As(err, &malformed):
		h.logger.ErrorContext(r.Context(), "model returned malformed output", "reason", malformed.Reason, "error", err)
	default:
		h.logger.ErrorContext(r.Context(), "request failed", "error", err)
	}

	writeDetail(w, http.StatusInternalServerError, err.Error())
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
