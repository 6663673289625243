package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/justestif/go-sleep-meditation/internal/auth"
	"github.com/justestif/go-sleep-meditation/internal/db"
	"github.com/justestif/go-sleep-meditation/internal/meditations"
	"github.com/justestif/go-sleep-meditation/internal/mood"
)

const quotePrompt = "Tell me a random inspirational quote"

// MeditationService is the session workflow behind the meditation routes.
type MeditationService interface {
	Generate(ctx context.Context, userID string, req meditations.GenerateRequest) (*db.Meditation, error)
	List(ctx context.Context, userID string) ([]db.Meditation, error)
	Search(ctx context.Context, userID, query, sessionType string) ([]meditations.SearchResult, error)
	Get(ctx context.Context, userID string, id int64) (*db.Meditation, error)
	Delete(ctx context.Context, userID string, id int64) error
	GenerateAudio(ctx context.Context, userID string, id int64, gender string) (*meditations.AudioResult, error)
	RecordMoodAfter(ctx context.Context, userID string, id int64, moodAfter string) (*db.Meditation, error)
}

// MoodSuggester turns mood text into session parameters.
type MoodSuggester interface {
	Suggest(ctx context.Context, moodText string) mood.Suggestion
}

// TextGenerator answers a free-form prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	meditations MeditationService
	moods       MoodSuggester
	quotes      TextGenerator
	db          Pinger
	logger      *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc MeditationService, moods MoodSuggester, quotes TextGenerator, pinger Pinger, logger *slog.Logger) *Handlers {
	return &Handlers{
		meditations: svc,
		moods:       moods,
		quotes:      quotes,
		db:          pinger,
		logger:      logger,
	}
}

// Root reports that the service is up (GET /).
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Sleep Meditation Generator Backend Running"})
}

// Health reports service health (GET /health).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// RandomQuote returns a generated inspirational quote (GET /api/random-quote).
func (h *Handlers) RandomQuote(w http.ResponseWriter, r *http.Request) {
	if h.quotes == nil {
		writeDetail(w, http.StatusInternalServerError, "Google API key not configured.")
		return
	}

	quote, err := h.quotes.GenerateText(r.Context(), quotePrompt)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "generating quote", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Error generating quote: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		Success: true,
		Message: "Random quote generated successfully",
		Data:    quoteData{Quote: quote},
	})
}

// SuggestMood suggests session parameters from mood text (POST /api/mood/suggest).
func (h *Handlers) SuggestMood(w http.ResponseWriter, r *http.Request) {
	var req moodSuggestRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.MoodText) == "" {
		writeDetail(w, http.StatusBadRequest, "mood_text is required")
		return
	}

	writeJSON(w, http.StatusOK, h.moods.Suggest(r.Context(), req.MoodText))
}

// GenerateMeditation creates a new session (POST /api/meditations/generate).
func (h *Handlers) GenerateMeditation(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.meditations.Generate(r.Context(), userID(r), meditations.GenerateRequest{
		Type:             req.Type,
		Duration:         req.Duration,
		Preferences:      req.Preferences,
		Tone:             req.Tone,
		VoiceGender:      req.VoiceGender,
		HealthConditions: req.HealthConditions,
		MoodBefore:       req.MoodBefore,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// ListMeditations returns the caller's history (GET /api/meditations).
func (h *Handlers) ListMeditations(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.meditations.List(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]sessionResponse, len(sessions))
	for i := range sessions {
		out[i] = toSessionResponse(&sessions[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// SearchMeditations searches the caller's history (GET /api/meditations/search).
func (h *Handlers) SearchMeditations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	sessionType := r.URL.Query().Get("type")

	results, err := h.meditations.Search(r.Context(), userID(r), query, sessionType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]searchResultResponse, len(results))
	for i := range results {
		out[i] = searchResultResponse{
			Session:   toSessionResponse(&results[i].Session),
			MatchInfo: results[i].Match,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// GetMeditation returns one session (GET /api/meditations/{id}).
func (h *Handlers) GetMeditation(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.meditations.Get(r.Context(), userID(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// DeleteMeditation removes one session (DELETE /api/meditations/{id}).
func (h *Handlers) DeleteMeditation(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	if err := h.meditations.Delete(r.Context(), userID(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Session deleted successfully"})
}

// GenerateAudio narrates a session (POST /api/meditations/{id}/audio).
// The body is optional.
func (h *Handlers) GenerateAudio(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req audioRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}

	result, err := h.meditations.GenerateAudio(r.Context(), userID(r), id, req.VoiceGender)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, audioResponse{
		AudioURL:  result.URL,
		VoiceUsed: result.Voice,
		Duration:  result.Duration,
	})
}

// RecordMoodAfter stores the post-session mood (POST /api/meditations/{id}/mood-after).
func (h *Handlers) RecordMoodAfter(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req moodAfterRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.MoodAfter) == "" {
		writeDetail(w, http.StatusBadRequest, "mood_after is required")
		return
	}

	session, err := h.meditations.RecordMoodAfter(r.Context(), userID(r), id, req.MoodAfter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// decode reads a JSON body into v, writing 400 on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// decodeOptional is decode but accepts an empty body.
func (h *Handlers) decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// userID returns the authenticated caller. Routes using it sit behind
// auth.Middleware.
func userID(r *http.Request) string {
	id, _ := auth.FromContext(r.Context())
	if id == nil {
		return ""
	}
	return id.UID
}

// sessionID parses the {id} URL parameter. Anything but a positive integer
// cannot name a session, so it is reported as not found.
func sessionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusNotFound, notFoundDetail)
		return 0, false
	}
	return id, true
}
