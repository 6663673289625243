package db

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
)

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "%%"},
		{"ocean", "%ocean%"},
		{"100%", `%100\%%`},
		{"deep_sleep", `%deep\_sleep%`},
		{`back\slash`, `%back\\slash%`},
	}
	for _, tt := range tests {
		if got := containsPattern(tt.in); got != tt.want {
			t.Errorf("containsPattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

var columnNames = []string{
	"id", "user_id", "type", "duration", "preferences", "tone", "voice_gender", "title",
	"script", "audio_script", "audio_url", "voice_used", "audio_generated_at",
	"health_conditions", "mood_before", "mood_after", "improvement_score", "created_at",
}

var (
	ownerScoped = regexp.QuoteMeta("WHERE id = $1 AND user_id = $2")
	createdAt   = time.Date(2026, 1, 2, 22, 0, 0, 0, time.UTC)
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *MeditationRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool() error = %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		mock.Close()
	})
	return mock, &MeditationRepository{q: mock}
}

func strPtr(s string) *string { return &s }

// sessionRow returns a row in meditationColumns order.
func sessionRow(id int64, userID string) []any {
	return []any{
		id, userID, "sleep", 10, strPtr("ocean"), strPtr("calm"), "female", strPtr("Drift"),
		"Breathe in slowly.", strPtr("Breathe in... slowly."), (*string)(nil), (*string)(nil), (*time.Time)(nil),
		[]string{"insomnia"}, strPtr("anxious"), (*string)(nil), (*int)(nil), createdAt,
	}
}

func TestMeditationRepository_Get(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(ownerScoped).
		WithArgs(int64(7), "user-1").
		WillReturnRows(pgxmock.NewRows(columnNames).AddRow(sessionRow(7, "user-1")...))

	m, err := repo.Get(context.Background(), 7, "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if m.ID != 7 || m.UserID != "user-1" || m.Duration != 10 {
		t.Errorf("Get() = %+v", m)
	}
	if m.Title == nil || *m.Title != "Drift" || m.AudioURL != nil {
		t.Errorf("Get() nullable fields = title %v, audio_url %v", m.Title, m.AudioURL)
	}
	if len(m.HealthConditions) != 1 || m.HealthConditions[0] != "insomnia" {
		t.Errorf("HealthConditions = %v", m.HealthConditions)
	}
}

func TestMeditationRepository_GetOtherUser(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(ownerScoped).
		WithArgs(int64(7), "user-2").
		WillReturnRows(pgxmock.NewRows(columnNames))

	if _, err := repo.Get(context.Background(), 7, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestMeditationRepository_Delete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"owned", 1, nil},
		{"missing or foreign", 0, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, repo := newMockRepo(t)

			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM meditation_sessions WHERE id = $1 AND user_id = $2")).
				WithArgs(int64(7), "user-1").
				WillReturnResult(pgxmock.NewResult("DELETE", tt.affected))

			err := repo.Delete(context.Background(), 7, "user-1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Delete() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMeditationRepository_UpdateAudio(t *testing.T) {
	mock, repo := newMockRepo(t)

	row := sessionRow(7, "user-1")
	row[10] = strPtr("/static/audio/a.wav")
	row[11] = strPtr("Kore")

	mock.ExpectQuery(ownerScoped).
		WithArgs(int64(7), "user-1", "/static/audio/a.wav", "Kore", "female", 6).
		WillReturnRows(pgxmock.NewRows(columnNames).AddRow(row...))

	m, err := repo.UpdateAudio(context.Background(), 7, "user-1", AudioUpdate{
		URL:         "/static/audio/a.wav",
		Voice:       "Kore",
		VoiceGender: "female",
		Duration:    6,
	})
	if err != nil {
		t.Fatalf("UpdateAudio() error = %v", err)
	}
	if m.AudioURL == nil || *m.AudioURL != "/static/audio/a.wav" {
		t.Errorf("AudioURL = %v", m.AudioURL)
	}
}

func TestMeditationRepository_UpdateMoodAfterOtherUser(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(ownerScoped).
		WithArgs(int64(7), "user-2", "calm", (*int)(nil)).
		WillReturnRows(pgxmock.NewRows(columnNames))

	_, err := repo.UpdateMoodAfter(context.Background(), 7, "user-2", "calm", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateMoodAfter() error = %v, want ErrNotFound", err)
	}
}

func TestMeditationRepository_ListForUser(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1")).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(columnNames).
			AddRow(sessionRow(9, "user-1")...).
			AddRow(sessionRow(7, "user-1")...))

	sessions, err := repo.ListForUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != 9 || sessions[1].ID != 7 {
		t.Errorf("ListForUser() ids = %v", sessions)
	}
}

func TestMeditationRepository_Search(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("script ILIKE $3 OR audio_script ILIKE $3 OR type ILIKE $3")).
		WithArgs("user-1", "100%", `%100\%%`, "sleep").
		WillReturnRows(pgxmock.NewRows(columnNames).AddRow(sessionRow(7, "user-1")...))

	sessions, err := repo.Search(context.Background(), "user-1", "100%", "sleep")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(sessions) != 1 || sessions[0].UserID != "user-1" {
		t.Errorf("Search() = %v", sessions)
	}
}

func TestMeditationRepository_Create(t *testing.T) {
	mock, repo := newMockRepo(t)

	m := &Meditation{
		UserID:           "user-1",
		Type:             "sleep",
		Duration:         10,
		Script:           "Breathe in slowly.",
		HealthConditions: []string{"insomnia"},
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO meditation_sessions")).
		WithArgs("user-1", "sleep", 10, (*string)(nil), (*string)(nil), "", (*string)(nil),
			"Breathe in slowly.", (*string)(nil), []string{"insomnia"}, (*string)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "voice_gender", "created_at"}).
			AddRow(int64(11), "female", createdAt))

	if err := repo.Create(context.Background(), m); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if m.ID != 11 || m.VoiceGender != "female" || !m.CreatedAt.Equal(createdAt) {
		t.Errorf("Create() filled %+v", m)
	}
}
