package meditations

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/justestif/go-sleep-meditation/internal/db"
)

// memoryStore is an in-memory Store with the same owner scoping as the
// PostgreSQL repository. Transactions are not isolated.
type memoryStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]db.Meditation
	clock  time.Time
	txErr  error
	txs    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		rows:  make(map[int64]db.Meditation),
		clock: time.Date(2026, 1, 1, 22, 0, 0, 0, time.UTC),
	}
}

func (s *memoryStore) InTx(ctx context.Context, fn func(repo Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs++
	if s.txErr != nil {
		return s.txErr
	}
	return fn(s)
}

func (s *memoryStore) Create(_ context.Context, m *db.Meditation) error {
	s.nextID++
	s.clock = s.clock.Add(time.Minute)
	m.ID = s.nextID
	m.CreatedAt = s.clock
	if m.VoiceGender == "" {
		m.VoiceGender = "female"
	}
	s.rows[m.ID] = *m
	return nil
}

func (s *memoryStore) Get(_ context.Context, id int64, userID string) (*db.Meditation, error) {
	m, ok := s.rows[id]
	if !ok || m.UserID != userID {
		return nil, db.ErrNotFound
	}
	return &m, nil
}

func (s *memoryStore) ListForUser(_ context.Context, userID string) ([]db.Meditation, error) {
	return s.filter(func(m db.Meditation) bool { return m.UserID == userID }), nil
}

func (s *memoryStore) Search(_ context.Context, userID, text, sessionType string) ([]db.Meditation, error) {
	q := strings.ToLower(text)
	return s.filter(func(m db.Meditation) bool {
		if m.UserID != userID {
			return false
		}
		if sessionType != "" && m.Type != sessionType {
			return false
		}
		if q == "" {
			return true
		}
		audioScript := ""
		if m.AudioScript != nil {
			audioScript = *m.AudioScript
		}
		return strings.Contains(strings.ToLower(m.Script), q) ||
			strings.Contains(strings.ToLower(audioScript), q) ||
			strings.Contains(strings.ToLower(m.Type), q)
	}), nil
}

func (s *memoryStore) Delete(_ context.Context, id int64, userID string) error {
	m, ok := s.rows[id]
	if !ok || m.UserID != userID {
		return db.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *memoryStore) UpdateAudio(_ context.Context, id int64, userID string, u db.AudioUpdate) (*db.Meditation, error) {
	m, ok := s.rows[id]
	if !ok || m.UserID != userID {
		return nil, db.ErrNotFound
	}
	at := s.clock
	m.AudioURL = &u.URL
	m.VoiceUsed = &u.Voice
	m.VoiceGender = u.VoiceGender
	m.Duration = u.Duration
	m.AudioGeneratedAt = &at
	s.rows[id] = m
	return &m, nil
}

func (s *memoryStore) UpdateMoodAfter(_ context.Context, id int64, userID, moodAfter string, score *int) (*db.Meditation, error) {
	m, ok := s.rows[id]
	if !ok || m.UserID != userID {
		return nil, db.ErrNotFound
	}
	m.MoodAfter = &moodAfter
	m.ImprovementScore = score
	s.rows[id] = m
	return &m, nil
}

// filter returns matching rows newest first.
func (s *memoryStore) filter(keep func(db.Meditation) bool) []db.Meditation {
	var out []db.Meditation
	for _, m := range s.rows {
		if keep(m) {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b db.Meditation) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return out
}
