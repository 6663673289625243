package meditations

import (
	"context"

	"github.com/justestif/go-sleep-meditation/internal/db"
)

// Repository is the owner-scoped session persistence used by Service.
type Repository interface {
	Create(ctx context.Context, m *db.Meditation) error
	Get(ctx context.Context, id int64, userID string) (*db.Meditation, error)
	ListForUser(ctx context.Context, userID string) ([]db.Meditation, error)
	Search(ctx context.Context, userID, text, sessionType string) ([]db.Meditation, error)
	Delete(ctx context.Context, id int64, userID string) error
	UpdateAudio(ctx context.Context, id int64, userID string, u db.AudioUpdate) (*db.Meditation, error)
	UpdateMoodAfter(ctx context.Context, id int64, userID, moodAfter string, score *int) (*db.Meditation, error)
}

// Store runs a function against a Repository inside one unit of work that
// commits when fn returns nil and rolls back otherwise.
type Store interface {
	InTx(ctx context.Context, fn func(repo Repository) error) error
}

// PostgresStore is the Store backed by PostgreSQL transactions.
type PostgresStore struct {
	db *db.DB
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(database *db.DB) *PostgresStore {
	return &PostgresStore{db: database}
}

// InTx implements Store.
func (s *PostgresStore) InTx(ctx context.Context, fn func(repo Repository) error) error {
	return s.db.WithTx(ctx, func(tx *db.Tx) error {
		return fn(tx.Meditations())
	})
}
