package store

import (
	"context"
	"time"

	"barbybot/internal/shows"
)

// Config configures storage.
//
// Driver values:
//   - "badger": embedded KV store; snapshot entries carry a TTL
//   - "sqlite": SQLite database file
//   - "memory": process-local (tests, dry runs)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
	// Retention bounds snapshot entry lifetime. Advisory: a safety net
	// against unbounded growth if the watcher stops running, never relied
	// on for diff correctness. 0 means the 7-day default.
	Retention time.Duration
}

const defaultRetention = 7 * 24 * time.Hour

// Subscriber is one registered notification recipient.
type Subscriber struct {
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	FirstName    string    `json:"first_name,omitempty"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

// Metadata describes the last snapshot save.
type Metadata struct {
	LastCheck  time.Time `json:"last_check"`
	TotalShows int       `json:"total_shows"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SnapshotStore persists the most recently observed full show set.
type SnapshotStore interface {
	// LoadSnapshot returns the stored snapshot and its metadata. An empty
	// map with zero Metadata and nil error means "nothing seen yet".
	LoadSnapshot(ctx context.Context) (map[string]shows.Show, Metadata, error)

	// SaveSnapshot atomically replaces the whole stored snapshot: the
	// previous key set is cleared and the new one written as a single
	// committed unit, together with fresh Metadata. A concurrent load never
	// observes a half-replaced snapshot.
	SaveSnapshot(ctx context.Context, current map[string]shows.Show) error
}

// SubscriberRegistry persists the notification recipient set.
//
// All operations are idempotent at the semantic level: adding an existing
// user overwrites profile fields and refreshes the subscription timestamp;
// removing an absent user reports found=false without error.
type SubscriberRegistry interface {
	AddSubscriber(ctx context.Context, sub Subscriber) error
	RemoveSubscriber(ctx context.Context, userID int64) (bool, error)
	SubscriberExists(ctx context.Context, userID int64) (bool, error)
	SubscriberCount(ctx context.Context) (int, error)
	Subscribers(ctx context.Context) ([]Subscriber, error)
}

// Store is the full persistence API the bot wires together.
type Store interface {
	SnapshotStore
	SubscriberRegistry
	Close() error
}
