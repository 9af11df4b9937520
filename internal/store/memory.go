package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"barbybot/internal/shows"
)

// Memory is a process-local Store. State is lost on restart, which makes
// every show look new on the first check after boot; fine for tests and dry
// runs, not for production.
type Memory struct {
	mu       sync.RWMutex
	snapshot map[string]shows.Show
	meta     Metadata
	subs     map[int64]Subscriber
}

func NewMemory() *Memory {
	return &Memory{
		snapshot: map[string]shows.Show{},
		subs:     map[int64]Subscriber{},
	}
}

func (m *Memory) LoadSnapshot(ctx context.Context) (map[string]shows.Show, Metadata, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(map[string]shows.Show, len(m.snapshot))
	for k, v := range m.snapshot {
		cp[k] = v
	}
	return cp, m.meta, nil
}

func (m *Memory) SaveSnapshot(ctx context.Context, current map[string]shows.Show) error {
	_ = ctx
	now := time.Now()
	cp := make(map[string]shows.Show, len(current))
	for k, v := range current {
		cp[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = cp
	m.meta = Metadata{LastCheck: now, TotalShows: len(cp), UpdatedAt: now}
	return nil
}

func (m *Memory) AddSubscriber(ctx context.Context, sub Subscriber) error {
	_ = ctx
	if sub.SubscribedAt.IsZero() {
		sub.SubscribedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sub.UserID] = sub
	return nil
}

func (m *Memory) RemoveSubscriber(ctx context.Context, userID int64) (bool, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[userID]; !ok {
		return false, nil
	}
	delete(m.subs, userID)
	return true, nil
}

func (m *Memory) SubscriberExists(ctx context.Context, userID int64) (bool, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.subs[userID]
	return ok, nil
}

func (m *Memory) SubscriberCount(ctx context.Context) (int, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs), nil
}

func (m *Memory) Subscribers(ctx context.Context) ([]Subscriber, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Subscriber, 0, len(m.subs))
	for _, s := range m.subs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *Memory) Close() error { return nil }
