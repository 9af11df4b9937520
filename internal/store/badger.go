package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"barbybot/internal/shows"
	"barbybot/pkg/logx"
)

// Key layout mirrors the venue-prefixed scheme the registry has always used:
// one entry per show, one metadata record, one entry per subscriber.
const (
	prefixShow = "show:"
	prefixSub  = "sub:"
	keyMeta    = "meta"
)

type badgerStore struct {
	db        *badger.DB
	log       logx.Logger
	retention time.Duration
}

func openBadger(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("badger path is required")
	}
	opts := badger.DefaultOptions(cfg.Path).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &badgerStore{db: db, log: log, retention: cfg.Retention}, nil
}

func (s *badgerStore) Close() error { return s.db.Close() }

func showKey(id string) []byte { return []byte(prefixShow + id) }

func subKey(userID int64) []byte {
	return []byte(prefixSub + strconv.FormatInt(userID, 10))
}

func (s *badgerStore) LoadSnapshot(ctx context.Context) (map[string]shows.Show, Metadata, error) {
	_ = ctx
	snap := map[string]shows.Show{}
	var meta Metadata

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixShow)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var sh shows.Show
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &sh)
			}); err != nil {
				s.log.Warn("skipping undecodable snapshot entry",
					logx.String("key", string(item.Key())), logx.Err(err))
				continue
			}
			id := strings.TrimPrefix(string(item.Key()), prefixShow)
			snap[id] = sh
		}

		item, err := txn.Get([]byte(keyMeta))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return nil, Metadata{}, err
	}
	return snap, meta, nil
}

func (s *badgerStore) SaveSnapshot(ctx context.Context, current map[string]shows.Show) error {
	_ = ctx
	now := time.Now()
	meta := Metadata{LastCheck: now, TotalShows: len(current), UpdatedAt: now}

	// One read-write transaction: clear the old show keyspace and write the
	// new one, so a concurrent LoadSnapshot sees either the full old set or
	// the full new set. Snapshot sizes here are well under badger's
	// transaction limits.
	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		prefix := []byte(prefixShow)
		var stale [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}

		for id, sh := range current {
			b, err := json.Marshal(sh)
			if err != nil {
				return err
			}
			e := badger.NewEntry(showKey(id), b).WithTTL(s.retention)
			if err := txn.SetEntry(e); err != nil {
				return err
			}
		}

		mb, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry([]byte(keyMeta), mb).WithTTL(s.retention))
	})
}

func (s *badgerStore) AddSubscriber(ctx context.Context, sub Subscriber) error {
	_ = ctx
	if sub.SubscribedAt.IsZero() {
		sub.SubscribedAt = time.Now()
	}
	b, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(subKey(sub.UserID), b)
	})
}

func (s *badgerStore) RemoveSubscriber(ctx context.Context, userID int64) (bool, error) {
	_ = ctx
	found := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(subKey(userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return txn.Delete(subKey(userID))
	})
	return found, err
}

func (s *badgerStore) SubscriberExists(ctx context.Context, userID int64) (bool, error) {
	_ = ctx
	exists := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(subKey(userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	return exists, err
}

func (s *badgerStore) SubscriberCount(ctx context.Context) (int, error) {
	_ = ctx
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(prefixSub)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func (s *badgerStore) Subscribers(ctx context.Context) ([]Subscriber, error) {
	_ = ctx
	var subs []Subscriber
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(prefixSub)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var sub Subscriber
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &sub)
			}); err != nil {
				s.log.Warn("skipping undecodable subscriber entry",
					logx.String("key", string(item.Key())), logx.Err(err))
				continue
			}
			subs = append(subs, sub)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].UserID < subs[j].UserID })
	return subs, nil
}
