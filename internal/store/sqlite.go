package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"barbybot/internal/shows"
	"barbybot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db        *sql.DB
	log       logx.Logger
	retention time.Duration
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log, retention: cfg.Retention}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error { return s.db.Close() }

func (s *sqliteStore) LoadSnapshot(ctx context.Context) (map[string]shows.Show, Metadata, error) {
	// Expired rows are the retention safety net; drop them lazily on load.
	now := time.Now().UnixMilli()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM shows WHERE expires_at < ?`, now); err != nil {
		s.log.Debug("snapshot expiry prune failed", logx.Err(err))
	}

	rows, err := s.db.QueryContext(ctx, `SELECT show_id, data FROM shows`)
	if err != nil {
		return nil, Metadata{}, err
	}
	defer rows.Close()

	snap := map[string]shows.Show{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, Metadata{}, err
		}
		var sh shows.Show
		if err := json.Unmarshal([]byte(data), &sh); err != nil {
			s.log.Warn("skipping undecodable snapshot row", logx.String("show_id", id), logx.Err(err))
			continue
		}
		snap[id] = sh
	}
	if err := rows.Err(); err != nil {
		return nil, Metadata{}, err
	}

	var meta Metadata
	var lastCheck, updatedAt string
	err = s.db.QueryRowContext(ctx,
		`SELECT last_check, total_shows, updated_at FROM meta WHERE id = 1`,
	).Scan(&lastCheck, &meta.TotalShows, &updatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// first run
	case err != nil:
		return nil, Metadata{}, err
	default:
		meta.LastCheck, _ = time.Parse(time.RFC3339Nano, lastCheck)
		meta.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	}
	return snap, meta, nil
}

func (s *sqliteStore) SaveSnapshot(ctx context.Context, current map[string]shows.Show) error {
	now := time.Now()
	expires := now.Add(s.retention).UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM shows`); err != nil {
		return err
	}
	for id, sh := range current {
		b, err := json.Marshal(sh)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO shows(show_id, data, expires_at) VALUES(?,?,?)`,
			id, string(b), expires,
		); err != nil {
			return err
		}
	}

	ts := now.Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta(id, last_check, total_shows, updated_at) VALUES(1,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
		   last_check=excluded.last_check,
		   total_shows=excluded.total_shows,
		   updated_at=excluded.updated_at`,
		ts, len(current), ts,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *sqliteStore) AddSubscriber(ctx context.Context, sub Subscriber) error {
	if sub.SubscribedAt.IsZero() {
		sub.SubscribedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscribers(user_id, username, first_name, subscribed_at) VALUES(?,?,?,?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   username=excluded.username,
		   first_name=excluded.first_name,
		   subscribed_at=excluded.subscribed_at`,
		sub.UserID, nullStr(sub.Username), nullStr(sub.FirstName),
		sub.SubscribedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *sqliteStore) RemoveSubscriber(ctx context.Context, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscribers WHERE user_id = ?`, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *sqliteStore) SubscriberExists(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM subscribers WHERE user_id = ?`, userID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *sqliteStore) SubscriberCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscribers`).Scan(&n)
	return n, err
}

func (s *sqliteStore) Subscribers(ctx context.Context) ([]Subscriber, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, COALESCE(username, ''), COALESCE(first_name, ''), subscribed_at
		 FROM subscribers ORDER BY user_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Subscriber
	for rows.Next() {
		var sub Subscriber
		var at string
		if err := rows.Scan(&sub.UserID, &sub.Username, &sub.FirstName, &at); err != nil {
			return nil, err
		}
		sub.SubscribedAt, _ = time.Parse(time.RFC3339Nano, at)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
