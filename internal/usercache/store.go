package usercache

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hmdqr/FastSM/internal/model"
)

// Store persists a cache snapshot to a single sqlite file under the
// account's filesystem root. The cache itself never touches disk; the
// owning collaborator decides when to Save and Load.
type Store struct {
	db *sql.DB
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS cached_users (
	position        INTEGER PRIMARY KEY,
	id              TEXT NOT NULL,
	platform        TEXT NOT NULL,
	acct            TEXT NOT NULL,
	username        TEXT NOT NULL,
	display_name    TEXT NOT NULL,
	note            TEXT NOT NULL DEFAULT '',
	avatar          TEXT NOT NULL DEFAULT '',
	header          TEXT NOT NULL DEFAULT '',
	url             TEXT NOT NULL DEFAULT '',
	followers_count INTEGER NOT NULL DEFAULT 0,
	following_count INTEGER NOT NULL DEFAULT 0,
	statuses_count  INTEGER NOT NULL DEFAULT 0,
	bot             INTEGER NOT NULL DEFAULT 0,
	locked          INTEGER NOT NULL DEFAULT 0,
	created_at      TEXT NOT NULL DEFAULT ''
);
`

// OpenStore opens (creating if needed) the snapshot database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open user cache store: %w", err)
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize user cache store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored snapshot with the cache's current contents,
// preserving recency order.
func (s *Store) Save(c *Cache) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cached_users`); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO cached_users
		(position, id, platform, acct, username, display_name, note, avatar, header, url,
		 followers_count, following_count, statuses_count, bot, locked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for i, u := range c.Users() {
		createdAt := ""
		if !u.CreatedAt.IsZero() {
			createdAt = u.CreatedAt.Format(time.RFC3339)
		}
		if _, err := stmt.Exec(i, u.ID, u.Platform, u.Acct, u.Username, u.DisplayName,
			u.Note, u.Avatar, u.Header, u.URL,
			u.FollowersCount, u.FollowingCount, u.StatusesCount,
			boolToInt(u.Bot), boolToInt(u.Locked), createdAt); err != nil {
			return fmt.Errorf("failed to write snapshot row: %w", err)
		}
	}

	return tx.Commit()
}

// Load rebuilds a cache from the stored snapshot. An empty snapshot
// yields an empty cache, not an error.
func (s *Store) Load() (*Cache, error) {
	rows, err := s.db.Query(`SELECT id, platform, acct, username, display_name, note,
		avatar, header, url, followers_count, following_count, statuses_count,
		bot, locked, created_at
		FROM cached_users ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var u model.User
		var bot, locked int
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Platform, &u.Acct, &u.Username, &u.DisplayName,
			&u.Note, &u.Avatar, &u.Header, &u.URL,
			&u.FollowersCount, &u.FollowingCount, &u.StatusesCount,
			&bot, &locked, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		u.Bot = bot != 0
		u.Locked = locked != 0
		if createdAt != "" {
			if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
				u.CreatedAt = t
			}
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	c := New()
	// Rows come back most-recent-first; re-add in reverse so AddUser's
	// front insertion restores the original order.
	for i := len(users) - 1; i >= 0; i-- {
		c.AddUser(users[i])
	}
	return c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
