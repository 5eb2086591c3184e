package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// tier2 is the on-disk SQLite tier. Entries carry an expiry and are purged
// lazily: each get first deletes rows past their TTL, so a long-idle cache
// doesn't accumulate stale rows indefinitely between writes.
type tier2 struct {
	db  *sql.DB
	ttl time.Duration
}

func newTier2(path string, ttl time.Duration) (*tier2, error) {
	if path == "" {
		path = "codescan_cache.sqlite"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite cache %s: %w", path, err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sqlite cache schema: %w", err)
	}

	return &tier2{db: db, ttl: ttl}, nil
}

func (t *tier2) get(key string) ([]byte, bool) {
	t.purgeExpired()

	var payload []byte
	row := t.db.QueryRow(`SELECT payload FROM cache_entries WHERE key = ?`, key)
	if err := row.Scan(&payload); err != nil {
		return nil, false
	}
	return payload, true
}

func (t *tier2) put(key string, payload []byte) error {
	expiresAt := time.Now().Add(t.ttl).Unix()
	_, err := t.db.Exec(
		`INSERT INTO cache_entries (key, payload, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at`,
		key, payload, expiresAt,
	)
	return err
}

func (t *tier2) purgeExpired() {
	_, _ = t.db.Exec(`DELETE FROM cache_entries WHERE expires_at < ?`, time.Now().Unix())
}

func (t *tier2) close() error {
	return t.db.Close()
}
