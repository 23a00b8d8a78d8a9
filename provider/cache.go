package provider

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/TFMV/wikiforce/models"
)

// DefaultCacheTTL is how long a cached link list stays fresh.
const DefaultCacheTTL = 24 * time.Hour

// Cache is a sqlite-backed store of fetched article link lists, keyed by
// title. Stale entries are treated as misses and overwritten on the next
// successful fetch.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

// OpenCache opens (and if needed creates) the cache database at path. Use
// ":memory:" for an ephemeral cache.
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	schema := `CREATE TABLE IF NOT EXISTS articles (
		title      TEXT PRIMARY KEY,
		links      TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// Get returns the cached article for title, or ok=false on a miss or a
// stale entry.
func (c *Cache) Get(ctx context.Context, title string) (*models.Article, bool) {
	var linksJSON string
	var fetchedAt int64
	row := c.db.QueryRowContext(ctx,
		`SELECT links, fetched_at FROM articles WHERE title = ?`, title)
	if err := row.Scan(&linksJSON, &fetchedAt); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			// Treat read errors as misses; the fetch path still works.
			return nil, false
		}
		return nil, false
	}

	if time.Since(time.Unix(fetchedAt, 0)) > c.ttl {
		return nil, false
	}

	var links []string
	if err := json.Unmarshal([]byte(linksJSON), &links); err != nil {
		return nil, false
	}
	return &models.Article{Title: title, OutboundTitles: links}, true
}

// Put stores or replaces the cached link list for an article.
func (c *Cache) Put(ctx context.Context, article *models.Article) error {
	linksJSON, err := json.Marshal(article.OutboundTitles)
	if err != nil {
		return fmt.Errorf("encoding links: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO articles (title, links, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(title) DO UPDATE SET links = excluded.links, fetched_at = excluded.fetched_at`,
		article.Title, string(linksJSON), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Purge removes entries older than the TTL.
func (c *Cache) Purge(ctx context.Context) error {
	cutoff := time.Now().Add(-c.ttl).Unix()
	_, err := c.db.ExecContext(ctx, `DELETE FROM articles WHERE fetched_at < ?`, cutoff)
	return err
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
