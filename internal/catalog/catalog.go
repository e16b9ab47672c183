// Package catalog loads and ranks the asset inventory: images, videos and
// link resources stored in a SQLite database, shortlisted against an
// article's keywords and token profile.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Asset is one catalog entry. Kind is "image", "video" or "resource";
// ResourceType carries the link authority class (report, guide, blog, ...).
type Asset struct {
	ID           int64
	Kind         string
	URL          string
	Title        string
	Description  string
	Tags         string
	ResourceType string
}

// Candidates are the shortlisted asset buckets handed to the selection
// provider.
type Candidates struct {
	Hero    []Asset
	Context []Asset
	Links   []Asset
}

// Catalog reads assets from a SQLite database.
type Catalog struct {
	db *sql.DB
}

// Open opens the catalog database using the pure Go sqlite driver.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Init creates the catalog tables when they do not exist.
func (c *Catalog) Init(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS images (
			id INTEGER PRIMARY KEY,
			url TEXT NOT NULL,
			title TEXT,
			description TEXT,
			tags TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS videos (
			id INTEGER PRIMARY KEY,
			url TEXT NOT NULL,
			title TEXT,
			description TEXT,
			tags TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS resources (
			id INTEGER PRIMARY KEY,
			url TEXT NOT NULL,
			title TEXT,
			description TEXT,
			topic_tags TEXT,
			type TEXT
		)`,
	}
	for _, stmt := range schema {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init catalog schema: %w", err)
		}
	}
	return nil
}

// Images returns all image assets.
func (c *Catalog) Images(ctx context.Context) ([]Asset, error) {
	return c.queryMedia(ctx, "images", "image")
}

// Videos returns all video assets.
func (c *Catalog) Videos(ctx context.Context) ([]Asset, error) {
	return c.queryMedia(ctx, "videos", "video")
}

func (c *Catalog) queryMedia(ctx context.Context, table, kind string) ([]Asset, error) {
	rows, err := c.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, url, title, description, tags FROM %s", table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		a := Asset{Kind: kind}
		var title, desc, tags sql.NullString
		if err := rows.Scan(&a.ID, &a.URL, &title, &desc, &tags); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		a.Title, a.Description, a.Tags = title.String, desc.String, tags.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// Links returns all link resources.
func (c *Catalog) Links(ctx context.Context) ([]Asset, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT id, url, title, description, topic_tags, type FROM resources")
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		a := Asset{Kind: "resource"}
		var title, desc, tags, rtype sql.NullString
		if err := rows.Scan(&a.ID, &a.URL, &title, &desc, &tags, &rtype); err != nil {
			return nil, fmt.Errorf("scan resources: %w", err)
		}
		a.Title, a.Description, a.Tags, a.ResourceType = title.String, desc.String, tags.String, rtype.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// AddMedia inserts a media asset. Used by seeding tools and tests.
func (c *Catalog) AddMedia(ctx context.Context, a Asset) error {
	table := "images"
	if a.Kind == "video" {
		table = "videos"
	}
	_, err := c.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (url, title, description, tags) VALUES (?, ?, ?, ?)", table),
		a.URL, a.Title, a.Description, a.Tags)
	if err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// AddLink inserts a link resource.
func (c *Catalog) AddLink(ctx context.Context, a Asset) error {
	_, err := c.db.ExecContext(ctx,
		"INSERT INTO resources (url, title, description, topic_tags, type) VALUES (?, ?, ?, ?, ?)",
		a.URL, a.Title, a.Description, a.Tags, a.ResourceType)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}
