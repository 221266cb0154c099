// Package catalog holds the in-memory video catalog and its remote loader.
package catalog

import (
	"net/url"
	"strings"
	"time"
)

// Entry is a single video in the catalog. Entries are immutable once loaded.
type Entry struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// VideoID returns the embeddable video id derived from the entry URL,
// or the empty string when the URL shape is not recognized.
func (e Entry) VideoID() string {
	return ParseVideoID(e.URL)
}

// Catalog is an ordered snapshot of entries. It is replaced wholesale on
// every successful load and never mutated in place, so holders of a
// snapshot can read it without synchronization.
type Catalog struct {
	Entries    []Entry
	Generation uint64
	LoadedAt   time.Time
}

// Len returns the number of entries, tolerating a nil catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Entries)
}

// ParseVideoID extracts a video id from a source URL. Recognized shapes:
// a "v" query parameter (watch-style URLs) and a youtu.be short path.
// Anything else yields the empty string, which excludes the entry from
// rendering without excluding it from scoring.
func ParseVideoID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	if strings.EqualFold(u.Host, "youtu.be") {
		id := strings.TrimPrefix(u.Path, "/")
		if i := strings.IndexByte(id, '/'); i >= 0 {
			id = id[:i]
		}
		return id
	}
	return ""
}
