// Package search ranks catalog entries against free-text queries.
package search

import (
	"sort"
	"strings"

	"github.com/xsenlabs/video-mcp/internal/catalog"
)

// DefaultLimit bounds a result set when the caller does not say otherwise.
const DefaultLimit = 3

// Match pairs a catalog entry with its relevance score for one query.
type Match struct {
	Entry catalog.Entry
	Score int
}

// Rank scores every catalog entry against the query and returns the top
// matches, bounded by limit (DefaultLimit when limit <= 0).
//
// Scoring: the query is lowercased and split on whitespace; each token
// contained in the lowercased title adds 2, each token contained in the
// lowercased description adds 1. Containment is plain substring matching,
// not word-boundary matching. Entries scoring 0 are dropped. Ties keep
// catalog order.
//
// A blank query returns nil; callers render their own "no query" prompt.
func Rank(c *catalog.Catalog, query string, limit int) []Match {
	if c == nil {
		return nil
	}

	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil
	}

	var matches []Match
	for _, e := range c.Entries {
		title := strings.ToLower(e.Title)
		desc := strings.ToLower(e.Description)

		score := 0
		for _, tok := range tokens {
			if strings.Contains(title, tok) {
				score += 2
			}
			if strings.Contains(desc, tok) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, Match{Entry: e, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
