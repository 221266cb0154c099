package search

import (
	"strings"
	"testing"

	"github.com/xsenlabs/video-mcp/internal/catalog"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Generation: 1,
		Entries: []catalog.Entry{
			{Title: "Baker Mayfield Highlights", Description: "2017 Heisman run", URL: "https://youtu.be/abc123"},
			{Title: "Sooners Season Recap", Description: "Baker leads Oklahoma", URL: "https://youtu.be/def456"},
			{Title: "Draft Day", Description: "First overall pick", URL: "https://youtu.be/ghi789"},
			{Title: "Training Camp", Description: "Summer practice footage", URL: "https://youtu.be/jkl012"},
		},
	}
}

func TestRankScoring(t *testing.T) {
	matches := Rank(testCatalog(), "baker", 10)
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	// Title hit scores 2, description hit scores 1.
	if matches[0].Entry.Title != "Baker Mayfield Highlights" || matches[0].Score != 2 {
		t.Fatalf("first match = %q score %d", matches[0].Entry.Title, matches[0].Score)
	}
	if matches[1].Entry.Title != "Sooners Season Recap" || matches[1].Score != 1 {
		t.Fatalf("second match = %q score %d", matches[1].Entry.Title, matches[1].Score)
	}
}

func TestRankMultiTokenAccumulates(t *testing.T) {
	matches := Rank(testCatalog(), "baker heisman", 10)
	if len(matches) == 0 {
		t.Fatal("expected matches")
	}
	// "baker" in title (2) + "heisman" in description (1).
	if matches[0].Score != 3 {
		t.Fatalf("top score = %d, want 3", matches[0].Score)
	}
}

func TestRankSubstringNotWordBoundary(t *testing.T) {
	matches := Rank(testCatalog(), "bak", 10)
	if len(matches) != 2 {
		t.Fatalf("substring query matched %d entries, want 2", len(matches))
	}
}

func TestRankCaseInsensitive(t *testing.T) {
	a := Rank(testCatalog(), "BAKER", 10)
	b := Rank(testCatalog(), "baker", 10)
	if len(a) != len(b) {
		t.Fatalf("case changed match count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("case changed result %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

// Score is 0 (entry dropped) exactly when no token appears in title or
// description, case-insensitively.
func TestRankZeroScoreExcluded(t *testing.T) {
	c := testCatalog()
	matches := Rank(c, "practice draft", 10)
	for _, m := range matches {
		title := strings.ToLower(m.Entry.Title)
		desc := strings.ToLower(m.Entry.Description)
		if !strings.Contains(title, "practice") && !strings.Contains(desc, "practice") &&
			!strings.Contains(title, "draft") && !strings.Contains(desc, "draft") {
			t.Fatalf("entry %q matched without containing any token", m.Entry.Title)
		}
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
}

func TestRankOrderingStable(t *testing.T) {
	c := &catalog.Catalog{Entries: []catalog.Entry{
		{Title: "alpha tie", Description: ""},
		{Title: "beta tie", Description: ""},
		{Title: "gamma tie", Description: ""},
	}}
	matches := Rank(c, "tie", 10)
	if len(matches) != 3 {
		t.Fatalf("matches = %d, want 3", len(matches))
	}
	for i, want := range []string{"alpha tie", "beta tie", "gamma tie"} {
		if matches[i].Entry.Title != want {
			t.Fatalf("tie order broken at %d: got %q want %q", i, matches[i].Entry.Title, want)
		}
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Fatalf("scores not non-increasing at %d", i)
		}
	}
}

func TestRankBlankQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		if got := Rank(testCatalog(), q, 10); got != nil {
			t.Fatalf("Rank(%q) = %v, want nil", q, got)
		}
	}
}

func TestRankNilCatalog(t *testing.T) {
	if got := Rank(nil, "baker", 10); got != nil {
		t.Fatalf("Rank(nil, ...) = %v, want nil", got)
	}
}

func TestRankLimit(t *testing.T) {
	c := &catalog.Catalog{Entries: []catalog.Entry{
		{Title: "match one"}, {Title: "match two"}, {Title: "match three"},
		{Title: "match four"}, {Title: "match five"},
	}}
	if got := Rank(c, "match", 2); len(got) != 2 {
		t.Fatalf("limit 2 returned %d", len(got))
	}
	// limit <= 0 falls back to DefaultLimit.
	if got := Rank(c, "match", 0); len(got) != DefaultLimit {
		t.Fatalf("default limit returned %d, want %d", len(got), DefaultLimit)
	}
}
