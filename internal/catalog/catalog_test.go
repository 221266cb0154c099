package catalog

import "testing"

func TestParseVideoID(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want string
	}{
		{"watch_param", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short_link", "https://youtu.be/abc123", "abc123"},
		{"short_link_trailing_path", "https://youtu.be/abc123/extra", "abc123"},
		{"short_link_query", "https://youtu.be/abc123?t=42", "abc123"},
		{"param_wins_over_path", "https://youtu.be/ignored?v=chosen", "chosen"},
		{"embed_path_unrecognized", "https://www.youtube.com/embed/abc123", ""},
		{"plain_site", "https://example.com/video/1", ""},
		{"empty", "", ""},
		{"whitespace", "   ", ""},
		{"malformed", "http://a b.com/?v=x", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseVideoID(tc.url); got != tc.want {
				t.Fatalf("ParseVideoID(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}

func TestEntryVideoID(t *testing.T) {
	e := Entry{Title: "t", URL: "https://youtu.be/abc123"}
	if got := e.VideoID(); got != "abc123" {
		t.Fatalf("VideoID() = %q, want abc123", got)
	}
}

func TestCatalogLenNil(t *testing.T) {
	var c *Catalog
	if c.Len() != 0 {
		t.Fatalf("nil catalog Len() = %d, want 0", c.Len())
	}
}
