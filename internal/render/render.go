// Package render turns ranked matches into a displayable text block with
// embeddable player markup.
package render

import (
	"fmt"
	"strings"

	"github.com/xsenlabs/video-mcp/internal/search"
)

// Fixed user-facing strings. Query problems are prompts, not errors.
const (
	NoQueryMessage    = "Please provide a search query to find XSEN videos."
	NoResultsMessage  = "No XSEN videos found for this query. Try different keywords!"
	LoadingMessage    = "The XSEN video catalog is still loading. Please try again in a moment."
	closingInvitation = "Enjoy! Ask anytime to search for more XSEN videos."
)

// EmbedURL builds the player embed link for a video id.
func EmbedURL(playerBase, videoID string) string {
	return fmt.Sprintf("%s?v=%s", playerBase, videoID)
}

// Render formats matches as a heading, an embed block, and the description
// as an aside, per match. Matches whose video id cannot be derived are
// skipped silently; they counted during ranking but cannot be embedded.
// An empty final list yields NoResultsMessage, otherwise the fixed closing
// invitation is appended.
func Render(matches []search.Match, playerBase string) string {
	var blocks []string
	for _, m := range matches {
		id := m.Entry.VideoID()
		if id == "" {
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "## %s\n\n", m.Entry.Title)
		fmt.Fprintf(&b, `<iframe src="%s" width="560" height="315" frameborder="0" allowfullscreen></iframe>`, EmbedURL(playerBase, id))
		if m.Entry.Description != "" {
			fmt.Fprintf(&b, "\n\n*%s*", m.Entry.Description)
		}
		blocks = append(blocks, b.String())
	}

	if len(blocks) == 0 {
		return NoResultsMessage
	}
	return strings.Join(blocks, "\n\n") + "\n\n" + closingInvitation
}
