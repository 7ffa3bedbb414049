package stories

import (
	"fmt"
	"strings"
)

// Unavailable is the fixed user-visible reply when the extraction
// service fails.
const Unavailable = "Sorry, I couldn't fetch trending stories right now."

// maxDigestStories caps the digest length.
const maxDigestStories = 10

// FormatDigest renders the stories as a numbered chat digest.
func FormatDigest(stories []Story) string {
	if len(stories) == 0 {
		return "No trending stories right now."
	}
	if len(stories) > maxDigestStories {
		stories = stories[:maxDigestStories]
	}

	var b strings.Builder
	b.WriteString("🔥 What's hot right now:\n")
	for i, s := range stories {
		fmt.Fprintf(&b, "\n%d. %s\n%s\n", i+1, s.Title, s.URL)
		if s.Summary != "" {
			fmt.Fprintf(&b, "%s\n", s.Summary)
		}
	}
	return b.String()
}
