package export

import (
	"fmt"
	"strings"

	"github.com/clipcraft/clipcraft-agent/internal/catalog"
)

const (
	timestampHeader = "🎬 ClipCraft AI - Generated Clips"
	timestampFooter = "Generated by ClipCraft AI - Turn long videos into viral clips! 🚀"
)

// FormatTimestamps renders the shareable clip list locally, in the same
// layout the service produces.
func FormatTimestamps(videoID string, clips []catalog.Clip) string {
	var b strings.Builder
	b.WriteString(timestampHeader + "\n")
	fmt.Fprintf(&b, "Original Video: %s\n\n", catalog.WatchURL(videoID))

	for i, c := range clips {
		title := c.Title
		if title == "" {
			title = fmt.Sprintf("Clip %d", i+1)
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)
		fmt.Fprintf(&b, "   ⏰ %s - %s\n", catalog.FormatClock(c.StartTime), catalog.FormatClock(c.EndTime))
		fmt.Fprintf(&b, "   🎯 Confidence: %d%%\n", int(c.Confidence*100))
		fmt.Fprintf(&b, "   🔗 %s\n\n", catalog.ClipURL(videoID, c.StartTime))
	}

	b.WriteString(timestampFooter)
	return b.String()
}
