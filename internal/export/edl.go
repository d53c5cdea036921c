package export

import (
	"fmt"
	"math"
	"strings"
)

const defaultFrameRate = 30.0

// TimelineEvent is one clip placed on an EDL timeline. Times are seconds
// into the source video.
type TimelineEvent struct {
	Name      string
	SourceURL string
	Start     float64
	End       float64
}

// GenerateEDL renders events as a CMX3600 edit decision list. Events are
// laid end to end on the record side in the given order.
func GenerateEDL(events []TimelineEvent, title string, frameRate float64) string {
	if frameRate <= 0 {
		frameRate = defaultFrameRate
	}
	fps := int(math.Round(frameRate))

	fcm := "FCM: NON-DROP FRAME"
	if isDropFrameRate(frameRate) {
		fcm = "FCM: DROP FRAME"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n%s\n\n", title, fcm)

	record := 0.0
	for i, ev := range events {
		length := ev.End - ev.Start
		fmt.Fprintf(&b, "%03d  %-8s %-5s C        %s %s %s %s\n",
			i+1, "AX", "V",
			timecode(ev.Start, fps), timecode(ev.End, fps),
			timecode(record, fps), timecode(record+length, fps),
		)
		fmt.Fprintf(&b, "* FROM CLIP NAME:  %s\n", ev.Name)
		fmt.Fprintf(&b, "* SOURCE URL:  %s\n", ev.SourceURL)
		record += length
	}
	return b.String()
}

func isDropFrameRate(rate float64) bool {
	return math.Abs(rate-29.97) < 0.01 || math.Abs(rate-59.94) < 0.01
}

// timecode renders seconds as HH:MM:SS:FF at fps.
func timecode(seconds float64, fps int) string {
	if seconds < 0 {
		seconds = 0
	}
	frames := int(math.Round(seconds * float64(fps)))
	ff := frames % fps
	secs := frames / fps
	return fmt.Sprintf("%02d:%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60, ff)
}
