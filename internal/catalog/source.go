package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const watchBaseURL = "https://www.youtube.com/watch"

var ErrInvalidSourceURL = errors.New("invalid YouTube URL")

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var watchHosts = map[string]bool{
	"youtube.com":     true,
	"www.youtube.com": true,
	"m.youtube.com":   true,
}

// ParseSourceURL validates a video-sharing URL and returns the video id it
// carries. Accepted forms are the watch page with a v query parameter, the
// embed path and youtu.be short links, on the desktop and mobile hosts.
func ParseSourceURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: url is required", ErrInvalidSourceURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSourceURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidSourceURL, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	var id string
	switch {
	case host == "youtu.be":
		id = strings.Trim(u.Path, "/")
	case watchHosts[host]:
		switch {
		case u.Path == "/watch" || u.Path == "/watch/":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.TrimPrefix(u.Path, "/embed/")
		default:
			return "", fmt.Errorf("%w: unsupported path %q", ErrInvalidSourceURL, u.Path)
		}
	default:
		return "", fmt.Errorf("%w: unsupported host %q", ErrInvalidSourceURL, host)
	}

	id = strings.TrimSuffix(id, "/")
	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: missing or malformed video id", ErrInvalidSourceURL)
	}
	return id, nil
}

// IsValidSourceURL reports whether ParseSourceURL accepts raw.
func IsValidSourceURL(raw string) bool {
	_, err := ParseSourceURL(raw)
	return err == nil
}

// WatchURL returns the canonical watch page for a video.
func WatchURL(videoID string) string {
	return watchBaseURL + "?v=" + url.QueryEscape(videoID)
}

// ClipURL returns the canonical watch page starting at the clip's start
// offset, in whole seconds.
func ClipURL(videoID string, startSeconds float64) string {
	if startSeconds < 0 {
		startSeconds = 0
	}
	return fmt.Sprintf("%s&t=%ds", WatchURL(videoID), int(startSeconds))
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
