package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	maxFilenameRunes = 120
	maxClipNameRunes = 160
)

// ErrInvalidOutputDir is wrapped by every ValidateOutputDir failure.
var ErrInvalidOutputDir = errors.New("invalid output_dir")

// SanitizeName drops control characters, replaces anything outside a small
// filename-safe set with '_' and truncates to maxLen runes.
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsControl(r):
		case isAllowedNameRune(r):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		if runes := []rune(cleaned); len(runes) > maxLen {
			cleaned = strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	return cleaned
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.', ',', '(', ')':
		return true
	default:
		return false
	}
}

// SuggestedFilename builds "<title>_<clip id>.<format>" with spaces turned
// into underscores, the name the service suggests for a downloaded clip.
func SuggestedFilename(title, clipID, format string) string {
	if format == "" {
		format = "mp4"
	}
	name := strings.ReplaceAll(SanitizeName(title, maxFilenameRunes), " ", "_")
	id := SanitizeName(clipID, 64)
	switch {
	case name == "":
		name = id
	case id != "":
		name += "_" + id
	}
	if name == "" {
		name = "clip"
	}
	return name + "." + format
}

// ValidateOutputDir requires dir to be a clean, existing directory with no
// ".." segments.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("%w: output_dir is required", ErrInvalidOutputDir)
	}

	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return fmt.Errorf("%w: path traversal is not allowed", ErrInvalidOutputDir)
		}
	}

	if filepath.Clean(dir) != dir {
		return fmt.Errorf("%w: must be a clean path", ErrInvalidOutputDir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s does not exist", ErrInvalidOutputDir, dir)
		}
		return fmt.Errorf("%w: %v", ErrInvalidOutputDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidOutputDir, dir)
	}
	return nil
}
