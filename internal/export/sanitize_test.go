package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeName_ControlChars(t *testing.T) {
	got := SanitizeName(" A\nB\rC\tD\x00 ", 100)
	if strings.ContainsAny(got, "\n\r\t\x00") {
		t.Fatalf("sanitize output contains control chars: %q", got)
	}
	if got != "ABCD" {
		t.Fatalf("SanitizeName control char behavior mismatch, got %q", got)
	}
}

func TestSanitizeName_MaxLength(t *testing.T) {
	got := SanitizeName("abcdefghijklmnopqrstuvwxyz", 10)
	if len([]rune(got)) != 10 {
		t.Fatalf("expected length 10, got %d (%q)", len([]rune(got)), got)
	}
}

func TestSanitizeName_ReplacesDisallowed(t *testing.T) {
	got := SanitizeName("🎯 Best<>|\"moment", 100)
	if got != "_ Best____moment" {
		t.Fatalf("SanitizeName disallowed replacement mismatch: got %q", got)
	}
}

func TestSuggestedFilename(t *testing.T) {
	tests := []struct {
		title, id, format, want string
	}{
		{"Big reveal", "c2", "mp4", "Big_reveal_c2.mp4"},
		{"", "c2", "", "c2.mp4"},
		{"a/b", "", "webm", "a_b.webm"},
		{"", "", "", "clip.mp4"},
	}
	for _, tt := range tests {
		if got := SuggestedFilename(tt.title, tt.id, tt.format); got != tt.want {
			t.Errorf("SuggestedFilename(%q, %q, %q) = %q, want %q", tt.title, tt.id, tt.format, got, tt.want)
		}
	}
}

func TestValidateOutputDir(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	if err := ValidateOutputDir(base); err != nil {
		t.Fatalf("ValidateOutputDir(%q) error = %v, want nil", base, err)
	}

	for _, dir := range []string{"", filepath.Join(base, "missing"), "/tmp/../etc", base + "/", file} {
		err := ValidateOutputDir(dir)
		if !errors.Is(err, ErrInvalidOutputDir) {
			t.Errorf("ValidateOutputDir(%q) = %v, want ErrInvalidOutputDir", dir, err)
		}
	}
}
