// Package desktop performs the agent's side effects on the user's machine:
// opening links in the default browser and writing to the system clipboard.
package desktop

import (
	"errors"
	"log/slog"

	"github.com/atotto/clipboard"
	"github.com/pkg/browser"
)

// ErrClipboardUnavailable is returned by clipboards that cannot be written.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// Opener opens an external link.
type Opener interface {
	OpenURL(url string) error
}

// Clipboard receives text for the user to paste.
type Clipboard interface {
	WriteText(text string) error
}

// BrowserOpener opens links with the platform's default browser.
type BrowserOpener struct {
	logger *slog.Logger
}

func NewBrowserOpener(logger *slog.Logger) *BrowserOpener {
	return &BrowserOpener{logger: logger}
}

func (o *BrowserOpener) OpenURL(url string) error {
	o.logger.Debug("opening link", "url", url)
	return browser.OpenURL(url)
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteText(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnavailable
	}
	return clipboard.WriteAll(text)
}

// LogOpener logs links instead of opening them. Used in headless mode.
type LogOpener struct {
	logger *slog.Logger
}

func NewLogOpener(logger *slog.Logger) *LogOpener {
	return &LogOpener{logger: logger}
}

func (o *LogOpener) OpenURL(url string) error {
	o.logger.Info("headless: link not opened", "url", url)
	return nil
}

// NoClipboard always fails, so callers fall back to returning the text.
type NoClipboard struct{}

func (NoClipboard) WriteText(string) error {
	return ErrClipboardUnavailable
}

// New returns the opener and clipboard for the current mode.
func New(headless bool, logger *slog.Logger) (Opener, Clipboard) {
	if headless {
		return NewLogOpener(logger), NoClipboard{}
	}
	return NewBrowserOpener(logger), SystemClipboard{}
}
