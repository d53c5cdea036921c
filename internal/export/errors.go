package export

import "fmt"

const (
	KindExport     = "EXPORT_ERROR"
	KindClipboard  = "CLIPBOARD_ERROR"
	KindInProgress = "EXPORT_IN_PROGRESS"
)

// ExportError reports a failed export. ClipID is empty for batch-scoped
// failures.
type ExportError struct {
	Op      string
	ClipID  string
	Message string
	Err     error
}

func (e *ExportError) Error() string {
	if e.ClipID != "" {
		return fmt.Sprintf("%s export of clip %s failed: %s", e.Op, e.ClipID, e.Message)
	}
	return fmt.Sprintf("%s export failed: %s", e.Op, e.Message)
}
func (e *ExportError) Unwrap() error { return e.Err }
func (e *ExportError) Kind() string  { return KindExport }

// ClipboardError means the text was produced but could not be placed on the
// clipboard. Text is the complete text for the caller to show instead.
type ClipboardError struct {
	Text   string
	Source string
	Err    error
}

func (e *ClipboardError) Error() string { return fmt.Sprintf("clipboard write failed: %v", e.Err) }
func (e *ClipboardError) Unwrap() error { return e.Err }
func (e *ClipboardError) Kind() string  { return KindClipboard }

// InProgressError rejects an operation whose previous run has not finished.
type InProgressError struct {
	Op     string
	ClipID string
}

func (e *InProgressError) Error() string {
	if e.ClipID != "" {
		return fmt.Sprintf("clip %s is already exporting", e.ClipID)
	}
	return fmt.Sprintf("%s export already in progress", e.Op)
}
func (e *InProgressError) Kind() string { return KindInProgress }
