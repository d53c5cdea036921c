package lifecycle

import (
	"errors"
	"fmt"

	"github.com/clipcraft/clipcraft-agent/internal/cloud"
)

// Error kinds rendered as the code of API error bodies.
const (
	KindValidation      = "VALIDATION_ERROR"
	KindSubmission      = "SUBMISSION_ERROR"
	KindPollTransport   = "POLL_TRANSPORT_ERROR"
	KindServerFailure   = "SERVER_REPORTED_FAILURE"
	KindResultRetrieval = "RESULT_RETRIEVAL_ERROR"
	KindJobActive       = "JOB_ACTIVE"
)

const (
	msgConnectivity  = "Could not reach the processing service. Check that it is running and try again."
	msgServerFailure = "Processing failed on the server."
)

// ErrJobActive is returned by Submit while another job is submitting or
// polling. Reset first.
var ErrJobActive = &ActiveJobError{}

// ErrReset marks work that was abandoned because the controller was reset.
var ErrReset = errors.New("controller was reset")

// Kinded is implemented by every error this package returns.
type Kinded interface {
	error
	Kind() string
}

// ValidationError reports a bad source URL or option before any network call.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}
func (e *ValidationError) Unwrap() error { return e.Err }
func (e *ValidationError) Kind() string  { return KindValidation }

// SubmissionError reports a failed submit request.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string { return "submission failed: " + e.Message }
func (e *SubmissionError) Unwrap() error { return e.Err }
func (e *SubmissionError) Kind() string  { return KindSubmission }

// PollTransportError reports a status poll that never got a usable answer.
// Polling is not retried.
type PollTransportError struct {
	JobID string
	Err   error
}

func (e *PollTransportError) Error() string {
	return fmt.Sprintf("status poll for job %s failed: %v", e.JobID, e.Err)
}
func (e *PollTransportError) Unwrap() error { return e.Err }
func (e *PollTransportError) Kind() string  { return KindPollTransport }

// ServerReportedFailure is a job the service itself marked failed or cancelled.
type ServerReportedFailure struct {
	JobID   string
	Status  string
	Message string
}

func (e *ServerReportedFailure) Error() string { return e.Message }
func (e *ServerReportedFailure) Kind() string  { return KindServerFailure }

// ResultRetrievalError reports a completed job whose result could not be
// fetched or did not validate.
type ResultRetrievalError struct {
	JobID string
	Err   error
}

func (e *ResultRetrievalError) Error() string {
	return fmt.Sprintf("fetching result for job %s failed: %v", e.JobID, e.Err)
}
func (e *ResultRetrievalError) Unwrap() error { return e.Err }
func (e *ResultRetrievalError) Kind() string  { return KindResultRetrieval }

type ActiveJobError struct{}

func (e *ActiveJobError) Error() string { return "a job is already in progress" }
func (e *ActiveJobError) Kind() string  { return KindJobActive }

// serviceMessage extracts the human message the service attached to err, or
// returns fallback for transport failures.
func serviceMessage(err error, fallback string) string {
	var apiErr *cloud.APIError
	if errors.As(err, &apiErr) {
		if d := apiErr.Detail(); d != "" {
			return d
		}
	}
	var rejected *cloud.RejectedError
	if errors.As(err, &rejected) && rejected.Message != "" {
		return rejected.Message
	}
	return fallback
}
