package services

import (
	"errors"
	"fmt"
	"strings"

	"shortreel/internal/queue"
)

var (
	// ErrEmptyTranscription is returned when speech recognition produced
	// zero usable words. Deterministic; never retried.
	ErrEmptyTranscription = errors.New("empty transcription")
	// ErrAlignmentDegenerate is returned when the script and the observed
	// transcript diverge beyond the configured error fraction.
	// Deterministic; never retried.
	ErrAlignmentDegenerate = errors.New("alignment degenerate")
	// ErrAssetUnavailable marks a single visual asset that could not be
	// fetched. Recovered locally with the placeholder asset, never fatal.
	ErrAssetUnavailable = errors.New("asset unavailable")
	// ErrExternalTimeout marks an external collaborator call that exceeded
	// its deadline after exhausting the retry budget.
	ErrExternalTimeout = errors.New("external call timeout")
	// ErrExternalFailed marks an external collaborator call that failed
	// after exhausting the retry budget.
	ErrExternalFailed = errors.New("external call failed")
	// ErrValidation marks bad or inconsistent pipeline inputs.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or malformed configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later status classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a stage error to the queue status the workflow manager
// should persist after the stage fails. Deterministic failures go to review
// because retrying the same inputs would reproduce them; external failures
// stay failed and eligible for retry.
func FailureStatus(err error) queue.Status {
	switch {
	case errors.Is(err, ErrEmptyTranscription),
		errors.Is(err, ErrAlignmentDegenerate),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrConfiguration):
		return queue.StatusReview
	default:
		return queue.StatusFailed
	}
}

// Retryable reports whether an error represents a transient external
// failure worth another attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrExternalTimeout) || errors.Is(err, ErrExternalFailed)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
