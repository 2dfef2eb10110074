package glyphforge

import "errors"

// Batch- and session-fatal errors. These fail the surrounding call
// before any job executes; per-job problems are reported inside a
// [JobResult] instead and never reach this tier.
var (
	// ErrInvalidInput is returned when a batch request is not
	// well-formed structured data.
	ErrInvalidInput = errors.New("glyphforge: invalid batch input")

	// ErrUnsupportedVersion is returned when a batch declares a
	// version other than "1.0".
	ErrUnsupportedVersion = errors.New("glyphforge: unsupported batch version")

	// ErrEmptyBatch is returned when a batch contains no jobs.
	ErrEmptyBatch = errors.New("glyphforge: batch contains no jobs")

	// ErrSessionClosed is returned by session calls after Close.
	ErrSessionClosed = errors.New("glyphforge: session is closed")
)
