package types

import "errors"

// Pipeline failure taxonomy. Every error is caught at the request boundary
// and rendered as a user-facing status message; none crash the process.
var (
	// ErrAcquisitionTimeout: the extraction engine did not settle within the
	// acquisition deadline. Terminal for the request, no automatic retry.
	ErrAcquisitionTimeout = errors.New("acquisition timed out")

	// ErrNoArtifactProduced: the engine reported success but left no artifact
	// in the working directory.
	ErrNoArtifactProduced = errors.New("no artifact produced")

	// ErrRequestTooLarge: the artifact byte size or the source duration
	// exceeds a platform ceiling, before or after compression.
	ErrRequestTooLarge = errors.New("request too large")

	// ErrInvalidRange: trim end does not exceed trim start.
	ErrInvalidRange = errors.New("end time must be after start time")

	// ErrInsufficientInputs: merge requested with fewer than two inputs.
	ErrInsufficientInputs = errors.New("at least two audio inputs required")

	// ErrSessionNotFound: interaction against an absent or terminal session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUpstreamFailure: an external engine or API returned a non-zero or
	// non-2xx result.
	ErrUpstreamFailure = errors.New("upstream failure")

	// ErrRateLimitExhausted: every API key in the pool hit its rate limit.
	// Terminal for the request, no automatic retry.
	ErrRateLimitExhausted = errors.New("all api keys rate limited")
)
