// Package guard enforces the platform ceilings on deliverable artifacts.
package guard

import (
	"fmt"
	"os"

	"github.com/avolkov/tunegrab/internal/domain/timecode"
	"github.com/avolkov/tunegrab/internal/types"
)

const (
	// MaxArtifactBytes is the delivery ceiling imposed by the chat platform.
	MaxArtifactBytes = 50 << 20
	// MaxSourceSeconds bounds the source duration accepted for acquisition.
	// Checked before download so oversized sources fail fast.
	MaxSourceSeconds = 60 * 60
)

// CheckSize rejects artifacts above the byte ceiling. An artifact exactly at
// the ceiling passes.
func CheckSize(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}
	if fi.Size() > MaxArtifactBytes {
		return fmt.Errorf("%w: %d bytes over the %d byte ceiling",
			types.ErrRequestTooLarge, fi.Size(), MaxArtifactBytes)
	}
	return nil
}

// CheckDuration rejects sources longer than the acquisition ceiling.
func CheckDuration(seconds int) error {
	if seconds > MaxSourceSeconds {
		return fmt.Errorf("%w: source runs %s, ceiling is %s",
			types.ErrRequestTooLarge, timecode.Format(seconds), timecode.Format(MaxSourceSeconds))
	}
	return nil
}
