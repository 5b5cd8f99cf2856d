// Package offsets generates the bounded list of selectable time offsets shown
// at each step of an interactive trim.
package offsets

import "github.com/avolkov/tunegrab/internal/domain/timecode"

const (
	// Step is the spacing between generated offsets, in seconds.
	Step = 30
	// MaxChoices bounds the generated list, not counting the manual-entry
	// escape that is always appended.
	MaxChoices = 5
)

// Candidate is one selectable offset. Custom marks the manual-entry escape:
// its Seconds field is meaningless and its label is fixed.
type Candidate struct {
	Seconds int
	Label   string
	Custom  bool
}

// Candidates returns at most MaxChoices evenly spaced offsets starting at
// lowerBound, stepping by Step seconds and never exceeding duration, plus the
// manual-entry escape. Pure function of (duration, lowerBound).
func Candidates(duration, lowerBound int) []Candidate {
	if lowerBound < 0 {
		lowerBound = 0
	}
	out := make([]Candidate, 0, MaxChoices+1)
	for i := 0; i < MaxChoices; i++ {
		sec := lowerBound + i*Step
		if sec > duration {
			break
		}
		out = append(out, Candidate{Seconds: sec, Label: timecode.Format(sec)})
	}
	return append(out, Candidate{Label: "Custom", Custom: true})
}
