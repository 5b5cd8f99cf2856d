// Package timecode converts between human time tokens ("H:MM:SS", "MM:SS",
// or bare seconds) and a canonical second count.
//
// Parsing is deliberately permissive: malformed input resolves to zero
// seconds instead of an error. The interactive flows that feed it treat a
// missing bound as "from the beginning", so a validation error here would be
// a product decision, not a bug fix.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse interprets 1-3 colon-separated numeric fields as seconds,
// minutes:seconds or hours:minutes:seconds. Unparsable or empty input
// resolves to 0.
func Parse(token string) int {
	parts := strings.Split(strings.TrimSpace(token), ":")
	if len(parts) > 3 {
		return 0
	}
	nums := make([]int, 0, 3)
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0
		}
		nums = append(nums, n)
	}
	switch len(nums) {
	case 1:
		return nums[0]
	case 2:
		return nums[0]*60 + nums[1]
	default:
		return nums[0]*3600 + nums[1]*60 + nums[2]
	}
}

// Format renders a second count in canonical form: zero-padded "MM:SS" under
// one hour, "H:MM:SS" otherwise. Parse(Format(x)) == x for every
// non-negative x.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := seconds % 3600 / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
