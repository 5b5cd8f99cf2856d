package ffmpeg

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// scanProgress reads ffmpeg "-progress" key=value lines and reports the
// elapsed output time for each update block.
func scanProgress(r io.Reader, report func(elapsed time.Duration)) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		val, ok := strings.CutPrefix(line, "out_time_us=")
		if !ok {
			continue
		}
		us, err := strconv.ParseInt(val, 10, 64)
		if err != nil || us < 0 {
			continue
		}
		report(time.Duration(us) * time.Microsecond)
	}
}

// throttle converts elapsed output time into a fraction of the expected
// total and enforces a minimum interval between reports.
type throttle struct {
	total    time.Duration
	interval time.Duration
	last     time.Time
}

func newThrottle(total, interval time.Duration) *throttle {
	return &throttle{total: total, interval: interval}
}

// tick returns the fraction to report and whether this update passes the
// rate limit. With an unknown total no fraction can be computed and every
// update is suppressed; run() still reports completion.
func (t *throttle) tick(elapsed time.Duration, now time.Time) (float64, bool) {
	if t.total <= 0 {
		return 0, false
	}
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return 0, false
	}
	t.last = now
	f := float64(elapsed) / float64(t.total)
	if f > 1 {
		f = 1
	}
	if f < 0 {
		f = 0
	}
	return f, true
}
