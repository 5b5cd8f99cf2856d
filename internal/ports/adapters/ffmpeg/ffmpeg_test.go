package ffmpeg

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/avolkov/tunegrab/internal/types"
)

func TestTrim_RejectsInvalidRangeBeforeInvokingEngine(t *testing.T) {
	t.Parallel()

	// A nonexistent binary: if the engine were invoked the error would be an
	// exec failure, not ErrInvalidRange.
	a := New("/nonexistent/ffmpeg", "/nonexistent/ffprobe")

	cases := []struct{ start, end time.Duration }{
		{10 * time.Second, 10 * time.Second},
		{10 * time.Second, 5 * time.Second},
	}
	for _, tc := range cases {
		err := a.Trim(context.Background(), "in.mp3", "out.mp3", tc.start, tc.end, nil)
		if !errors.Is(err, types.ErrInvalidRange) {
			t.Fatalf("Trim(%v, %v): expected ErrInvalidRange, got %v", tc.start, tc.end, err)
		}
	}
}

func TestMerge_RejectsSingleInput(t *testing.T) {
	t.Parallel()

	a := New("/nonexistent/ffmpeg", "/nonexistent/ffprobe")
	err := a.Merge(context.Background(), []string{"only.mp3"}, "out.mp3", nil)
	if !errors.Is(err, types.ErrInsufficientInputs) {
		t.Fatalf("expected ErrInsufficientInputs, got %v", err)
	}
}

func TestScanProgress_ParsesOutTime(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"frame=1",
		"out_time_us=1500000",
		"progress=continue",
		"out_time_us=4000000",
		"out_time_us=bogus",
		"progress=end",
	}, "\n")

	var got []time.Duration
	scanProgress(strings.NewReader(input), func(elapsed time.Duration) {
		got = append(got, elapsed)
	})

	want := []time.Duration{1500 * time.Millisecond, 4 * time.Second}
	if len(got) != len(want) {
		t.Fatalf("expected %d updates, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("update %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestThrottle_EnforcesMinimumInterval(t *testing.T) {
	t.Parallel()

	th := newThrottle(10*time.Second, 3*time.Second)
	base := time.Now()

	if f, ok := th.tick(1*time.Second, base); !ok || f != 0.1 {
		t.Fatalf("first tick: f=%v ok=%v", f, ok)
	}
	if _, ok := th.tick(2*time.Second, base.Add(time.Second)); ok {
		t.Fatal("tick inside the interval must be suppressed")
	}
	if f, ok := th.tick(5*time.Second, base.Add(3*time.Second)); !ok || f != 0.5 {
		t.Fatalf("tick at the interval boundary: f=%v ok=%v", f, ok)
	}
}

func TestThrottle_ClampsFraction(t *testing.T) {
	t.Parallel()

	th := newThrottle(2*time.Second, 0)
	if f, ok := th.tick(5*time.Second, time.Now()); !ok || f != 1 {
		t.Fatalf("expected clamp to 1, got f=%v ok=%v", f, ok)
	}
}

func TestThrottle_UnknownTotalSuppressesUpdates(t *testing.T) {
	t.Parallel()

	th := newThrottle(0, 3*time.Second)
	if _, ok := th.tick(time.Second, time.Now()); ok {
		t.Fatal("expected suppression with unknown total")
	}
}

func TestFmtSeconds(t *testing.T) {
	t.Parallel()

	if got := fmtSeconds(90 * time.Second); got != "90.000" {
		t.Fatalf("fmtSeconds = %q", got)
	}
	if got := fmtSeconds(1500 * time.Millisecond); got != "1.500" {
		t.Fatalf("fmtSeconds = %q", got)
	}
}
