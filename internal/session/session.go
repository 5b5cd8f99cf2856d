// Package session implements the interactive trim session: a per-user state
// machine that collects a start and end offset through successive selections
// and executes the cut once both bounds are confirmed.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/avolkov/tunegrab/internal/domain/offsets"
	"github.com/avolkov/tunegrab/internal/domain/timecode"
	"github.com/avolkov/tunegrab/internal/types"
)

// State of a trim session. Completed and Cancelled are terminal: a further
// interaction against them is treated as "session not found".
type State int

const (
	StateAwaitingStart State = iota
	StateAwaitingEnd
	StateReadyToConfirm
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateAwaitingStart:
		return "awaiting_start"
	case StateAwaitingEnd:
		return "awaiting_end"
	case StateReadyToConfirm:
		return "ready_to_confirm"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

func (s State) terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Snapshot is the immutable cut request handed to the executor once a
// session is confirmed.
type Snapshot struct {
	User      int64
	SourceRef string
	Duration  int // seconds
	Start     int // seconds
	End       int // seconds
}

// Executor runs the confirmed cut: fetch the source, trim, guard, deliver,
// release temporaries.
type Executor interface {
	ExecuteCut(ctx context.Context, snap Snapshot) error
}

// Outcome reports the session state after one interaction, the next
// selectable offsets (nil once terminal) and a user-facing disposition.
type Outcome struct {
	State      State
	Candidates []offsets.Candidate
	Notice     string
}

type trimSession struct {
	sourceRef string
	duration  int
	start     int
	end       int
	state     State
}

type entry struct {
	mu sync.Mutex
	s  *trimSession
}

// Manager keys one active session per user. A new Begin replaces the user's
// previous session. Interactions from the same user are serialized through
// the entry lock; different users never contend past the map lookup.
type Manager struct {
	exec   Executor
	logger *slog.Logger

	mu      sync.Mutex
	entries map[int64]*entry
}

func NewManager(exec Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		exec:    exec,
		logger:  logger,
		entries: make(map[int64]*entry),
	}
}

// Begin creates or replaces the user's session in AwaitingStart.
func (m *Manager) Begin(user int64, sourceRef string, duration int) Outcome {
	m.mu.Lock()
	m.entries[user] = &entry{s: &trimSession{
		sourceRef: sourceRef,
		duration:  duration,
		state:     StateAwaitingStart,
	}}
	m.mu.Unlock()

	return Outcome{
		State:      StateAwaitingStart,
		Candidates: offsets.Candidates(duration, 0),
		Notice:     "Pick a start time.",
	}
}

// Apply drives the user's session with one decoded event.
func (m *Manager) Apply(ctx context.Context, user int64, ev Event) (Outcome, error) {
	m.mu.Lock()
	e, ok := m.entries[user]
	m.mu.Unlock()
	if !ok {
		return Outcome{}, types.ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.s.state.terminal() {
		return Outcome{}, types.ErrSessionNotFound
	}

	switch ev.Kind {
	case EventSelectStart:
		return m.selectStart(e.s, ev.Token)
	case EventSelectEnd:
		return m.selectEnd(e.s, ev.Token)
	case EventConfirm:
		return m.confirm(ctx, user, e)
	case EventCancel:
		e.s.state = StateCancelled
		m.drop(user, e)
		return Outcome{State: StateCancelled, Notice: "Cut cancelled."}, nil
	}
	return Outcome{}, fmt.Errorf("unknown event kind %d", ev.Kind)
}

func (m *Manager) selectStart(s *trimSession, token string) (Outcome, error) {
	if s.state != StateAwaitingStart {
		return Outcome{
			State:      s.state,
			Candidates: offsets.Candidates(s.duration, s.start),
			Notice:     "Start is already chosen, pick an end time.",
		}, nil
	}
	sec := timecode.Parse(token)
	if sec >= s.duration {
		return Outcome{
			State:      s.state,
			Candidates: offsets.Candidates(s.duration, 0),
			Notice: fmt.Sprintf("Start %s is beyond the track duration %s.",
				timecode.Format(sec), timecode.Format(s.duration)),
		}, nil
	}
	s.start = sec
	s.state = StateAwaitingEnd
	return Outcome{
		State:      StateAwaitingEnd,
		Candidates: offsets.Candidates(s.duration, s.start),
		Notice:     fmt.Sprintf("Start set to %s, pick an end time.", timecode.Format(sec)),
	}, nil
}

// selectEnd covers both the first end selection and later revisions while
// the session sits in ReadyToConfirm.
func (m *Manager) selectEnd(s *trimSession, token string) (Outcome, error) {
	if s.state != StateAwaitingEnd && s.state != StateReadyToConfirm {
		return Outcome{
			State:      s.state,
			Candidates: offsets.Candidates(s.duration, 0),
			Notice:     "Pick a start time first.",
		}, nil
	}
	sec := timecode.Parse(token)
	if sec > s.duration {
		return Outcome{
			State:      s.state,
			Candidates: offsets.Candidates(s.duration, s.start),
			Notice: fmt.Sprintf("End %s is beyond the track duration %s.",
				timecode.Format(sec), timecode.Format(s.duration)),
		}, nil
	}
	s.end = sec
	s.state = StateReadyToConfirm
	return Outcome{
		State:      StateReadyToConfirm,
		Candidates: offsets.Candidates(s.duration, s.start),
		Notice: fmt.Sprintf("Cut %s – %s. Confirm, or pick another end time.",
			timecode.Format(s.start), timecode.Format(sec)),
	}, nil
}

func (m *Manager) confirm(ctx context.Context, user int64, e *entry) (Outcome, error) {
	s := e.s
	if s.state != StateReadyToConfirm {
		notice := "Pick a start time first."
		lower := 0
		if s.state == StateAwaitingEnd {
			notice = "Pick an end time first."
			lower = s.start
		}
		return Outcome{
			State:      s.state,
			Candidates: offsets.Candidates(s.duration, lower),
			Notice:     notice,
		}, nil
	}
	if s.end <= s.start {
		// Rejected, not silently corrected: the session keeps waiting for a
		// valid end selection.
		return Outcome{State: s.state}, fmt.Errorf("%w: %s – %s",
			types.ErrInvalidRange, timecode.Format(s.start), timecode.Format(s.end))
	}

	snap := Snapshot{
		User:      user,
		SourceRef: s.sourceRef,
		Duration:  s.duration,
		Start:     s.start,
		End:       s.end,
	}
	if err := m.exec.ExecuteCut(ctx, snap); err != nil {
		s.state = StateCancelled
		m.drop(user, e)
		m.logger.Error("cut execution failed", "user", user, "error", err)
		return Outcome{State: StateCancelled}, err
	}
	s.state = StateCompleted
	m.drop(user, e)
	return Outcome{State: StateCompleted, Notice: "Audio cut complete."}, nil
}

// drop forgets a terminal session so later interactions see "not found".
// The entry is compared so a session replaced by Begin mid-interaction never
// evicts its replacement. Callers hold the entry lock; the map lock nests
// inside it only here, never the other way around.
func (m *Manager) drop(user int64, e *entry) {
	m.mu.Lock()
	if m.entries[user] == e {
		delete(m.entries, user)
	}
	m.mu.Unlock()
}
