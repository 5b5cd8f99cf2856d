// Package mergequeue keeps the per-user ordered queues of audio references
// awaiting an explicit merge trigger. Queues live in process memory only.
package mergequeue

import (
	"fmt"
	"sync"

	"github.com/avolkov/tunegrab/internal/types"
)

// MinInputs is the smallest queue a merge will accept.
const MinInputs = 2

type Queue struct {
	mu     sync.Mutex
	byUser map[int64][]string
}

func New() *Queue {
	return &Queue{byUser: make(map[int64][]string)}
}

// Add appends a reference to the user's queue and returns the new length.
func (q *Queue) Add(user int64, ref string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.byUser[user] = append(q.byUser[user], ref)
	return len(q.byUser[user])
}

// Len reports the user's queue length.
func (q *Queue) Len(user int64) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.byUser[user])
}

// Take returns the user's queued references in submission order and clears
// the queue. Clearing happens before the merge attempt runs, so a failed
// merge can never leave a stuck queue behind. With fewer than MinInputs
// references Take fails and the queue is left untouched.
func (q *Queue) Take(user int64) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	refs := q.byUser[user]
	if len(refs) < MinInputs {
		return nil, fmt.Errorf("%w: %d queued", types.ErrInsufficientInputs, len(refs))
	}
	delete(q.byUser, user)
	return refs, nil
}
