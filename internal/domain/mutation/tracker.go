package mutation

import (
	"sort"
	"sync"
	"time"
)

// Operation is an in-flight mutation.
type Operation struct {
	Token     string    `json:"token"`
	BoardID   int64     `json:"board_id"`
	Op        string    `json:"op"`
	Entity    string    `json:"entity"`
	StartedAt time.Time `json:"started_at"`
}

// Tracker is the shared set of in-flight operation tokens. Subscribers are
// called whenever the set flips between empty and non-empty.
type Tracker struct {
	mu   sync.Mutex
	ops  map[string]Operation
	subs map[*trackerSub]struct{}
}

type trackerSub struct {
	fn func(syncing bool)
}

func NewTracker() *Tracker {
	return &Tracker{
		ops:  make(map[string]Operation),
		subs: make(map[*trackerSub]struct{}),
	}
}

// Start adds an operation to the in-flight set.
func (t *Tracker) Start(op Operation) {
	if op.StartedAt.IsZero() {
		op.StartedAt = time.Now().UTC()
	}
	t.mu.Lock()
	was := len(t.ops) > 0
	t.ops[op.Token] = op
	subs := t.flipped(was)
	t.mu.Unlock()

	for _, sub := range subs {
		sub.fn(true)
	}
}

// End retires a token. It reports whether the token was in flight.
func (t *Tracker) End(token string) bool {
	t.mu.Lock()
	if _, ok := t.ops[token]; !ok {
		t.mu.Unlock()
		return false
	}
	was := len(t.ops) > 0
	delete(t.ops, token)
	subs := t.flipped(was)
	t.mu.Unlock()

	for _, sub := range subs {
		sub.fn(false)
	}
	return true
}

// Syncing reports whether any operation is in flight.
func (t *Tracker) Syncing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ops) > 0
}

// Operations returns the in-flight operations, oldest first.
func (t *Tracker) Operations() []Operation {
	t.mu.Lock()
	ops := make([]Operation, 0, len(t.ops))
	for _, op := range t.ops {
		ops = append(ops, op)
	}
	t.mu.Unlock()

	sort.Slice(ops, func(i, j int) bool {
		if ops[i].StartedAt.Equal(ops[j].StartedAt) {
			return ops[i].Token < ops[j].Token
		}
		return ops[i].StartedAt.Before(ops[j].StartedAt)
	})
	return ops
}

// Subscribe registers fn for syncing transitions and returns an unsubscribe
// function.
func (t *Tracker) Subscribe(fn func(syncing bool)) func() {
	sub := &trackerSub{fn: fn}
	t.mu.Lock()
	t.subs[sub] = struct{}{}
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.subs, sub)
		t.mu.Unlock()
	}
}

// flipped returns the subscribers to call if the set changed emptiness.
// Caller holds t.mu.
func (t *Tracker) flipped(was bool) []*trackerSub {
	if was == (len(t.ops) > 0) {
		return nil
	}
	subs := make([]*trackerSub, 0, len(t.subs))
	for sub := range t.subs {
		subs = append(subs, sub)
	}
	return subs
}
