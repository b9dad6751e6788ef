package query

import (
	"sync"

	"postsmanager/internal/filter"
	"postsmanager/internal/models"
	"postsmanager/internal/observability"
)

// Ticket tags one fetch with the generation and state snapshot that issued it.
type Ticket struct {
	Generation uint64
	Snapshot   filter.State
	Plan       Plan
}

// Result is a settled fetch.
type Result struct {
	Posts []*models.Post `json:"posts"`
	Total int            `json:"total"`
}

// View is what the page shows for the current state.
type View struct {
	Mode       Mode           `json:"mode"`
	Posts      []*models.Post `json:"posts"`
	Total      int            `json:"total"`
	Loading    bool           `json:"loading"`
	Generation uint64         `json:"generation"`
	Error      string         `json:"error,omitempty"`
}

type settled struct {
	snapshot filter.State
	mode     Mode
	result   Result
}

// Resolver accepts only results fetched for the current state. A fetch issued
// before the last state change is discarded, so a slow list read can never
// overwrite a newer tag read. Among fetches for the same state, a result is kept
// unless a later-issued fetch has already settled.
type Resolver struct {
	mu         sync.Mutex
	state      filter.State
	generation uint64
	// observedAt is the generation of the last state change; settledAt the
	// generation of the ticket that produced last.
	observedAt uint64
	settledAt  uint64
	last       *settled
	failed     error
	closed     bool
}

// NewResolver starts resolving for state.
func NewResolver(state filter.State) *Resolver {
	return &Resolver{state: state}
}

// Observe records a state change. Fetches issued for the previous state become stale.
func (r *Resolver) Observe(state filter.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state == r.state {
		return
	}
	r.state = state
	r.generation++
	r.observedAt = r.generation
	r.failed = nil
}

// Begin issues a ticket for the current state. It supersedes every earlier ticket.
func (r *Resolver) Begin() Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.failed = nil
	return Ticket{Generation: r.generation, Snapshot: r.state, Plan: Select(r.state)}
}

func (r *Resolver) currentLocked(t Ticket) bool {
	return !r.closed && t.Generation == r.generation && t.Snapshot == r.state
}

// acceptableLocked reports whether t was issued for the current state and no
// later ticket has settled yet.
func (r *Resolver) acceptableLocked(t Ticket) bool {
	return !r.closed && t.Snapshot == r.state && t.Generation > r.observedAt && t.Generation > r.settledAt
}

// Settle stores res unless t was issued for another state or a later ticket has
// already settled. It reports whether res was accepted.
func (r *Resolver) Settle(t Ticket, res Result) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.acceptableLocked(t) {
		observability.StaleResultsDiscarded.WithLabelValues(string(t.Plan.Mode)).Inc()
		return false
	}
	r.last = &settled{snapshot: t.Snapshot, mode: t.Plan.Mode, result: res}
	r.settledAt = t.Generation
	return true
}

// Fail records a failed fetch if t is still the latest ticket. Previously settled
// data stays in place.
func (r *Resolver) Fail(t Ticket, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.currentLocked(t) {
		observability.StaleResultsDiscarded.WithLabelValues(string(t.Plan.Mode)).Inc()
		return false
	}
	r.failed = err
	return true
}

// Close abandons every in-flight fetch.
func (r *Resolver) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// Closed reports whether Close has run.
func (r *Resolver) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Total is the total used to clamp pagination: the last settled total when it was
// fetched for the same read as the current state, page offset aside. Otherwise 0.
func (r *Resolver) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil || Select(r.last.snapshot).pageless() != Select(r.state).pageless() {
		return 0
	}
	return r.last.result.Total
}

// View returns the data for the current state. Data settled for another state
// is never shown as current: the view is loading until the current state settles.
// After a failure the view stops loading and keeps the last data of the same mode.
func (r *Resolver) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()

	mode := Select(r.state).Mode
	v := View{Mode: mode, Posts: []*models.Post{}, Generation: r.generation}

	switch {
	case r.last != nil && r.last.snapshot == r.state:
		v.Posts = r.last.result.Posts
		v.Total = r.last.result.Total
	case r.failed != nil:
		v.Error = r.failed.Error()
		if r.last != nil && r.last.mode == mode {
			v.Posts = r.last.result.Posts
			v.Total = r.last.result.Total
		}
	default:
		v.Loading = true
	}
	if r.failed != nil && v.Error == "" {
		v.Error = r.failed.Error()
	}
	return v
}
