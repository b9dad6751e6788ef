// Package session owns one filter state container per page session.
package session

import (
	"context"
	"sync"
	"time"

	"postsmanager/internal/filter"
	"postsmanager/internal/models"
	"postsmanager/internal/query"
)

// Reader executes a query plan. *query.Reader implements it.
type Reader interface {
	Read(ctx context.Context, plan query.Plan, subject string) (query.Result, error)
}

// Session is the state of one page view. Its methods are safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	state    filter.State
	sync     filter.Synchronizer
	resolver *query.Resolver
}

// URLUpdate tells the page how to mirror the state into its address bar.
type URLUpdate struct {
	Query string `json:"query"`
	// Replace is true when the URL must be replaced without a history entry.
	Replace bool `json:"replace"`
}

// Snapshot is the serializable view of a session.
type Snapshot struct {
	ID      string       `json:"id"`
	State   filter.State `json:"state"`
	Query   string       `json:"query"`
	Mode    query.Mode   `json:"mode"`
	CanNext bool         `json:"canNext"`
	CanPrev bool         `json:"canPrev"`
}

// newSession hydrates a session from the page's initial query string.
func newSession(id, rawQuery string, now time.Time) *Session {
	s := &Session{ID: id, CreatedAt: now}
	state, _ := s.sync.Hydrate(rawQuery)
	s.state = state
	s.resolver = query.NewResolver(state)
	return s
}

// State returns the current filter state.
func (s *Session) State() filter.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns state, URL and pagination availability.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := s.resolver.Total()
	return Snapshot{
		ID:      s.ID,
		State:   s.state,
		Query:   s.sync.Current(),
		Mode:    query.Select(s.state).Mode,
		CanNext: s.state.CanNext(total),
		CanPrev: s.state.CanPrev(),
	}
}

// setLocked installs next and reflects it into the URL.
func (s *Session) setLocked(next filter.State) URLUpdate {
	s.state = next
	s.resolver.Observe(next)
	q, replace := s.sync.Reflect(next)
	return URLUpdate{Query: q, Replace: replace}
}

// Update merges p into the state.
func (s *Session) Update(p filter.Patch) (filter.State, URLUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.Update(p)
	return next, s.setLocked(next)
}

// NextPage advances one page against the last settled total.
func (s *Session) NextPage() (filter.State, URLUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := s.state.Next(s.resolver.Total())
	if !ok {
		return s.state, URLUpdate{Query: s.sync.Current()}, models.NewConflictError(models.CodePaginationDisabled, "No next page")
	}
	return next, s.setLocked(next), nil
}

// PrevPage goes back one page.
func (s *Session) PrevPage() (filter.State, URLUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := s.state.Prev()
	if !ok {
		return s.state, URLUpdate{Query: s.sync.Current()}, models.NewConflictError(models.CodePaginationDisabled, "No previous page")
	}
	return next, s.setLocked(next), nil
}

// PostsView is the Query Selector result for the page.
type PostsView struct {
	query.View
	// Stale is true when this request's own result was superseded and the
	// returned data belongs to a newer request (or is still loading).
	Stale bool `json:"stale"`
}

// Posts fetches the active mode's data and returns the resolved view. The
// session lock is not held during the fetch; concurrent reads and state
// changes are reconciled by the resolver.
func (s *Session) Posts(ctx context.Context, r Reader) PostsView {
	ticket := s.resolver.Begin()

	res, err := r.Read(ctx, ticket.Plan, s.ID)
	var accepted bool
	if err != nil {
		accepted = s.resolver.Fail(ticket, err)
	} else {
		accepted = s.resolver.Settle(ticket, res)
	}
	return PostsView{View: s.resolver.View(), Stale: !accepted}
}

func (s *Session) close() {
	s.resolver.Close()
}

func (s *Session) closed() bool {
	return s.resolver.Closed()
}
