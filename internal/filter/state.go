// Package filter holds the per-session filter and pagination state and its
// query-string form.
package filter

// Sort fields accepted in SortBy. Empty and SortNone keep server order.
const (
	SortNone      = "none"
	SortID        = "id"
	SortTitle     = "title"
	SortReactions = "reactions"
)

// Sort orders.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// DefaultLimit is the page size of a fresh session.
const DefaultLimit = 10

// PageLimits are the page sizes offered by the pagination control.
var PageLimits = []int{10, 20, 30}

// State is the single source of truth for what a page session shows.
// The URL is derived from it, never the other way round after Hydrate.
type State struct {
	Skip        int    `json:"skip"`
	Limit       int    `json:"limit"`
	SearchQuery string `json:"search"`
	SelectedTag string `json:"tag"`
	SortBy      string `json:"sortBy"`
	SortOrder   string `json:"sortOrder"`
}

// Default returns {skip:0, limit:10, search:"", tag:"", sortBy:"", sortOrder:"asc"}.
func Default() State {
	return State{Limit: DefaultLimit, SortOrder: OrderAsc}
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Skip        *int    `json:"skip,omitempty"`
	Limit       *int    `json:"limit,omitempty"`
	SearchQuery *string `json:"search,omitempty"`
	SelectedTag *string `json:"tag,omitempty"`
	SortBy      *string `json:"sortBy,omitempty"`
	SortOrder   *string `json:"sortOrder,omitempty"`
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p.Skip == nil && p.Limit == nil && p.SearchQuery == nil &&
		p.SelectedTag == nil && p.SortBy == nil && p.SortOrder == nil
}

// Update merges p into s. A change of search text, tag or limit resets skip to 0
// unless p sets skip itself. Values are not validated; out-of-range skip or limit
// reach the remote API unchanged.
func (s State) Update(p Patch) State {
	next := s
	if p.Limit != nil {
		next.Limit = *p.Limit
	}
	if p.SearchQuery != nil {
		next.SearchQuery = *p.SearchQuery
	}
	if p.SelectedTag != nil {
		next.SelectedTag = *p.SelectedTag
	}
	if p.SortBy != nil {
		next.SortBy = *p.SortBy
	}
	if p.SortOrder != nil {
		next.SortOrder = *p.SortOrder
	}

	if next.Limit != s.Limit || next.SearchQuery != s.SearchQuery || next.SelectedTag != s.SelectedTag {
		next.Skip = 0
	}
	if p.Skip != nil {
		next.Skip = *p.Skip
	}
	return next
}

// CanNext reports whether another page exists after the current one.
func (s State) CanNext(total int) bool {
	return s.Limit > 0 && s.Skip+s.Limit < total
}

// CanPrev reports whether a page exists before the current one.
func (s State) CanPrev() bool {
	return s.Skip > 0
}

// Next advances one page. It returns s unchanged and false when disabled.
func (s State) Next(total int) (State, bool) {
	if !s.CanNext(total) {
		return s, false
	}
	s.Skip += s.Limit
	return s, true
}

// Prev goes back one page, clamped at zero. It returns s unchanged and false when disabled.
func (s State) Prev() (State, bool) {
	if !s.CanPrev() {
		return s, false
	}
	s.Skip = max(s.Skip-s.Limit, 0)
	return s, true
}

// ValidLimit reports whether limit is one of PageLimits.
func ValidLimit(limit int) bool {
	for _, l := range PageLimits {
		if l == limit {
			return true
		}
	}
	return false
}

// ValidSortBy reports whether v is an accepted SortBy value.
func ValidSortBy(v string) bool {
	switch v {
	case "", SortNone, SortID, SortTitle, SortReactions:
		return true
	}
	return false
}

// ValidSortOrder reports whether v is asc or desc.
func ValidSortOrder(v string) bool {
	return v == OrderAsc || v == OrderDesc
}
