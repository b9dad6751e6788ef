package filter

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// Query-string keys.
const (
	KeySkip      = "skip"
	KeyLimit     = "limit"
	KeySearch    = "search"
	KeyTag       = "tag"
	KeySortBy    = "sortBy"
	KeySortOrder = "sortOrder"
)

// ErrAlreadyHydrated is returned by a second Hydrate on the same Synchronizer.
var ErrAlreadyHydrated = errors.New("filter state already hydrated")

// Hydrate parses a raw query string (with or without a leading "?") into a State.
// Missing or unparseable keys take their default.
func Hydrate(rawQuery string) State {
	s := Default()
	// ParseQuery keeps every pair it could decode, so a bad pair costs only itself.
	values, _ := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))

	if n, err := strconv.Atoi(values.Get(KeySkip)); err == nil && n >= 0 {
		s.Skip = n
	}
	if n, err := strconv.Atoi(values.Get(KeyLimit)); err == nil && n > 0 {
		s.Limit = n
	}
	s.SearchQuery = values.Get(KeySearch)
	s.SelectedTag = values.Get(KeyTag)
	if v := values.Get(KeySortBy); ValidSortBy(v) {
		s.SortBy = v
	}
	if v := values.Get(KeySortOrder); ValidSortOrder(v) {
		s.SortOrder = v
	}
	return s
}

// Encode serializes the non-default fields of s in a fixed key order.
// The default state encodes to "".
func Encode(s State) string {
	def := Default()
	var b strings.Builder
	add := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}

	if s.Skip != def.Skip {
		add(KeySkip, strconv.Itoa(s.Skip))
	}
	if s.Limit != def.Limit {
		add(KeyLimit, strconv.Itoa(s.Limit))
	}
	if s.SearchQuery != def.SearchQuery {
		add(KeySearch, s.SearchQuery)
	}
	if s.SelectedTag != def.SelectedTag {
		add(KeyTag, s.SelectedTag)
	}
	if s.SortBy != def.SortBy {
		add(KeySortBy, s.SortBy)
	}
	if s.SortOrder != def.SortOrder {
		add(KeySortOrder, s.SortOrder)
	}
	return b.String()
}

// Synchronizer mirrors a session's State into its page URL. Hydrate runs once;
// every later state change goes through Reflect.
type Synchronizer struct {
	hydrated bool
	current  string
}

// Hydrate reads the page's initial query string. It never reflects: the URL is
// left as loaded.
func (s *Synchronizer) Hydrate(rawQuery string) (State, error) {
	if s.hydrated {
		return State{}, ErrAlreadyHydrated
	}
	s.hydrated = true
	s.current = strings.TrimPrefix(rawQuery, "?")
	return Hydrate(rawQuery), nil
}

// Hydrated reports whether Hydrate has run.
func (s *Synchronizer) Hydrated() bool {
	return s.hydrated
}

// Reflect returns the query string for state and whether the URL must be
// replaced (without a history entry). Reflecting an already synced state
// returns replace=false. Before Hydrate nothing is reflected.
func (s *Synchronizer) Reflect(state State) (query string, replace bool) {
	if !s.hydrated {
		return s.current, false
	}
	query = Encode(state)
	if query == s.current {
		return query, false
	}
	s.current = query
	return query, true
}

// Current returns the query string the page URL currently carries.
func (s *Synchronizer) Current() string {
	return s.current
}
