// Package query picks the one active fetch mode for a filter state, executes only
// that read, and resolves out-of-order results last-issued-wins.
package query

import (
	"postsmanager/internal/cache"
	"postsmanager/internal/filter"
)

// Mode is one of the mutually exclusive fetch modes.
type Mode string

const (
	ModeList   Mode = "list"
	ModeSearch Mode = "search"
	ModeTag    Mode = "tag"
)

// AllTags is the tag selector sentinel that means no tag filter.
const AllTags = "all"

// Plan is the single read a state maps to.
type Plan struct {
	Mode  Mode   `json:"mode"`
	Skip  int    `json:"skip,omitempty"`
	Limit int    `json:"limit,omitempty"`
	Query string `json:"query,omitempty"`
	Tag   string `json:"tag,omitempty"`

	SortBy    string `json:"sortBy,omitempty"`
	SortOrder string `json:"sortOrder,omitempty"`
}

// Select maps s to its plan. Search text wins over a tag; the "all" tag counts as no tag.
func Select(s filter.State) Plan {
	p := Plan{SortBy: s.SortBy, SortOrder: s.SortOrder}
	switch {
	case s.SearchQuery != "":
		p.Mode = ModeSearch
		p.Query = s.SearchQuery
	case s.SelectedTag != "" && s.SelectedTag != AllTags:
		p.Mode = ModeTag
		p.Tag = s.SelectedTag
	default:
		p.Mode = ModeList
		p.Skip = s.Skip
		p.Limit = s.Limit
	}
	return p
}

// pageless drops the page offset and the local sort, leaving what determines the total.
func (p Plan) pageless() Plan {
	p.Skip = 0
	p.SortBy, p.SortOrder = "", ""
	return p
}

// CacheKey is the cached-read key of the plan's fetch. Sorting is local and not part of it.
func (p Plan) CacheKey() string {
	switch p.Mode {
	case ModeSearch:
		return cache.PostsSearchKey(p.Query)
	case ModeTag:
		return cache.PostsTagKey(p.Tag)
	default:
		return cache.PostsListKey(p.Skip, p.Limit)
	}
}
