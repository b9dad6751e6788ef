package query

import (
	"testing"

	"postsmanager/internal/filter"

	"github.com/stretchr/testify/assert"
)

func TestSelect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		state filter.State
		want  Plan
	}{
		{"default is list", filter.Default(), Plan{Mode: ModeList, Limit: 10, SortOrder: "asc"}},
		{"list carries paging", filter.State{Skip: 20, Limit: 30}, Plan{Mode: ModeList, Skip: 20, Limit: 30}},
		{"search", filter.State{SearchQuery: "love", Skip: 20, Limit: 10}, Plan{Mode: ModeSearch, Query: "love"}},
		{"tag", filter.State{SelectedTag: "music", Limit: 10}, Plan{Mode: ModeTag, Tag: "music"}},
		{"search wins over tag", filter.State{SearchQuery: "love", SelectedTag: "music"}, Plan{Mode: ModeSearch, Query: "love"}},
		{"all tag is list", filter.State{SelectedTag: AllTags, Limit: 10}, Plan{Mode: ModeList, Limit: 10}},
		{"sort carried", filter.State{SelectedTag: "music", SortBy: "title", SortOrder: "desc"}, Plan{Mode: ModeTag, Tag: "music", SortBy: "title", SortOrder: "desc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.state))
		})
	}
}

func TestPlan_CacheKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "posts:list:skip=10:limit=20", Select(filter.State{Skip: 10, Limit: 20}).CacheKey())
	assert.Equal(t, "posts:search:his+mother", Select(filter.State{SearchQuery: "his mother"}).CacheKey())
	assert.Equal(t, "posts:tag:music", Select(filter.State{SelectedTag: "music"}).CacheKey())
	assert.Equal(t,
		Select(filter.State{SelectedTag: "music", SortBy: "id"}).CacheKey(),
		Select(filter.State{SelectedTag: "music", SortBy: "title"}).CacheKey(),
		"sorting does not split the cache",
	)
}
