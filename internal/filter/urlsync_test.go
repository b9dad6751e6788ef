package filter

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHydrate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  State
	}{
		{"empty", "", Default()},
		{"leading question mark", "?skip=20&limit=30", State{Skip: 20, Limit: 30, SortOrder: OrderAsc}},
		{"all keys", "skip=10&limit=20&search=his+mother&tag=love&sortBy=title&sortOrder=desc",
			State{Skip: 10, Limit: 20, SearchQuery: "his mother", SelectedTag: "love", SortBy: SortTitle, SortOrder: OrderDesc}},
		{"unparseable numbers", "skip=abc&limit=-3", Default()},
		{"negative skip", "skip=-10", Default()},
		{"bad sort values", "sortBy=date&sortOrder=up", Default()},
		{"bad pair ignored", "skip=10&%zz=1&limit=20", State{Skip: 10, Limit: 20, SortOrder: OrderAsc}},
		{"unknown keys ignored", "page=3&tag=all", State{Limit: 10, SelectedTag: "all", SortOrder: OrderAsc}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Hydrate(tt.query))
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Encode(Default()))
	assert.Equal(t, "skip=20", Encode(State{Skip: 20, Limit: 10, SortOrder: OrderAsc}))
	assert.Equal(t,
		"skip=10&limit=20&search=his+mother&tag=love&sortBy=reactions&sortOrder=desc",
		Encode(State{Skip: 10, Limit: 20, SearchQuery: "his mother", SelectedTag: "love", SortBy: SortReactions, SortOrder: OrderDesc}),
	)
	assert.Equal(t, "search=a%26b%3Dc%3B", Encode(State{Limit: 10, SearchQuery: "a&b=c;", SortOrder: OrderAsc}))
}

func TestHydrateEncode_RoundTrip(t *testing.T) {
	t.Parallel()

	faker := gofakeit.New(11)
	sorts := []string{"", SortNone, SortID, SortTitle, SortReactions}
	orders := []string{OrderAsc, OrderDesc}

	for i := 0; i < 500; i++ {
		s := State{
			Skip:      faker.Number(0, 300),
			Limit:     PageLimits[faker.Number(0, len(PageLimits)-1)],
			SortBy:    sorts[faker.Number(0, len(sorts)-1)],
			SortOrder: orders[faker.Number(0, 1)],
		}
		if faker.Bool() {
			s.SearchQuery = faker.Sentence(faker.Number(1, 4))
		}
		if faker.Bool() {
			s.SelectedTag = faker.Word()
		}
		require.Equal(t, s, Hydrate(Encode(s)), "query %q", Encode(s))
	}
}

func TestSynchronizer_HydrateOnce(t *testing.T) {
	t.Parallel()

	var sync Synchronizer
	assert.False(t, sync.Hydrated())

	state, err := sync.Hydrate("?tag=music&skip=10")
	require.NoError(t, err)
	assert.Equal(t, "music", state.SelectedTag)
	assert.True(t, sync.Hydrated())
	assert.Equal(t, "tag=music&skip=10", sync.Current(), "hydrate leaves the URL as loaded")

	_, err = sync.Hydrate("skip=0")
	assert.ErrorIs(t, err, ErrAlreadyHydrated)
}

func TestSynchronizer_Reflect(t *testing.T) {
	t.Parallel()

	var sync Synchronizer
	state, err := sync.Hydrate("skip=10")
	require.NoError(t, err)

	query, replace := sync.Reflect(state)
	assert.Equal(t, "skip=10", query)
	assert.False(t, replace, "already synced state does not navigate")

	state = state.Update(Patch{SelectedTag: strPtr("love")})
	query, replace = sync.Reflect(state)
	assert.Equal(t, "tag=love", query)
	assert.True(t, replace)

	query, replace = sync.Reflect(state)
	assert.Equal(t, "tag=love", query)
	assert.False(t, replace, "reflect is idempotent")

	query, replace = sync.Reflect(Default())
	assert.Equal(t, "", query)
	assert.True(t, replace)
}

func TestSynchronizer_NonCanonicalURL(t *testing.T) {
	t.Parallel()

	var sync Synchronizer
	state, err := sync.Hydrate("limit=10&skip=0&sortOrder=asc")
	require.NoError(t, err)
	assert.Equal(t, Default(), state)

	query, replace := sync.Reflect(state)
	assert.Equal(t, "", query)
	assert.True(t, replace, "first reflect canonicalizes the URL")
}

func TestSynchronizer_ReflectBeforeHydrate(t *testing.T) {
	t.Parallel()

	var sync Synchronizer
	query, replace := sync.Reflect(State{Skip: 10, Limit: 10})
	assert.Equal(t, "", query)
	assert.False(t, replace)
}
