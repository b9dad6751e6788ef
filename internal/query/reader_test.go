package query

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"postsmanager/internal/cache"
	"postsmanager/internal/featureflags"
	"postsmanager/internal/filter"
	"postsmanager/internal/gateway"
	"postsmanager/internal/models"
	"postsmanager/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReader(t *testing.T, flags string) (*Reader, *testutil.Upstream, *cache.Cache) {
	t.Helper()
	up := testutil.NewUpstream(t)
	store, err := cache.NewLocalStore(64)
	require.NoError(t, err)
	c := cache.New(store)
	return NewReader(gateway.New(up.URL(), 2*time.Second), c, time.Minute, featureflags.NewManager(flags)), up, c
}

func TestReader_ListJoinsAuthors(t *testing.T) {
	r, up, _ := newReader(t, "")

	res, err := r.Read(context.Background(), Select(filter.State{Skip: 10, Limit: 10}), "s1")
	require.NoError(t, err)
	assert.Equal(t, 25, res.Total)
	require.Len(t, res.Posts, 10)
	for _, p := range res.Posts {
		require.NotNil(t, p.Author, "post %d", p.ID)
		assert.Equal(t, p.UserID, p.Author.ID)
		assert.NotEmpty(t, p.Author.Username)
	}

	assert.Equal(t, 1, up.Hits("GET /posts"))
	assert.Equal(t, 1, up.Hits("GET /users"))
	assert.Zero(t, up.Hits("GET /posts/search"), "idle modes issue no requests")
	assert.Zero(t, up.Hits("GET /posts/tag/{tag}"))
}

func TestReader_TagJoinsAuthors(t *testing.T) {
	r, up, _ := newReader(t, "")

	res, err := r.Read(context.Background(), Select(filter.State{SelectedTag: "music", Limit: 10}), "s1")
	require.NoError(t, err)
	require.NotEmpty(t, res.Posts)
	for _, p := range res.Posts {
		assert.Contains(t, p.Tags, "music")
		assert.NotNil(t, p.Author)
	}
	assert.Equal(t, 1, up.Hits("GET /posts/tag/{tag}"))
	assert.Zero(t, up.Hits("GET /posts"))
}

func TestReader_SearchSkipsAuthorsUnlessFlagged(t *testing.T) {
	post, ok := testutil.NewUpstream(t).Post(3)
	require.True(t, ok)
	word := strings.Fields(post.Title)[0]

	r, up, _ := newReader(t, "")
	res, err := r.Read(context.Background(), Select(filter.State{SearchQuery: word}), "s1")
	require.NoError(t, err)
	require.NotEmpty(t, res.Posts)
	for _, p := range res.Posts {
		assert.Nil(t, p.Author)
	}
	assert.Zero(t, up.Hits("GET /users"))

	r, up, _ = newReader(t, featureflags.SearchAuthorEnrichment+"=on")
	res, err = r.Read(context.Background(), Select(filter.State{SearchQuery: word}), "s1")
	require.NoError(t, err)
	require.NotEmpty(t, res.Posts)
	assert.NotNil(t, res.Posts[0].Author)
	assert.Equal(t, 1, up.Hits("GET /users"))
}

func TestReader_CachedReads(t *testing.T) {
	r, up, c := newReader(t, "")
	ctx := context.Background()
	plan := Select(filter.Default())

	_, err := r.Read(ctx, plan, "s1")
	require.NoError(t, err)
	_, err = r.Read(ctx, plan, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, up.Hits("GET /posts"))
	assert.Equal(t, 1, up.Hits("GET /users"))

	require.NoError(t, c.InvalidatePosts(ctx))
	_, err = r.Read(ctx, plan, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, up.Hits("GET /posts"))
	assert.Equal(t, 1, up.Hits("GET /users"), "authors are not invalidated by post mutations")
}

func TestReader_Sorts(t *testing.T) {
	r, _, _ := newReader(t, "")
	ctx := context.Background()

	res, err := r.Read(ctx, Select(filter.State{Limit: 10, SortBy: filter.SortID, SortOrder: filter.OrderDesc}), "s1")
	require.NoError(t, err)
	assert.Equal(t, uint(10), res.Posts[0].ID)
	assert.Equal(t, uint(1), res.Posts[9].ID)

	res, err = r.Read(ctx, Select(filter.State{Limit: 10, SortBy: filter.SortReactions, SortOrder: filter.OrderAsc}), "s1")
	require.NoError(t, err)
	for i := 1; i < len(res.Posts); i++ {
		assert.LessOrEqual(t, res.Posts[i-1].Likes(), res.Posts[i].Likes())
	}

	res, err = r.Read(ctx, Select(filter.State{Limit: 10, SortBy: filter.SortNone}), "s1")
	require.NoError(t, err)
	assert.Equal(t, uint(1), res.Posts[0].ID, "none keeps server order")
}

func TestReader_UpstreamFailure(t *testing.T) {
	r, up, _ := newReader(t, "")
	up.FailWith("GET /posts/tag/{tag}", http.StatusServiceUnavailable)

	_, err := r.Read(context.Background(), Select(filter.State{SelectedTag: "love"}), "s1")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, models.StatusFor(err))
}

func TestSortPosts_Stable(t *testing.T) {
	t.Parallel()

	posts := []*models.Post{
		{ID: 1, Title: "b"},
		{ID: 2, Title: "A"},
		{ID: 3, Title: "b"},
		{ID: 4, Title: "a"},
	}
	sortPosts(posts, filter.SortTitle, filter.OrderAsc)
	got := []uint{posts[0].ID, posts[1].ID, posts[2].ID, posts[3].ID}
	assert.Equal(t, []uint{2, 4, 1, 3}, got)
}

// A list read held in flight while the session switches to a tag must not
// replace the tag result when it finally resolves.
func TestReader_SwitchToTagDuringListFetch(t *testing.T) {
	r, up, _ := newReader(t, "")
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	up.Before("GET /posts", func(*http.Request) {
		once.Do(func() { close(started) })
		<-release
	})

	resolver := NewResolver(filter.Default())
	listTicket := resolver.Begin()

	var wg sync.WaitGroup
	var listAccepted bool
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err := r.Read(ctx, listTicket.Plan, "s1")
		if err == nil {
			listAccepted = resolver.Settle(listTicket, res)
		}
	}()
	<-started

	resolver.Observe(filter.Default().Update(filter.Patch{SelectedTag: ptr("music")}))
	tagTicket := resolver.Begin()
	res, err := r.Read(ctx, tagTicket.Plan, "s1")
	require.NoError(t, err)
	require.True(t, resolver.Settle(tagTicket, res))

	close(release)
	wg.Wait()

	assert.False(t, listAccepted)
	v := resolver.View()
	assert.Equal(t, ModeTag, v.Mode)
	for _, p := range v.Posts {
		assert.Contains(t, p.Tags, "music")
	}
}
