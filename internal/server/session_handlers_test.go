package server

import (
	"net/http"
	"strings"
	"testing"

	"postsmanager/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession_HydratesFromQuery(t *testing.T) {
	_, app, up := newTestApp(t)

	snap := createSession(t, app, "skip=10&limit=10&tag=love")
	assert.Equal(t, 10, snap.State.Skip)
	assert.Equal(t, 10, snap.State.Limit)
	assert.Equal(t, "love", snap.State.Tag)
	assert.Equal(t, "tag", snap.Mode)
	assert.Equal(t, "skip=10&limit=10&tag=love", snap.Query)
	assert.Zero(t, up.TotalHits(), "creating a session must not fetch")
}

func TestCreateSession_InvalidValuesFallBackToDefaults(t *testing.T) {
	_, app, _ := newTestApp(t)

	snap := createSession(t, app, "?skip=-5&limit=abc&sortBy=bogus")
	assert.Equal(t, 0, snap.State.Skip)
	assert.Equal(t, 10, snap.State.Limit)
	assert.Equal(t, "list", snap.Mode)
}

func TestCreateSession_EmptyBody(t *testing.T) {
	_, app, _ := newTestApp(t)

	var snap snapshotBody
	assert.Equal(t, fiber.StatusCreated, call(t, app, http.MethodPost, "/api/sessions", nil, &snap))
	assert.Equal(t, 10, snap.State.Limit)
	assert.Empty(t, snap.Query)
}

func TestSession_GetAndDelete(t *testing.T) {
	_, app, _ := newTestApp(t)
	snap := createSession(t, app, "search=love")

	var got snapshotBody
	assert.Equal(t, fiber.StatusOK, call(t, app, http.MethodGet, "/api/sessions/"+snap.ID, nil, &got))
	assert.Equal(t, "love", got.State.Search)
	assert.Equal(t, "search", got.Mode)

	assert.Equal(t, fiber.StatusNoContent, call(t, app, http.MethodDelete, "/api/sessions/"+snap.ID, nil, nil))

	var missing models.ErrorResponse
	assert.Equal(t, fiber.StatusNotFound, call(t, app, http.MethodGet, "/api/sessions/"+snap.ID, nil, &missing))
	assert.Equal(t, models.CodeNotFound, missing.Code)
	assert.Equal(t, fiber.StatusNotFound, call(t, app, http.MethodDelete, "/api/sessions/"+snap.ID, nil, nil))
}

func TestUpdateSessionFilter(t *testing.T) {
	_, app, _ := newTestApp(t)
	snap := createSession(t, app, "skip=10")
	path := "/api/sessions/" + snap.ID + "/filter"

	var res filterBody
	require.Equal(t, fiber.StatusOK, call(t, app, http.MethodPatch, path, fiber.Map{"search": "lorem"}, &res))
	assert.Equal(t, 0, res.State.Skip, "search change resets skip")
	assert.Equal(t, "lorem", res.State.Search)
	assert.Equal(t, "search=lorem", res.URL.Query)
	assert.True(t, res.URL.Replace)

	// same state reflected again: nothing to replace
	require.Equal(t, fiber.StatusOK, call(t, app, http.MethodPatch, path, fiber.Map{"search": "lorem"}, &res))
	assert.Equal(t, "search=lorem", res.URL.Query)
	assert.False(t, res.URL.Replace)

	// explicit skip is kept even alongside a tag change
	require.Equal(t, fiber.StatusOK, call(t, app, http.MethodPatch, path, fiber.Map{"tag": "music", "skip": 20}, &res))
	assert.Equal(t, 20, res.State.Skip)
	assert.Equal(t, "music", res.State.Tag)
	assert.Equal(t, "skip=20&search=lorem&tag=music", res.URL.Query)
}

func TestUpdateSessionFilter_Validation(t *testing.T) {
	_, app, _ := newTestApp(t)
	snap := createSession(t, app, "")
	path := "/api/sessions/" + snap.ID + "/filter"

	tests := []struct {
		name string
		body any
	}{
		{"empty patch", fiber.Map{}},
		{"bad sortBy", fiber.Map{"sortBy": "author"}},
		{"bad sortOrder", fiber.Map{"sortOrder": "sideways"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body models.ErrorResponse
			assert.Equal(t, fiber.StatusBadRequest, call(t, app, http.MethodPatch, path, tt.body, &body))
			assert.Equal(t, models.CodeValidation, body.Code)
		})
	}

	var missing models.ErrorResponse
	assert.Equal(t, fiber.StatusNotFound, call(t, app, http.MethodPatch, "/api/sessions/nope/filter", fiber.Map{"search": "x"}, &missing))
}

func TestSessionPosts_ListMode(t *testing.T) {
	_, app, up := newTestApp(t)
	snap := createSession(t, app, "")

	var view postsBody
	require.Equal(t, fiber.StatusOK, call(t, app, http.MethodGet, "/api/sessions/"+snap.ID+"/posts", nil, &view))
	assert.Equal(t, "list", view.Mode)
	assert.Equal(t, 25, view.Total)
	require.Len(t, view.Posts, 10)
	assert.False(t, view.Loading)
	assert.False(t, view.Stale)
	assert.Empty(t, view.Error)
	for _, p := range view.Posts {
		require.NotNil(t, p.Author, "post %d", p.ID)
		assert.Equal(t, p.UserID, p.Author.ID)
	}

	assert.Equal(t, 1, up.Hits("GET /posts"))
	assert.Equal(t, 1, up.Hits("GET /users"))
	assert.Zero(t, up.Hits("GET /posts/search"))
	assert.Zero(t, up.Hits("GET /posts/tag/{tag}"))
}

func TestSessionPosts_TagMode(t *testing.T) {
	_, app, up := newTestApp(t)
	snap := createSession(t, app, "tag=love")

	var view postsBody
	require.Equal(t, fiber.StatusOK, call(t, app, http.MethodGet, "/api/sessions/"+snap.ID+"/posts", nil, &view))
	assert.Equal(t, "tag", view.Mode)
	assert.Equal(t, 8, view.Total)
	for _, p := range view.Posts {
		assert.Contains(t, p.Tags, "love")
		assert.NotNil(t, p.Author)
	}
	assert.Zero(t, up.Hits("GET /posts"))
}

func TestSessionPosts_SearchWinsAndSkipsAuthors(t *testing.T) {
	_, app, up := newTestApp(t)
	first, ok := up.Post(1)
	require.True(t, ok)
	word := strings.ToLower(strings.Fields(first.Title)[0])

	snap := createSession(t, app, "tag=love")
	var res filterBody
	require.Equal(t, fiber.StatusOK, call(t, app, http.MethodPatch, "/api/sessions/"+snap.ID+"/filter", fiber.Map{"search": word}, &res))

	var view postsBody
	require.Equal(t, fiber.StatusOK, call(t, app, http.MethodGet, "/api/sessions/"+snap.ID+"/posts", nil, &view))
	assert.Equal(t, "search", view.Mode)
	require.NotEmpty(t, view.Posts)
	ids := make([]uint, 0, len(view.Posts))
	for _, p := range view.Posts {
		ids = append(ids, p.ID)
		assert.Nil(t, p.Author)
	}
	assert.Contains(t, ids, uint(1))

	assert.Equal(t, 1, up.Hits("GET /posts/search"))
	assert.Zero(t, up.Hits("GET /posts/tag/{tag}"))
	assert.Zero(t, up.Hits("GET /users"))
}

func TestSessionPosts_SortsPage(t *testing.T) {
	_, app, _ := newTestApp(t)
	snap := createSession(t, app, "sortBy=id&sortOrder=desc")

	var view postsBody
	require.Equal(t, fiber.StatusOK, call(t, app, http.MethodGet, "/api/sessions/"+snap.ID+"/posts", nil, &view))
	require.Len(t, view.Posts, 10)
	assert.Equal(t, uint(10), view.Posts[0].ID)
	assert.Equal(t, uint(1), view.Posts[9].ID)
}

func TestSessionPosts_UpstreamFailureIsReported(t *testing.T) {
	_, app, up := newTestApp(t)
	up.FailWith("GET /posts", http.StatusInternalServerError)
	snap := createSession(t, app, "")

	var view postsBody
	require.Equal(t, fiber.StatusOK, call(t, app, http.MethodGet, "/api/sessions/"+snap.ID+"/posts", nil, &view))
	assert.NotEmpty(t, view.Error)
	assert.False(t, view.Loading)
	assert.Empty(t, view.Posts)

	up.FailWith("GET /posts", 0)
	require.Equal(t, fiber.StatusOK, call(t, app, http.MethodGet, "/api/sessions/"+snap.ID+"/posts", nil, &view))
	assert.Empty(t, view.Error)
	assert.Len(t, view.Posts, 10)
}

func TestSessionPagination(t *testing.T) {
	_, app, _ := newTestApp(t)
	snap := createSession(t, app, "")
	base := "/api/sessions/" + snap.ID

	var conflict models.ErrorResponse
	assert.Equal(t, fiber.StatusConflict, call(t, app, http.MethodPost, base+"/page/prev", nil, &conflict))
	assert.Equal(t, models.CodePaginationDisabled, conflict.Code)

	// no settled total yet
	assert.Equal(t, fiber.StatusConflict, call(t, app, http.MethodPost, base+"/page/next", nil, nil))

	require.Equal(t, fiber.StatusOK, call(t, app, http.MethodGet, base+"/posts", nil, nil))

	var got snapshotBody
	call(t, app, http.MethodGet, base, nil, &got)
	assert.True(t, got.CanNext)
	assert.False(t, got.CanPrev)

	var res filterBody
	require.Equal(t, fiber.StatusOK, call(t, app, http.MethodPost, base+"/page/next", nil, &res))
	assert.Equal(t, 10, res.State.Skip)
	assert.Equal(t, "skip=10", res.URL.Query)
	assert.True(t, res.URL.Replace)

	require.Equal(t, fiber.StatusOK, call(t, app, http.MethodPost, base+"/page/next", nil, &res))
	assert.Equal(t, 20, res.State.Skip)

	// 20 + 10 >= 25
	assert.Equal(t, fiber.StatusConflict, call(t, app, http.MethodPost, base+"/page/next", nil, nil))
	call(t, app, http.MethodGet, base, nil, &got)
	assert.Equal(t, 20, got.State.Skip, "a disabled intent leaves state untouched")

	require.Equal(t, fiber.StatusOK, call(t, app, http.MethodPost, base+"/page/prev", nil, &res))
	assert.Equal(t, 10, res.State.Skip)
}
