package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"postsmanager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_CreateComment_Validation(t *testing.T) {
	t.Parallel()

	svc := NewCommentService(nil, nil, 0)
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.CreateCommentRequest
	}{
		{"empty body", models.CreateCommentRequest{PostID: 7, UserID: 1}},
		{"body too long", models.CreateCommentRequest{Body: strings.Repeat("x", 10001), PostID: 7, UserID: 1}},
		{"missing post", models.CreateCommentRequest{Body: "hello", UserID: 1}},
		{"missing user", models.CreateCommentRequest{Body: "hello", PostID: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateComment(ctx, tt.req)
			assertValidationError(t, err)
		})
	}
}

func TestCommentService_CreateThenReadIncludesComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, err := f.comments.ListComments(ctx, 7)
	require.NoError(t, err)
	require.Len(t, before.Comments, 2)

	created, err := f.comments.CreateComment(ctx, models.CreateCommentRequest{Body: "hello", PostID: 7, UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, "hello", created.Body)
	assert.Equal(t, uint(7), created.PostID)
	assert.Zero(t, created.Likes)

	after, err := f.comments.ListComments(ctx, 7)
	require.NoError(t, err)
	ids := make([]uint, 0, len(after.Comments))
	for _, c := range after.Comments {
		ids = append(ids, c.ID)
	}
	assert.Contains(t, ids, created.ID)
	assert.Equal(t, 2, f.up.Hits("GET /comments/post/{id}"))
}

func TestCommentService_ListCommentsCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.comments.ListComments(ctx, 3)
	require.NoError(t, err)
	_, err = f.comments.ListComments(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, f.up.Hits("GET /comments/post/{id}"))

	empty, err := f.comments.ListComments(ctx, 999)
	require.NoError(t, err)
	assert.NotNil(t, empty.Comments)
	assert.Empty(t, empty.Comments)
}

func TestCommentService_LikeComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	comments, err := f.comments.ListComments(ctx, 7)
	require.NoError(t, err)
	target := comments.Comments[0]

	t.Run("writes current plus one", func(t *testing.T) {
		liked, err := f.comments.LikeComment(ctx, LikeCommentInput{CommentID: target.ID, PostID: 7, Likes: 3})
		require.NoError(t, err)
		assert.Equal(t, 4, liked.Likes)

		stored := f.up.Comments(7)
		assert.Equal(t, 4, stored[0].Likes)
	})

	t.Run("stale echo does not lower the count", func(t *testing.T) {
		f.up.SetLikeEcho(func(int) int { return 3 })
		defer f.up.SetLikeEcho(nil)

		liked, err := f.comments.LikeComment(ctx, LikeCommentInput{CommentID: target.ID, PostID: 7, Likes: 3})
		require.NoError(t, err)
		assert.Equal(t, 4, liked.Likes)
	})

	t.Run("higher confirmed value wins", func(t *testing.T) {
		f.up.SetLikeEcho(func(int) int { return 9 })
		defer f.up.SetLikeEcho(nil)

		liked, err := f.comments.LikeComment(ctx, LikeCommentInput{CommentID: target.ID, PostID: 7, Likes: 3})
		require.NoError(t, err)
		assert.Equal(t, 9, liked.Likes)
	})

	t.Run("invalidates the post's comments", func(t *testing.T) {
		hits := f.up.Hits("GET /comments/post/{id}")
		_, err := f.comments.ListComments(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, hits+1, f.up.Hits("GET /comments/post/{id}"))
	})

	t.Run("negative likes rejected", func(t *testing.T) {
		_, err := f.comments.LikeComment(ctx, LikeCommentInput{CommentID: target.ID, PostID: 7, Likes: -1})
		assertValidationError(t, err)
	})
}

func TestCommentService_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	comments, err := f.comments.ListComments(ctx, 4)
	require.NoError(t, err)
	target := comments.Comments[0]

	// PostID omitted: the server echo names the post to invalidate.
	edited, err := f.comments.UpdateComment(ctx, UpdateCommentInput{CommentID: target.ID, Body: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Body)

	comments, err = f.comments.ListComments(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "edited", comments.Comments[0].Body)

	err = f.comments.DeleteComment(ctx, DeleteCommentInput{CommentID: target.ID})
	assertValidationError(t, err)

	require.NoError(t, f.comments.DeleteComment(ctx, DeleteCommentInput{CommentID: target.ID, PostID: 4}))
	comments, err = f.comments.ListComments(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, comments.Comments, 1)
}

func TestCommentService_MutationWithoutPostIDEvictsAllComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.up.SetBareEcho(true)

	comments, err := f.comments.ListComments(ctx, 7)
	require.NoError(t, err)
	target := comments.Comments[0]
	_, err = f.comments.ListComments(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, 2, f.up.Hits("GET /comments/post/{id}"))

	liked, err := f.comments.LikeComment(ctx, LikeCommentInput{CommentID: target.ID, Likes: target.Likes})
	require.NoError(t, err)
	assert.Zero(t, liked.PostID)

	comments, err = f.comments.ListComments(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, target.Likes+1, comments.Comments[0].Likes)
	_, err = f.comments.ListComments(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, f.up.Hits("GET /comments/post/{id}"), "both cached comments reads were evicted")
}

func TestCommentService_FailedWriteLeavesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.comments.ListComments(ctx, 7)
	require.NoError(t, err)

	f.up.FailWith("POST /comments/add", http.StatusInternalServerError)
	_, err = f.comments.CreateComment(ctx, models.CreateCommentRequest{Body: "hello", PostID: 7, UserID: 1})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, models.StatusFor(err))

	_, err = f.comments.ListComments(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, f.up.Hits("GET /comments/post/{id}"), "cached read survives a failed write")
}
