package service

import (
	"context"
	"net/http"
	"testing"

	"postsmanager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_GetUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.GetUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(2), user.ID)
	assert.NotEmpty(t, user.Email)

	_, err = f.users.GetUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, f.up.Hits("GET /users/{id}"))

	_, err = f.users.GetUser(ctx, 404)
	assert.Equal(t, http.StatusNotFound, models.StatusFor(err))

	_, err = f.users.GetUser(ctx, 0)
	assertValidationError(t, err)
}

func TestUserService_ListTagsLoadedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tags, err := f.users.ListTags(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, tags)
	}
	assert.Equal(t, 1, f.up.Hits("GET /posts/tags"))

	require.NoError(t, f.cache.InvalidatePosts(ctx))
	_, err := f.users.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.up.Hits("GET /posts/tags"), "tags live outside the posts scope")
}
