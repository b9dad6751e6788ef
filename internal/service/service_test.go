package service

import (
	"errors"
	"testing"
	"time"

	"postsmanager/internal/cache"
	"postsmanager/internal/gateway"
	"postsmanager/internal/models"
	"postsmanager/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

func newLocalCache(t *testing.T) *cache.Cache {
	t.Helper()
	store, err := cache.NewLocalStore(64)
	require.NoError(t, err)
	return cache.New(store)
}

// fixture wires the services to a fake upstream through the real gateway.
type fixture struct {
	up       *testutil.Upstream
	cache    *cache.Cache
	posts    *PostService
	comments *CommentService
	users    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	up := testutil.NewUpstream(t)
	gw := gateway.New(up.URL(), 2*time.Second)
	c := newLocalCache(t)
	return &fixture{
		up:       up,
		cache:    c,
		posts:    NewPostService(gw, c),
		comments: NewCommentService(gw, c, time.Minute),
		users:    NewUserService(gw, c, time.Minute, time.Hour),
	}
}
