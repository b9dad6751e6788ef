package main

import (
	"bytes"
	"context"
	"testing"

	"postsmanager/internal/config"
	"postsmanager/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestResolve_TagQuery(t *testing.T) {
	up := testutil.NewUpstream(t)
	cfg := &config.Config{APIBaseURL: up.URL(), UpstreamTimeoutSeconds: 2, LocalCacheSize: 32}

	rep, err := resolve(context.Background(), cfg, "?tag=love&limit=abc")
	require.NoError(t, err)

	assert.Equal(t, "tag=love", rep.Query)
	assert.Equal(t, 10, rep.State.Limit)
	assert.Equal(t, 8, rep.Total)
	require.Len(t, rep.Posts, 8)
	assert.NotEmpty(t, rep.Posts[0].Author)
	assert.Zero(t, up.Hits("GET /posts"))
}

func TestWrite_YAML(t *testing.T) {
	up := testutil.NewUpstream(t)
	cfg := &config.Config{APIBaseURL: up.URL(), UpstreamTimeoutSeconds: 2, LocalCacheSize: 32}

	rep, err := resolve(context.Background(), cfg, "skip=20")
	require.NoError(t, err)
	assert.True(t, rep.CanPrev)
	assert.False(t, rep.CanNext)

	var buf bytes.Buffer
	require.NoError(t, write(&buf, rep))

	var decoded report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "skip=20", decoded.Query)
	assert.Equal(t, 25, decoded.Total)
	assert.Len(t, decoded.Posts, 5)
}
