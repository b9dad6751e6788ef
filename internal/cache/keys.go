package cache

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Scopes group cached reads by the entity type they depend on.
const (
	ScopePosts    = "posts"
	ScopeComments = "comments"
	ScopeUsers    = "users"
	ScopeTags     = "tags"
)

const (
	postsListKeyFmt   = "posts:list:skip=%d:limit=%d"
	postsSearchPrefix = "posts:search:"
	postsTagPrefix    = "posts:tag:"
	commentsKeyFmt    = "comments:post:%d"
	userKeyFmt        = "users:%d"
	authorsKey        = "users:authors"
	tagsKey           = "tags:all"
)

const (
	// DefaultTTL applies to posts, comments and users.
	DefaultTTL = 5 * time.Minute
	// TagsTTL applies to the tag list, which is effectively static.
	TagsTTL = 24 * time.Hour
)

func PostsListKey(skip, limit int) string {
	return fmt.Sprintf(postsListKeyFmt, skip, limit)
}

func PostsSearchKey(query string) string {
	return postsSearchPrefix + url.QueryEscape(query)
}

func PostsTagKey(tag string) string {
	return postsTagPrefix + url.PathEscape(tag)
}

func CommentsKey(postID uint) string {
	return fmt.Sprintf(commentsKeyFmt, postID)
}

func UserKey(userID uint) string {
	return fmt.Sprintf(userKeyFmt, userID)
}

// AuthorsKey holds the batch user lookup used for author joins.
func AuthorsKey() string {
	return authorsKey
}

func TagsKey() string {
	return tagsKey
}

// ScopeOf returns the entity scope of a key ("posts:list:..." -> "posts").
func ScopeOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// ScopePrefix returns the key prefix that matches every read in scope.
func ScopePrefix(scope string) string {
	return scope + ":"
}
