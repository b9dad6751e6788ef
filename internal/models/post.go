// Package models contains data structures for the posts manager domain.
package models

// Reactions holds the like/dislike counters attached to a post.
type Reactions struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

// Post represents a post as served by the upstream posts API.
type Post struct {
	ID        uint       `json:"id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	UserID    uint       `json:"userId"`
	Tags      []string   `json:"tags,omitempty"`
	Reactions *Reactions `json:"reactions,omitempty"`
	// Author is joined locally after fetch and never sent upstream.
	Author *User `json:"author,omitempty"`
}

// Likes returns the post's like count, treating missing reactions as zero.
func (p *Post) Likes() int {
	if p.Reactions == nil {
		return 0
	}
	return p.Reactions.Likes
}

// PostsPage is the envelope returned by list, search and tag reads.
type PostsPage struct {
	Posts []*Post `json:"posts"`
	Total int     `json:"total"`
	Skip  int     `json:"skip"`
	Limit int     `json:"limit"`
}

// CreatePostRequest is the body of POST /posts/add.
type CreatePostRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID uint   `json:"userId"`
}

// UpdatePostRequest is a partial post; nil fields are left untouched upstream.
type UpdatePostRequest struct {
	Title  *string  `json:"title,omitempty"`
	Body   *string  `json:"body,omitempty"`
	UserID *uint    `json:"userId,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}
