package models

// CommentUser is the user summary embedded in every comment.
type CommentUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName,omitempty"`
}

// Comment represents a comment on a post.
type Comment struct {
	ID     uint        `json:"id"`
	Body   string      `json:"body"`
	PostID uint        `json:"postId"`
	UserID uint        `json:"userId,omitempty"`
	User   CommentUser `json:"user"`
	Likes  int         `json:"likes"`
}

// CommentsPage is the envelope returned by GET /comments/post/{postId}.
type CommentsPage struct {
	Comments []*Comment `json:"comments"`
	Total    int        `json:"total"`
}

// CreateCommentRequest is the body of POST /comments/add.
type CreateCommentRequest struct {
	Body   string `json:"body"`
	PostID uint   `json:"postId"`
	UserID uint   `json:"userId"`
}
