package service

import (
	"context"
	"strings"
	"time"

	"postsmanager/internal/cache"
	"postsmanager/internal/models"
	"postsmanager/internal/observability"
)

// CommentGateway is the remote comments API.
type CommentGateway interface {
	CommentsForPost(ctx context.Context, postID uint) (*models.CommentsPage, error)
	CreateComment(ctx context.Context, req models.CreateCommentRequest) (*models.Comment, error)
	UpdateComment(ctx context.Context, id uint, body string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id uint) error
	SetCommentLikes(ctx context.Context, id uint, likes int) (*models.Comment, error)
}

type CommentService struct {
	gw    CommentGateway
	cache *cache.Cache
	ttl   time.Duration
}

func NewCommentService(gw CommentGateway, c *cache.Cache, ttl time.Duration) *CommentService {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &CommentService{gw: gw, cache: newCache(c), ttl: ttl}
}

type UpdateCommentInput struct {
	CommentID uint
	// PostID selects the comments read to invalidate. Zero falls back to the server echo.
	PostID uint
	Body   string
}

type DeleteCommentInput struct {
	CommentID uint
	PostID    uint
}

type LikeCommentInput struct {
	CommentID uint
	PostID    uint
	// Likes is the last count the view showed.
	Likes int
}

const maxCommentLen = 10000

func validateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return models.NewValidationError("Body is required")
	}
	if len(body) > maxCommentLen {
		return models.NewValidationError("Comment too long (max 10000 characters)")
	}
	return nil
}

// ListComments reads the comments of postID through the cache.
func (s *CommentService) ListComments(ctx context.Context, postID uint) (*models.CommentsPage, error) {
	var page models.CommentsPage
	err := s.cache.Aside(ctx, cache.CommentsKey(postID), &page, s.ttl, func(ctx context.Context) error {
		fetched, err := s.gw.CommentsForPost(ctx, postID)
		if err != nil {
			return err
		}
		page = *fetched
		return nil
	})
	if err != nil {
		logger.LogServiceError(ctx, "CommentService", "ListComments", err, map[string]interface{}{"post_id": postID})
		return nil, err
	}
	if page.Comments == nil {
		page.Comments = []*models.Comment{}
	}
	return &page, nil
}

func (s *CommentService) CreateComment(ctx context.Context, req models.CreateCommentRequest) (*models.Comment, error) {
	ctx, span := observability.GetTraceLayer().TraceServiceCall(ctx, "CommentService", "CreateComment")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = validateBody(req.Body); err != nil {
		return nil, err
	}
	if req.PostID == 0 || req.UserID == 0 {
		err = models.NewValidationError("postId and userId are required")
		return nil, err
	}

	comment, err := s.gw.CreateComment(ctx, req)
	if err != nil {
		logger.LogServiceError(ctx, "CommentService", "CreateComment", err, map[string]interface{}{"post_id": req.PostID})
		return nil, err
	}
	s.invalidateComments(ctx, "CreateComment", req.PostID, comment)

	logger.LogServiceCall(ctx, "CommentService", "CreateComment", map[string]interface{}{"comment_id": comment.ID, "post_id": req.PostID})
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	ctx, span := observability.GetTraceLayer().TraceServiceCall(ctx, "CommentService", "UpdateComment")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = validateBody(in.Body); err != nil {
		return nil, err
	}

	comment, err := s.gw.UpdateComment(ctx, in.CommentID, in.Body)
	if err != nil {
		logger.LogServiceError(ctx, "CommentService", "UpdateComment", err, map[string]interface{}{"comment_id": in.CommentID})
		return nil, err
	}
	s.invalidateComments(ctx, "UpdateComment", in.PostID, comment)

	logger.LogServiceCall(ctx, "CommentService", "UpdateComment", map[string]interface{}{"comment_id": in.CommentID})
	return comment, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	ctx, span := observability.GetTraceLayer().TraceServiceCall(ctx, "CommentService", "DeleteComment")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if in.PostID == 0 {
		err = models.NewValidationError("postId is required")
		return err
	}
	if err = s.gw.DeleteComment(ctx, in.CommentID); err != nil {
		logger.LogServiceError(ctx, "CommentService", "DeleteComment", err, map[string]interface{}{"comment_id": in.CommentID})
		return err
	}
	s.invalidateComments(ctx, "DeleteComment", in.PostID, nil)

	logger.LogServiceCall(ctx, "CommentService", "DeleteComment", map[string]interface{}{"comment_id": in.CommentID})
	return nil
}

// LikeComment writes likes = in.Likes+1. The remote API has no atomic increment,
// so two views liking at once race and one like can be lost.
//
// The returned comment carries the confirmed count: the server echo, unless the
// echo is below the requested value, in which case the requested value is kept
// because likes never decrease.
func (s *CommentService) LikeComment(ctx context.Context, in LikeCommentInput) (*models.Comment, error) {
	ctx, span := observability.GetTraceLayer().TraceServiceCall(ctx, "CommentService", "LikeComment")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if in.Likes < 0 {
		err = models.NewValidationError("likes cannot be negative")
		return nil, err
	}
	requested := in.Likes + 1

	comment, err := s.gw.SetCommentLikes(ctx, in.CommentID, requested)
	if err != nil {
		logger.LogServiceError(ctx, "CommentService", "LikeComment", err, map[string]interface{}{"comment_id": in.CommentID})
		return nil, err
	}
	if comment.Likes < requested {
		comment.Likes = requested
	}
	s.invalidateComments(ctx, "LikeComment", in.PostID, comment)

	logger.LogServiceCall(ctx, "CommentService", "LikeComment", map[string]interface{}{"comment_id": in.CommentID, "likes": comment.Likes})
	return comment, nil
}

// invalidateComments evicts the comments read of postID, falling back to the echo's post.
// When neither names a post every comments read is evicted.
func (s *CommentService) invalidateComments(ctx context.Context, method string, postID uint, echo *models.Comment) {
	if postID == 0 && echo != nil {
		postID = echo.PostID
	}
	if postID == 0 {
		observability.GlobalLogger.WarnContext(ctx, "comment mutation without post id, evicting all comments reads",
			"service", "CommentService", "method", method)
		invalidate(ctx, "CommentService", method, func(ctx context.Context) error {
			return s.cache.InvalidateScope(ctx, cache.ScopeComments)
		})
		return
	}
	invalidate(ctx, "CommentService", method, func(ctx context.Context) error {
		return s.cache.InvalidateComments(ctx, postID)
	})
}
