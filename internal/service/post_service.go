package service

import (
	"context"
	"strings"

	"postsmanager/internal/cache"
	"postsmanager/internal/models"
	"postsmanager/internal/observability"
)

// PostGateway is the write side of the remote posts API.
type PostGateway interface {
	CreatePost(ctx context.Context, req models.CreatePostRequest) (*models.Post, error)
	UpdatePost(ctx context.Context, id uint, req models.UpdatePostRequest) (*models.Post, error)
	DeletePost(ctx context.Context, id uint) error
}

type PostService struct {
	gw    PostGateway
	cache *cache.Cache
}

func NewPostService(gw PostGateway, c *cache.Cache) *PostService {
	return &PostService{gw: gw, cache: newCache(c)}
}

const maxTitleLen = 500

func (s *PostService) CreatePost(ctx context.Context, req models.CreatePostRequest) (*models.Post, error) {
	ctx, span := observability.GetTraceLayer().TraceServiceCall(ctx, "PostService", "CreatePost")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		err = models.NewValidationError("Title is required")
		return nil, err
	}
	if len(req.Title) > maxTitleLen {
		err = models.NewValidationError("Title too long (max 500 characters)")
		return nil, err
	}
	if req.UserID == 0 {
		err = models.NewValidationError("userId is required")
		return nil, err
	}

	post, err := s.gw.CreatePost(ctx, req)
	if err != nil {
		logger.LogServiceError(ctx, "PostService", "CreatePost", err, map[string]interface{}{"user_id": req.UserID})
		return nil, err
	}
	invalidate(ctx, "PostService", "CreatePost", s.cache.InvalidatePosts)

	logger.LogServiceCall(ctx, "PostService", "CreatePost", map[string]interface{}{"post_id": post.ID})
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, id uint, req models.UpdatePostRequest) (*models.Post, error) {
	ctx, span := observability.GetTraceLayer().TraceServiceCall(ctx, "PostService", "UpdatePost")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if req.Title == nil && req.Body == nil && req.UserID == nil && req.Tags == nil {
		err = models.NewValidationError("Nothing to update")
		return nil, err
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		err = models.NewValidationError("Title cannot be empty")
		return nil, err
	}

	post, err := s.gw.UpdatePost(ctx, id, req)
	if err != nil {
		logger.LogServiceError(ctx, "PostService", "UpdatePost", err, map[string]interface{}{"post_id": id})
		return nil, err
	}
	invalidate(ctx, "PostService", "UpdatePost", s.cache.InvalidatePosts)

	logger.LogServiceCall(ctx, "PostService", "UpdatePost", map[string]interface{}{"post_id": id})
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, id uint) error {
	ctx, span := observability.GetTraceLayer().TraceServiceCall(ctx, "PostService", "DeletePost")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = s.gw.DeletePost(ctx, id); err != nil {
		logger.LogServiceError(ctx, "PostService", "DeletePost", err, map[string]interface{}{"post_id": id})
		return err
	}
	invalidate(ctx, "PostService", "DeletePost", s.cache.InvalidatePosts)

	logger.LogServiceCall(ctx, "PostService", "DeletePost", map[string]interface{}{"post_id": id})
	return nil
}
