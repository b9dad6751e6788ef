package service

import (
	"context"
	"time"

	"postsmanager/internal/cache"
	"postsmanager/internal/models"
)

// UserGateway is the read side of the remote users and tags API.
type UserGateway interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
}

// UserService serves user detail lookups and the tag list, both cached.
type UserService struct {
	gw      UserGateway
	cache   *cache.Cache
	ttl     time.Duration
	tagsTTL time.Duration
}

func NewUserService(gw UserGateway, c *cache.Cache, ttl, tagsTTL time.Duration) *UserService {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	if tagsTTL <= 0 {
		tagsTTL = cache.TagsTTL
	}
	return &UserService{gw: gw, cache: newCache(c), ttl: ttl, tagsTTL: tagsTTL}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	if id == 0 {
		return nil, models.NewValidationError("Invalid user ID")
	}
	var user models.User
	err := s.cache.Aside(ctx, cache.UserKey(id), &user, s.ttl, func(ctx context.Context) error {
		fetched, err := s.gw.GetUser(ctx, id)
		if err != nil {
			return err
		}
		user = *fetched
		return nil
	})
	if err != nil {
		logger.LogServiceError(ctx, "UserService", "GetUser", err, map[string]interface{}{"user_id": id})
		return nil, err
	}
	return &user, nil
}

// ListTags loads the tag list once per tags TTL; tags never change at runtime.
func (s *UserService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.cache.Aside(ctx, cache.TagsKey(), &tags, s.tagsTTL, func(ctx context.Context) error {
		fetched, err := s.gw.ListTags(ctx)
		if err != nil {
			return err
		}
		tags = fetched
		return nil
	})
	if err != nil {
		logger.LogServiceError(ctx, "UserService", "ListTags", err, nil)
		return nil, err
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return tags, nil
}
