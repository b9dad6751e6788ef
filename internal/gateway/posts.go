package gateway

import (
	"context"
	"fmt"
	"net/url"

	"postsmanager/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListPosts reads one page of posts in server order.
func (c *Client) ListPosts(ctx context.Context, limit, skip int) (*models.PostsPage, error) {
	var page models.PostsPage
	err := c.do(ctx, call{
		operation: "list_posts",
		method:    fiber.MethodGet,
		path:      fmt.Sprintf("/posts?limit=%d&skip=%d", limit, skip),
		out:       &page,
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// SearchPosts runs the server-side full-text search.
func (c *Client) SearchPosts(ctx context.Context, query string) (*models.PostsPage, error) {
	var page models.PostsPage
	err := c.do(ctx, call{
		operation: "search_posts",
		method:    fiber.MethodGet,
		path:      "/posts/search?q=" + url.QueryEscape(query),
		out:       &page,
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// PostsByTag reads every post carrying tag.
func (c *Client) PostsByTag(ctx context.Context, tag string) (*models.PostsPage, error) {
	var page models.PostsPage
	err := c.do(ctx, call{
		operation: "posts_by_tag",
		method:    fiber.MethodGet,
		path:      "/posts/tag/" + url.PathEscape(tag),
		out:       &page,
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := c.do(ctx, call{
		operation: "list_tags",
		method:    fiber.MethodGet,
		path:      "/posts/tags",
		out:       &tags,
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (c *Client) CreatePost(ctx context.Context, req models.CreatePostRequest) (*models.Post, error) {
	var post models.Post
	err := c.do(ctx, call{
		operation: "create_post",
		method:    fiber.MethodPost,
		path:      "/posts/add",
		body:      req,
		out:       &post,
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost sends only the fields set in req.
func (c *Client) UpdatePost(ctx context.Context, id uint, req models.UpdatePostRequest) (*models.Post, error) {
	var post models.Post
	err := c.do(ctx, call{
		operation: "update_post",
		method:    fiber.MethodPut,
		path:      fmt.Sprintf("/posts/%d", id),
		body:      req,
		out:       &post,
		resource:  "Post",
		id:        id,
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, id uint) error {
	return c.do(ctx, call{
		operation: "delete_post",
		method:    fiber.MethodDelete,
		path:      fmt.Sprintf("/posts/%d", id),
		resource:  "Post",
		id:        id,
	})
}
