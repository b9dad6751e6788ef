package gateway

import (
	"context"
	"fmt"

	"postsmanager/internal/models"

	"github.com/gofiber/fiber/v2"
)

func (c *Client) CommentsForPost(ctx context.Context, postID uint) (*models.CommentsPage, error) {
	var page models.CommentsPage
	err := c.do(ctx, call{
		operation: "comments_for_post",
		method:    fiber.MethodGet,
		path:      fmt.Sprintf("/comments/post/%d", postID),
		out:       &page,
		resource:  "Post",
		id:        postID,
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) CreateComment(ctx context.Context, req models.CreateCommentRequest) (*models.Comment, error) {
	var comment models.Comment
	err := c.do(ctx, call{
		operation: "create_comment",
		method:    fiber.MethodPost,
		path:      "/comments/add",
		body:      req,
		out:       &comment,
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) UpdateComment(ctx context.Context, id uint, body string) (*models.Comment, error) {
	var comment models.Comment
	err := c.do(ctx, call{
		operation: "update_comment",
		method:    fiber.MethodPut,
		path:      fmt.Sprintf("/comments/%d", id),
		body:      fiber.Map{"body": body},
		out:       &comment,
		resource:  "Comment",
		id:        id,
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) DeleteComment(ctx context.Context, id uint) error {
	return c.do(ctx, call{
		operation: "delete_comment",
		method:    fiber.MethodDelete,
		path:      fmt.Sprintf("/comments/%d", id),
		resource:  "Comment",
		id:        id,
	})
}

// SetCommentLikes writes an absolute like count. The API has no atomic increment,
// so concurrent likes from two views race; the last write wins.
func (c *Client) SetCommentLikes(ctx context.Context, id uint, likes int) (*models.Comment, error) {
	var comment models.Comment
	err := c.do(ctx, call{
		operation: "like_comment",
		method:    fiber.MethodPatch,
		path:      fmt.Sprintf("/comments/%d", id),
		body:      fiber.Map{"likes": likes},
		out:       &comment,
		resource:  "Comment",
		id:        id,
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}
