package gateway

import (
	"context"
	"fmt"

	"postsmanager/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListAuthors fetches every user (limit=0 is unbounded) with only the fields the author join needs.
func (c *Client) ListAuthors(ctx context.Context) ([]*models.User, error) {
	var page models.UsersPage
	err := c.do(ctx, call{
		operation: "list_authors",
		method:    fiber.MethodGet,
		path:      "/users?limit=0&select=username,image",
		out:       &page,
	})
	if err != nil {
		return nil, err
	}
	return page.Users, nil
}

func (c *Client) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := c.do(ctx, call{
		operation: "get_user",
		method:    fiber.MethodGet,
		path:      fmt.Sprintf("/users/%d", id),
		out:       &user,
		resource:  "User",
		id:        id,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
