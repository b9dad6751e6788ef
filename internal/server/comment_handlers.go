package server

import (
	"postsmanager/internal/models"
	"postsmanager/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UpdateCommentRequest is the body of PUT /api/comments/:id.
type UpdateCommentRequest struct {
	Body   string `json:"body"`
	PostID uint   `json:"postId"`
}

// LikeCommentRequest is the body of POST /api/comments/:id/like.
type LikeCommentRequest struct {
	PostID uint `json:"postId"`
	// Likes is the count the page currently shows.
	Likes int `json:"likes"`
}

// CreateComment handles POST /api/comments
// @Summary Create comment
// @Description Adds a comment upstream and invalidates the post's cached comments.
// @Tags comments
// @Accept json
// @Produce json
// @Param request body models.CreateCommentRequest true "Comment data"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req models.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	comment, err := s.commentService.CreateComment(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment handles PUT /api/comments/:id
// @Summary Update comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param postId query int false "Post the comment belongs to"
// @Param request body UpdateCommentRequest true "New body"
// @Success 200 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /comments/{id} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	postID, err := queryPostID(c)
	if err != nil {
		return nil
	}
	var req UpdateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.PostID != 0 {
		postID = req.PostID
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		CommentID: id,
		PostID:    postID,
		Body:      req.Body,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete comment
// @Tags comments
// @Param id path int true "Comment ID"
// @Param postId query int true "Post the comment belongs to"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	postID, err := queryPostID(c)
	if err != nil {
		return nil
	}
	if err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		CommentID: id,
		PostID:    postID,
	}); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikeComment handles POST /api/comments/:id/like
// @Summary Like comment
// @Description Writes likes+1 upstream and returns the confirmed count. Concurrent likes from different pages can lose one.
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param request body LikeCommentRequest true "Current like count"
// @Success 200 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /comments/{id}/like [post]
func (s *Server) LikeComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	postID, err := queryPostID(c)
	if err != nil {
		return nil
	}
	var req LikeCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.PostID != 0 {
		postID = req.PostID
	}

	comment, err := s.commentService.LikeComment(c.UserContext(), service.LikeCommentInput{
		CommentID: id,
		PostID:    postID,
		Likes:     req.Likes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}
