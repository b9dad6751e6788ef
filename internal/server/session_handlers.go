package server

import (
	"postsmanager/internal/filter"
	"postsmanager/internal/middleware"
	"postsmanager/internal/models"
	"postsmanager/internal/observability"
	"postsmanager/internal/session"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
)

// CreateSessionRequest carries the page's raw URL query string.
type CreateSessionRequest struct {
	Query string `json:"query" example:"skip=10&limit=10&tag=love"`
}

// FilterResponse is the result of a state-changing session call.
type FilterResponse struct {
	State filter.State      `json:"state"`
	URL   session.URLUpdate `json:"url"`
}

// lookupSession resolves the :id param and tags the request context with it.
func (s *Server) lookupSession(c *fiber.Ctx) (*session.Session, error) {
	sess, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		return nil, err
	}
	ctx := middleware.WithSessionID(c.UserContext(), sess.ID)
	observability.AddTraceAttributesToContext(ctx, attribute.String("session.id", sess.ID))
	c.SetUserContext(ctx)
	return sess, nil
}

// CreateSession handles POST /api/sessions
// @Summary Open a page session
// @Description Hydrates filter state from the page's URL query string. Invalid values fall back to defaults.
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body CreateSessionRequest false "Initial URL query"
// @Success 201 {object} session.Snapshot
// @Failure 400 {object} models.ErrorResponse
// @Router /sessions [post]
func (s *Server) CreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
	}
	sess := s.sessions.Create(req.Query)
	return c.Status(fiber.StatusCreated).JSON(sess.Snapshot())
}

// GetSession handles GET /api/sessions/:id
// @Summary Get a page session
// @Description Current filter state, canonical URL query and pagination availability.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.Snapshot
// @Failure 404 {object} models.ErrorResponse
// @Router /sessions/{id} [get]
func (s *Server) GetSession(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sess.Snapshot())
}

// DeleteSession handles DELETE /api/sessions/:id
// @Summary Close a page session
// @Description Discards the session. Reads still in flight are abandoned.
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /sessions/{id} [delete]
func (s *Server) DeleteSession(c *fiber.Ctx) error {
	if err := s.sessions.Delete(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateSessionFilter handles PATCH /api/sessions/:id/filter
// @Summary Update filters
// @Description Merges any subset of skip, limit, search, tag, sortBy and sortOrder. Changing search, tag or limit resets skip to 0.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body filter.Patch true "Partial filter state"
// @Success 200 {object} FilterResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /sessions/{id}/filter [patch]
func (s *Server) UpdateSessionFilter(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if err != nil {
		return respondError(c, err)
	}

	var patch filter.Patch
	if err := c.BodyParser(&patch); err != nil {
		return badBody(c)
	}
	if patch.Empty() {
		return respondError(c, models.NewValidationError("At least one filter field is required"))
	}
	if patch.SortBy != nil && !filter.ValidSortBy(*patch.SortBy) {
		return respondError(c, models.NewValidationError("Invalid sortBy"))
	}
	if patch.SortOrder != nil && !filter.ValidSortOrder(*patch.SortOrder) {
		return respondError(c, models.NewValidationError("Invalid sortOrder"))
	}

	state, url := sess.Update(patch)
	return c.JSON(FilterResponse{State: state, URL: url})
}

// NextPage handles POST /api/sessions/:id/page/next
// @Summary Next page
// @Description Advances skip by limit. Disabled when the last settled total has no further page.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} FilterResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /sessions/{id}/page/next [post]
func (s *Server) NextPage(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if err != nil {
		return respondError(c, err)
	}
	state, url, err := sess.NextPage()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(FilterResponse{State: state, URL: url})
}

// PrevPage handles POST /api/sessions/:id/page/prev
// @Summary Previous page
// @Description Moves skip back by limit, never below 0. Disabled on the first page.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} FilterResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /sessions/{id}/page/prev [post]
func (s *Server) PrevPage(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if err != nil {
		return respondError(c, err)
	}
	state, url, err := sess.PrevPage()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(FilterResponse{State: state, URL: url})
}

// GetSessionPosts handles GET /api/sessions/:id/posts
// @Summary Posts for the current filters
// @Description Fetches only the active mode (search, tag or paged list). A response superseded by a newer request carries stale=true and the newer data.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.PostsView
// @Failure 404 {object} models.ErrorResponse
// @Router /sessions/{id}/posts [get]
func (s *Server) GetSessionPosts(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sess.Posts(c.UserContext(), s.reader))
}
