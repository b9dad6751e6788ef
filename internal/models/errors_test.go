package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewNotFoundError("Post", 7), http.StatusNotFound},
		{"validation", NewValidationError("bad"), http.StatusBadRequest},
		{"upstream", NewUpstreamError("list posts", errors.New("dial tcp")), http.StatusBadGateway},
		{"pagination disabled", NewConflictError(CodePaginationDisabled, "no next page"), http.StatusConflict},
		{"rate limited", &AppError{Code: CodeRateLimited, Message: "slow down"}, http.StatusTooManyRequests},
		{"internal", NewInternalError(errors.New("boom")), http.StatusInternalServerError},
		{"wrapped app error", fmt.Errorf("outer: %w", NewNotFoundError("User", 1)), http.StatusNotFound},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestRespondWithError_Envelope(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusBadGateway, NewUpstreamError("search posts", errors.New("timeout")))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, CodeUpstream, out.Code)
	assert.Equal(t, "upstream search posts failed", out.Error)
	assert.Equal(t, "timeout", out.Details)
}
