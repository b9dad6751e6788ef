// Package gateway is the only boundary to the remote posts/comments/users/tags API.
// Every method issues exactly one HTTP request and decodes the JSON reply into models.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"postsmanager/internal/models"
	"postsmanager/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// DefaultTimeout bounds a single upstream call when none is configured.
const DefaultTimeout = 10 * time.Second

// Client talks to a dummyjson-compatible API.
type Client struct {
	baseURL string
	timeout time.Duration
	logger  *observability.GatewayLogger
	metrics *observability.UpstreamMetrics
}

// New creates a Client for baseURL (e.g. https://dummyjson.com).
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		logger:  observability.NewGatewayLogger(baseURL),
		metrics: observability.NewUpstreamMetrics(),
	}
}

// BaseURL returns the upstream the client is bound to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one upstream request.
type call struct {
	operation string
	method    string
	path      string
	body      any
	out       any

	// resource and id name the entity in a NOT_FOUND error.
	resource string
	id       any
}

func newAgent(method, url string) *fiber.Agent {
	switch method {
	case fiber.MethodPost:
		return fiber.Post(url)
	case fiber.MethodPut:
		return fiber.Put(url)
	case fiber.MethodPatch:
		return fiber.Patch(url)
	case fiber.MethodDelete:
		return fiber.Delete(url)
	default:
		return fiber.Get(url)
	}
}

func (c *Client) do(ctx context.Context, cl call) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := observability.GetTraceLayer().TraceUpstreamCall(ctx, cl.operation, cl.method, cl.path)
	track := c.metrics.TrackCall(cl.operation)
	start := time.Now()
	status := 0
	defer func() {
		track(status)
		observability.EndSpan(span, err)
		if err != nil {
			c.logger.LogError(ctx, cl.operation, cl.method, cl.path, err)
			return
		}
		c.logger.LogCall(ctx, cl.operation, cl.method, cl.path, status, time.Since(start))
	}()

	agent := newAgent(cl.method, c.baseURL+cl.path)
	agent.Timeout(c.timeout)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if id := observability.ExtractCorrelationID(ctx); id != "" {
		agent.Set(fiber.HeaderXRequestID, id)
	}
	if cl.body != nil {
		agent.JSON(cl.body)
	}
	if err := agent.Parse(); err != nil {
		return models.NewUpstreamError(cl.operation, err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return models.NewUpstreamError(cl.operation, errs[0])
	}
	status = code

	switch {
	case code == fiber.StatusNotFound && cl.resource != "":
		return models.NewNotFoundError(cl.resource, cl.id)
	case code < 200 || code >= 300:
		return models.NewUpstreamError(cl.operation, fmt.Errorf("unexpected status %d", code))
	}

	if cl.out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, cl.out); err != nil {
		return models.NewUpstreamError(cl.operation, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
