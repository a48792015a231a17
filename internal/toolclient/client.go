package toolclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/fidash/internal/model"
	"github.com/cleared-dev/fidash/internal/payload"
)

var (
	// ErrMissingSession is returned when no session id was supplied.
	ErrMissingSession = errors.New("session id is required")
	// ErrInvalidSession is returned when the backend rejects the session.
	ErrInvalidSession = errors.New("invalid or expired session")
)

// maxBodyBytes caps how much of a tool response is read.
const maxBodyBytes = 16 << 20

// Session is the /check-session response.
type Session struct {
	Valid       bool   `json:"valid"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Client talks to the financial data backend.
type Client struct {
	baseURL    string
	http       *http.Client
	logger     *zap.Logger
	concurrent bool
	schemas    *payload.Registry
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for per-tool failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithConcurrentFetch makes FetchAll request all tools in parallel.
func WithConcurrentFetch(on bool) Option {
	return func(c *Client) { c.concurrent = on }
}

// WithSchemas checks each fetched payload against its schema and logs violations.
// Violating payloads are still returned; aggregation leaves the bad parts out.
func WithSchemas(r *payload.Registry) Option {
	return func(c *Client) { c.schemas = r }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoginURL is where a user without a valid session is sent.
func (c *Client) LoginURL(placeholderSessionID string) string {
	return c.baseURL + "/mockWebPage?" + url.Values{"sessionId": {placeholderSessionID}}.Encode()
}

// CheckSession validates sessionID. It returns ErrInvalidSession when the backend
// answers 401 or valid=false.
func (c *Client) CheckSession(ctx context.Context, sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, ErrMissingSession
	}

	body, status, err := c.get(ctx, "/check-session", url.Values{"sessionId": {sessionID}})
	if err != nil {
		return Session{}, fmt.Errorf("checking session: %w", err)
	}
	if status == http.StatusUnauthorized {
		return Session{}, ErrInvalidSession
	}
	if status != http.StatusOK {
		return Session{}, fmt.Errorf("checking session: unexpected status %d", status)
	}

	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return Session{}, fmt.Errorf("decoding session response: %w", err)
	}
	if !s.Valid {
		return Session{}, ErrInvalidSession
	}
	return s, nil
}

// FetchTool returns the raw JSON payload for one tool.
func (c *Client) FetchTool(ctx context.Context, sessionID string, tool model.Tool) (json.RawMessage, error) {
	body, status, err := c.get(ctx, "/tool", url.Values{"sessionId": {sessionID}, "tool": {string(tool)}})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", tool, err)
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("fetching %s: status %d: %s", tool, status, strings.TrimSpace(string(body)))
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("fetching %s: response is not valid JSON", tool)
	}
	return json.RawMessage(body), nil
}

// FetchAll fetches every tool. A tool that fails is logged and its slot holds the
// fetch error marker; FetchAll itself never fails.
func (c *Client) FetchAll(ctx context.Context, sessionID string) model.RawToolResult {
	tools := model.AllTools()
	result := make(model.RawToolResult, len(tools))

	if !c.concurrent {
		for _, tool := range tools {
			result[tool] = c.fetchOrMark(ctx, sessionID, tool)
		}
		return result
	}

	// Each tool owns its own key, so merge order does not matter.
	var mu sync.Mutex
	var g errgroup.Group
	for _, tool := range tools {
		g.Go(func() error {
			p := c.fetchOrMark(ctx, sessionID, tool)
			mu.Lock()
			result[tool] = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return result
}

func (c *Client) fetchOrMark(ctx context.Context, sessionID string, tool model.Tool) model.ToolPayload {
	start := time.Now()
	raw, err := c.FetchTool(ctx, sessionID, tool)
	if err != nil {
		c.logger.Warn("tool fetch failed",
			zap.String("tool", string(tool)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return model.FailedPayload()
	}
	c.logger.Debug("tool fetched",
		zap.String("tool", string(tool)),
		zap.Int("bytes", len(raw)),
		zap.Duration("elapsed", time.Since(start)))
	c.check(tool, raw)
	return model.ToolPayload(raw)
}

func (c *Client) check(tool model.Tool, raw []byte) {
	if c.schemas == nil {
		return
	}
	for _, verr := range c.schemas.Check(tool, raw) {
		c.logger.Warn("tool payload does not match schema",
			zap.String("tool", string(tool)),
			zap.String("path", verr.Path),
			zap.String("reason", verr.Reason))
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	return body, resp.StatusCode, nil
}
