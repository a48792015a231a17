package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrAgentUnreachable wraps transport failures talking to the agent.
var ErrAgentUnreachable = errors.New("could not connect to the agent server")

const maxResponseBytes = 4 << 20

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type chatResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
	Details  string `json:"details,omitempty"`
}

// Client sends chat prompts to the remote agent.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a Client for the agent at baseURL.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// WithHTTPClient returns a copy of c using hc.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	cp := *c
	cp.http = hc
	return &cp
}

// Send posts message on behalf of userID and returns the agent's reply.
func (c *Client) Send(ctx context.Context, message, userID string) (string, error) {
	body, err := json.Marshal(chatRequest{Message: message, UserID: userID})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAgentUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading chat response: %w", err)
	}

	var out chatResponse
	decodeErr := json.Unmarshal(data, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apiError(resp, out, decodeErr)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decoding chat response: %w", decodeErr)
	}

	c.logger.Debug("agent replied",
		zap.String("user_id", userID),
		zap.Int("response_len", len(out.Response)),
		zap.Duration("elapsed", time.Since(start)))
	return out.Response, nil
}

func apiError(resp *http.Response, out chatResponse, decodeErr error) error {
	msg := fmt.Sprintf("API error: %d - %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	if decodeErr == nil && out.Error != "" {
		msg += ": " + out.Error
		if out.Details != "" {
			msg += " (" + out.Details + ")"
		}
	}
	return errors.New(msg)
}

// Health reports whether the agent answers its health endpoint.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("agent health check failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}
