// Package chat implements the project assistant: the streaming endpoint
// client and the conversation session controller.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"unicode/utf8"
)

// WireMessage is one conversation turn as sent to the chat endpoint.
type WireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ProjectContext scopes the assistant to one project.
type ProjectContext struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	GitHub  string `json:"github"`
}

// RateLimitError reports a 429 response with the server-provided wait time.
type RateLimitError struct {
	RetryAfter int
	Message    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %d seconds", e.RetryAfter)
}

type chatRequest struct {
	Messages       []WireMessage   `json:"messages"`
	ProjectContext *ProjectContext `json:"projectContext,omitempty"`
}

type rateLimitBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

// Client talks to the chat streaming endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient builds a client for the given endpoint URL. Streaming responses
// have no overall deadline; cancellation comes from the request context.
func NewClient(endpoint string) *Client {
	return &Client{endpoint: endpoint, http: &http.Client{}}
}

// Stream posts the conversation and feeds decoded response text to onChunk as
// it arrives. Chunks are split on UTF-8 rune boundaries even when the wire
// splits a character across reads.
func (c *Client) Stream(ctx context.Context, messages []WireMessage, project *ProjectContext, onChunk func(string)) error {
	body, err := json.Marshal(chatRequest{Messages: messages, ProjectContext: project})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach chat endpoint: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return rateLimitError(resp)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("chat endpoint returned status %d", resp.StatusCode)
	}

	var pending []byte
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			complete, rest := splitCompleteRunes(pending)
			if len(complete) > 0 {
				onChunk(string(complete))
			}
			pending = rest
		}
		if readErr != nil {
			if len(pending) > 0 {
				// Trailing bytes that never completed a rune.
				onChunk(string(pending))
			}
			if readErr == io.EOF {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read stream: %w", readErr)
		}
	}
}

func rateLimitError(resp *http.Response) error {
	rle := &RateLimitError{}
	var parsed rateLimitBody
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil {
		rle.RetryAfter = parsed.RetryAfter
		rle.Message = parsed.Message
	}
	if rle.RetryAfter == 0 {
		if after, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			rle.RetryAfter = after
		}
	}
	return rle
}

// splitCompleteRunes cuts b before any trailing incomplete UTF-8 sequence.
// The rest is at most utf8.UTFMax-1 bytes and should be prepended to the next
// read.
func splitCompleteRunes(b []byte) (complete, rest []byte) {
	cut := len(b)
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 && i+utf8.UTFMax > len(b) {
			// Likely the start of a rune whose tail has not arrived yet.
			cut = i
		}
		break
	}
	return b[:cut], b[cut:]
}
