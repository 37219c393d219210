// Package server hosts the chat streaming endpoint consumed by the chat TUI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/verso-dev/folio/internal/chat"
)

// Config wires the endpoint to its upstream model and identifies the
// portfolio owner for the system prompt.
type Config struct {
	Owner      string
	Site       string
	Model      string
	APIKey     string
	BaseURL    string
	RateLimit  int
	RateWindow time.Duration
}

// Completer streams completion deltas for a conversation. onDelta is invoked
// once per text fragment, in order.
type Completer interface {
	Complete(ctx context.Context, system string, messages []chat.WireMessage, onDelta func(string)) error
}

type openAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter builds the production completer against an
// OpenAI-compatible API.
func NewOpenAICompleter(apiKey, baseURL, model string) Completer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openAICompleter{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *openAICompleter) Complete(ctx context.Context, system string, messages []chat.WireMessage, onDelta func(string)) error {
	req := openai.ChatCompletionRequest{
		Model:  o.model,
		Stream: true,
	}
	if system != "" {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == string(chat.RoleAssistant) {
			role = openai.ChatMessageRoleAssistant
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	stream, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to open upstream stream: %w", err)
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			// Best-effort stream close.
			_ = cerr
		}
	}()

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read upstream stream: %w", err)
		}
		for _, choice := range response.Choices {
			if choice.Delta.Content != "" {
				onDelta(choice.Delta.Content)
			}
		}
	}
}

// Server is the HTTP chat endpoint.
type Server struct {
	cfg       Config
	completer Completer
	limiter   *RateLimiter
	http      *http.Client
}

// New builds a server around a completer. A nil limiter config falls back to
// 10 requests per minute per client.
func New(cfg Config, completer Completer) *Server {
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 10
	}
	window := cfg.RateWindow
	if window <= 0 {
		window = time.Minute
	}
	return &Server{
		cfg:       cfg,
		completer: completer,
		limiter:   NewRateLimiter(limit, window),
		http:      &http.Client{Timeout: readmeTimeout},
	}
}

// Handler returns the endpoint mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	return mux
}

type chatRequest struct {
	Messages       []chat.WireMessage   `json:"messages"`
	ProjectContext *chat.ProjectContext `json:"projectContext"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	if ok, retryAfter := s.limiter.Allow(clientIP(r)); !ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		w.WriteHeader(http.StatusTooManyRequests)
		if err := json.NewEncoder(w).Encode(map[string]any{
			"error":      "Too many requests",
			"message":    "You have exceeded the rate limit. Please try again later.",
			"retryAfter": retryAfter,
		}); err != nil {
			// Response already committed.
			_ = err
		}
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Messages) == 0 {
		writeJSONError(w, http.StatusBadRequest, "Messages are required")
		return
	}

	var readme string
	if req.ProjectContext != nil && req.ProjectContext.GitHub != "" {
		readme = FetchReadme(r.Context(), s.http, req.ProjectContext.GitHub)
	}
	system := buildSystemPrompt(s.cfg.Owner, s.cfg.Site, req.ProjectContext, readme)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	flusher, _ := w.(http.Flusher)
	err := s.completer.Complete(r.Context(), system, req.Messages, func(delta string) {
		if _, werr := io.WriteString(w, delta); werr != nil {
			// Client went away; the context cancellation stops the stream.
			_ = werr
		}
		if flusher != nil {
			flusher.Flush()
		}
	})
	if err != nil && r.Context().Err() == nil {
		// Headers are already sent; the truncated body is all we can signal.
		logErrf("upstream stream failed: %v\n", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		// Response already committed.
		_ = err
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if real := r.Header.Get("X-Real-Ip"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "anonymous"
	}
	return host
}
