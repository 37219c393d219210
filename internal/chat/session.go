package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation entry. Content accumulates while Streaming is
// true and is final afterwards, except for the terminal error substitution.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Streaming bool
}

const genericErrorMessage = "Sorry, something went wrong. Please try again."

// Session owns one conversation with the project assistant: the message list,
// the single in-flight request, and its cancellation. All failures are folded
// into the conversation as assistant messages; nothing propagates to the UI.
type Session struct {
	client  *Client
	project *ProjectContext
	onFirst func()

	mu       sync.Mutex
	messages []Message
	loading  bool
	cancel   context.CancelFunc
	gen      int

	updates chan struct{}
}

// NewSession builds a session. onFirst, when non-nil, runs once right before
// the session's first request is issued.
func NewSession(client *Client, project *ProjectContext, onFirst func()) *Session {
	return &Session{
		client:  client,
		project: project,
		onFirst: onFirst,
		updates: make(chan struct{}, 1),
	}
}

// Updates signals whenever the message list changes. The channel is
// coalescing: a pending signal absorbs later ones.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

// Messages returns a snapshot of the conversation.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Loading reports whether a request is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Send appends a user message and a streaming assistant placeholder, then
// issues the request. Blank input or an in-flight request makes it a no-op;
// the return value reports whether a request was started.
func (s *Session) Send(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return false
	}
	first := len(s.messages) == 0
	user := Message{ID: uuid.NewString(), Role: RoleUser, Content: text}
	assistant := Message{ID: uuid.NewString(), Role: RoleAssistant, Streaming: true}
	s.messages = append(s.messages, user, assistant)
	s.loading = true

	history := make([]WireMessage, 0, len(s.messages)-1)
	for _, m := range s.messages[:len(s.messages)-1] {
		history = append(history, WireMessage{Role: string(m.Role), Content: m.Content})
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	gen := s.gen
	s.mu.Unlock()

	if first && s.onFirst != nil {
		s.onFirst()
	}
	s.signal()

	go s.stream(ctx, history, assistant.ID, gen)
	return true
}

func (s *Session) stream(ctx context.Context, history []WireMessage, assistantID string, gen int) {
	err := s.client.Stream(ctx, history, s.project, func(chunk string) {
		s.appendContent(assistantID, chunk)
		s.signal()
	})

	s.mu.Lock()
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		// Cancellation keeps whatever was accumulated.
		s.finishLocked(assistantID, "")
	default:
		var rle *RateLimitError
		if errors.As(err, &rle) {
			s.finishLocked(assistantID, fmt.Sprintf("Rate limit reached. Please wait %d seconds.", rle.RetryAfter))
		} else {
			s.finishLocked(assistantID, genericErrorMessage)
		}
	}
	if gen == s.gen {
		// A reset may have superseded this request already.
		s.loading = false
		s.cancel = nil
	}
	s.mu.Unlock()
	s.signal()
}

// finishLocked marks the assistant message done, substituting its content
// when replacement is non-empty. Caller holds s.mu.
func (s *Session) finishLocked(assistantID, replacement string) {
	for i := range s.messages {
		if s.messages[i].ID != assistantID {
			continue
		}
		if replacement != "" {
			s.messages[i].Content = replacement
		}
		s.messages[i].Streaming = false
		return
	}
}

func (s *Session) appendContent(assistantID, chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == assistantID {
			s.messages[i].Content += chunk
			return
		}
	}
}

// Stop cancels the in-flight request, if any. Partial assistant content is
// kept.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reset cancels any in-flight request and clears the conversation, so a
// reopened session always starts empty.
func (s *Session) Reset() {
	s.Stop()
	s.mu.Lock()
	s.messages = nil
	s.loading = false
	s.cancel = nil
	s.gen++
	s.mu.Unlock()
	s.signal()
}

func (s *Session) signal() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
