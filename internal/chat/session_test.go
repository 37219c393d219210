package chat

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func lastAssistant(t *testing.T, s *Session) Message {
	t.Helper()
	msgs := s.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleAssistant {
			return msgs[i]
		}
	}
	t.Fatalf("no assistant message in %+v", msgs)
	return Message{}
}

func TestSessionStreamsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		flusher := w.(http.Flusher)
		for _, part := range []string{"Hi", " there"} {
			if _, err := w.Write([]byte(part)); err != nil {
				t.Errorf("failed to write chunk: %v", err)
			}
			flusher.Flush()
		}
	}))
	defer server.Close()

	s := NewSession(NewClient(server.URL), nil, nil)
	if !s.Send("hello") {
		t.Fatalf("expected Send to start a request")
	}

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected user + assistant placeholder, got %d messages", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "hello" {
		t.Fatalf("unexpected user message %+v", msgs[0])
	}
	if msgs[1].Role != RoleAssistant || !msgs[1].Streaming {
		t.Fatalf("expected streaming assistant placeholder, got %+v", msgs[1])
	}

	waitFor(t, "stream completion", func() bool { return !s.Loading() })
	final := lastAssistant(t, s)
	if final.Streaming {
		t.Fatalf("expected assistant message to stop streaming")
	}
	if final.Content != "Hi there" {
		t.Fatalf("assistant content = %q, want %q", final.Content, "Hi there")
	}
}

func TestSessionIgnoresBlankAndBusySends(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		if _, err := w.Write([]byte("busy")); err != nil {
			t.Errorf("failed to write chunk: %v", err)
		}
		flusher.Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	s := NewSession(NewClient(server.URL), nil, nil)
	if s.Send("   ") {
		t.Fatalf("expected blank input to be ignored")
	}
	if !s.Send("first") {
		t.Fatalf("expected Send to start a request")
	}
	waitFor(t, "loading", func() bool { return s.Loading() })

	before := s.Messages()
	if s.Send("second") {
		t.Fatalf("expected Send to be ignored while a request is in flight")
	}
	after := s.Messages()
	if len(after) != len(before) {
		t.Fatalf("message list changed on ignored send: %d -> %d", len(before), len(after))
	}

	close(release)
	waitFor(t, "stream completion", func() bool { return !s.Loading() })
}

func TestSessionStopPreservesPartialContent(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		if _, err := w.Write([]byte("partial answer")); err != nil {
			t.Errorf("failed to write chunk: %v", err)
		}
		flusher.Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	s := NewSession(NewClient(server.URL), nil, nil)
	s.Send("question")
	waitFor(t, "partial content", func() bool {
		return lastAssistant(t, s).Content == "partial answer"
	})

	s.Stop()
	waitFor(t, "stream completion", func() bool { return !s.Loading() })
	final := lastAssistant(t, s)
	if final.Streaming {
		t.Fatalf("expected streaming to stop after cancel")
	}
	if final.Content != "partial answer" {
		t.Fatalf("expected partial content preserved, got %q", final.Content)
	}
}

func TestSessionRateLimitMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		if _, err := w.Write([]byte(`{"error":"Too many requests","message":"slow down","retryAfter":42}`)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer server.Close()

	s := NewSession(NewClient(server.URL), nil, nil)
	s.Send("question")
	waitFor(t, "stream completion", func() bool { return !s.Loading() })
	final := lastAssistant(t, s)
	if !strings.Contains(final.Content, "42") {
		t.Fatalf("expected retry-after seconds in message, got %q", final.Content)
	}
	if final.Streaming {
		t.Fatalf("expected streaming flag cleared")
	}
}

func TestSessionGenericFailureMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := NewSession(NewClient(server.URL), nil, nil)
	s.Send("question")
	waitFor(t, "stream completion", func() bool { return !s.Loading() })
	final := lastAssistant(t, s)
	if final.Content != genericErrorMessage {
		t.Fatalf("expected generic apology, got %q", final.Content)
	}
	// The conversation stays usable afterwards.
	if !s.Send("again") {
		t.Fatalf("expected session to accept messages after a failure")
	}
	waitFor(t, "stream completion", func() bool { return !s.Loading() })
}

func TestSessionFirstMessageCallbackOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			t.Errorf("failed to write chunk: %v", err)
		}
	}))
	defer server.Close()

	calls := 0
	s := NewSession(NewClient(server.URL), nil, func() { calls++ })
	s.Send("one")
	waitFor(t, "stream completion", func() bool { return !s.Loading() })
	s.Send("two")
	waitFor(t, "stream completion", func() bool { return !s.Loading() })
	if calls != 1 {
		t.Fatalf("expected first-message callback exactly once, got %d", calls)
	}
}

func TestSessionStreamingInvariant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			t.Errorf("failed to write chunk: %v", err)
		}
	}))
	defer server.Close()

	s := NewSession(NewClient(server.URL), nil, nil)
	for i := 0; i < 3; i++ {
		s.Send("msg")
		streaming := 0
		for _, m := range s.Messages() {
			if m.Streaming {
				streaming++
			}
		}
		if s.Loading() && streaming != 1 {
			t.Fatalf("expected exactly one streaming message while loading, got %d", streaming)
		}
		waitFor(t, "stream completion", func() bool { return !s.Loading() })
		for _, m := range s.Messages() {
			if m.Streaming {
				t.Fatalf("expected no streaming messages when idle")
			}
		}
	}
}

func TestSessionReset(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		if _, err := w.Write([]byte("streaming")); err != nil {
			t.Errorf("failed to write chunk: %v", err)
		}
		flusher.Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	s := NewSession(NewClient(server.URL), nil, nil)
	s.Send("question")
	waitFor(t, "loading", func() bool { return s.Loading() })

	s.Reset()
	if got := s.Messages(); len(got) != 0 {
		t.Fatalf("expected empty conversation after reset, got %+v", got)
	}
	if s.Loading() {
		t.Fatalf("expected loading cleared after reset")
	}
	// A fresh conversation starts cleanly.
	if !s.Send("new question") {
		t.Fatalf("expected session to accept messages after reset")
	}
	s.Stop()
	waitFor(t, "stream completion", func() bool { return !s.Loading() })
}
