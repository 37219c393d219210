package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/verso-dev/folio/internal/gitmap"
)

func TestContributions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/octocat" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{
			"total": {"2024": 12},
			"contributions": [
				{"date": "2024-06-15", "count": 5, "level": 2},
				{"date": "2024-06-16", "count": 7, "level": 9},
				{"date": "2024-06-17", "count": -1, "level": -2},
				{"date": "not-a-date", "count": 1, "level": 1}
			]
		}`)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	days, err := client.Contributions(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("Contributions failed: %v", err)
	}
	want := []gitmap.ContributionDay{
		{Date: "2024-06-15", Count: 5, Level: 2},
		{Date: "2024-06-16", Count: 7, Level: 4},
		{Date: "2024-06-17", Count: 0, Level: 0},
	}
	if len(days) != len(want) {
		t.Fatalf("expected %d days, got %d (%+v)", len(want), len(days), days)
	}
	for i, d := range days {
		if d != want[i] {
			t.Fatalf("day %d = %+v, want %+v", i, d, want[i])
		}
	}
}

func TestContributionsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Contributions(context.Background(), "octocat"); err == nil {
		t.Fatalf("expected error for non-200 response")
	}
}

func TestContributionsEmptyUser(t *testing.T) {
	client := NewClient("")
	if _, err := client.Contributions(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty user")
	}
}
