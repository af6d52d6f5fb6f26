package clockify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCurrentUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "secret-key" {
			t.Errorf("Missing or wrong X-Api-Key header: %s", r.Header.Get("X-Api-Key"))
		}
		if r.Method != http.MethodGet || r.URL.Path != "/user" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(User{
			ID:              "u1",
			Name:            "Alex",
			Email:           "alex@example.com",
			ActiveWorkspace: "w1",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-key")
	user, err := client.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if user.ID != "u1" || user.ActiveWorkspace != "w1" {
		t.Errorf("Unexpected user: %+v", user)
	}
}

func TestProjects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/workspaces/w1/projects" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]Project{
			{ID: "p1", Name: "Onboarding"},
			{ID: "p2", Name: "Billing", Archived: true},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-key")
	projects, err := client.Projects(context.Background(), "w1")
	if err != nil {
		t.Fatalf("Projects failed: %v", err)
	}
	if len(projects) != 2 || projects[0].Name != "Onboarding" {
		t.Errorf("Unexpected projects: %+v", projects)
	}
}

func TestStartTimer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/workspaces/w1/time-entries" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Missing Content-Type header")
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body["description"] != "standup" {
			t.Errorf("Unexpected description: %v", body["description"])
		}
		if body["projectId"] != "p1" {
			t.Errorf("Unexpected projectId: %v", body["projectId"])
		}
		if _, err := time.Parse(time.RFC3339, body["start"].(string)); err != nil {
			t.Errorf("start is not RFC 3339: %v", body["start"])
		}

		json.NewEncoder(w).Encode(TimeEntry{
			ID:          "te1",
			Description: "standup",
			ProjectID:   "p1",
			TimeInterval: TimeInterval{
				Start: body["start"].(string),
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-key")
	entry, err := client.StartTimer(context.Background(), "w1", StartTimerRequest{
		Description: "standup",
		ProjectID:   "p1",
	})
	if err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}
	if entry.ID != "te1" {
		t.Errorf("Unexpected entry: %+v", entry)
	}
	if entry.TimeInterval.End != "" {
		t.Errorf("Expected a running entry, got end %s", entry.TimeInterval.End)
	}
}

func TestStopTimer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/workspaces/w1/user/u1/time-entries" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}

		json.NewEncoder(w).Encode(TimeEntry{
			ID: "te1",
			TimeInterval: TimeInterval{
				Start: "2026-08-31T09:00:00Z",
				End:   body["end"].(string),
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-key")
	end := time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC)
	entry, err := client.StopTimer(context.Background(), "w1", "u1", end)
	if err != nil {
		t.Fatalf("StopTimer failed: %v", err)
	}
	if entry.TimeInterval.End != "2026-08-31T09:30:00Z" {
		t.Errorf("Unexpected end time: %s", entry.TimeInterval.End)
	}
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Api key does not exist"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-key")
	_, err := client.Workspaces(context.Background())
	if err == nil {
		t.Fatal("Expected an error for 401 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("Error does not mention the status code: %v", err)
	}
	if !strings.Contains(err.Error(), "Api key does not exist") {
		t.Errorf("Error does not include the response body: %v", err)
	}
}

func TestNewClientDefaultBaseURL(t *testing.T) {
	client := NewClient("", "secret-key")
	if client.baseURL != DefaultBaseURL {
		t.Errorf("Expected default base URL, got %s", client.baseURL)
	}
}
