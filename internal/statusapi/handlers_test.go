package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"moqrelay/internal/cache"
	"moqrelay/internal/relay"
)

func TestHandleServer(t *testing.T) {
	locals := relay.NewLocals()
	service := NewService(locals, nil)

	req := httptest.NewRequest("GET", "/api/server", nil)
	w := httptest.NewRecorder()
	service.handleServer(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp ServerResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Uptime < 0 {
		t.Error("uptime should be non-negative")
	}
	if resp.GoVersion == "" {
		t.Error("go_version should not be empty")
	}
}

func TestHandleBroadcasts(t *testing.T) {
	locals := relay.NewLocals()
	service := NewService(locals, nil)

	req := httptest.NewRequest("GET", "/api/broadcasts", nil)
	w := httptest.NewRecorder()
	service.handleBroadcasts(w, req)

	var empty BroadcastsResponse
	if err := json.NewDecoder(w.Body).Decode(&empty); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(empty.Broadcasts) != 0 {
		t.Fatalf("expected no broadcasts, got %v", empty.Broadcasts)
	}

	reg, err := locals.Register("cam", cache.NewBroadcast("cam"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	defer reg.Release()

	req2 := httptest.NewRequest("GET", "/api/broadcasts", nil)
	w2 := httptest.NewRecorder()
	service.handleBroadcasts(w2, req2)

	var resp BroadcastsResponse
	if err := json.NewDecoder(w2.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Broadcasts) != 1 || resp.Broadcasts[0] != "cam" {
		t.Fatalf("expected [\"cam\"], got %v", resp.Broadcasts)
	}
}

func TestHandleRemotesNilTable(t *testing.T) {
	locals := relay.NewLocals()
	service := NewService(locals, nil)

	req := httptest.NewRequest("GET", "/api/remotes", nil)
	w := httptest.NewRecorder()
	service.handleRemotes(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp RemotesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Remotes) != 0 {
		t.Fatalf("expected no remotes with a nil table, got %v", resp.Remotes)
	}
}

func TestHandleRemotesConfigured(t *testing.T) {
	locals := relay.NewLocals()
	remotes := relay.NewRemotes()
	remotes.Add(relay.NewRemoteOrigin("origin-b", nil))
	service := NewService(locals, remotes)

	req := httptest.NewRequest("GET", "/api/remotes", nil)
	w := httptest.NewRecorder()
	service.handleRemotes(w, req)

	var resp RemotesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Remotes) != 1 || resp.Remotes[0] != "origin-b" {
		t.Fatalf("expected [\"origin-b\"], got %v", resp.Remotes)
	}
}

func TestHandleBroadcastsWrongMethod(t *testing.T) {
	locals := relay.NewLocals()
	service := NewService(locals, nil)

	req := httptest.NewRequest("POST", "/api/broadcasts", nil)
	w := httptest.NewRecorder()
	service.handleBroadcasts(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", w.Code)
	}
}
