package elevation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func elevationResults(values ...float64) []map[string]float64 {
	results := make([]map[string]float64, len(values))
	for i, v := range values {
		results[i] = map[string]float64{"elevation": v}
	}
	return results
}

func TestProfileFromPrimary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "test-key" {
			t.Errorf("Expected key 'test-key', got %q", q.Get("key"))
		}

		locations := strings.Split(q.Get("locations"), "|")
		if len(locations) != 5 {
			t.Errorf("Expected 5 stencil points, got %d", len(locations))
		}
		if locations[0] != "26.92,70.9" {
			t.Errorf("Expected center first, got %q", locations[0])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"results": elevationResults(250, 252, 248, 251, 249),
			"status":  "OK",
		})
	}))
	defer server.Close()

	client := NewClient("TestApp/1.0", "test-key")
	client.SetPrimaryURL(server.URL)

	profile, err := client.Profile(context.Background(), 26.92, 70.90)
	if err != nil {
		t.Fatalf("Profile returned error: %v", err)
	}

	if profile.ElevationM != 250 {
		t.Errorf("Expected elevation 250, got %v", profile.ElevationM)
	}
	// N/S rise 4 m and E/W rise 2 m over a 400 m run.
	if profile.SlopeDegrees != 0.64 {
		t.Errorf("Expected slope 0.64, got %v", profile.SlopeDegrees)
	}
}

func TestProfileSecondaryWhenNoKey(t *testing.T) {
	primaryCalled := false
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		primaryCalled = true
	}))
	defer primary.Close()

	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %q", ct)
		}

		var req lookupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if len(req.Locations) != 5 {
			t.Errorf("Expected 5 stencil points, got %d", len(req.Locations))
		}
		if req.Locations[0].Latitude != 26.92 || req.Locations[0].Longitude != 70.90 {
			t.Errorf("Expected center first, got %+v", req.Locations[0])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"results": elevationResults(400, 400, 400, 400, 400),
		})
	}))
	defer secondary.Close()

	client := NewClient("TestApp/1.0", "")
	client.SetPrimaryURL(primary.URL)
	client.SetSecondaryURL(secondary.URL)

	profile, err := client.Profile(context.Background(), 26.92, 70.90)
	if err != nil {
		t.Fatalf("Profile returned error: %v", err)
	}

	if primaryCalled {
		t.Error("Primary provider must be skipped without an API key")
	}
	if profile.ElevationM != 400 {
		t.Errorf("Expected elevation 400, got %v", profile.ElevationM)
	}
	if profile.SlopeDegrees != 0 {
		t.Errorf("Expected flat terrain, got %v", profile.SlopeDegrees)
	}
}

func TestProfileFallsBackToSecondary(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": elevationResults(150, 150, 150, 150, 150),
		})
	}))
	defer secondary.Close()

	client := NewClient("TestApp/1.0", "test-key")
	client.SetPrimaryURL(primary.URL)
	client.SetSecondaryURL(secondary.URL)

	profile, err := client.Profile(context.Background(), 48.1, 11.5)
	if err != nil {
		t.Fatalf("Profile returned error: %v", err)
	}
	if profile.ElevationM != 150 {
		t.Errorf("Expected elevation 150, got %v", profile.ElevationM)
	}
}

func TestProfileBadPrimaryStatus(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []any{},
			"status":  "REQUEST_DENIED",
		})
	}))
	defer primary.Close()

	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": elevationResults(150, 150, 150, 150, 150),
		})
	}))
	defer secondary.Close()

	client := NewClient("TestApp/1.0", "test-key")
	client.SetPrimaryURL(primary.URL)
	client.SetSecondaryURL(secondary.URL)

	if _, err := client.Profile(context.Background(), 48.1, 11.5); err != nil {
		t.Fatalf("Expected secondary to rescue bad primary status, got %v", err)
	}
}

func TestProfileAllProvidersFail(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("down"))
	}))
	defer failing.Close()

	client := NewClient("TestApp/1.0", "test-key")
	client.SetPrimaryURL(failing.URL)
	client.SetSecondaryURL(failing.URL)

	_, err := client.Profile(context.Background(), 48.1, 11.5)
	if err == nil {
		t.Fatal("Expected error when all providers fail, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, apiErr.StatusCode)
	}
}

func TestProfileBatchCountMismatch(t *testing.T) {
	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": elevationResults(100, 101, 102),
		})
	}))
	defer secondary.Close()

	client := NewClient("TestApp/1.0", "")
	client.SetSecondaryURL(secondary.URL)

	_, err := client.Profile(context.Background(), 48.1, 11.5)
	if err == nil {
		t.Fatal("Expected error on short batch, got nil")
	}

	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("Expected BatchError, got %T", err)
	}
	if batchErr.Want != 5 || batchErr.Got != 3 {
		t.Errorf("Expected want 5 got 3, have want %d got %d", batchErr.Want, batchErr.Got)
	}
}
