package elevation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client represents a client for the elevation providers. The primary
// Google-style endpoint is only consulted when an API key is set; the
// Open-Elevation secondary needs none.
type Client struct {
	httpClient   *http.Client
	primaryURL   string
	secondaryURL string
	apiKey       string
	userAgent    string
}

// NewClient creates a new elevation client. An empty apiKey disables
// the primary provider.
func NewClient(userAgent, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		primaryURL:   "https://maps.googleapis.com/maps/api/elevation/json",
		secondaryURL: "https://api.open-elevation.com/api/v1/lookup",
		apiKey:       apiKey,
		userAgent:    userAgent,
	}
}

// NewClientWithHTTPClient creates a new client with a custom HTTP client
func NewClientWithHTTPClient(httpClient *http.Client, userAgent, apiKey string) *Client {
	c := NewClient(userAgent, apiKey)
	c.httpClient = httpClient
	return c
}

// SetPrimaryURL sets the primary provider URL (useful for testing)
func (c *Client) SetPrimaryURL(baseURL string) {
	c.primaryURL = baseURL
}

// SetSecondaryURL sets the secondary provider URL (useful for testing)
func (c *Client) SetSecondaryURL(baseURL string) {
	c.secondaryURL = baseURL
}

// Profile fetches the five-point stencil around (lat, lng) and reduces
// it to the site elevation and terrain slope.
func (c *Client) Profile(ctx context.Context, lat, lng float64) (*Profile, error) {
	points := Stencil(lat, lng)

	elevations, err := c.BatchElevations(ctx, points[:])
	if err != nil {
		return nil, err
	}

	return &Profile{
		ElevationM:   round1(elevations[0]),
		SlopeDegrees: Slope(elevations[1], elevations[2], elevations[3], elevations[4]),
	}, nil
}

// BatchElevations resolves elevations for the given points, in request
// order. The primary provider is tried first when configured; any
// failure falls through to the secondary.
func (c *Client) BatchElevations(ctx context.Context, points [][2]float64) ([]float64, error) {
	if c.apiKey != "" {
		elevations, err := c.fetchPrimary(ctx, points)
		if err == nil {
			return elevations, nil
		}
	}
	return c.fetchSecondary(ctx, points)
}

// fetchPrimary queries the Google-style batch GET endpoint.
func (c *Client) fetchPrimary(ctx context.Context, points [][2]float64) ([]float64, error) {
	u, err := url.Parse(c.primaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse primary URL: %w", err)
	}

	locations := make([]string, len(points))
	for i, p := range points {
		locations[i] = formatCoord(p[0]) + "," + formatCoord(p[1])
	}

	query := u.Query()
	query.Set("locations", strings.Join(locations, "|"))
	query.Set("key", c.apiKey)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if parsed.Status != "OK" {
		return nil, fmt.Errorf("provider status %q", parsed.Status)
	}
	if len(parsed.Results) != len(points) {
		return nil, &BatchError{Want: len(points), Got: len(parsed.Results)}
	}

	elevations := make([]float64, len(parsed.Results))
	for i, r := range parsed.Results {
		elevations[i] = r.Elevation
	}
	return elevations, nil
}

// fetchSecondary queries the Open-Elevation batch POST endpoint.
func (c *Client) fetchSecondary(ctx context.Context, points [][2]float64) ([]float64, error) {
	payload := lookupRequest{Locations: make([]lookupPoint, len(points))}
	for i, p := range points {
		payload.Locations[i] = lookupPoint{Latitude: p[0], Longitude: p[1]}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.secondaryURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(parsed.Results) != len(points) {
		return nil, &BatchError{Want: len(points), Got: len(parsed.Results)}
	}

	elevations := make([]float64, len(parsed.Results))
	for i, r := range parsed.Results {
		elevations[i] = r.Elevation
	}
	return elevations, nil
}

// formatCoord formats a coordinate for the pipe-separated locations list
func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
