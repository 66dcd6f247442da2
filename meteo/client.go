package meteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ForecastDays is the averaging window for the weather bundle.
const ForecastDays = 7

// hourlyParameters is the comma-joined series list requested per call.
const hourlyParameters = "windspeed_10m,temperature_2m,relative_humidity_2m,cloudcover"

// Client represents a client for the Open-Meteo forecast API
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a new client for the Open-Meteo forecast API
func NewClient(userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   "https://api.open-meteo.com/v1",
		userAgent: userAgent,
	}
}

// NewClientWithHTTPClient creates a new client with a custom HTTP client
func NewClientWithHTTPClient(httpClient *http.Client, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    "https://api.open-meteo.com/v1",
		userAgent:  userAgent,
	}
}

// SetBaseURL sets the base URL for the API (useful for testing)
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// GetAverages retrieves a 7-day hourly forecast for the location and
// reduces each series to its arithmetic mean. Hours without a value are
// skipped; a series with no usable hours at all is filled from the
// latitude-band estimate, so a nil error always means a complete bundle.
func (c *Client) GetAverages(ctx context.Context, lat, lng float64) (*Averages, error) {
	if err := ValidateCoordinates(lat, lng); err != nil {
		return nil, err
	}

	reqURL, err := c.buildURL(lat, lng)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Operation: "forecast fetch", Err: err}
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

	var forecast forecastResponse
	if err := json.Unmarshal(body, &forecast); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	est := Estimate(lat)
	return &Averages{
		WindSpeedMS:   meanOr(forecast.Hourly.WindSpeed, est.WindSpeedMS),
		TemperatureC:  meanOr(forecast.Hourly.Temperature, est.TemperatureC),
		HumidityPct:   meanOr(forecast.Hourly.Humidity, est.HumidityPct),
		CloudCoverPct: meanOr(forecast.Hourly.CloudCover, est.CloudCoverPct),
	}, nil
}

// buildURL constructs the API URL with query parameters
func (c *Client) buildURL(lat, lng float64) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}

	u.Path = fmt.Sprintf("%s/forecast", u.Path)

	query := u.Query()
	query.Set("latitude", formatCoord(lat))
	query.Set("longitude", formatCoord(lng))
	query.Set("hourly", hourlyParameters)
	query.Set("windspeed_unit", "ms")
	query.Set("forecast_days", strconv.Itoa(ForecastDays))

	u.RawQuery = query.Encode()
	return u.String(), nil
}

// formatCoord formats a coordinate with the 4-decimal precision the API expects
func formatCoord(f float64) string {
	return strconv.FormatFloat(math.Round(f*10000)/10000, 'f', -1, 64)
}

// ValidateCoordinates validates that the location is within acceptable ranges
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return &ValidationError{
			Field:   "latitude",
			Message: fmt.Sprintf("must be between -90 and 90, got %f", lat),
		}
	}
	if lng < -180 || lng > 180 {
		return &ValidationError{
			Field:   "longitude",
			Message: fmt.Sprintf("must be between -180 and 180, got %f", lng),
		}
	}
	return nil
}
