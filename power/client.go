package power

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

// IrradianceParameter is the POWER identifier for all-sky downward
// shortwave irradiance at the surface, kWh/m²/day.
const IrradianceParameter = "ALLSKY_SFC_SW_DWN"

// FillSentinel marks missing observations in POWER responses. Any value
// at or below it is discarded.
const FillSentinel = -900.0

// dataLagDays is how far POWER trails real time for daily observations.
const dataLagDays = 2

var monthKeys = [12]string{
	"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
	"JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
}

// Client represents a client for the NASA POWER temporal API
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a new client for the NASA POWER temporal API
func NewClient(userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   "https://power.larc.nasa.gov/api/temporal",
		userAgent: userAgent,
	}
}

// NewClientWithHTTPClient creates a new client with a custom HTTP client
func NewClientWithHTTPClient(httpClient *http.Client, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    "https://power.larc.nasa.gov/api/temporal",
		userAgent:  userAgent,
	}
}

// SetBaseURL sets the base URL for the API (useful for testing)
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// DailyAverage returns the mean observed irradiance over the last 365
// days ending two days ago, in kWh/m²/day. Fill values are excluded; if
// the whole window is fill, ErrNoData is returned.
func (c *Client) DailyAverage(ctx context.Context, lat, lng float64) (float64, error) {
	end := time.Now().UTC().AddDate(0, 0, -dataLagDays)
	start := end.AddDate(0, 0, -364)

	params := url.Values{}
	params.Set("start", start.Format("20060102"))
	params.Set("end", end.Format("20060102"))

	values, err := c.getParameter(ctx, "daily/point", lat, lng, params)
	if err != nil {
		return 0, err
	}

	var sum float64
	var n int
	for _, v := range values {
		if v <= FillSentinel {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, ErrNoData
	}
	return round3(sum / float64(n)), nil
}

// AnnualClimatology returns the long-term annual mean irradiance.
func (c *Client) AnnualClimatology(ctx context.Context, lat, lng float64) (float64, error) {
	values, err := c.getParameter(ctx, "climatology/point", lat, lng, nil)
	if err != nil {
		return 0, err
	}

	ann, ok := values["ANN"]
	if !ok || ann <= FillSentinel {
		return 0, ErrNoData
	}
	return round3(ann), nil
}

// MonthlyClimatology returns the long-term monthly mean irradiance,
// January through December. Months POWER could not resolve keep their
// negative fill value; callers substitute their own estimates.
func (c *Client) MonthlyClimatology(ctx context.Context, lat, lng float64) ([]float64, error) {
	values, err := c.getParameter(ctx, "climatology/point", lat, lng, nil)
	if err != nil {
		return nil, err
	}

	monthly := make([]float64, 12)
	for i, key := range monthKeys {
		v, ok := values[key]
		if !ok {
			v = FillSentinel
		}
		monthly[i] = v
	}
	return monthly, nil
}

// getParameter performs a point query and extracts the irradiance series.
func (c *Client) getParameter(ctx context.Context, endpoint string, lat, lng float64, extra url.Values) (map[string]float64, error) {
	reqURL, err := c.buildURL(endpoint, lat, lng, extra)
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

	var point pointResponse
	if err := json.Unmarshal(body, &point); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	values, ok := point.Properties.Parameter[IrradianceParameter]
	if !ok {
		return nil, ErrNoData
	}
	return values, nil
}

// buildURL constructs the API URL with query parameters
func (c *Client) buildURL(endpoint string, lat, lng float64, extra url.Values) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}

	u.Path = fmt.Sprintf("%s/%s", u.Path, endpoint)

	query := u.Query()
	query.Set("parameters", IrradianceParameter)
	query.Set("community", "RE")
	query.Set("latitude", formatCoord(lat))
	query.Set("longitude", formatCoord(lng))
	query.Set("format", "JSON")
	query.Set("header", "false")
	for key, vals := range extra {
		for _, v := range vals {
			query.Set(key, v)
		}
	}

	u.RawQuery = query.Encode()
	return u.String(), nil
}

// formatCoord formats a coordinate with the 4-decimal precision POWER expects
func formatCoord(f float64) string {
	return strconv.FormatFloat(math.Round(f*10000)/10000, 'f', -1, 64)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
