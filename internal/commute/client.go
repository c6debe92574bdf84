package commute

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/padwatch/padwatch-data/internal/geo"
)

// RoutingClient queries the external distance-matrix API for transit
// durations. Rate limiting is handled via a token bucket limiter so batch
// runs stay inside the provider's quota.
type RoutingClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewRoutingClient creates a routing client with rate limiting.
func NewRoutingClient(baseURL, apiKey string, requestsPerMinute int, logger *slog.Logger) *RoutingClient {
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &RoutingClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// matrixResponse is the distance-matrix response shape. Only the first
// origin/destination element is ever requested.
type matrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Duration struct {
				Value int `json:"value"` // seconds
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// TransitSeconds performs one rate-limited request and returns the transit
// duration in seconds between origin and destination.
func (c *RoutingClient) TransitSeconds(ctx context.Context, origin, destination geo.Coordinate) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("origins", origin.String())
	params.Set("destinations", destination.String())
	params.Set("mode", "transit")
	params.Set("key", c.apiKey)

	u := c.baseURL + "/maps/api/distancematrix/json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("routing API returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var result matrixResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}

	if result.Status != "OK" {
		return 0, fmt.Errorf("routing API status %q", result.Status)
	}
	if len(result.Rows) == 0 || len(result.Rows[0].Elements) == 0 {
		return 0, fmt.Errorf("routing API returned no elements")
	}
	element := result.Rows[0].Elements[0]
	if element.Status != "OK" {
		// ZERO_RESULTS, NOT_FOUND — no transit route between the points.
		return 0, fmt.Errorf("no route: element status %q", element.Status)
	}

	return element.Duration.Value, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
