// Package geocode wraps the Mapbox geocoding API for resolving job
// addresses to coordinates and back.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Sentinel errors for geocoder failures.
var (
	ErrAddressNotFound = errors.New("address not found")
	ErrUnreachable     = errors.New("geocoder unreachable")
	ErrTimeout         = errors.New("geocoder timeout")
	ErrQueryFailed     = errors.New("geocoder query error")
)

// Result is one geocoding candidate.
type Result struct {
	Address   string  `json:"address"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Client is the interface for geocoding lookups.
type Client interface {
	Forward(ctx context.Context, address string) (Result, error)
	Reverse(ctx context.Context, longitude, latitude float64) (string, error)
	Search(ctx context.Context, address string) ([]Result, error)
}

// HTTPClient implements Client using Mapbox's places API.
type HTTPClient struct {
	baseURL string
	token   string
	country string
	client  *http.Client
}

// NewHTTPClient creates a new Mapbox geocoding client. country narrows
// results to one ISO country code and may be empty.
func NewHTTPClient(baseURL, token, country string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		country: country,
		client:  &http.Client{Timeout: timeout},
	}
}

// Forward resolves an address to its best-match coordinates.
func (c *HTTPClient) Forward(ctx context.Context, address string) (Result, error) {
	results, err := c.Search(ctx, address)
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// Reverse resolves coordinates to the nearest place name.
func (c *HTTPClient) Reverse(ctx context.Context, longitude, latitude float64) (string, error) {
	query := fmt.Sprintf("%f,%f", longitude, latitude)
	features, err := c.places(ctx, query)
	if err != nil {
		return "", err
	}
	return features[0].PlaceName, nil
}

// Search returns every candidate match for an address, best first.
func (c *HTTPClient) Search(ctx context.Context, address string) ([]Result, error) {
	features, err := c.places(ctx, address)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(features))
	for _, f := range features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		results = append(results, Result{
			Address:   f.PlaceName,
			Longitude: f.Geometry.Coordinates[0],
			Latitude:  f.Geometry.Coordinates[1],
		})
	}
	if len(results) == 0 {
		return nil, ErrAddressNotFound
	}
	return results, nil
}

func (c *HTTPClient) places(ctx context.Context, query string) ([]mapboxFeature, error) {
	params := url.Values{"access_token": {c.token}}
	if c.country != "" {
		params.Set("country", c.country)
	}

	u := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		c.baseURL, url.PathEscape(query), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrAddressNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrQueryFailed, resp.StatusCode)
	}

	var body mapboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding geocoder response: %w", err)
	}
	if len(body.Features) == 0 {
		return nil, ErrAddressNotFound
	}
	return body.Features, nil
}

type mapboxResponse struct {
	Features []mapboxFeature `json:"features"`
}

type mapboxFeature struct {
	PlaceName string `json:"place_name"`
	Geometry  struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
}

func classifyError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
