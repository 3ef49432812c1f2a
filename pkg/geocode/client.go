// Package geocode provides forward and reverse geocoding via the Google
// Geocoding API. A configured API key is a hard requirement: construction
// fails without one, so jobs that need geocoding fail at startup rather than
// per record.
package geocode

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client geocodes addresses and reverse-geocodes coordinates.
type Client interface {
	// Geocode resolves an address to coordinates and a locality.
	Geocode(ctx context.Context, addr AddressInput) (*Result, error)

	// ReverseGeocode resolves coordinates to a locality name.
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// AddressInput represents an address to geocode.
type AddressInput struct {
	Street  string
	City    string
	State   string
	ZipCode string
}

// Result holds the geocoding output for an address.
type Result struct {
	Latitude  float64
	Longitude float64
	City      string // locality from address components, may be empty
	Quality   string // "rooftop", "range", "centroid", "approximate"
	Matched   bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithBaseURL overrides the API base URL (tests point this at httptest).
func WithBaseURL(baseURL string) Option {
	return func(g *geocoder) {
		g.baseURL = baseURL
	}
}

// WithRateLimit sets the requests-per-second rate limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		if rps > 0 {
			g.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type geocoder struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// NewClient creates a geocoding Client. The API key is required.
func NewClient(apiKey string, opts ...Option) (Client, error) {
	if apiKey == "" {
		return nil, eris.New("geocode: api key not configured")
	}
	g := &geocoder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://maps.googleapis.com/maps/api/geocode/json",
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(25, 25),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}
