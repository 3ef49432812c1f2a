package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// googleResponse is the JSON response from the Google Geocoding API.
type googleResponse struct {
	Results []googleResult `json:"results"`
	Status  string         `json:"status"`
}

type googleResult struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
		LocationType string `json:"location_type"`
	} `json:"geometry"`
	AddressComponents []googleComponent `json:"address_components"`
	FormattedAddress  string            `json:"formatted_address"`
}

type googleComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

// query performs one rate-limited request against the geocoding endpoint.
func (g *geocoder) query(ctx context.Context, params url.Values) (*googleResponse, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var gr googleResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}
	return &gr, nil
}

// Geocode resolves an address. An unmatched address is not an error; the
// result just carries Matched=false.
func (g *geocoder) Geocode(ctx context.Context, addr AddressInput) (*Result, error) {
	gr, err := g.query(ctx, url.Values{"address": {formatOneLine(addr)}})
	if err != nil {
		return nil, err
	}
	if gr.Status != "OK" || len(gr.Results) == 0 {
		return &Result{Matched: false}, nil
	}

	best := gr.Results[0]
	return &Result{
		Latitude:  best.Geometry.Location.Lat,
		Longitude: best.Geometry.Location.Lng,
		City:      localityOf(best.AddressComponents),
		Quality:   locationTypeToQuality(best.Geometry.LocationType),
		Matched:   true,
	}, nil
}

// ReverseGeocode resolves coordinates to a locality name. Returns an empty
// string when the provider has no locality for the point.
func (g *geocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	gr, err := g.query(ctx, url.Values{
		"latlng":      {fmt.Sprintf("%f,%f", lat, lng)},
		"result_type": {"locality"},
	})
	if err != nil {
		return "", err
	}
	if gr.Status != "OK" {
		return "", nil
	}
	for _, res := range gr.Results {
		if city := localityOf(res.AddressComponents); city != "" {
			return city, nil
		}
	}
	return "", nil
}

// localityOf pulls the locality (city) component out of a result.
func localityOf(components []googleComponent) string {
	for _, comp := range components {
		for _, t := range comp.Types {
			if t == "locality" {
				return comp.LongName
			}
		}
	}
	return ""
}

// locationTypeToQuality maps Google's location_type to our quality taxonomy.
func locationTypeToQuality(locType string) string {
	switch strings.ToUpper(locType) {
	case "ROOFTOP":
		return "rooftop"
	case "RANGE_INTERPOLATED":
		return "range"
	case "GEOMETRIC_CENTER":
		return "centroid"
	default:
		return "approximate"
	}
}

// formatOneLine joins address parts into a single query line, skipping
// whatever is missing.
func formatOneLine(addr AddressInput) string {
	var parts []string
	for _, p := range []string{addr.Street, addr.City, addr.State, addr.ZipCode} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}
