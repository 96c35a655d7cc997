package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/lox/hangorburn/internal/models"
)

const (
	DefaultGeocodeURL = "https://geocoding-api.open-meteo.com/v1/search"
	geocodeEndpoint   = "v1/search"
)

// ErrPlaceNotFound is returned when the geocoder has no match.
var ErrPlaceNotFound = errors.New("place not found")

// Geocoder resolves place names to coordinates, restricted to one country.
type Geocoder struct {
	*Client
	baseURL string
	country string
}

func NewGeocoder(baseURL, country string, opts ...Option) *Geocoder {
	if baseURL == "" {
		baseURL = DefaultGeocodeURL
	}
	return &Geocoder{Client: NewClient(opts...), baseURL: baseURL, country: country}
}

type geocodeResponse struct {
	Results []struct {
		Name        string  `json:"name"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		CountryCode string  `json:"country_code"`
		Admin1      string  `json:"admin1"`
	} `json:"results"`
}

// Lookup returns the best match for name.
func (g *Geocoder) Lookup(ctx context.Context, name string) (models.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Location{}, ErrPlaceNotFound
	}

	q := url.Values{}
	q.Set("name", name)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")
	if g.country != "" {
		q.Set("countryCode", g.country)
	}

	body, err := g.get(ctx, geocodeEndpoint, g.baseURL+"?"+q.Encode(), &FetchResult{})
	if err != nil {
		return models.Location{}, err
	}

	var data geocodeResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return models.Location{}, fmt.Errorf("unmarshal geocode: %w", err)
	}
	if len(data.Results) == 0 {
		return models.Location{}, fmt.Errorf("%w: %s", ErrPlaceNotFound, name)
	}

	r := data.Results[0]
	loc := models.Location{Name: r.Name, Latitude: r.Latitude, Longitude: r.Longitude}
	if err := models.ValidateLocation(loc); err != nil {
		return models.Location{}, err
	}
	return loc, nil
}
