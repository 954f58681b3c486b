package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/bomwx/forecast-tracker/internal/config"
)

// Result holds the coordinates and place details for one geocoded city.
type Result struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64
}

// Geocoder resolves a city name and state to coordinates.
type Geocoder interface {
	ForwardGeocode(ctx context.Context, name, state string) (Result, error)
}

// stateNames expands the BOM state abbreviations for geocoding queries.
var stateNames = map[string]string{
	"NSW": "New South Wales",
	"VIC": "Victoria",
	"QLD": "Queensland",
	"SA":  "South Australia",
	"WA":  "Western Australia",
	"TAS": "Tasmania",
	"NT":  "Northern Territory",
	"ACT": "Australian Capital Territory",
}

// GeoJSON output types, shaped for direct consumption by mapping tools.

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string            `json:"type"`
	Geometry   Geometry          `json:"geometry"`
	Properties map[string]string `json:"properties"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [lon, lat]
}

// Run geocodes every configured location and assembles a GeoJSON feature
// collection. Failed lookups are logged and skipped; the run only fails when
// no location resolves at all.
func Run(ctx context.Context, locations []config.Location, geocoder Geocoder, logger *slog.Logger) (FeatureCollection, error) {
	fc := FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}

	sorted := make([]config.Location, len(locations))
	copy(sorted, locations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	for _, loc := range sorted {
		state := stateNames[loc.State]
		if state == "" {
			state = loc.State
		}

		result, err := geocoder.ForwardGeocode(ctx, loc.CityName, state)
		if err != nil {
			logger.Error("geocode failed", "city", loc.CityName, "state", loc.State, "error", err)
			continue
		}
		if result.FormattedAddress == "" {
			logger.Warn("no geocode match", "city", loc.CityName, "state", loc.State)
			continue
		}

		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{result.Lon, result.Lat},
			},
			Properties: map[string]string{
				"product_id": loc.ProductID,
				"city":       loc.CityName,
				"state":      loc.State,
				"place_name": result.FormattedAddress,
			},
		})
	}

	if len(fc.Features) == 0 {
		return fc, fmt.Errorf("no locations could be geocoded")
	}
	return fc, nil
}
