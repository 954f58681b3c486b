package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
)

// Location is one city the tracker collects forecasts for. ProductID is the
// BOM precis product identifier, e.g. IDN10064 for Sydney.
type Location struct {
	ProductID string `json:"product_id" validate:"required"`
	CityName  string `json:"city_name" validate:"required"`
	State     string `json:"state" validate:"required,oneof=NSW VIC QLD SA WA TAS NT ACT"`
}

type locationsFile struct {
	Locations []Location `json:"locations"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadLocations reads the locations file. Invalid entries and duplicate
// product ids are logged and skipped rather than failing the whole list;
// an error is returned only when no usable entry remains.
func LoadLocations(path string, logger *slog.Logger) ([]Location, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations file: %w", err)
	}

	var file locationsFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse locations file: %w", err)
	}
	if len(file.Locations) == 0 {
		return nil, fmt.Errorf("locations file %s lists no locations", path)
	}

	seen := make(map[string]struct{}, len(file.Locations))
	valid := make([]Location, 0, len(file.Locations))
	for i, loc := range file.Locations {
		if err := validate.Struct(loc); err != nil {
			logger.Warn("skipping invalid location entry",
				"index", i, "city", loc.CityName, "error", err)
			continue
		}
		if _, dup := seen[loc.ProductID]; dup {
			logger.Warn("skipping duplicate product_id",
				"index", i, "city", loc.CityName, "product_id", loc.ProductID)
			continue
		}
		seen[loc.ProductID] = struct{}{}
		valid = append(valid, loc)
	}

	if len(valid) == 0 {
		return nil, fmt.Errorf("locations file %s has no valid locations", path)
	}
	if skipped := len(file.Locations) - len(valid); skipped > 0 {
		logger.Warn("some location entries were skipped",
			"valid", len(valid), "skipped", skipped)
	}

	return valid, nil
}
