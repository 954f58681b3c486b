package bom

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bomwx/forecast-tracker/internal/domain"
)

// Parser turns raw BOM precis product XML into a domain parse result.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a Parser.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse extracts location metadata and forecast days from a product file.
// Malformed individual forecast periods are skipped with a warning; missing
// product-level sections fail the whole parse.
func (p *Parser) Parse(raw []byte) (domain.ParseResult, error) {
	var doc product
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return domain.ParseResult{}, fmt.Errorf("decode product xml: %w", err)
	}

	productID := strings.TrimSpace(doc.AMOC.Identifier)
	if productID == "" {
		return domain.ParseResult{}, fmt.Errorf("product xml missing amoc identifier")
	}

	issueRaw := strings.TrimSpace(doc.AMOC.IssueTimeLocal.Value)
	if issueRaw == "" {
		return domain.ParseResult{}, fmt.Errorf("product %s missing issue-time-local", productID)
	}
	issuedAt, err := time.Parse(time.RFC3339, issueRaw)
	if err != nil {
		return domain.ParseResult{}, fmt.Errorf("product %s invalid issue-time-local %q: %w", productID, issueRaw, err)
	}

	loc, ok := locationArea(doc.Forecast.Areas)
	if !ok {
		return domain.ParseResult{}, fmt.Errorf("product %s has no location area", productID)
	}
	if loc.Description == "" {
		return domain.ParseResult{}, fmt.Errorf("product %s location area missing description", productID)
	}

	var days []domain.ForecastDay
	for _, period := range loc.Periods {
		day, ok := p.parsePeriod(productID, period)
		if ok {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		p.logger.Warn("no valid forecast periods in product", "product_id", productID)
	}

	return domain.ParseResult{
		Metadata: domain.Metadata{
			LocationID:  productID,
			DisplayName: loc.Description,
			Timezone:    doc.AMOC.IssueTimeLocal.TZ,
		},
		IssuedAt: issuedAt,
		Days:     days,
	}, nil
}

func locationArea(areas []area) (area, bool) {
	for _, a := range areas {
		if a.Type == "location" {
			return a, true
		}
	}
	return area{}, false
}

func (p *Parser) parsePeriod(productID string, period forecastPeriod) (domain.ForecastDay, bool) {
	if period.StartTimeLocal == "" {
		p.logger.Warn("forecast period missing start-time-local", "product_id", productID)
		return domain.ForecastDay{}, false
	}
	start, err := time.Parse(time.RFC3339, period.StartTimeLocal)
	if err != nil {
		p.logger.Warn("forecast period has invalid start-time-local",
			"product_id", productID, "start_time_local", period.StartTimeLocal, "error", err)
		return domain.ForecastDay{}, false
	}

	day := domain.ForecastDay{Date: domain.DateOf(start)}

	for _, el := range period.Elements {
		text := strings.TrimSpace(el.Value)
		if text == "" {
			continue
		}
		switch el.Type {
		case "forecast_icon_code":
			if n, err := strconv.Atoi(text); err == nil {
				day.Prediction.IconCode = &n
			} else {
				p.logger.Warn("invalid forecast_icon_code", "product_id", productID, "value", text)
			}
		case "air_temperature_minimum":
			if f, err := strconv.ParseFloat(text, 64); err == nil {
				day.Prediction.TempMin = &f
			} else {
				p.logger.Warn("invalid air_temperature_minimum", "product_id", productID, "value", text)
			}
		case "air_temperature_maximum":
			if f, err := strconv.ParseFloat(text, 64); err == nil {
				day.Prediction.TempMax = &f
			} else {
				p.logger.Warn("invalid air_temperature_maximum", "product_id", productID, "value", text)
			}
		}
	}

	for _, te := range period.Texts {
		text := strings.TrimSpace(te.Value)
		if text == "" {
			continue
		}
		switch te.Type {
		case "probability_of_precipitation":
			day.Prediction.PrecipitationProb = &text
		case "precis":
			day.Prediction.SummaryShort = &text
		case "forecast":
			day.Prediction.SummaryLong = &text
		}
	}

	return day, true
}
