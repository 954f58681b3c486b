package domain

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// Prediction is one forecast for one (forecast date, days ahead) slot. Every
// field except the slot key itself is optional; nil means the source omitted
// the value, and nil survives serialization as an explicit JSON null.
type Prediction struct {
	IconCode          *int     `json:"icon_code"`
	TempMin           *float64 `json:"temp_min"`
	TempMax           *float64 `json:"temp_max"`
	PrecipitationProb *string  `json:"precipitation_prob"`
	SummaryShort      *string  `json:"summary_short"`
	SummaryLong       *string  `json:"summary_long"`
}

// DayRecord holds every prediction collected for a single forecast date,
// keyed by how many days ahead of collection each one was made.
type DayRecord map[int]Prediction

// MarshalJSON emits the horizons in ascending numeric order. The default map
// encoding would sort the stringified keys lexically ("10" before "2"), which
// breaks the stable representation the on-disk files rely on for diffs.
func (r DayRecord) MarshalJSON() ([]byte, error) {
	horizons := make([]int, 0, len(r))
	for h := range r {
		horizons = append(horizons, h)
	}
	sort.Ints(horizons)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, h := range horizons {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strconv.Itoa(h))
		buf.WriteString(`":`)
		val, err := json.Marshal(r[h])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// LocationRecord is the persistent forecast history for one location, the
// unit the store loads and saves as a whole.
type LocationRecord struct {
	LocationID  string             `json:"location_id"`
	DisplayName string             `json:"display_name"`
	Region      string             `json:"region"`
	Timezone    string             `json:"timezone"`
	Forecasts   map[Date]DayRecord `json:"forecasts"`
}

// Metadata carries the location-level labels a parse supplies. Empty fields
// never overwrite previously known values during a merge.
type Metadata struct {
	LocationID  string
	DisplayName string
	Region      string
	Timezone    string
}

// Entry is one (forecast date, days ahead, prediction) triple ready to merge.
type Entry struct {
	Date       Date
	DaysAhead  int
	Prediction Prediction
}

// ForecastDay is one day of parsed forecast attributes, before the days-ahead
// horizon has been computed.
type ForecastDay struct {
	Date       Date
	Prediction Prediction
}

// ParseResult is the parser's output for one product file: location metadata
// plus the forecast days it contained.
type ParseResult struct {
	Metadata Metadata
	IssuedAt time.Time
	Days     []ForecastDay
}
