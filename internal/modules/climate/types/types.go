package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the text form of measurement dates in the store.
const DateLayout = "2006-01-02"

// PrecipitationReading is one (date, prcp) row; Prcp is nil when not recorded.
type PrecipitationReading struct {
	Date string
	Prcp *float64
}

// Precipitation maps a date to its precipitation amount. When several rows
// share a date the last one read wins.
type Precipitation map[string]*float64

// StationActivity is a station with its number of measurement rows.
type StationActivity struct {
	StationID    string `json:"station"`
	Observations int    `json:"observations"`
}

// TemperatureStats is the min/avg/max of temperature observations over a
// date range. All three are nil when no rows matched.
type TemperatureStats struct {
	Min *float64
	Avg *float64
	Max *float64
}

// MarshalJSON encodes the stats as the array [min, avg, max].
func (s TemperatureStats) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]*float64{s.Min, s.Avg, s.Max})
}

func (s *TemperatureStats) UnmarshalJSON(b []byte) error {
	var v []*float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if len(v) != 3 {
		return fmt.Errorf("temperature stats: want 3 elements, got %d", len(v))
	}
	s.Min, s.Avg, s.Max = v[0], v[1], v[2]
	return nil
}

// ParseDate parses a stored date. Values carrying a time part
// ("2017-08-23 00:00:00", RFC 3339) are cut to the calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err == nil {
		return t, nil
	}
	if len(s) > len(DateLayout) {
		if t, err2 := time.Parse(DateLayout, s[:len(DateLayout)]); err2 == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
}
