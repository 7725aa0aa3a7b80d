package dto

import (
	"bytes"
	"encoding/json"
	"fleet-dispatch-service/internal/domain"
)

// FlexCoord accepts a JSON number, a numeric string or null. Anything
// else is kept as text and rejected later by coordinate filtering.
type FlexCoord struct {
	text *string
}

func (c *FlexCoord) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		c.text = nil
		return nil
	}

	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	c.text = &s
	return nil
}

type Point struct {
	Lat FlexCoord `json:"lat"`
	Lng FlexCoord `json:"lng"`
}

// RawStops converts request points into unvalidated domain stops.
func RawStops(points []Point) []domain.RawStop {
	out := make([]domain.RawStop, len(points))
	for i, p := range points {
		out[i] = domain.RawStop{Lat: p.Lat.text, Lng: p.Lng.text}
	}
	return out
}

type PointWarning struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

func Warnings(stops domain.FilteredStops) []PointWarning {
	if len(stops.Warnings) == 0 {
		return nil
	}
	out := make([]PointWarning, len(stops.Warnings))
	for i, w := range stops.Warnings {
		out[i] = PointWarning{Index: w.Index, Reason: w.Reason}
	}
	return out
}
