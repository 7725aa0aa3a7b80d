package domain

import (
	"math"
	"testing"
)

func str(s string) *string { return &s }

func TestFilterStopsDropsInvalid(t *testing.T) {
	raw := []RawStop{
		{Lat: str("4.60"), Lng: str("-74.08")},
		{Lat: str("200"), Lng: str("-74.05")},
		{Lat: str("4.65"), Lng: str("-74.06")},
		{Lat: nil, Lng: str("-74.07")},
		{Lat: str("abc"), Lng: str("-74.07")},
		{Lat: str(" 4.70 "), Lng: str("-74.10")},
	}

	got := FilterStops(raw)

	if len(got.Coords) != 3 {
		t.Fatalf("expected 3 kept stops, got %d", len(got.Coords))
	}
	wantIdx := []int{0, 2, 5}
	for i, idx := range wantIdx {
		if got.OriginalIndex[i] != idx {
			t.Fatalf("OriginalIndex[%d] = %d, want %d", i, got.OriginalIndex[i], idx)
		}
	}
	if got.Coords[2].Lat != 4.70 {
		t.Fatalf("expected trimmed numeric string to parse, got %v", got.Coords[2])
	}

	wantWarn := []CoordinateWarning{
		{Index: 1, Reason: ReasonOutOfRange},
		{Index: 3, Reason: ReasonMissing},
		{Index: 4, Reason: ReasonNonNumeric},
	}
	if len(got.Warnings) != len(wantWarn) {
		t.Fatalf("expected %d warnings, got %d", len(wantWarn), len(got.Warnings))
	}
	for i, w := range wantWarn {
		if got.Warnings[i] != w {
			t.Errorf("warning %d = %+v, want %+v", i, got.Warnings[i], w)
		}
	}
}

func TestCoordinatesValid(t *testing.T) {
	if !(Coordinates{Lat: -90, Lon: 180}).Valid() {
		t.Fatal("boundary coordinates should be valid")
	}
	if (Coordinates{Lat: 90.0001, Lon: 0}).Valid() {
		t.Fatal("latitude above 90 should be invalid")
	}
}

func TestHaversineMetersAntipodal(t *testing.T) {
	half := math.Pi * EarthRadiusMeters
	for lat := -89.5; lat <= 89.5; lat += 0.5 {
		for lon := -179.5; lon <= 0; lon += 0.5 {
			d := HaversineMeters(Coordinates{Lat: lat, Lon: lon}, Coordinates{Lat: -lat, Lon: lon + 180})
			if math.IsNaN(d) || d < 0 || d > half+1 {
				t.Fatalf("antipodal distance for (%v,%v) = %v, want about %v", lat, lon, d, half)
			}
		}
	}
}

func TestCentralAngleClamps(t *testing.T) {
	if got := CentralAngle(1 + 1e-15); got != math.Pi {
		t.Fatalf("CentralAngle(>1) = %v, want pi", got)
	}
	if got := CentralAngle(-1e-18); got != 0 {
		t.Fatalf("CentralAngle(<0) = %v, want 0", got)
	}
}
