package geo

import (
	"errors"
	"testing"

	"github.com/objmap/mapcore/pkg/core"
)

func TestFromXZ_RoundTrip(t *testing.T) {
	p := core.XZ{X: -1021.5, Z: 1792.25}

	got := ToXZ(FromXZ(p))

	if got != p {
		t.Errorf("expected %v, got %v", p, got)
	}
}

func TestFromXZ_FlipsZ(t *testing.T) {
	ll := FromXZ(core.XZ{X: 100, Z: 200})

	if ll.Lat != -200 {
		t.Errorf("expected Lat=-200, got %f", ll.Lat)
	}
	if ll.Lng != 100 {
		t.Errorf("expected Lng=100, got %f", ll.Lng)
	}
}

func TestIsValidPoint(t *testing.T) {
	tests := []struct {
		name string
		p    core.XZ
		want bool
	}{
		{"origin", core.XZ{X: 0, Z: 0}, true},
		{"north-west corner", core.XZ{X: -5000, Z: -4000}, true},
		{"east edge excluded", core.XZ{X: 5000, Z: 0}, false},
		{"far south", core.XZ{X: 0, Z: 4500}, false},
		{"far west", core.XZ{X: -6000, Z: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidPoint(tt.p); got != tt.want {
				t.Errorf("IsValidPoint(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestPointToMapUnit(t *testing.T) {
	tests := []struct {
		p    core.XZ
		want string
	}{
		{core.XZ{X: -5000, Z: -4000}, "A-1"},
		{core.XZ{X: 4999, Z: 3999}, "J-8"},
		{core.XZ{X: -965, Z: 1875}, "E-6"},
		{core.XZ{X: 0, Z: 0}, "F-5"},
	}
	for _, tt := range tests {
		got, err := PointToMapUnit(tt.p)
		if err != nil {
			t.Fatalf("unexpected error for %v: %v", tt.p, err)
		}
		if got != tt.want {
			t.Errorf("PointToMapUnit(%v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestPointToMapUnit_OutsideField(t *testing.T) {
	_, err := PointToMapUnit(core.XZ{X: 9000, Z: 0})

	if !errors.Is(err, ErrOutsideField) {
		t.Errorf("expected ErrOutsideField, got %v", err)
	}
}

func TestParseXZ_TwoComponents(t *testing.T) {
	p, err := ParseXZ("100.5, -200.25")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.X != 100.5 || p.Z != -200.25 {
		t.Errorf("expected (100.5,-200.25), got %v", p)
	}
}

func TestParseXZ_ThreeComponentsDropsHeight(t *testing.T) {
	p, err := ParseXZ("100,350,200")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.X != 100 || p.Z != 200 {
		t.Errorf("expected (100,200), got %v", p)
	}
}

func TestParseXZ_Invalid(t *testing.T) {
	for _, input := range []string{"", "100", "abc,200", "100,xyz", "1,2,3,4"} {
		_, err := ParseXZ(input)
		if !errors.Is(err, ErrInvalidCoordinates) {
			t.Errorf("ParseXZ(%q): expected ErrInvalidCoordinates, got %v", input, err)
		}
	}
}

func TestClampZoom(t *testing.T) {
	if got := ClampZoom(0); got != MinZoom {
		t.Errorf("expected %d, got %d", MinZoom, got)
	}
	if got := ClampZoom(10); got != MaxZoom {
		t.Errorf("expected %d, got %d", MaxZoom, got)
	}
	if got := ClampZoom(5); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
}
