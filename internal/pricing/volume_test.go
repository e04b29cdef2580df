package pricing

import (
	"errors"
	"math"
	"testing"

	"designstudio/internal/domain"
)

func TestParseDimensionsCubicFeet(t *testing.T) {
	dims, err := ParseDimensions("24", " 18 ", "36")
	if err != nil {
		t.Fatalf("ParseDimensions returned error: %v", err)
	}
	want := (24.0 / 12) * (18.0 / 12) * (36.0 / 12)
	if got := dims.CubicFeet(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("CubicFeet = %v, want %v", got, want)
	}
}

func TestParseDimensionsRejectsMissingOrInvalid(t *testing.T) {
	cases := []struct {
		name    string
		l, b, h          string
	}{
		{name: "empty length", l: "", b: "10", h: "10"},
		{name: "blank breadth", l: "10", b: "  ", h: "10"},
		{name: "non numeric", l: "10", b: "10", h: "tall"},
		{name: "zero", l: "0", b: "10", h: "10"},
		{name: "negative", l: "10", b: "-3", h: "10"},
		{name: "nan", l: "NaN", b: "10", h: "10"},
		{name: "inf", l: "10", b: "10", h: "+Inf"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDimensions(tc.l, tc.b, tc.h)
			if !errors.Is(err, domain.ErrInvalidDimensions) {
				t.Fatalf("err = %v, want ErrInvalidDimensions", err)
			}
		})
	}
}

func TestCubicFeetPositiveForPositiveInputs(t *testing.T) {
	for _, v := range [][3]float64{{0.1, 0.1, 0.1}, {1, 1, 1}, {12, 12, 12}, {96, 40, 30}, {500, 300, 200}} {
		dims, err := NewDimensions(v[0], v[1], v[2])
		if err != nil {
			t.Fatalf("NewDimensions(%v) error: %v", v, err)
		}
		cf := dims.CubicFeet()
		want := (v[0] / 12) * (v[1] / 12) * (v[2] / 12)
		if cf <= 0 || math.Abs(cf-want) > 1e-9 {
			t.Fatalf("CubicFeet(%v) = %v, want %v", v, cf, want)
		}
	}
}
