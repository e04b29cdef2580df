package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"designstudio/internal/domain"
)

const inchesPerFoot = 12.0

// Dimensions holds validated length, breadth and height in inches.
type Dimensions struct {
	LengthIn  float64 `json:"length_in"`
	BreadthIn float64 `json:"breadth_in"`
	HeightIn  float64 `json:"height_in"`
}

// ParseDimensions validates the three user-entered inch values. All three
// must be present and positive; there is no partial result.
func ParseDimensions(length, breadth, height string) (Dimensions, error) {
	l, err := parseInches("length", length)
	if err != nil {
		return Dimensions{}, err
	}
	b, err := parseInches("breadth", breadth)
	if err != nil {
		return Dimensions{}, err
	}
	h, err := parseInches("height", height)
	if err != nil {
		return Dimensions{}, err
	}
	return Dimensions{LengthIn: l, BreadthIn: b, HeightIn: h}, nil
}

// NewDimensions validates already-numeric inch values.
func NewDimensions(length, breadth, height float64) (Dimensions, error) {
	for _, f := range []struct {
		name string
		v    float64
	}{{"length", length}, {"breadth", breadth}, {"height", height}} {
		if err := checkInches(f.name, f.v); err != nil {
			return Dimensions{}, err
		}
	}
	return Dimensions{LengthIn: length, BreadthIn: breadth, HeightIn: height}, nil
}

// CubicFeet converts each side to feet and returns their product.
func (d Dimensions) CubicFeet() float64 {
	return (d.LengthIn / inchesPerFoot) * (d.BreadthIn / inchesPerFoot) * (d.HeightIn / inchesPerFoot)
}

func parseInches(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidDimensions, field)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", domain.ErrInvalidDimensions, field, raw)
	}
	if err := checkInches(field, v); err != nil {
		return 0, err
	}
	return v, nil
}

func checkInches(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidDimensions, field)
	}
	return nil
}
