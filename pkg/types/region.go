package types

import "math"

// Region is an axis-aligned rectangle of the complex plane,
// [MinX, MaxX] on the real axis and [MinY, MaxY] on the imaginary axis.
type Region struct {
	MinX float64 `json:"minX" yaml:"min_x" toml:"min_x"`
	MaxX float64 `json:"maxX" yaml:"max_x" toml:"max_x"`
	MinY float64 `json:"minY" yaml:"min_y" toml:"min_y"`
	MaxY float64 `json:"maxY" yaml:"max_y" toml:"max_y"`
}

// SymmetricRegion returns [-maxX, maxX] x [-maxY, maxY].
func SymmetricRegion(maxX, maxY float64) Region {
	return Region{MinX: -maxX, MaxX: maxX, MinY: -maxY, MaxY: maxY}
}

// Validate checks that all bounds are finite and each axis has positive extent.
func (r Region) Validate() error {
	for _, v := range [...]float64{r.MinX, r.MaxX, r.MinY, r.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewConfigError(ErrInvalidRegion, "region bounds must be finite, got %+v", r)
		}
	}
	if r.MinX >= r.MaxX || r.MinY >= r.MaxY {
		return NewConfigError(ErrInvalidRegion, "region must have positive width and height, got %+v", r)
	}
	return nil
}

// Width returns the extent along the real axis.
func (r Region) Width() float64 {
	return r.MaxX - r.MinX
}

// Height returns the extent along the imaginary axis.
func (r Region) Height() float64 {
	return r.MaxY - r.MinY
}

// Contains reports whether p lies inside the closed rectangle, allowing eps slack.
func (r Region) Contains(p complex128, eps float64) bool {
	x, y := real(p), imag(p)
	return x >= r.MinX-eps && x <= r.MaxX+eps && y >= r.MinY-eps && y <= r.MaxY+eps
}

// BoundingRadius returns the largest distance from the origin to a point of the region.
func (r Region) BoundingRadius() float64 {
	return math.Hypot(math.Max(math.Abs(r.MinX), math.Abs(r.MaxX)), math.Max(math.Abs(r.MinY), math.Abs(r.MaxY)))
}

// InnerRadius returns the smallest distance from the origin to a point of the
// region; zero when the region contains the origin.
func (r Region) InnerRadius() float64 {
	return math.Hypot(axisGap(r.MinX, r.MaxX), axisGap(r.MinY, r.MaxY))
}

func axisGap(lo, hi float64) float64 {
	switch {
	case lo > 0:
		return lo
	case hi < 0:
		return -hi
	default:
		return 0
	}
}
