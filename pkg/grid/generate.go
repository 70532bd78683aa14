package grid

import (
	"math"

	"github.com/imagicomplex/imagicomplex/pkg/types"
)

// eps absorbs floating point error when counting multiples of a step.
const eps = 1e-9

// MaxPrimitives bounds the output of Generate and Points.
const MaxPrimitives = 1 << 20

// PrimitiveKind identifies a geometric primitive.
type PrimitiveKind string

const (
	PrimitiveLine   PrimitiveKind = "line"
	PrimitiveCircle PrimitiveKind = "circle"
	PrimitivePoint  PrimitiveKind = "point"
)

// Point is a position in the plane, X on the real axis and Y on the imaginary axis.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// PointOf converts a complex number to a Point.
func PointOf(c complex128) Point {
	return Point{X: real(c), Y: imag(c)}
}

// Complex converts the point back to a complex number.
func (p Point) Complex() complex128 {
	return complex(p.X, p.Y)
}

// Primitive is a line segment (From→To), a circle (centre From, Radius)
// or a single point (From).
type Primitive struct {
	Kind   PrimitiveKind `json:"kind" yaml:"kind"`
	From   Point         `json:"from" yaml:"from"`
	To     Point         `json:"to,omitzero" yaml:"to,omitempty"`
	Radius float64       `json:"radius,omitempty" yaml:"radius,omitempty"`
}

// Line returns a line primitive.
func Line(from, to Point) Primitive {
	return Primitive{Kind: PrimitiveLine, From: from, To: to}
}

// Circle returns a circle primitive centred on the origin.
func Circle(radius float64) Primitive {
	return Primitive{Kind: PrimitiveCircle, Radius: radius}
}

// Dot returns a point primitive.
func Dot(at Point) Primitive {
	return Primitive{Kind: PrimitivePoint, From: at}
}

// Generate returns the primitives of config over region.
//
//   - Square: vertical lines in ascending x, then horizontal lines in
//     ascending y, each spanning the region.
//   - RadialFixedAngle: circles in ascending radius, then spokes at
//     0, AngleStep, 2·AngleStep, … below 360°, clipped to the region.
//   - RadialApproxDistance: circles in ascending radius, then the subdivision
//     points of each circle that fall inside the region.
//
// Circles are emitted for radii k·RadiusIncrement (k ≥ 1) up to the region's
// bounding radius, skipping those that lie entirely closer to the origin than
// the region does. Spokes that miss the region are omitted.
func Generate(config Config, region types.Region) ([]Primitive, error) {
	if err := checkInputs(config, region); err != nil {
		return nil, err
	}

	switch c := config.(type) {
	case Square:
		return squareLines(c, region)
	case RadialFixedAngle:
		out, err := circles(c.RadiusIncrement, region)
		if err != nil {
			return nil, err
		}
		lines, err := spokes(c.AngleStep, region)
		if err != nil {
			return nil, err
		}
		if len(out)+len(lines) > MaxPrimitives {
			return nil, tooMany()
		}
		return append(out, lines...), nil
	case RadialApproxDistance:
		out, err := circles(c.RadiusIncrement, region)
		if err != nil {
			return nil, err
		}
		err = subdivisionPoints(c, region, func(p complex128) error {
			if len(out) >= MaxPrimitives {
				return tooMany()
			}
			out = append(out, Dot(PointOf(p)))
			return nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, unknownKind(config)
	}
}

// Points returns the sample positions of config over region: the square
// lattice (rows in ascending y, columns in ascending x), or the origin
// followed by the points of each circle in ascending radius and angle.
// Positions outside the region are dropped.
func Points(config Config, region types.Region) ([]complex128, error) {
	if err := checkInputs(config, region); err != nil {
		return nil, err
	}

	var out []complex128
	add := func(p complex128) error {
		if !region.Contains(p, eps) {
			return nil
		}
		if len(out) >= MaxPrimitives {
			return tooMany()
		}
		out = append(out, p)
		return nil
	}

	switch c := config.(type) {
	case Square:
		xs, err := multiples(c.Spacing, region.MinX, region.MaxX)
		if err != nil {
			return nil, err
		}
		ys, err := multiples(c.Spacing, region.MinY, region.MaxY)
		if err != nil {
			return nil, err
		}
		if len(xs)*len(ys) > MaxPrimitives {
			return nil, tooMany()
		}
		for _, y := range ys {
			for _, x := range xs {
				if err := add(complex(x, y)); err != nil {
					return nil, err
				}
			}
		}

	case RadialFixedAngle:
		if err := add(0); err != nil {
			return nil, err
		}
		rs, err := radii(c.RadiusIncrement, region)
		if err != nil {
			return nil, err
		}
		angles, err := spokeAngles(c.AngleStep)
		if err != nil {
			return nil, err
		}
		for _, r := range rs {
			for _, a := range angles {
				s, co := sincosDeg(a)
				if err := add(complex(r*co, r*s)); err != nil {
					return nil, err
				}
			}
		}

	case RadialApproxDistance:
		if err := add(0); err != nil {
			return nil, err
		}
		if err := subdivisionPoints(c, region, add); err != nil {
			return nil, err
		}

	default:
		return nil, unknownKind(config)
	}

	return out, nil
}

// SubdivisionCount returns the number of equal arcs a circle of radius r is
// split into so that each arc is approximately d long: round(2πr/d), at least 1.
// A count above MaxPrimitives is a TooManySamples error.
func SubdivisionCount(r, d float64) (int, error) {
	n := math.Round(2 * math.Pi * r / d)
	if !(n >= 1) {
		return 1, nil
	}
	if n > MaxPrimitives {
		return 0, types.NewConfigError(types.ErrTooManySamples,
			"circle of radius %g needs %.0f subdivisions, more than %d", r, n, MaxPrimitives)
	}
	return int(n), nil
}

func checkInputs(config Config, region types.Region) error {
	if config == nil {
		return types.NewConfigError(types.ErrUnknownGridKind, "grid config is nil")
	}
	if err := config.Validate(); err != nil {
		return err
	}
	return region.Validate()
}

func squareLines(c Square, region types.Region) ([]Primitive, error) {
	xs, err := multiples(c.Spacing, region.MinX, region.MaxX)
	if err != nil {
		return nil, err
	}
	ys, err := multiples(c.Spacing, region.MinY, region.MaxY)
	if err != nil {
		return nil, err
	}
	if len(xs)+len(ys) > MaxPrimitives {
		return nil, tooMany()
	}

	out := make([]Primitive, 0, len(xs)+len(ys))
	for _, x := range xs {
		out = append(out, Line(Point{X: x, Y: region.MinY}, Point{X: x, Y: region.MaxY}))
	}
	for _, y := range ys {
		out = append(out, Line(Point{X: region.MinX, Y: y}, Point{X: region.MaxX, Y: y}))
	}
	return out, nil
}

// multiples returns k·step for every integer k with lo ≤ k·step ≤ hi.
func multiples(step, lo, hi float64) ([]float64, error) {
	first := math.Ceil(lo/step - eps)
	last := math.Floor(hi/step + eps)
	if last < first {
		return nil, nil
	}
	if last-first+1 > MaxPrimitives {
		return nil, tooMany()
	}
	out := make([]float64, 0, int(last-first)+1)
	for k := first; k <= last; k++ {
		out = append(out, k*step)
	}
	return out, nil
}

// radii returns k·inc for k ≥ 1 up to the bounding radius of region,
// skipping radii below the region's distance from the origin.
func radii(inc float64, region types.Region) ([]float64, error) {
	outer := region.BoundingRadius()
	inner := region.InnerRadius()

	first := math.Max(1, math.Ceil(inner/inc-eps))
	last := math.Floor(outer/inc + eps)
	if last < first {
		return nil, nil
	}
	if last-first+1 > MaxPrimitives {
		return nil, tooMany()
	}
	out := make([]float64, 0, int(last-first)+1)
	for k := first; k <= last; k++ {
		out = append(out, k*inc)
	}
	return out, nil
}

func circles(inc float64, region types.Region) ([]Primitive, error) {
	rs, err := radii(inc, region)
	if err != nil {
		return nil, err
	}
	out := make([]Primitive, 0, len(rs))
	for _, r := range rs {
		out = append(out, Circle(r))
	}
	return out, nil
}

// spokeAngles returns 0, step, 2·step, … strictly below 360 degrees.
func spokeAngles(step float64) ([]float64, error) {
	n := math.Ceil(360/step - eps)
	if n > MaxPrimitives {
		return nil, tooMany()
	}
	out := make([]float64, 0, int(n))
	for k := 0; k < int(n); k++ {
		out = append(out, float64(k)*step)
	}
	return out, nil
}

func spokes(step float64, region types.Region) ([]Primitive, error) {
	angles, err := spokeAngles(step)
	if err != nil {
		return nil, err
	}
	reach := region.BoundingRadius()
	var out []Primitive
	for _, a := range angles {
		s, c := sincosDeg(a)
		from, to, ok := clip(0, complex(reach*c, reach*s), region)
		if !ok {
			continue
		}
		out = append(out, Line(PointOf(from), PointOf(to)))
	}
	return out, nil
}

// subdivisionPoints calls emit for every subdivision point of every circle
// that lies in region, in ascending radius then ascending angle starting at 0.
func subdivisionPoints(c RadialApproxDistance, region types.Region, emit func(complex128) error) error {
	rs, err := radii(c.RadiusIncrement, region)
	if err != nil {
		return err
	}
	for _, r := range rs {
		n, err := SubdivisionCount(r, c.ArcDistance)
		if err != nil {
			return err
		}
		lo, hi := arcRange(n, region)
		visit := func(from, to int) error {
			for j := from; j <= to; j++ {
				s, co := math.Sincos(2 * math.Pi * float64(j) / float64(n))
				p := complex(r*co, r*s)
				if !region.Contains(p, eps) {
					continue
				}
				if err := emit(p); err != nil {
					return err
				}
			}
			return nil
		}
		if hi >= n {
			// The arc wraps through angle 0.
			if err := visit(0, hi-n); err != nil {
				return err
			}
			hi = n - 1
		}
		if err := visit(lo, hi); err != nil {
			return err
		}
	}
	return nil
}

// arcRange returns the indices lo ≤ hi of the subdivision points of an
// n-point circle that can fall in region, with 0 ≤ lo < n and hi < lo+n.
// Indices from n on stand for j-n. A region that holds the origin sees the
// whole circle; any other region lies in a wedge narrower than 180° bounded
// by its corners.
func arcRange(n int, region types.Region) (lo, hi int) {
	if region.Contains(0, eps) {
		return 0, n - 1
	}

	mid := math.Atan2((region.MinY+region.MaxY)/2, (region.MinX+region.MaxX)/2)
	lowest, highest := math.Inf(1), math.Inf(-1)
	for _, corner := range [4][2]float64{
		{region.MinX, region.MinY},
		{region.MaxX, region.MinY},
		{region.MinX, region.MaxY},
		{region.MaxX, region.MaxY},
	} {
		a := math.Remainder(math.Atan2(corner[1], corner[0])-mid, 2*math.Pi)
		lowest = math.Min(lowest, a)
		highest = math.Max(highest, a)
	}

	step := 2 * math.Pi / float64(n)
	lo = int(math.Floor((mid + lowest) / step))
	hi = int(math.Ceil((mid + highest) / step))
	if hi-lo+1 >= n {
		return 0, n - 1
	}
	shift := lo - ((lo%n)+n)%n
	return lo - shift, hi - shift
}

// sincosDeg returns sin and cos of an angle in degrees, exact on multiples of 90°.
func sincosDeg(deg float64) (sin, cos float64) {
	if math.Mod(deg, 90) == 0 {
		switch int(math.Mod(deg, 360)) / 90 {
		case 0:
			return 0, 1
		case 1:
			return 1, 0
		case 2:
			return 0, -1
		default:
			return -1, 0
		}
	}
	return math.Sincos(deg * math.Pi / 180)
}

// clip clips the segment p0→p1 to region with the Liang–Barsky algorithm.
// A segment that only touches the region in a single point is dropped.
func clip(p0, p1 complex128, region types.Region) (complex128, complex128, bool) {
	dx, dy := real(p1)-real(p0), imag(p1)-imag(p0)
	t0, t1 := 0.0, 1.0

	edges := [4][2]float64{
		{-dx, real(p0) - region.MinX},
		{dx, region.MaxX - real(p0)},
		{-dy, imag(p0) - region.MinY},
		{dy, region.MaxY - imag(p0)},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			t0 = math.Max(t0, r)
		} else {
			t1 = math.Min(t1, r)
		}
		if t0 > t1 {
			return 0, 0, false
		}
	}
	if t0 == t1 {
		return 0, 0, false
	}

	d := complex(dx, dy)
	return p0 + complex(t0, 0)*d, p0 + complex(t1, 0)*d, true
}

func tooMany() error {
	return types.NewConfigError(types.ErrTooManySamples, "grid would produce more than %d primitives", MaxPrimitives)
}

func unknownKind(config Config) error {
	return types.NewConfigError(types.ErrUnknownGridKind, "unknown grid config %T", config)
}
