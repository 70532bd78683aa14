// Package grid generates reference grids over a region of the complex plane.
//
// Three grid kinds exist:
//   - Square: axis-aligned lines at integer multiples of a spacing.
//   - RadialFixedAngle: concentric circles plus spokes from the origin every
//     AngleStep degrees.
//   - RadialApproxDistance: concentric circles, each subdivided so that
//     adjacent points are roughly ArcDistance apart along the arc.
//
// Every function in this package is a pure function of its arguments.
package grid

import (
	"fmt"
	"math"

	"github.com/imagicomplex/imagicomplex/pkg/types"
)

// Kind names a grid variant.
type Kind string

const (
	KindSquare         Kind = "square"
	KindRadialAngle    Kind = "radial-angle"
	KindRadialDistance Kind = "radial-distance"
)

// Config is one of Square, RadialFixedAngle or RadialApproxDistance.
type Config interface {
	// Kind returns the variant name.
	Kind() Kind
	// Validate reports non-positive or out-of-range parameters.
	Validate() error

	sealed()
}

// Square is a Cartesian grid with lines every Spacing units.
type Square struct {
	Spacing float64
}

// RadialFixedAngle is a polar grid with circles every RadiusIncrement and a
// spoke every AngleStep degrees. When AngleStep does not divide 360 the last
// sector is a partial wedge narrower than AngleStep.
type RadialFixedAngle struct {
	RadiusIncrement float64
	AngleStep       float64 // degrees, in (0, 360]
}

// RadialApproxDistance is a polar grid with circles every RadiusIncrement,
// each split into SubdivisionCount(r, ArcDistance) equal arcs.
type RadialApproxDistance struct {
	RadiusIncrement float64
	ArcDistance     float64
}

func (Square) Kind() Kind               { return KindSquare }
func (RadialFixedAngle) Kind() Kind     { return KindRadialAngle }
func (RadialApproxDistance) Kind() Kind { return KindRadialDistance }

func (Square) sealed()               {}
func (RadialFixedAngle) sealed()     {}
func (RadialApproxDistance) sealed() {}

// Validate implements Config.
func (c Square) Validate() error {
	return positive("spacing", c.Spacing)
}

// Validate implements Config.
func (c RadialFixedAngle) Validate() error {
	if err := positive("radius increment", c.RadiusIncrement); err != nil {
		return err
	}
	if !(c.AngleStep > 0 && c.AngleStep <= 360) {
		return types.NewConfigError(types.ErrAngleOutOfRange, "angle step must be in (0, 360] degrees, got %v", c.AngleStep)
	}
	return nil
}

// Validate implements Config.
func (c RadialApproxDistance) Validate() error {
	if err := positive("radius increment", c.RadiusIncrement); err != nil {
		return err
	}
	return positive("arc distance", c.ArcDistance)
}

// NewSquare returns a validated Square grid.
func NewSquare(spacing float64) (Square, error) {
	c := Square{Spacing: spacing}
	return c, c.Validate()
}

// NewRadialFixedAngle returns a validated RadialFixedAngle grid.
func NewRadialFixedAngle(radiusIncrement, angleStep float64) (RadialFixedAngle, error) {
	c := RadialFixedAngle{RadiusIncrement: radiusIncrement, AngleStep: angleStep}
	return c, c.Validate()
}

// NewRadialApproxDistance returns a validated RadialApproxDistance grid.
func NewRadialApproxDistance(radiusIncrement, arcDistance float64) (RadialApproxDistance, error) {
	c := RadialApproxDistance{RadiusIncrement: radiusIncrement, ArcDistance: arcDistance}
	return c, c.Validate()
}

func positive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return types.NewConfigError(types.ErrNonPositiveValue, "%s must be a positive finite number, got %v", name, v)
	}
	return nil
}

// String renders the config in the form accepted by ParseSpec.
func (c Square) String() string { return fmt.Sprintf("%s:%g", KindSquare, c.Spacing) }

func (c RadialFixedAngle) String() string {
	return fmt.Sprintf("%s:%g,%g", KindRadialAngle, c.RadiusIncrement, c.AngleStep)
}

func (c RadialApproxDistance) String() string {
	return fmt.Sprintf("%s:%g,%g", KindRadialDistance, c.RadiusIncrement, c.ArcDistance)
}
