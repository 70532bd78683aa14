package grid

import (
	"strconv"
	"strings"

	"github.com/imagicomplex/imagicomplex/pkg/types"
)

// Spec is the serialisable form of a Config, used in configuration files,
// CLI flags and WASM requests. Only the fields of Kind are read.
type Spec struct {
	Kind            Kind    `json:"kind" yaml:"kind" toml:"kind"`
	Spacing         float64 `json:"spacing,omitempty" yaml:"spacing,omitempty" toml:"spacing,omitempty"`
	RadiusIncrement float64 `json:"radiusIncrement,omitempty" yaml:"radius_increment,omitempty" toml:"radius_increment,omitempty"`
	Angle           float64 `json:"angle,omitempty" yaml:"angle,omitempty" toml:"angle,omitempty"`
	ArcDistance     float64 `json:"arcDistance,omitempty" yaml:"arc_distance,omitempty" toml:"arc_distance,omitempty"`
}

// Config builds and validates the grid described by s.
func (s Spec) Config() (Config, error) {
	switch s.Kind {
	case KindSquare:
		return NewSquare(s.Spacing)
	case KindRadialAngle:
		return NewRadialFixedAngle(s.RadiusIncrement, s.Angle)
	case KindRadialDistance:
		return NewRadialApproxDistance(s.RadiusIncrement, s.ArcDistance)
	default:
		return nil, types.NewConfigError(types.ErrUnknownGridKind,
			"unknown grid kind %q (want %s, %s or %s)", s.Kind, KindSquare, KindRadialAngle, KindRadialDistance)
	}
}

// SpecOf returns the serialisable form of c.
func SpecOf(c Config) Spec {
	switch c := c.(type) {
	case Square:
		return Spec{Kind: KindSquare, Spacing: c.Spacing}
	case RadialFixedAngle:
		return Spec{Kind: KindRadialAngle, RadiusIncrement: c.RadiusIncrement, Angle: c.AngleStep}
	case RadialApproxDistance:
		return Spec{Kind: KindRadialDistance, RadiusIncrement: c.RadiusIncrement, ArcDistance: c.ArcDistance}
	default:
		return Spec{}
	}
}

// ParseSpec parses the compact form "kind:a[,b]":
//
//	square:1
//	radial-angle:1,45
//	radial-distance:1,0.5
func ParseSpec(s string) (Spec, error) {
	kind, params, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Spec{}, types.NewConfigError(types.ErrInvalidConfigValue, "grid %q: expected kind:parameters", s)
	}

	var values []float64
	for _, field := range strings.Split(params, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return Spec{}, types.NewConfigError(types.ErrInvalidConfigValue, "grid %q: invalid number %q", s, field).WithCause(err)
		}
		values = append(values, v)
	}

	spec := Spec{Kind: Kind(strings.TrimSpace(kind))}
	want := 2
	switch spec.Kind {
	case KindSquare:
		want = 1
	case KindRadialAngle, KindRadialDistance:
	default:
		_, err := spec.Config()
		return Spec{}, err
	}
	if len(values) != want {
		return Spec{}, types.NewConfigError(types.ErrInvalidConfigValue, "grid %q: expected %d parameters, got %d", s, want, len(values))
	}

	switch spec.Kind {
	case KindSquare:
		spec.Spacing = values[0]
	case KindRadialAngle:
		spec.RadiusIncrement, spec.Angle = values[0], values[1]
	case KindRadialDistance:
		spec.RadiusIncrement, spec.ArcDistance = values[0], values[1]
	}
	return spec, nil
}
