// Package wire defines the JSON/YAML form of requests and results exchanged
// with an out-of-process presentation layer (CLI, browser, WASI host).
//
// Complex numbers are written as {"re": x, "im": y}. Errors are written as a
// Diagnostic carrying the code, category and source position.
package wire

import (
	"context"
	"errors"

	"github.com/imagicomplex/imagicomplex/pkg/grid"
	"github.com/imagicomplex/imagicomplex/pkg/parser"
	"github.com/imagicomplex/imagicomplex/pkg/sampler"
	"github.com/imagicomplex/imagicomplex/pkg/session"
	"github.com/imagicomplex/imagicomplex/pkg/types"
)

// Complex is a complex number.
type Complex struct {
	Re float64 `json:"re" yaml:"re"`
	Im float64 `json:"im" yaml:"im"`
}

// ComplexOf converts c.
func ComplexOf(c complex128) Complex {
	return Complex{Re: real(c), Im: imag(c)}
}

// Value converts back to complex128.
func (c Complex) Value() complex128 {
	return complex(c.Re, c.Im)
}

// Diagnostic describes an error.
type Diagnostic struct {
	Code     string `json:"code,omitempty" yaml:"code,omitempty"`
	Category string `json:"category" yaml:"category"`
	Message  string `json:"message" yaml:"message"`
	Position *int   `json:"position,omitempty" yaml:"position,omitempty"`
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`
	Expected string `json:"expected,omitempty" yaml:"expected,omitempty"`
	Node     string `json:"node,omitempty" yaml:"node,omitempty"`
}

// DiagnosticOf converts err. Errors that are not *types.Error only carry a message.
func DiagnosticOf(err error) *Diagnostic {
	if err == nil {
		return nil
	}
	var te *types.Error
	if !errors.As(err, &te) {
		return &Diagnostic{Category: types.CategoryUnknown.String(), Message: err.Error()}
	}
	d := &Diagnostic{
		Code:     string(te.Code),
		Category: te.Category().String(),
		Message:  te.Message,
		Token:    te.Token,
		Expected: te.Expected,
	}
	if te.Position >= 0 {
		pos := te.Position
		d.Position = &pos
	}
	if te.Node != nil {
		d.Node = te.Node.String()
	}
	return d
}

// Sample is one evaluated point. Value is nil when the point is undefined.
type Sample struct {
	Position Complex     `json:"z" yaml:"z"`
	Value    *Complex    `json:"w,omitempty" yaml:"w,omitempty"`
	Error    *Diagnostic `json:"error,omitempty" yaml:"error,omitempty"`
}

// SampleOf converts p.
func SampleOf(p sampler.SamplePoint) Sample {
	s := Sample{Position: ComplexOf(p.Position)}
	if p.Defined() {
		v := ComplexOf(p.Value)
		s.Value = &v
	} else {
		s.Error = DiagnosticOf(p.Err)
	}
	return s
}

// Samples converts a slice of points.
func Samples(points []sampler.SamplePoint) []Sample {
	out := make([]Sample, len(points))
	for i, p := range points {
		out[i] = SampleOf(p)
	}
	return out
}

// Lattice is a sampled field, row-major from (MinX, MinY).
type Lattice struct {
	Region     types.Region `json:"region" yaml:"region"`
	Resolution float64      `json:"resolution" yaml:"resolution"`
	Cols       int          `json:"cols" yaml:"cols"`
	Rows       int          `json:"rows" yaml:"rows"`
	Undefined  int          `json:"undefined" yaml:"undefined"`
	Samples    []Sample     `json:"samples" yaml:"samples"`
}

// LatticeOf converts lat; nil stays nil.
func LatticeOf(lat *sampler.Lattice) *Lattice {
	if lat == nil {
		return nil
	}
	return &Lattice{
		Region:     lat.Region,
		Resolution: lat.Resolution,
		Cols:       lat.Cols,
		Rows:       lat.Rows,
		Undefined:  lat.Undefined(),
		Samples:    Samples(lat.Points),
	}
}

// Request asks for one render.
type Request struct {
	Expression string       `json:"expression" yaml:"expression"`
	Region     types.Region `json:"region" yaml:"region"`
	Resolution float64      `json:"resolution" yaml:"resolution"`
	Grids      []grid.Spec  `json:"grids,omitempty" yaml:"grids,omitempty"`
	Folding    bool         `json:"folding,omitempty" yaml:"folding,omitempty"`
}

// Response is the result of a Request. Error is set instead of the other
// fields when the request as a whole was rejected.
//
// A rejected grid only rejects itself: when any grid fails, Grids and
// GridErrors both line up with Request.Grids, holding nil primitives for
// the failed grids and nil diagnostics for the others.
type Response struct {
	Expression string             `json:"expression,omitempty" yaml:"expression,omitempty"`
	Lattice    *Lattice           `json:"lattice,omitempty" yaml:"lattice,omitempty"`
	Grids      [][]grid.Primitive `json:"grids,omitempty" yaml:"grids,omitempty"`
	GridErrors []*Diagnostic      `json:"gridErrors,omitempty" yaml:"grid_errors,omitempty"`
	Error      *Diagnostic        `json:"error,omitempty" yaml:"error,omitempty"`
}

// InvalidRequest is the response to a request that could not be decoded.
func InvalidRequest(err error) Response {
	return Response{Error: &Diagnostic{Category: "request", Message: "invalid request JSON: " + err.Error()}}
}

// Handle serves req on a fresh session.
func Handle(ctx context.Context, req Request, opts ...session.Option) Response {
	opts = append([]session.Option{session.WithCompileOptions(parser.WithFolding(req.Folding))}, opts...)
	s := session.New(opts...)

	if req.Expression != "" {
		if _, err := s.SetExpression(req.Expression); err != nil {
			return Response{Error: DiagnosticOf(err)}
		}
	}
	var (
		accepted   []int
		gridErrors []*Diagnostic
	)
	for i, spec := range req.Grids {
		if err := addGrid(s, spec); err != nil {
			if gridErrors == nil {
				gridErrors = make([]*Diagnostic, len(req.Grids))
			}
			gridErrors[i] = DiagnosticOf(err)
			continue
		}
		accepted = append(accepted, i)
	}

	frame, err := s.Render(ctx, req.Region, req.Resolution)
	if err != nil {
		return Response{Error: DiagnosticOf(err)}
	}

	resp := ResponseOf(frame)
	if gridErrors != nil {
		grids := make([][]grid.Primitive, len(req.Grids))
		for j, i := range accepted {
			grids[i] = frame.Grids[j]
		}
		resp.Grids = grids
		resp.GridErrors = gridErrors
	}
	return resp
}

func addGrid(s *session.Session, spec grid.Spec) error {
	cfg, err := spec.Config()
	if err != nil {
		return err
	}
	return s.AddGrid(cfg)
}

// ResponseOf converts a rendered frame.
func ResponseOf(frame *session.Frame) Response {
	r := Response{
		Lattice: LatticeOf(frame.Lattice),
		Grids:   frame.Grids,
	}
	if frame.Expression != nil {
		r.Expression = frame.Expression.Source()
	}
	return r
}
