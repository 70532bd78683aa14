package sampler_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagicomplex/imagicomplex/pkg/evaluator"
	"github.com/imagicomplex/imagicomplex/pkg/grid"
	"github.com/imagicomplex/imagicomplex/pkg/parser"
	"github.com/imagicomplex/imagicomplex/pkg/sampler"
	"github.com/imagicomplex/imagicomplex/pkg/types"
)

func compile(t testing.TB, source string) *types.Expression {
	t.Helper()
	expr, err := parser.Parse(source)
	require.NoError(t, err)
	return expr
}

func TestDimensions(t *testing.T) {
	tests := []struct {
		name       string
		region     types.Region
		resolution float64
		cols, rows int
	}{
		{"unit spacing", types.SymmetricRegion(2, 2), 1, 5, 5},
		{"non dividing", types.Region{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}, 0.3, 4, 4},
		{"tenths", types.Region{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}, 0.1, 11, 11},
		{"wide", types.Region{MinX: -10, MaxX: 10, MinY: -1, MaxY: 1}, 0.5, 41, 5},
		{"coarser than region", types.Region{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}, 5, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, rows, err := sampler.Dimensions(tt.region, tt.resolution)
			require.NoError(t, err)
			assert.Equal(t, tt.cols, cols)
			assert.Equal(t, tt.rows, rows)
		})
	}
}

func TestDimensionsErrors(t *testing.T) {
	region := types.SymmetricRegion(1, 1)
	tests := []struct {
		name       string
		region     types.Region
		resolution float64
		code       types.ErrorCode
	}{
		{"zero resolution", region, 0, types.ErrInvalidResolution},
		{"negative resolution", region, -1, types.ErrInvalidResolution},
		{"nan resolution", region, math.NaN(), types.ErrInvalidResolution},
		{"infinite resolution", region, math.Inf(1), types.ErrInvalidResolution},
		{"empty region", types.Region{}, 1, types.ErrInvalidRegion},
		{"huge lattice", types.SymmetricRegion(1e6, 1e6), 1e-3, types.ErrTooManySamples},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := sampler.Dimensions(tt.region, tt.resolution)
			assert.True(t, types.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestSampleSingularity(t *testing.T) {
	for _, concurrent := range []bool{false, true} {
		s := sampler.New(sampler.WithConcurrency(concurrent))
		lat, err := s.Sample(context.Background(), compile(t, "1/z"), types.SymmetricRegion(2, 2), 1)
		require.NoError(t, err)

		assert.Equal(t, 5, lat.Cols)
		assert.Equal(t, 5, lat.Rows)
		require.Len(t, lat.Points, 25)
		assert.Equal(t, 1, lat.Undefined())
		assert.Equal(t, 24, lat.Defined())

		origin := lat.At(2, 2)
		assert.Equal(t, complex(0, 0), origin.Position)
		assert.False(t, origin.Defined())
		assert.True(t, types.IsCode(origin.Err, types.ErrDivisionByZero))

		one := lat.At(3, 2)
		assert.Equal(t, complex(1, 0), one.Position)
		assert.True(t, one.Defined())
		assert.Equal(t, complex(1, 0), one.Value)
	}
}

func TestSampleOrientation(t *testing.T) {
	s := sampler.New()
	lat, err := s.Sample(context.Background(), compile(t, "z"), types.SymmetricRegion(2, 2), 1)
	require.NoError(t, err)

	assert.Equal(t, complex(-2, -2), lat.At(0, 0).Position)
	assert.Equal(t, complex(2, -2), lat.At(4, 0).Position)
	assert.Equal(t, complex(-2, 2), lat.At(0, 4).Position)
	assert.Equal(t, complex(2, 2), lat.At(4, 4).Position)
	for _, p := range lat.Points {
		assert.Equal(t, p.Position, p.Value)
	}
}

func TestSampleConcurrencyMatchesSequential(t *testing.T) {
	expr := compile(t, "sin(z)/z + log(z) - 1/(z-1)")
	region := types.SymmetricRegion(3, 3)

	seq, err := sampler.New(sampler.WithConcurrency(false)).Sample(context.Background(), expr, region, 0.25)
	require.NoError(t, err)
	par, err := sampler.New(sampler.WithConcurrency(true), sampler.WithWorkers(4)).Sample(context.Background(), expr, region, 0.25)
	require.NoError(t, err)

	require.Len(t, par.Points, len(seq.Points))
	for i := range seq.Points {
		a, b := seq.Points[i], par.Points[i]
		assert.Equal(t, a.Position, b.Position)
		assert.Equal(t, a.Value, b.Value)
		assert.Equal(t, a.Defined(), b.Defined())
	}
	// The origin and z = 1 are singular.
	assert.Equal(t, 2, seq.Undefined())
}

func TestSampleErrors(t *testing.T) {
	ctx := context.Background()
	expr := compile(t, "z")
	region := types.SymmetricRegion(2, 2)

	_, err := sampler.New().Sample(ctx, nil, region, 1)
	assert.True(t, types.IsCode(err, types.ErrMissingExpression), "got %v", err)

	_, err = sampler.New(sampler.WithMaxPoints(10)).Sample(ctx, expr, region, 1)
	assert.True(t, types.IsCode(err, types.ErrTooManySamples), "got %v", err)

	_, err = sampler.New().Sample(ctx, expr, region, 0)
	assert.True(t, types.IsCode(err, types.ErrInvalidResolution), "got %v", err)
}

func TestSampleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, concurrent := range []bool{false, true} {
		s := sampler.New(sampler.WithConcurrency(concurrent))
		lat, err := s.Sample(ctx, compile(t, "z"), types.SymmetricRegion(2, 2), 0.5)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, lat)
	}
}

func TestSampleWithEvaluator(t *testing.T) {
	s := sampler.New(sampler.WithEvaluator(evaluator.New(evaluator.WithZeroTolerance(0.5))))
	lat, err := s.Sample(context.Background(), compile(t, "1/(z-0.25)"), types.SymmetricRegion(1, 1), 1)
	require.NoError(t, err)

	// |0 - 0.25| falls below the tolerance.
	assert.Equal(t, 1, lat.Undefined())
	assert.False(t, lat.At(1, 1).Defined())
}

func TestSamplePoints(t *testing.T) {
	pts, err := grid.Points(grid.RadialApproxDistance{RadiusIncrement: 0.5, ArcDistance: 0.1}, types.SymmetricRegion(5, 5))
	require.NoError(t, err)
	require.Greater(t, len(pts), 1000)

	expr := compile(t, "1/z")
	for _, concurrent := range []bool{false, true} {
		out, err := sampler.New(sampler.WithConcurrency(concurrent)).SamplePoints(context.Background(), expr, pts)
		require.NoError(t, err)
		require.Len(t, out, len(pts))

		// The origin comes first and is the only singular point.
		assert.False(t, out[0].Defined())
		for i, p := range out[1:] {
			assert.Equal(t, pts[i+1], p.Position)
			require.True(t, p.Defined())
			assert.Equal(t, 1/pts[i+1], p.Value)
		}
	}

	_, err = sampler.New(sampler.WithMaxPoints(10)).SamplePoints(context.Background(), expr, pts)
	assert.True(t, types.IsCode(err, types.ErrTooManySamples))

	_, err = sampler.New().SamplePoints(context.Background(), nil, pts)
	assert.True(t, types.IsCode(err, types.ErrMissingExpression))

	out, err := sampler.New().SamplePoints(context.Background(), expr, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func benchmarkSample(b *testing.B, concurrent bool) {
	expr := compile(b, "sin(z)/z + pow(z, 1+i) * exp(-z^2)")
	s := sampler.New(sampler.WithConcurrency(concurrent))
	region := types.SymmetricRegion(10, 10)

	b.ReportAllocs()
	for b.Loop() {
		if _, err := s.Sample(context.Background(), expr, region, 0.05); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSampleSequential(b *testing.B) { benchmarkSample(b, false) }
func BenchmarkSampleConcurrent(b *testing.B) { benchmarkSample(b, true) }
