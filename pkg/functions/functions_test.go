package functions_test

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagicomplex/imagicomplex/pkg/functions"
	"github.com/imagicomplex/imagicomplex/pkg/types"
)

const tolerance = 1e-12

var negZero = math.Copysign(0, -1)

func assertComplex(t *testing.T, want, got complex128) {
	t.Helper()
	assert.InDelta(t, real(want), real(got), tolerance, "real part of %v", got)
	assert.InDelta(t, imag(want), imag(got), tolerance, "imaginary part of %v", got)
}

func TestBuiltins(t *testing.T) {
	fns := functions.Builtins()
	assert.Same(t, fns, functions.Builtins())

	want := []string{"abs", "arg", "conj", "cos", "exp", "im", "log", "norm", "pow", "re", "sin", "sqrt", "tan"}
	assert.Equal(t, want, fns.Names())
	assert.Equal(t, len(want), fns.Len())

	names := fns.Names()
	names[0] = "mutated"
	assert.Equal(t, "abs", fns.Names()[0])

	for _, fn := range fns.All() {
		assert.NotEmpty(t, fn.Description, fn.Name)
		assert.NotNil(t, fn.Impl, fn.Name)
	}

	pow, ok := fns.Lookup("pow")
	require.True(t, ok)
	assert.Equal(t, 2, pow.Arity)

	sin, ok := fns.Lookup("sin")
	require.True(t, ok)
	assert.Equal(t, 1, sin.Arity)

	_, ok = fns.Lookup("Sin")
	assert.False(t, ok)
	_, ok = fns.Lookup("z")
	assert.False(t, ok)
}

func TestRegistryImpls(t *testing.T) {
	fns := functions.Builtins()
	tests := []struct {
		name string
		args []complex128
		want complex128
	}{
		{"sin", []complex128{0}, 0},
		{"cos", []complex128{0}, 1},
		{"tan", []complex128{0}, 0},
		{"exp", []complex128{complex(0, math.Pi)}, -1},
		{"log", []complex128{1}, 0},
		{"sqrt", []complex128{-9}, 3i},
		{"pow", []complex128{2, 10}, 1024},
		{"abs", []complex128{complex(3, 4)}, 5},
		{"norm", []complex128{complex(3, 4)}, 25},
		{"arg", []complex128{1i}, math.Pi / 2},
		{"conj", []complex128{complex(1, 2)}, complex(1, -2)},
		{"re", []complex128{complex(1, 2)}, 1},
		{"im", []complex128{complex(1, 2)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, ok := fns.Lookup(tt.name)
			require.True(t, ok)
			got, err := fn.Impl(tt.args)
			require.NoError(t, err)
			assertComplex(t, tt.want, got)
		})
	}
}

func TestPowExactIntegers(t *testing.T) {
	tests := []struct {
		a, b complex128
		want complex128
	}{
		{1i, 2, -1},
		{1i, 3, -1i},
		{1i, 4, 1},
		{2, 10, 1024},
		{2, -1, 0.5},
		{-2, 3, -8},
		{complex(1, 1), 2, 2i},
		{3, 0, 1},
		{1i, -1, -1i},
	}
	for _, tt := range tests {
		got, err := functions.Pow(tt.a, tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%v ^ %v", tt.a, tt.b)
	}
}

func TestPowPrincipal(t *testing.T) {
	got, err := functions.Pow(-1, 0.5)
	require.NoError(t, err)
	assertComplex(t, 1i, got)

	got, err = functions.Pow(-4, 0.5)
	require.NoError(t, err)
	assertComplex(t, 2i, got)

	// i^i = e^(-pi/2)
	got, err = functions.Pow(1i, 1i)
	require.NoError(t, err)
	assertComplex(t, complex(math.Exp(-math.Pi/2), 0), got)

	// Outside the exact range the principal value is used.
	got, err = functions.Pow(1, 5000)
	require.NoError(t, err)
	assertComplex(t, 1, got)
}

func TestPowZeroBase(t *testing.T) {
	tests := []struct {
		name    string
		b       complex128
		want    complex128
		wantErr bool
	}{
		{"zero exponent", 0, 1, false},
		{"positive integer", 3, 0, false},
		{"large positive integer", 5000, 0, false},
		{"negative integer", -1, 0, true},
		{"fraction", 0.5, 0, true},
		{"imaginary", 1i, 0, true},
		{"complex", complex(2, 1), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := functions.Pow(0, tt.b)
			if tt.wantErr {
				assert.True(t, types.IsCode(err, types.ErrComplexLogOfZero), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBranchCut(t *testing.T) {
	onCutBelow := complex(-1, negZero)

	l, err := functions.Log(-1)
	require.NoError(t, err)
	assertComplex(t, complex(0, math.Pi), l)

	l, err = functions.Log(onCutBelow)
	require.NoError(t, err)
	assertComplex(t, complex(0, math.Pi), l)

	s, err := functions.Sqrt(complex(-4, negZero))
	require.NoError(t, err)
	assert.Equal(t, complex(0, 2), s)

	assert.Equal(t, complex(math.Pi, 0), functions.Arg(onCutBelow))
	assert.Equal(t, complex(math.Pi, 0), functions.Arg(-1))
	assert.Equal(t, complex(0, 0), functions.Arg(0))

	// Just below the cut the argument approaches -pi.
	assert.InDelta(t, -math.Pi, real(functions.Arg(complex(-1, -1e-300))), tolerance)
}

func TestLogOfZero(t *testing.T) {
	_, err := functions.Log(0)
	require.Error(t, err)

	var te *types.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, types.ErrComplexLogOfZero, te.Code)
	assert.Equal(t, -1, te.Position)

	s, err := functions.Sqrt(0)
	require.NoError(t, err)
	assert.Equal(t, complex(0, 0), s)
}

func TestIdentities(t *testing.T) {
	points := []complex128{
		1, -1, 1i, -1i, complex(3, 4), complex(-2, 0.5), complex(0.1, -7), complex(-5, negZero),
	}
	for _, w := range points {
		s, err := functions.Sqrt(w)
		require.NoError(t, err)
		assertComplex(t, w, s*s)

		l, err := functions.Log(w)
		require.NoError(t, err)
		assertComplex(t, w, functions.Exp(l))
		assert.Greater(t, imag(l), -math.Pi)
		assert.LessOrEqual(t, imag(l), math.Pi)

		half, err := functions.Pow(w, 0.5)
		require.NoError(t, err)
		assertComplex(t, s, half)

		assert.InDelta(t, cmplx.Abs(w)*cmplx.Abs(w), real(functions.Norm(w)), 1e-9)
		assert.Equal(t, w, functions.Re(w)+functions.Im(w)*1i)
		assert.Equal(t, w, functions.Conj(functions.Conj(w)))
	}
}
