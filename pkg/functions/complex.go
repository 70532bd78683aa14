package functions

import (
	"math"
	"math/cmplx"

	"github.com/imagicomplex/imagicomplex/pkg/types"
)

// maxExactExponent bounds the integer exponents computed by repeated squaring.
const maxExactExponent = 1024

// Branch cuts
//
// Log, Sqrt, Arg and non-integer Pow all use the principal branch with the cut
// along the negative real axis: Im(Log(w)) lies in (-pi, pi]. A negative-zero
// imaginary part is treated as +0, so points on the cut take the value
// approached from above and Sqrt(w) == Exp(Log(w)/2) holds everywhere.

// onCut clears a negative-zero imaginary part.
func onCut(w complex128) complex128 {
	if imag(w) == 0 {
		return complex(real(w), 0)
	}
	return w
}

func Sin(w complex128) complex128 { return cmplx.Sin(w) }
func Cos(w complex128) complex128 { return cmplx.Cos(w) }
func Tan(w complex128) complex128 { return cmplx.Tan(w) }
func Exp(w complex128) complex128 { return cmplx.Exp(w) }

// Log returns the principal natural logarithm. Log(0) is an error.
func Log(w complex128) (complex128, error) {
	if w == 0 {
		return 0, types.NewError(types.ErrComplexLogOfZero, "logarithm of zero is undefined", -1)
	}
	return cmplx.Log(onCut(w)), nil
}

// Sqrt returns the principal square root. Sqrt(0) is 0.
func Sqrt(w complex128) (complex128, error) {
	return cmplx.Sqrt(onCut(w)), nil
}

// Pow returns the principal value of a^b.
//
// Real integer exponents up to 1024 in magnitude are computed exactly by
// repeated squaring, so i^2 is exactly -1. A zero base is only defined for
// non-negative integer exponents (0^0 == 1).
func Pow(a, b complex128) (complex128, error) {
	n, integral := integerExponent(b)

	if a == 0 {
		switch {
		case integral && n == 0:
			return 1, nil
		case integral && n > 0:
			return 0, nil
		case imag(b) == 0 && real(b) > 0 && real(b) == math.Trunc(real(b)):
			// integral but beyond the exact range
			return 0, nil
		default:
			return 0, types.NewError(types.ErrComplexLogOfZero,
				"zero raised to a negative or non-integer power is undefined", -1)
		}
	}

	if integral {
		if n < 0 {
			return 1 / intPow(a, -n), nil
		}
		return intPow(a, n), nil
	}

	l, err := Log(a)
	if err != nil {
		return 0, err
	}
	return cmplx.Exp(b * l), nil
}

// integerExponent reports whether b is a real integer small enough for intPow.
func integerExponent(b complex128) (int, bool) {
	if imag(b) != 0 {
		return 0, false
	}
	r := real(b)
	if r != math.Trunc(r) || math.Abs(r) > maxExactExponent {
		return 0, false
	}
	return int(r), true
}

func intPow(a complex128, n int) complex128 {
	result := complex(1, 0)
	for n > 0 {
		if n&1 == 1 {
			result *= a
		}
		a *= a
		n >>= 1
	}
	return result
}

func Abs(w complex128) complex128 { return complex(cmplx.Abs(w), 0) }

// Norm returns |w|^2.
func Norm(w complex128) complex128 {
	return complex(real(w)*real(w)+imag(w)*imag(w), 0)
}

// Arg returns the principal argument in (-pi, pi]. Arg(0) is 0.
func Arg(w complex128) complex128 { return complex(cmplx.Phase(onCut(w)), 0) }

func Conj(w complex128) complex128 { return cmplx.Conj(w) }
func Re(w complex128) complex128   { return complex(real(w), 0) }
func Im(w complex128) complex128   { return complex(imag(w), 0) }
