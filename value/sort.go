package value

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/big"
	"slices"
	"strings"
)

// ErrIncomparable is returned when a sequence mixes Text with numeric values.
var ErrIncomparable = errors.New("value: unable to sort mixed incompatible types")

// Compare orders two values. Integers and Floats compare numerically with
// each other and Text compares by code point; any other pairing returns
// ErrIncomparable.
//
// Returns:
//   - -1, 0 or +1 when a sorts before, equal to, or after b
//   - ErrIncomparable when a and b cannot be ordered
func Compare(a, b Value) (int, error) {
	switch {
	case a.IsNumeric() && b.IsNumeric():
		return compareNumeric(a, b), nil
	case a.kind == Text && b.kind == Text:
		return strings.Compare(a.s, b.s), nil
	default:
		return 0, fmt.Errorf("%w: %s and %s", ErrIncomparable, a.kind, b.kind)
	}
}

// compareNumeric orders two numbers exactly, without rounding integers to
// float64. NaN sorts before every other number.
func compareNumeric(a, b Value) int {
	switch {
	case a.kind == Float && b.kind == Float:
		return cmp.Compare(a.f, b.f)
	case a.kind == Integer && b.kind == Integer:
		if a.b == nil && b.b == nil {
			return cmp.Compare(a.i, b.i)
		}
		return a.bigInt().Cmp(b.bigInt())
	case a.kind == Float && math.IsNaN(a.f):
		return -1
	case b.kind == Float && math.IsNaN(b.f):
		return 1
	default:
		return exact(a).Cmp(exact(b))
	}
}

// exact returns a numeric value as a big.Float with no rounding. NaN is not
// representable and must be handled by the caller.
func exact(v Value) *big.Float {
	if v.kind == Integer {
		return new(big.Float).SetInt(v.bigInt())
	}
	return new(big.Float).SetFloat64(v.f)
}

// Comparable reports whether every pair of values in the slice can be ordered.
func Comparable(values []Value) bool {
	text, numeric := false, false
	for _, v := range values {
		if v.kind == Text {
			text = true
		} else {
			numeric = true
		}

		if text && numeric {
			return false
		}
	}

	return true
}

// Sort returns a stably sorted copy of values, descending when reverse is
// set. When the values cannot be ordered, the input slice is returned
// unchanged together with ErrIncomparable so the caller can warn.
func Sort(values []Value, reverse bool) ([]Value, error) {
	if len(values) == 0 {
		return []Value{}, nil
	}

	if !Comparable(values) {
		return values, ErrIncomparable
	}

	sorted := slices.Clone(values)
	slices.SortStableFunc(sorted, func(a, b Value) int {
		c, _ := Compare(a, b)
		if reverse {
			return -c
		}

		return c
	})

	return sorted, nil
}

// IsSorted reports whether values are in order. Sequences of length 0 or 1
// are sorted; sequences that cannot be ordered are not.
func IsSorted(values []Value, reverse bool) bool {
	for i := 1; i < len(values); i++ {
		c, err := Compare(values[i-1], values[i])
		if err != nil {
			return false
		}

		if (!reverse && c > 0) || (reverse && c < 0) {
			return false
		}
	}

	return true
}
