// Package value models the tokens exchanged with the sorting service: each
// whitespace-separated token of a request is parsed into an Integer, a Float
// or a Text value, and values are ordered by an explicit policy.
package value

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Kind is the tag of a Value.
type Kind int

const (
	Integer Kind = iota // Exact integer, int64 or math/big beyond that range
	Float               // 64-bit floating point
	Text                // Anything that is neither an Integer nor a Float
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// Value is a tagged union of Integer, Float and Text. The zero Value is the
// Integer 0.
type Value struct {
	kind Kind
	i    int64
	b    *big.Int // set for Integers outside the int64 range
	f    float64
	s    string
}

// Int returns an Integer value.
func Int(i int64) Value {
	return Value{kind: Integer, i: i}
}

// BigInt returns an Integer value of arbitrary size. Values that fit in
// int64 are stored the same way Int stores them.
func BigInt(b *big.Int) Value {
	if b.IsInt64() {
		return Int(b.Int64())
	}
	return Value{kind: Integer, b: new(big.Int).Set(b)}
}

// Flt returns a Float value.
func Flt(f float64) Value {
	return Value{kind: Float, f: f}
}

// Str returns a Text value.
func Str(s string) Value {
	return Value{kind: Text, s: s}
}

// Kind returns the tag of v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNumeric reports whether v is an Integer or a Float.
func (v Value) IsNumeric() bool {
	return v.kind == Integer || v.kind == Float
}

// Int64 returns the integer payload; it is only meaningful for Integer
// values that fit in int64 (see IsBig).
func (v Value) Int64() int64 {
	return v.i
}

// IsBig reports whether v is an Integer outside the int64 range.
func (v Value) IsBig() bool {
	return v.b != nil
}

// BigInt returns a copy of the integer payload at full precision; it is only
// meaningful for Integer values.
func (v Value) BigInt() *big.Int {
	return new(big.Int).Set(v.bigInt())
}

func (v Value) bigInt() *big.Int {
	if v.b != nil {
		return v.b
	}
	return big.NewInt(v.i)
}

// Float64 returns the numeric payload as a float64. Integer values are
// converted; Text values return 0.
func (v Value) Float64() float64 {
	if v.kind == Integer {
		if v.b != nil {
			f, _ := new(big.Float).SetInt(v.b).Float64()
			return f
		}
		return float64(v.i)
	}

	return v.f
}

// Text returns the text payload; it is only meaningful for Text values.
func (v Value) Text() string {
	return v.s
}

// String returns the natural text form of v. Floats always carry a decimal
// point or an exponent so that they never read back as Integers.
func (v Value) String() string {
	switch v.kind {
	case Integer:
		if v.b != nil {
			return v.b.String()
		}
		return strconv.FormatInt(v.i, 10)
	case Float:
		return formatFloat(v.f)
	default:
		return v.s
	}
}

// formatFloat renders f in the shortest form that round-trips, switching to
// exponent notation outside [1e-4, 1e16).
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp := 0
	if idx := strings.IndexByte(sci, 'e'); idx >= 0 {
		exp, _ = strconv.Atoi(sci[idx+1:])
	}

	if f != 0 && (exp < -4 || exp >= 16) {
		return sci
	}

	out := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(out, ".e") {
		out += ".0"
	}

	return out
}

// Join renders values with their natural text form separated by single spaces.
func Join(values []Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}

	return strings.Join(parts, " ")
}
